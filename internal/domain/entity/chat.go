package entity

import (
	"sort"
	"strings"
	"time"
)

type Conversation struct {
	ID               string            `json:"id" firestore:"-"`
	Participants     []string          `json:"participants" firestore:"participants"`
	ParticipantNames map[string]string `json:"participant_names" firestore:"participantNames"`
	ListingID        string            `json:"listing_id,omitempty" firestore:"listingId"`
	ListingKind      ListingKind       `json:"listing_kind,omitempty" firestore:"listingKind,omitempty"`
	LastMessage      string            `json:"last_message" firestore:"lastMessage"`
	LastMessageTime  time.Time         `json:"last_message_time" firestore:"lastMessageTime"`
	LastSenderID     string            `json:"last_sender_id" firestore:"lastSenderId"`
	CreatedAt        time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time         `json:"updated_at" firestore:"updatedAt"`
}

func (c *Conversation) HasParticipant(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not uid.
func (c *Conversation) OtherParticipant(uid string) string {
	for _, p := range c.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}

// ConversationKey is the document id of the conversation between two users
// about one listing. It does not depend on who starts the conversation.
func ConversationKey(userA, userB string, kind ListingKind, listingID string) string {
	users := []string{userA, userB}
	sort.Strings(users)

	if listingID == "" {
		return strings.Join(append(users, "direct"), "_")
	}
	return strings.Join(append(users, string(kind), listingID), "_")
}
