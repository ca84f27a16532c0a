package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/internal/domain/service"
	"souqbalady/pkg/errors"
)

func cloneListing(l *entity.Listing) *entity.Listing {
	c := *l
	c.Offers = append([]entity.Offer{}, l.Offers...)
	return &c
}

// memListingRepo serialises Update calls the way a store transaction would.
type memListingRepo struct {
	mu       sync.Mutex
	seq      int
	listings map[string]*entity.Listing
	failList error
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{listings: map[string]*entity.Listing{}}
}

func (r *memListingRepo) key(kind entity.ListingKind, id string) string {
	return kind.Collection() + "/" + id
}

func (r *memListingRepo) Create(ctx context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	listing.ID = fmt.Sprintf("listing-%d", r.seq)
	r.listings[r.key(listing.Kind, listing.ID)] = cloneListing(listing)
	return nil
}

func (r *memListingRepo) GetByID(ctx context.Context, kind entity.ListingKind, id string) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[r.key(kind, id)]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return cloneListing(l), nil
}

func (r *memListingRepo) List(ctx context.Context, kind entity.ListingKind, f repository.ListingFilter) ([]*entity.Listing, error) {
	if r.failList != nil {
		return nil, r.failList
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*entity.Listing{}
	for _, l := range r.listings {
		switch {
		case l.Kind != kind,
			f.OwnerID != "" && l.UserID != f.OwnerID,
			f.OwnerRole != "" && l.UserType != f.OwnerRole,
			f.Category != "" && l.ProductType != f.Category,
			f.Status != "" && l.Status != f.Status,
			!f.CreatedFrom.IsZero() && l.CreatedAt.Before(f.CreatedFrom),
			!f.CreatedTo.IsZero() && !l.CreatedAt.Before(f.CreatedTo):
			continue
		}
		out = append(out, cloneListing(l))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memListingRepo) Update(ctx context.Context, kind entity.ListingKind, id string, fn repository.ListingMutation) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.listings[r.key(kind, id)]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}

	working := cloneListing(stored)
	if err := fn(working); err != nil {
		return nil, err
	}
	r.listings[r.key(kind, id)] = working
	return cloneListing(working), nil
}

func (r *memListingRepo) put(l *entity.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[r.key(l.Kind, l.ID)] = cloneListing(l)
}

type memProfileRepo struct {
	mu        sync.Mutex
	profiles  map[string]*entity.Profile
	failWrite error
}

func newMemProfileRepo(profiles ...*entity.Profile) *memProfileRepo {
	r := &memProfileRepo{profiles: map[string]*entity.Profile{}}
	for _, p := range profiles {
		r.profiles[p.UID] = p
	}
	return r
}

func (r *memProfileRepo) Create(ctx context.Context, profile *entity.Profile) error {
	if r.failWrite != nil {
		return r.failWrite
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *profile
	r.profiles[profile.UID] = &c
	return nil
}

func (r *memProfileRepo) GetByID(ctx context.Context, uid string) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[uid]
	if !ok {
		return nil, errors.NotFound("Profile", nil)
	}
	c := *p
	return &c, nil
}

func (r *memProfileRepo) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if r.failWrite != nil {
		return r.failWrite
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[uid]
	if !ok {
		p = &entity.Profile{UID: uid}
		r.profiles[uid] = p
	}
	for k, v := range fields {
		switch k {
		case "profileCompleted":
			p.ProfileCompleted = v.(bool)
		case "nationalIdFrontImage":
			p.NationalIDFrontImage = v.(string)
		case "nationalIdBackImage":
			p.NationalIDBackImage = v.(string)
		case "commercialRegisterImage":
			p.CommercialRegisterImage = v.(string)
		default:
			setProfileField(p, k, v.(string))
		}
	}
	return nil
}

type memConversationRepo struct {
	mu            sync.Mutex
	creates       int
	conversations map[string]*entity.Conversation
	messages      []*entity.Message
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{conversations: map[string]*entity.Conversation{}}
}

func (r *memConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[c.ID]; ok {
		return errors.Conflict("Conversation already exists")
	}
	r.creates++
	cp := *c
	r.conversations[c.ID] = &cp
	return nil
}

func (r *memConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	cp := *c
	return &cp, nil
}

func (r *memConversationRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Conversation{}
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (r *memConversationRepo) AppendMessage(ctx context.Context, m *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[m.ConversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	m.ID = fmt.Sprintf("msg-%d", len(r.messages)+1)
	cp := *m
	r.messages = append(r.messages, &cp)
	c.LastMessage = m.Content
	c.LastMessageTime = m.Timestamp
	c.LastSenderID = m.SenderID
	return nil
}

func (r *memConversationRepo) ListMessages(ctx context.Context, conversationID string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Message{}
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memConversationRepo) MarkRead(ctx context.Context, conversationID, readerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

type fakeAuth struct {
	mu         sync.Mutex
	users      map[string]string
	tokens     map[string]string
	revoked    map[string]bool
	deleted    []string
	createErr  error
	signInErr  error
	resetEmail string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:   map[string]string{},
		tokens:  map[string]string{},
		revoked: map[string]bool{},
	}
}

func (f *fakeAuth) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid := "uid-" + email
	f.users[email] = uid
	return uid, nil
}

func (f *fakeAuth) DeleteUser(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeAuth) VerifyToken(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.tokens[token]
	if !ok || f.revoked[uid] {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}
	return uid, nil
}

func (f *fakeAuth) RevokeRefreshTokens(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[uid] = true
	return nil
}

func (f *fakeAuth) SignInWithEmailPassword(ctx context.Context, email, password string) (*entity.AuthTokens, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.users[email]
	if !ok {
		return nil, errors.Unauthorized("Invalid email or password", nil)
	}
	token := "token-" + uid
	f.tokens[token] = uid
	return &entity.AuthTokens{UID: uid, IDToken: token, RefreshToken: "refresh-" + uid, ExpiresIn: 3600}, nil
}

func (f *fakeAuth) SendPasswordResetEmail(ctx context.Context, email string) error {
	f.resetEmail = email
	return nil
}

type sentNotification struct {
	userID string
	n      service.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, userID string, n service.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID: userID, n: n})
	return r.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.MarketEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e service.MarketEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []service.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]service.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type denyLimiter struct{}

func (denyLimiter) Allow(key, action string) (bool, time.Duration) {
	return false, 30 * time.Second
}

type memFiles struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []string
	err       error
	deleteErr error
}

func (m *memFiles) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("https://storage.googleapis.com/test-bucket/%s/doc-%d", folder, len(m.uploaded)+1)
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

func (m *memFiles) DeleteFile(ctx context.Context, fileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fileURL)
	return m.deleteErr
}

func (m *memFiles) Close() error { return nil }

func farmerSession(uid string) *entity.Session {
	return &entity.Session{UID: uid, Profile: &entity.Profile{UID: uid, UserType: entity.RoleFarmer, Name: "Farmer " + uid, Email: uid + "@example.com"}}
}

func traderSession(uid string) *entity.Session {
	return &entity.Session{UID: uid, Profile: &entity.Profile{UID: uid, UserType: entity.RoleTrader, ShopName: "Shop " + uid, Email: uid + "@example.com"}}
}

func factorySession(uid string) *entity.Session {
	return &entity.Session{UID: uid, Profile: &entity.Profile{UID: uid, UserType: entity.RoleFactory, CompanyName: "Factory " + uid, Email: uid + "@example.com"}}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
