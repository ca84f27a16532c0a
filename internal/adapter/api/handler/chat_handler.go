package handler

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/usecase"
	"souqbalady/pkg/response"
)

type ChatHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewChatHandler(messagingUseCase *usecase.MessagingUseCase) *ChatHandler {
	return &ChatHandler{
		messagingUseCase: messagingUseCase,
	}
}

type startConversationRequest struct {
	RecipientID    string `json:"recipient_id" validate:"required"`
	ListingID      string `json:"listing_id"`
	ListingKind    string `json:"listing_kind" validate:"required_with=ListingID"`
	InitialMessage string `json:"initial_message" validate:"omitempty,max=2000"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *ChatHandler) StartConversation(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	var req startConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	conversation, err := h.messagingUseCase.StartConversation(c.Request().Context(), session, usecase.StartConversationInput{
		RecipientID:    req.RecipientID,
		ListingID:      req.ListingID,
		ListingKind:    req.ListingKind,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return fail(c, err)
	}

	return response.Created(c, conversation)
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	conversations, err := h.messagingUseCase.ListConversations(c.Request().Context(), session)
	if err != nil {
		return fail(c, err)
	}

	return response.List(c, conversations, len(conversations))
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	messages, err := h.messagingUseCase.ListMessages(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	return response.List(c, messages, len(messages))
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), session, c.Param("id"), req.Content)
	if err != nil {
		return fail(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkAsRead(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	marked, err := h.messagingUseCase.MarkConversationRead(c.Request().Context(), session, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, map[string]int{"marked": marked})
}
