package handler

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/usecase"
	"souqbalady/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	UserType string `json:"user_type" validate:"required,oneof=farmer trader factory"`
	profileRequest
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	profile, err := h.authUseCase.Register(c.Request().Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     entity.Role(req.UserType),
		Profile:  req.toInput(),
	})
	if err != nil {
		return fail(c, err)
	}

	return response.Created(c, profile)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	result, err := h.authUseCase.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, result)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.authUseCase.Logout(c.Request().Context(), session); err != nil {
		return fail(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Successfully logged out",
	})
}

// Me returns the caller's identity and profile.
func (h *AuthHandler) Me(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"uid":            session.UID,
		"user_type":      session.Role(),
		"display_name":   session.DisplayName(),
		"profile":        session.Profile,
		"missing_fields": session.Profile.MissingFields(),
	})
}

func (h *AuthHandler) PasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	if err := h.authUseCase.SendPasswordReset(c.Request().Context(), req.Email); err != nil {
		return fail(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "If the email is registered, a reset link has been sent",
	})
}
