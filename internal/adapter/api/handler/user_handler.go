package handler

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/usecase"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
	"souqbalady/pkg/response"
)

type UserHandler struct {
	profileUseCase *usecase.ProfileUseCase
}

func NewUserHandler(profileUseCase *usecase.ProfileUseCase) *UserHandler {
	return &UserHandler{
		profileUseCase: profileUseCase,
	}
}

type profileRequest struct {
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	Country     string `json:"country" validate:"omitempty,max=100"`
	Governorate string `json:"governorate" validate:"omitempty,max=100"`
	Region      string `json:"region" validate:"omitempty,max=100"`

	Name       string `json:"name" validate:"omitempty,max=100"`
	NationalID string `json:"national_id" validate:"omitempty,max=20"`
	Address    string `json:"address" validate:"omitempty,max=200"`

	ShopName    string `json:"shop_name" validate:"omitempty,max=100"`
	ShopAddress string `json:"shop_address" validate:"omitempty,max=200"`
	TaxNumber   string `json:"tax_number" validate:"omitempty,max=30"`

	CompanyName    string `json:"company_name" validate:"omitempty,max=100"`
	CompanyAddress string `json:"company_address" validate:"omitempty,max=200"`
}

func (r profileRequest) toInput() usecase.ProfileInput {
	return usecase.ProfileInput{
		Phone:          r.Phone,
		Country:        r.Country,
		Governorate:    r.Governorate,
		Region:         r.Region,
		Name:           r.Name,
		NationalID:     r.NationalID,
		Address:        r.Address,
		ShopName:       r.ShopName,
		ShopAddress:    r.ShopAddress,
		TaxNumber:      r.TaxNumber,
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
	}
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	profile, err := h.profileUseCase.GetProfile(c.Request().Context(), session)
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, profile)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	profile, err := h.profileUseCase.UpdateProfile(c.Request().Context(), session, req.toInput())
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, profile)
}

// UploadDocument accepts a multipart "file" field for one of the identity
// or registration documents.
func (h *UserHandler) UploadDocument(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, errors.Validation("file is required"))
	}
	logger.Debug("Received document %s from %s: %d bytes, %s", file.Filename, session.UID, file.Size, file.Header.Get("Content-Type"))

	src, err := file.Open()
	if err != nil {
		return fail(c, errors.BadRequest("Failed to read uploaded file", err))
	}
	defer src.Close()

	profile, err := h.profileUseCase.UploadDocument(
		c.Request().Context(),
		session,
		entity.DocumentType(c.Param("type")),
		file.Header.Get("Content-Type"),
		file.Size,
		src,
	)
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, profile)
}

func (h *UserHandler) GetPublicProfile(c echo.Context) error {
	profile, err := h.profileUseCase.GetPublicProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, profile)
}
