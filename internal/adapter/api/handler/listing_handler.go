package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/usecase"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/response"
	"souqbalady/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

type createListingRequest struct {
	ProductType      string  `json:"product_type" validate:"required,oneof=vegetables fruits vegetable fruit"`
	ProductName      string  `json:"product_name" validate:"required,max=100"`
	Quantity         float64 `json:"quantity" validate:"gt=0"`
	Unit             string  `json:"unit" validate:"required,oneof=kg ton"`
	PricePerUnit     float64 `json:"price_per_unit" validate:"gt=0"`
	DeliveryLocation string  `json:"delivery_location" validate:"required,max=200"`
	DeliveryDate     string  `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	Country          string  `json:"country" validate:"omitempty,max=100"`
	Governorate      string  `json:"governorate" validate:"omitempty,max=100"`
	Region           string  `json:"region" validate:"omitempty,max=100"`
}

type submitOfferRequest struct {
	Quantity         float64 `json:"quantity" validate:"gt=0"`
	PricePerUnit     float64 `json:"price_per_unit" validate:"gt=0"`
	DeliveryDate     string  `json:"delivery_date" validate:"required,datetime=2006-01-02"`
	DeliveryLocation string  `json:"delivery_location" validate:"required,max=200"`
	Message          string  `json:"message" validate:"omitempty,max=1000"`
}

type respondOfferRequest struct {
	Decision string `json:"decision" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}
	kind, err := listingKind(c)
	if err != nil {
		return fail(c, err)
	}

	// CreateListing enforces this too; checking here first gives a wrong-role
	// caller 403 whatever the body holds.
	if !session.Role().CanCreate(kind) {
		return fail(c, errors.Forbidden(fmt.Sprintf("A %s account cannot create a %s", session.Role(), kind), nil))
	}

	var req createListingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), session, kind, usecase.CreateListingInput{
		ProductType:      req.ProductType,
		ProductName:      req.ProductName,
		Quantity:         req.Quantity,
		Unit:             req.Unit,
		PricePerUnit:     req.PricePerUnit,
		DeliveryLocation: req.DeliveryLocation,
		DeliveryDate:     req.DeliveryDate,
		Country:          req.Country,
		Governorate:      req.Governorate,
		Region:           req.Region,
	})
	if err != nil {
		return fail(c, err)
	}

	return response.Created(c, listing)
}

// ListListings serves the market feed. ?mine=true lists the caller's own
// listings in every status.
func (h *ListingHandler) ListListings(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}
	kind, err := listingKind(c)
	if err != nil {
		return fail(c, err)
	}

	mine, _ := strconv.ParseBool(c.QueryParam("mine"))
	listings, err := h.listingUseCase.ListListings(c.Request().Context(), session, kind, usecase.ListingQuery{
		Mine:     mine,
		Role:     c.QueryParam("role"),
		Category: c.QueryParam("category"),
		Status:   c.QueryParam("status"),
		Limit:    utils.GetLimit(c),
	})
	if err != nil {
		return fail(c, err)
	}

	return response.List(c, listings, len(listings))
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}
	kind, err := listingKind(c)
	if err != nil {
		return fail(c, err)
	}

	listing, err := h.listingUseCase.GetListing(c.Request().Context(), session, kind, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) UpdateStatus(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}
	kind, err := listingKind(c)
	if err != nil {
		return fail(c, err)
	}

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	listing, err := h.listingUseCase.UpdateListingStatus(c.Request().Context(), session, kind, c.Param("id"), entity.ListingStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) SubmitOffer(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}
	kind, err := listingKind(c)
	if err != nil {
		return fail(c, err)
	}

	var req submitOfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	offer, err := h.listingUseCase.SubmitOffer(c.Request().Context(), session, kind, c.Param("id"), usecase.SubmitOfferInput{
		Quantity:         req.Quantity,
		PricePerUnit:     req.PricePerUnit,
		DeliveryDate:     req.DeliveryDate,
		DeliveryLocation: req.DeliveryLocation,
		Message:          req.Message,
	})
	if err != nil {
		return fail(c, err)
	}

	return response.Created(c, offer)
}

func (h *ListingHandler) RespondToOffer(c echo.Context) error {
	session, err := currentSession(c)
	if err != nil {
		return fail(c, err)
	}
	kind, err := listingKind(c)
	if err != nil {
		return fail(c, err)
	}

	var req respondOfferRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	decision, ok := usecase.ParseOfferDecision(req.Decision)
	if !ok {
		return fail(c, errors.Validation("decision must be accepted or rejected"))
	}

	listing, err := h.listingUseCase.RespondToOffer(c.Request().Context(), session, kind, c.Param("id"), c.Param("offerId"), decision)
	if err != nil {
		return fail(c, err)
	}

	return response.Success(c, listing)
}
