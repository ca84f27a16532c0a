package router

import (
	"github.com/labstack/echo/v4"

	"souqbalady/internal/adapter/api/handler"
	"souqbalady/internal/adapter/api/middleware"
)

// SetupListingRouter mounts sell orders and buy requests under
// /v1/listings/:kind, where kind is sell-orders or buy-requests.
func SetupListingRouter(e *echo.Echo, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware) {
	listings := e.Group("/v1/listings/:kind")
	listings.Use(authMiddleware.Authenticate)
	listings.Use(middleware.MarketRoleOnly)

	listings.POST("", listingHandler.CreateListing)
	listings.GET("", listingHandler.ListListings)
	listings.GET("/:id", listingHandler.GetListing)
	listings.PATCH("/:id/status", listingHandler.UpdateStatus)

	// Offers
	listings.POST("/:id/offers", listingHandler.SubmitOffer)
	listings.POST("/:id/offers/:offerId/respond", listingHandler.RespondToOffer)
}
