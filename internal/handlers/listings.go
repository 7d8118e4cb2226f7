// internal/handlers/listings.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type ListingHandler struct {
	listingService *services.ListingService
}

func NewListingHandler(listingService *services.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

var listingErrors = errorKeys{
	notFound: i18n.KeyListingNotFound,
	conflict: i18n.KeyListingExists,
}

// GET /api/marketplace/listings
func (h *ListingHandler) ListListings(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ListingSearchParams{
		PaginationParams: params,
		Seller:           c.Query("seller"),
	}

	// Anything other than the literal strings leaves the filter off
	switch c.Query("active") {
	case "true":
		active := true
		searchParams.Active = &active
	case "false":
		active := false
		searchParams.Active = &active
	}

	listings, total, err := h.listingService.ListListings(c.Request.Context(), searchParams)
	if err != nil {
		respondServiceError(c, err, listingErrors)
		return
	}

	utils.PaginatedResponse(c, gin.H{"listings": listings}, utils.CreatePaginationResult(total, params))
}

// POST /api/marketplace/listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req services.CreateListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, listingErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}

// GET /api/marketplace/listings/:listingId
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingService.GetListing(c.Request.Context(), c.Param("listingId"))
	if err != nil {
		respondServiceError(c, err, listingErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}

// PATCH /api/marketplace/listings/:listingId
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	var req services.UpdateListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listingService.UpdateListing(c.Request.Context(), c.Param("listingId"), &req)
	if err != nil {
		respondServiceError(c, err, listingErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"listing": listing})
}
