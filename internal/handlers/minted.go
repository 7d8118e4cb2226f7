// internal/handlers/minted.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type MintedHandler struct {
	mintedService *services.MintedService
}

func NewMintedHandler(mintedService *services.MintedService) *MintedHandler {
	return &MintedHandler{mintedService: mintedService}
}

var mintedErrors = errorKeys{
	conflict: i18n.KeyMintedExists,
}

// POST /api/nfts/minted
func (h *MintedHandler) RecordMint(c *gin.Context) {
	var req services.RecordMintRequest
	if !bindJSON(c, &req) {
		return
	}

	minted, err := h.mintedService.RecordMint(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, mintedErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"mintedNFT": minted})
}

// GET /api/nfts/minted
func (h *MintedHandler) ListMinted(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	minted, total, err := h.mintedService.ListMinted(c.Request.Context(), services.MintedSearchParams{
		PaginationParams: params,
		Wallet:           c.Query("wallet"),
		Contract:         c.Query("contract"),
	})
	if err != nil {
		respondServiceError(c, err, mintedErrors)
		return
	}

	utils.PaginatedResponse(c, gin.H{"mintedNFTs": minted}, utils.CreatePaginationResult(total, params))
}
