// internal/handlers/drafts.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type DraftHandler struct {
	draftService *services.DraftService
}

func NewDraftHandler(draftService *services.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

var draftErrors = errorKeys{
	invalid:  i18n.KeyValidationAddress,
	notFound: i18n.KeyDraftNotFound,
}

// GET /api/drafts/:wallet
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	drafts, err := h.draftService.ListDrafts(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondServiceError(c, err, draftErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"drafts": drafts})
}

// DELETE /api/drafts/:wallet?id=
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	draftID := c.Query("id")
	if draftID == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationDraftID), nil)
		return
	}

	if err := h.draftService.DeleteDraft(c.Request.Context(), c.Param("wallet"), draftID); err != nil {
		respondServiceError(c, err, draftErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyDraftDeleted)})
}

// POST /api/drafts/save
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	var req services.SaveDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.draftService.SaveDraft(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, draftErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{"draft": draft})
}
