// internal/handlers/ipfs.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type IPFSHandler struct {
	ipfsService   *services.IPFSService
	draftService  *services.DraftService
	uploadOptions services.UploadOptions
}

func NewIPFSHandler(ipfsService *services.IPFSService, draftService *services.DraftService, maxImageSizeMB int) *IPFSHandler {
	return &IPFSHandler{
		ipfsService:   ipfsService,
		draftService:  draftService,
		uploadOptions: services.DerivativeUploadOptions(maxImageSizeMB),
	}
}

var ipfsErrors = errorKeys{
	notFound: i18n.KeyDraftNotFound,
	upstream: i18n.KeyIPFSUploadFailed,
}

// POST /api/ipfs/derivative
//
// Pins the image at imageUrl and its metadata. With wallet and draftId the
// pinned metadata URL is also recorded on that draft.
func (h *IPFSHandler) UploadDerivative(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.UploadDerivativeRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()

	if req.DraftID != "" && req.Wallet == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationWallet), nil)
		return
	}

	var draft *models.DerivativeDraft
	if req.DraftID != "" {
		found, err := h.draftService.GetDraft(ctx, req.Wallet, req.DraftID)
		if err != nil {
			respondServiceError(c, err, ipfsErrors)
			return
		}
		draft = found
	}

	result, err := h.ipfsService.UploadDerivative(ctx, &req)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	if draft != nil {
		if err := h.draftService.AttachMetadataURL(ctx, draft, result.Metadata.URL); err != nil {
			respondServiceError(c, err, ipfsErrors)
			return
		}
	}

	utils.SuccessResponse(c, gin.H{
		"image":    result.Image,
		"metadata": result.Metadata,
		"document": result.Document,
	})
}

// POST /api/ipfs/image (multipart field "file")
func (h *IPFSHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationFile), nil)
		return
	}
	defer file.Close()

	if h.uploadOptions.MaxSize > 0 && header.Size > h.uploadOptions.MaxSize {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationFileSize), nil)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationFile), err.Error())
		return
	}

	if err := h.uploadOptions.Validate(header.Filename, data); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationFile), err.Error())
		return
	}

	result, err := h.ipfsService.UploadImage(c.Request.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"image": result})
}

// POST /api/ipfs/metadata
func (h *IPFSHandler) UploadMetadata(c *gin.Context) {
	var metadata services.DerivativeMetadata
	if !bindJSON(c, &metadata) {
		return
	}

	metadata.Name = utils.SanitizeText(metadata.Name)
	metadata.Description = utils.SanitizeText(metadata.Description)

	result, err := h.ipfsService.UploadMetadata(c.Request.Context(), &metadata)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"metadata": result})
}

func (h *IPFSHandler) respondUploadError(c *gin.Context, err error) {
	keys := ipfsErrors
	switch {
	case errors.Is(err, services.ErrRestrictedAddress):
		keys.invalid = i18n.KeyValidationImageURL
	case errors.Is(err, services.ErrImageDownload):
		keys.upstream = i18n.KeyIPFSDownloadFailed
	}
	respondServiceError(c, err, keys)
}
