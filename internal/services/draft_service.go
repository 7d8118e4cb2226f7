// internal/services/draft_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type DraftService struct {
	db *gorm.DB
}

type SaveDraftRequest struct {
	Wallet      string                 `json:"wallet" validate:"required,eth_address"`
	BaseNFT     string                 `json:"baseNFT" validate:"required,eth_address"`
	BaseTokenID string                 `json:"baseTokenId" validate:"required,max=78"`
	ImageURL    string                 `json:"imageURL" validate:"required,url"`
	MetadataURL string                 `json:"metadataURL,omitempty" validate:"omitempty,url"`
	Prompt      string                 `json:"prompt" validate:"required"`
	Name        string                 `json:"name" validate:"required,max=255"`
	Description string                 `json:"description" validate:"required"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func NewDraftService(db *gorm.DB) *DraftService {
	return &DraftService{db: db}
}

func (s *DraftService) ListDrafts(ctx context.Context, wallet string) ([]models.DerivativeDraft, error) {
	if !utils.IsValidAddress(wallet) {
		return nil, fmt.Errorf("%w: wallet %q", ErrInvalidInput, wallet)
	}

	drafts := []models.DerivativeDraft{}
	err := s.db.WithContext(ctx).
		Where("wallet = ?", utils.NormalizeAddress(wallet)).
		Order("created_at DESC").Order("id").
		Find(&drafts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	return drafts, nil
}

func (s *DraftService) SaveDraft(ctx context.Context, req *SaveDraftRequest) (*models.DerivativeDraft, error) {
	// Strip markup first so "<b></b>" cannot pass the required check
	req.Prompt = utils.SanitizeText(req.Prompt)
	req.Name = utils.SanitizeText(req.Name)
	req.Description = utils.SanitizeText(req.Description)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	draft := &models.DerivativeDraft{
		Wallet:      utils.NormalizeAddress(req.Wallet),
		BaseNFT:     utils.NormalizeAddress(req.BaseNFT),
		BaseTokenID: req.BaseTokenID,
		ImageURL:    req.ImageURL,
		MetadataURL: req.MetadataURL,
		Prompt:      req.Prompt,
		Name:        req.Name,
		Description: req.Description,
		Metadata:    datatypes.JSONMap(metadata),
	}

	if err := s.db.WithContext(ctx).Create(draft).Error; err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	return draft, nil
}

// DeleteDraft removes a draft only when it belongs to wallet. A draft owned by
// someone else is reported exactly like a missing one.
func (s *DraftService) DeleteDraft(ctx context.Context, wallet, draftID string) error {
	if !utils.IsValidAddress(wallet) {
		return fmt.Errorf("%w: wallet %q", ErrInvalidInput, wallet)
	}

	id, err := uuid.Parse(draftID)
	if err != nil {
		return fmt.Errorf("%w: draft id %q", ErrInvalidInput, draftID)
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND wallet = ?", id, utils.NormalizeAddress(wallet)).
		Delete(&models.DerivativeDraft{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("draft %s: %w", draftID, ErrNotFound)
	}

	return nil
}

// GetDraft is used by the IPFS flow to pin a saved draft.
func (s *DraftService) GetDraft(ctx context.Context, wallet, draftID string) (*models.DerivativeDraft, error) {
	id, err := uuid.Parse(draftID)
	if err != nil {
		return nil, fmt.Errorf("%w: draft id %q", ErrInvalidInput, draftID)
	}

	var draft models.DerivativeDraft
	err = s.db.WithContext(ctx).
		Where("id = ? AND wallet = ?", id, utils.NormalizeAddress(wallet)).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("draft %s: %w", draftID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	return &draft, nil
}

// AttachMetadataURL records where a draft's metadata was pinned.
func (s *DraftService) AttachMetadataURL(ctx context.Context, draft *models.DerivativeDraft, metadataURL string) error {
	err := s.db.WithContext(ctx).Model(draft).Update("metadata_url", metadataURL).Error
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return nil
}
