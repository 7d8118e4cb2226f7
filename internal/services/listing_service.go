// internal/services/listing_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/database"
	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type ListingService struct {
	db *gorm.DB
}

type CreateListingRequest struct {
	ListingID       string  `json:"listingId" validate:"required,max=128"`
	NFTContract     string  `json:"nftContract" validate:"required,eth_address"`
	TokenID         string  `json:"tokenId" validate:"required,max=78"`
	Seller          string  `json:"seller" validate:"required,eth_address"`
	Price           string  `json:"price" validate:"required,uint_string"`
	BaseNFTAddress  *string `json:"baseNFTAddress,omitempty" validate:"omitempty,eth_address"`
	BaseTokenID     *string `json:"baseTokenId,omitempty" validate:"omitempty,max=78"`
	TransactionHash *string `json:"transactionHash,omitempty" validate:"omitempty,max=66"`
}

// UpdateListingRequest is a partial update; nil fields are left untouched.
type UpdateListingRequest struct {
	Active *bool   `json:"active,omitempty"`
	Buyer  *string `json:"buyer,omitempty" validate:"omitempty,eth_address"`
	SoldAt *string `json:"soldAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type ListingSearchParams struct {
	utils.PaginationParams
	Seller string
	Active *bool
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{db: db}
}

// ListListings returns the matching listings and the total before paging.
func (s *ListingService) ListListings(ctx context.Context, params ListingSearchParams) ([]models.MarketplaceListing, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.MarketplaceListing{})

	if params.Seller != "" {
		query = query.Where("seller = ?", utils.NormalizeAddress(params.Seller))
	}
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	listings := []models.MarketplaceListing{}
	err := utils.ApplyPagination(query, params.PaginationParams).
		Order("listed_at DESC").Order("id").
		Find(&listings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, total, nil
}

func (s *ListingService) CreateListing(ctx context.Context, req *CreateListingRequest) (*models.MarketplaceListing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.MarketplaceListing{}).Where("listing_id = ?", req.ListingID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check listing: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("listing %s: %w", req.ListingID, ErrConflict)
	}

	price, _ := utils.ParseUintString(req.Price)
	listing := &models.MarketplaceListing{
		ListingID:       req.ListingID,
		NFTContract:     utils.NormalizeAddress(req.NFTContract),
		TokenID:         req.TokenID,
		Seller:          utils.NormalizeAddress(req.Seller),
		Price:           price,
		Active:          true,
		BaseNFTAddress:  utils.NormalizeOptionalAddress(req.BaseNFTAddress),
		BaseTokenID:     req.BaseTokenID,
		TransactionHash: req.TransactionHash,
	}

	if err := db.Create(listing).Error; err != nil {
		// A concurrent insert can still beat the pre-check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("listing %s: %w", req.ListingID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, listingID string) (*models.MarketplaceListing, error) {
	return findListing(s.db.WithContext(ctx), listingID)
}

func (s *ListingService) UpdateListing(ctx context.Context, listingID string, req *UpdateListingRequest) (*models.MarketplaceListing, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}

	updates := map[string]interface{}{}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.Buyer != nil {
		updates["buyer"] = utils.NormalizeAddress(*req.Buyer)
	}
	if req.SoldAt != nil {
		soldAt, err := time.Parse(time.RFC3339, *req.SoldAt)
		if err != nil {
			return nil, fmt.Errorf("%w: soldAt %q", ErrInvalidInput, *req.SoldAt)
		}
		updates["sold_at"] = soldAt.UTC()
	}

	var listing *models.MarketplaceListing
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		found, err := findListing(tx, listingID)
		if err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(found).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update listing: %w", err)
			}
		}

		listing, err = findListing(tx, listingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

func findListing(db *gorm.DB, listingID string) (*models.MarketplaceListing, error) {
	var listing models.MarketplaceListing
	if err := db.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("listing %s: %w", listingID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return &listing, nil
}
