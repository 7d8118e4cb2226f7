// internal/services/minted_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type MintedService struct {
	db *gorm.DB
}

type RecordMintRequest struct {
	TokenID         string  `json:"tokenId" validate:"required,max=78"`
	ContractAddress string  `json:"contractAddress" validate:"required,eth_address"`
	Wallet          string  `json:"wallet" validate:"required,eth_address"`
	BaseNFT         string  `json:"baseNFT" validate:"required,eth_address"`
	BaseTokenID     string  `json:"baseTokenId" validate:"required,max=78"`
	Name            string  `json:"name" validate:"required,max=255"`
	Description     *string `json:"description" validate:"required"`
	ImageURL        string  `json:"imageURL" validate:"required,url"`
	MetadataURL     string  `json:"metadataURL" validate:"required,url"`
	TransactionHash string  `json:"transactionHash" validate:"required,max=66"`
	BlockNumber     *uint64 `json:"blockNumber,omitempty"`
}

type MintedSearchParams struct {
	utils.PaginationParams
	Wallet   string
	Contract string
}

func NewMintedService(db *gorm.DB) *MintedService {
	return &MintedService{db: db}
}

func (s *MintedService) RecordMint(ctx context.Context, req *RecordMintRequest) (*models.MintedNFT, error) {
	req.Name = utils.SanitizeText(req.Name)
	if req.Description != nil {
		description := utils.SanitizeText(*req.Description)
		req.Description = &description
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}

	db := s.db.WithContext(ctx)
	contract := utils.NormalizeAddress(req.ContractAddress)

	var existing int64
	err := db.Model(&models.MintedNFT{}).
		Where("token_id = ? AND contract_address = ?", req.TokenID, contract).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check minted NFT: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("token %s on %s: %w", req.TokenID, contract, ErrConflict)
	}

	minted := &models.MintedNFT{
		TokenID:         req.TokenID,
		ContractAddress: contract,
		Wallet:          utils.NormalizeAddress(req.Wallet),
		BaseNFT:         utils.NormalizeAddress(req.BaseNFT),
		BaseTokenID:     req.BaseTokenID,
		Name:            req.Name,
		Description:     *req.Description,
		ImageURL:        req.ImageURL,
		MetadataURL:     req.MetadataURL,
		TransactionHash: req.TransactionHash,
		BlockNumber:     req.BlockNumber,
	}

	if err := db.Create(minted).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("token %s on %s: %w", req.TokenID, contract, ErrConflict)
		}
		return nil, fmt.Errorf("failed to record minted NFT: %w", err)
	}

	return minted, nil
}

func (s *MintedService) ListMinted(ctx context.Context, params MintedSearchParams) ([]models.MintedNFT, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.MintedNFT{})

	if params.Wallet != "" {
		query = query.Where("wallet = ?", utils.NormalizeAddress(params.Wallet))
	}
	if params.Contract != "" {
		query = query.Where("contract_address = ?", utils.NormalizeAddress(params.Contract))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count minted NFTs: %w", err)
	}

	minted := []models.MintedNFT{}
	err := utils.ApplyPagination(query, params.PaginationParams).
		Order("minted_at DESC").Order("id").
		Find(&minted).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list minted NFTs: %w", err)
	}

	return minted, total, nil
}
