// internal/models/minted_nft.go
package models

import (
	"time"
)

// MintedNFT mirrors an on-chain mint of a derivative token.
type MintedNFT struct {
	BaseModel
	TokenID         string    `json:"tokenId" gorm:"size:78;not null;uniqueIndex:idx_minted_token_contract,priority:1"`
	ContractAddress string    `json:"contractAddress" gorm:"size:42;not null;uniqueIndex:idx_minted_token_contract,priority:2;index"`
	Wallet          string    `json:"wallet" gorm:"size:42;not null;index"`
	BaseNFT         string    `json:"baseNFT" gorm:"size:42;not null"`
	BaseTokenID     string    `json:"baseTokenId" gorm:"size:78;not null"`
	Name            string    `json:"name" gorm:"size:255;not null"`
	Description     string    `json:"description" gorm:"type:text"`
	ImageURL        string    `json:"imageURL" gorm:"type:text;not null"`
	MetadataURL     string    `json:"metadataURL" gorm:"type:text;not null"`
	TransactionHash string    `json:"transactionHash" gorm:"size:66;not null"`
	BlockNumber     *uint64   `json:"blockNumber,omitempty"`
	MintedAt        time.Time `json:"mintedAt" gorm:"autoCreateTime;index"`
}
