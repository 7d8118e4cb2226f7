// internal/models/draft.go
package models

import (
	"gorm.io/datatypes"
)

// DerivativeDraft is a saved, not-yet-minted AI derivative of a base NFT.
type DerivativeDraft struct {
	BaseModel
	Wallet      string            `json:"wallet" gorm:"size:42;not null;index"`
	BaseNFT     string            `json:"baseNFT" gorm:"size:42;not null"`
	BaseTokenID string            `json:"baseTokenId" gorm:"size:78;not null"`
	ImageURL    string            `json:"imageURL" gorm:"type:text;not null"`
	MetadataURL string            `json:"metadataURL,omitempty" gorm:"type:text"`
	Prompt      string            `json:"prompt" gorm:"type:text;not null"`
	Name        string            `json:"name" gorm:"size:255;not null"`
	Description string            `json:"description" gorm:"type:text;not null"`
	Metadata    datatypes.JSONMap `json:"metadata"`
}
