// internal/models/listing.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const weiDecimals = 18

type MarketplaceListing struct {
	BaseModel
	ListingID       string     `json:"listingId" gorm:"size:128;not null;uniqueIndex"`
	NFTContract     string     `json:"nftContract" gorm:"size:42;not null;index"`
	TokenID         string     `json:"tokenId" gorm:"size:78;not null"`
	Seller          string     `json:"seller" gorm:"size:42;not null;index"`
	Price           string     `json:"price" gorm:"size:78;not null"`
	Active          bool       `json:"active" gorm:"not null;default:true;index"`
	BaseNFTAddress  *string    `json:"baseNFTAddress,omitempty" gorm:"size:42"`
	BaseTokenID     *string    `json:"baseTokenId,omitempty" gorm:"size:78"`
	TransactionHash *string    `json:"transactionHash,omitempty" gorm:"size:66"`
	ListedAt        time.Time  `json:"listedAt" gorm:"autoCreateTime;index"`
	Buyer           *string    `json:"buyer,omitempty" gorm:"size:42"`
	SoldAt          *time.Time `json:"soldAt,omitempty"`

	PriceEth string `json:"priceEth" gorm:"-"`
}

func (l *MarketplaceListing) AfterFind(tx *gorm.DB) error {
	l.PriceEth = FormatEther(l.Price)
	return nil
}

func (l *MarketplaceListing) AfterSave(tx *gorm.DB) error {
	l.PriceEth = FormatEther(l.Price)
	return nil
}

// FormatEther renders a wei amount in ether with trailing zeros trimmed.
// Unparseable input yields an empty string.
func FormatEther(wei string) string {
	amount, err := decimal.NewFromString(wei)
	if err != nil {
		return ""
	}
	return amount.Shift(-weiDecimals).String()
}
