package hypersync

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/vials-labs/vials-backend/internal/models"
)

const mockSVG = `<svg width="400" height="400" xmlns="http://www.w3.org/2000/svg">` +
	`<rect width="400" height="400" fill="%s"/>` +
	`<text x="200" y="200" font-family="Arial" font-size="24" fill="white" text-anchor="middle" dominant-baseline="middle">%s</text>` +
	`</svg>`

func mockImage(color, text string) string {
	svg := fmt.Sprintf(mockSVG, color, text)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// MockNFTs is the Monad placeholder set. Images are inline SVG so they render
// without network access.
func MockNFTs() *models.NFTPage {
	now := time.Now().UTC().Format(time.RFC3339)
	first := mockImage("#9945FF", "Monad NFT 1")
	second := mockImage("#FF6B9D", "Monad 42")

	page := models.EmptyNFTPage()
	page.OwnedNFTs = append(page.OwnedNFTs,
		models.NFT{
			Contract:    models.NFTContract{Address: "0x1234567890123456789012345678901234567890"},
			TokenID:     "1",
			TokenType:   "ERC721",
			Title:       "Monad Test NFT #1",
			Description: "A test NFT minted on Monad Testnet",
			Media:       []models.NFTMedia{{Gateway: first, Raw: first, Format: "svg"}},
			Metadata: models.NFTMetadata{
				Name:        "Monad Test NFT #1",
				Description: "A test NFT minted on Monad Testnet via Magic Eden",
				Image:       first,
				Attributes: []models.NFTAttribute{
					{TraitType: "Network", Value: "Monad Testnet"},
					{TraitType: "Marketplace", Value: "Magic Eden"},
					{TraitType: "Rarity", Value: "Common"},
				},
			},
			TimeLastUpdated: now,
		},
		models.NFT{
			Contract:    models.NFTContract{Address: "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"},
			TokenID:     "42",
			TokenType:   "ERC721",
			Title:       "Monad Collection #42",
			Description: "Another NFT from Monad ecosystem",
			Media:       []models.NFTMedia{{Gateway: second, Raw: second, Format: "svg"}},
			Metadata: models.NFTMetadata{
				Name:        "Monad Collection #42",
				Description: "Part of a special Monad NFT collection",
				Image:       second,
				Attributes: []models.NFTAttribute{
					{TraitType: "Network", Value: "Monad Testnet"},
					{TraitType: "Collection", Value: "Special"},
					{TraitType: "Rarity", Value: "Rare"},
				},
			},
			TimeLastUpdated: now,
		},
	)
	page.TotalCount = len(page.OwnedNFTs)
	return page
}
