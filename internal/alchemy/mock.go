package alchemy

import (
	"fmt"
	"time"

	"github.com/vials-labs/vials-backend/internal/models"
)

type mockNFT struct {
	contract    string
	tokenID     string
	color       string
	description string
	rarity      string
}

var mockNFTs = []mockNFT{
	{"0x1234567890123456789012345678901234567890", "1", "00ff41", "A mock NFT for testing purposes", "Common"},
	{"0x1234567890123456789012345678901234567890", "2", "ff007f", "Another mock NFT for testing", "Rare"},
	{"0xabcdefabcdefabcdefabcdefabcdefabcdefabcd", "3", "00ffff", "A third mock NFT", "Epic"},
}

// MockNFTs is the placeholder set served when Alchemy is unavailable and mock
// fallback is enabled.
func MockNFTs() *models.NFTPage {
	now := time.Now().UTC().Format(time.RFC3339)
	page := models.EmptyNFTPage()

	for _, m := range mockNFTs {
		title := "Mock NFT #" + m.tokenID
		image := fmt.Sprintf("https://via.placeholder.com/400x400/%s/000000?text=Mock+NFT+%s", m.color, m.tokenID)
		page.OwnedNFTs = append(page.OwnedNFTs, models.NFT{
			Contract:    models.NFTContract{Address: m.contract},
			TokenID:     m.tokenID,
			TokenType:   "ERC721",
			Title:       title,
			Description: m.description,
			Media:       []models.NFTMedia{{Gateway: image, Raw: image, Format: "png"}},
			Metadata: models.NFTMetadata{
				Name:        title,
				Description: m.description,
				Image:       image,
				Attributes: []models.NFTAttribute{
					{TraitType: "Type", Value: "Mock"},
					{TraitType: "Rarity", Value: m.rarity},
				},
			},
			TimeLastUpdated: now,
		})
	}

	page.TotalCount = len(page.OwnedNFTs)
	return page
}
