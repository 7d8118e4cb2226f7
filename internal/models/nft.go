// internal/models/nft.go
package models

// NFT is the normalized ownership record returned by every indexer adapter.
type NFT struct {
	ChainID         int64       `json:"chainId,omitempty"`
	Contract        NFTContract `json:"contract"`
	TokenID         string      `json:"tokenId"`
	TokenType       string      `json:"tokenType"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Media           []NFTMedia  `json:"media"`
	Metadata        NFTMetadata `json:"metadata"`
	TimeLastUpdated string      `json:"timeLastUpdated"`
}

type NFTContract struct {
	Address string `json:"address"`
}

type NFTMedia struct {
	Gateway   string `json:"gateway"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Raw       string `json:"raw"`
	Format    string `json:"format"`
}

type NFTMetadata struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Image       string         `json:"image,omitempty"`
	Attributes  []NFTAttribute `json:"attributes,omitempty"`
}

type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTPage is one page of an owner's holdings.
type NFTPage struct {
	OwnedNFTs  []NFT  `json:"ownedNfts"`
	TotalCount int    `json:"totalCount"`
	PageKey    string `json:"pageKey,omitempty"`
}

// EmptyNFTPage returns a page with a non-nil, empty slice so it encodes as [].
func EmptyNFTPage() *NFTPage {
	return &NFTPage{OwnedNFTs: []NFT{}}
}
