package alchemy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vials-labs/vials-backend/internal/models"
)

// Network is the Alchemy subdomain for a chain.
type Network string

const (
	ArbitrumSepolia Network = "arb-sepolia"
	EthereumMainnet Network = "eth-mainnet"
	PolygonMainnet  Network = "polygon-mainnet"
	ArbitrumMainnet Network = "arb-mainnet"
	OptimismMainnet Network = "opt-mainnet"
)

const pageSize = "20"

var ErrMissingAPIKey = errors.New("alchemy API key is not set")

// StatusError is returned for any non-200 answer from Alchemy.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("alchemy API error: status %d, body: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient targets https://{network}.g.alchemy.com/nft/v3. A non-empty
// baseURL replaces that host, which is how tests point it at a fake server.
func NewClient(network Network, apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.g.alchemy.com/nft/v3", network)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ownedNFTsOut is the getNFTsForOwner body. Both the v3 field names and the
// older v2 ones (title, media) are accepted.
type ownedNFTsOut struct {
	OwnedNFTs  []nftOut `json:"ownedNfts"`
	TotalCount int      `json:"totalCount"`
	PageKey    string   `json:"pageKey"`
}

type nftOut struct {
	Contract struct {
		Address   string `json:"address"`
		TokenType string `json:"tokenType"`
	} `json:"contract"`
	TokenID         string     `json:"tokenId"`
	TokenType       string     `json:"tokenType"`
	Name            string     `json:"name"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Image           *imageOut  `json:"image"`
	Media           []mediaOut `json:"media"`
	Raw             *rawOut    `json:"raw"`
	Metadata        *metaOut   `json:"metadata"`
	TimeLastUpdated string     `json:"timeLastUpdated"`
}

type imageOut struct {
	CachedURL    string `json:"cachedUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	PngURL       string `json:"pngUrl"`
	ContentType  string `json:"contentType"`
	OriginalURL  string `json:"originalUrl"`
}

type mediaOut struct {
	Gateway   string `json:"gateway"`
	Thumbnail string `json:"thumbnail"`
	Raw       string `json:"raw"`
	Format    string `json:"format"`
}

type rawOut struct {
	TokenURI string   `json:"tokenUri"`
	Metadata *metaOut `json:"metadata"`
}

type metaOut struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Attributes  json.RawMessage `json:"attributes"`
}

// GetNFTsForOwner returns one page of the owner's NFTs. pageKey is passed
// through untouched.
func (c *Client) GetNFTsForOwner(ctx context.Context, owner, pageKey string) (*models.NFTPage, error) {
	params := url.Values{}
	params.Set("owner", owner)
	params.Set("withMetadata", "true")
	params.Set("pageSize", pageSize)
	if pageKey != "" {
		params.Set("pageKey", pageKey)
	}

	var out ownedNFTsOut
	if err := c.get(ctx, "getNFTsForOwner", params, &out); err != nil {
		return nil, err
	}

	page := models.EmptyNFTPage()
	for _, n := range out.OwnedNFTs {
		page.OwnedNFTs = append(page.OwnedNFTs, n.normalize())
	}
	page.TotalCount = out.TotalCount
	page.PageKey = out.PageKey

	return page, nil
}

// GetNFTMetadata returns a single token's normalized record.
func (c *Client) GetNFTMetadata(ctx context.Context, contract, tokenID string) (*models.NFT, error) {
	params := url.Values{}
	params.Set("contractAddress", contract)
	params.Set("tokenId", tokenID)
	params.Set("refreshCache", "false")

	var out nftOut
	if err := c.get(ctx, "getNFTMetadata", params, &out); err != nil {
		return nil, err
	}

	nft := out.normalize()
	return &nft, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, dest interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, url.PathEscape(c.apiKey), method, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func (n nftOut) normalize() models.NFT {
	meta := n.Metadata
	if meta == nil && n.Raw != nil {
		meta = n.Raw.Metadata
	}
	if meta == nil {
		meta = &metaOut{}
	}

	tokenType := n.TokenType
	if tokenType == "" {
		tokenType = n.Contract.TokenType
	}

	title := firstNonEmpty(n.Name, n.Title, meta.Name)
	if title == "" {
		title = "#" + n.TokenID
	}

	nft := models.NFT{
		Contract:    models.NFTContract{Address: n.Contract.Address},
		TokenID:     n.TokenID,
		TokenType:   tokenType,
		Title:       title,
		Description: firstNonEmpty(n.Description, meta.Description),
		Media:       []models.NFTMedia{},
		Metadata: models.NFTMetadata{
			Name:        firstNonEmpty(meta.Name, title),
			Description: firstNonEmpty(meta.Description, n.Description),
			Image:       meta.Image,
			Attributes:  parseAttributes(meta.Attributes),
		},
		TimeLastUpdated: n.TimeLastUpdated,
	}

	for _, m := range n.Media {
		nft.Media = append(nft.Media, models.NFTMedia{
			Gateway:   m.Gateway,
			Thumbnail: m.Thumbnail,
			Raw:       m.Raw,
			Format:    m.Format,
		})
	}

	if len(nft.Media) == 0 && n.Image != nil {
		gateway := firstNonEmpty(n.Image.CachedURL, n.Image.PngURL, n.Image.OriginalURL)
		if gateway != "" {
			nft.Media = append(nft.Media, models.NFTMedia{
				Gateway:   gateway,
				Thumbnail: n.Image.ThumbnailURL,
				Raw:       firstNonEmpty(n.Image.OriginalURL, gateway),
				Format:    formatFromContentType(n.Image.ContentType),
			})
		}
	}

	if nft.Metadata.Image == "" && len(nft.Media) > 0 {
		nft.Metadata.Image = nft.Media[0].Gateway
	}

	return nft
}

// parseAttributes tolerates the non-standard shapes found in the wild: a
// missing list, an object instead of a list, or numeric values.
func parseAttributes(raw json.RawMessage) []models.NFTAttribute {
	if len(raw) == 0 {
		return nil
	}

	var items []struct {
		TraitType string      `json:"trait_type"`
		Value     interface{} `json:"value"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	attrs := make([]models.NFTAttribute, 0, len(items))
	for _, item := range items {
		value := ""
		if item.Value != nil {
			value = fmt.Sprint(item.Value)
		}
		attrs = append(attrs, models.NFTAttribute{TraitType: item.TraitType, Value: value})
	}
	return attrs
}

func formatFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	format := contentType
	if i := strings.Index(format, "/"); i >= 0 {
		format = format[i+1:]
	}
	return strings.TrimSuffix(format, "+xml")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
