package hypersync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/utils"
)

const (
	// ERC-721 and ERC-20 share this signature; ERC-20 logs have no topic3.
	transferSignature = "Transfer(address,address,uint256)"

	defaultMaxPages = 20
)

// TransferTopic is keccak256("Transfer(address,address,uint256)").
var TransferTopic = utils.EventTopic(transferSignature)

var ErrMissingURL = errors.New("hypersync URL is not set")

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hypersync error: status %d, body: %s", e.StatusCode, e.Body)
}

type Client struct {
	url        string
	apiKey     string
	network    string
	maxPages   int
	httpClient *http.Client
}

func NewClient(url, apiKey, network string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:      url,
		apiKey:   apiKey,
		network:  network,
		maxPages: defaultMaxPages,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Transfer is one decoded Transfer log.
type Transfer struct {
	Contract        string
	TokenID         string
	From            string
	To              string
	BlockNumber     uint64
	LogIndex        uint64
	TransactionHash string
}

type logSelection struct {
	Address []string   `json:"address,omitempty"`
	Topics  [][]string `json:"topics"`
}

type queryIn struct {
	FromBlock      uint64         `json:"from_block"`
	Logs           []logSelection `json:"logs"`
	FieldSelection struct {
		Log []string `json:"log"`
	} `json:"field_selection"`
}

type logOut struct {
	Address         string  `json:"address"`
	Topic0          *string `json:"topic0"`
	Topic1          *string `json:"topic1"`
	Topic2          *string `json:"topic2"`
	Topic3          *string `json:"topic3"`
	BlockNumber     uint64  `json:"block_number"`
	LogIndex        uint64  `json:"log_index"`
	TransactionHash string  `json:"transaction_hash"`
}

type batchOut struct {
	Logs []logOut `json:"logs"`
}

type queryOut struct {
	Data          json.RawMessage `json:"data"`
	NextBlock     uint64          `json:"next_block"`
	ArchiveHeight *uint64         `json:"archive_height"`
}

// GetNFTsForOwner derives current holdings from the owner's full transfer
// history. HyperSync has no page keys, so pageKey is ignored.
func (c *Client) GetNFTsForOwner(ctx context.Context, owner, pageKey string) (*models.NFTPage, error) {
	transfers, err := c.Transfers(ctx, owner)
	if err != nil {
		return nil, err
	}

	holdings := Replay(owner, transfers)
	now := time.Now().UTC().Format(time.RFC3339)

	page := models.EmptyNFTPage()
	for _, h := range holdings {
		page.OwnedNFTs = append(page.OwnedNFTs, c.toNFT(h, now))
	}
	page.TotalCount = len(page.OwnedNFTs)

	return page, nil
}

// Transfers fetches every Transfer log where owner is sender or recipient.
func (c *Client) Transfers(ctx context.Context, owner string) ([]Transfer, error) {
	if c.url == "" {
		return nil, ErrMissingURL
	}

	ownerTopic := utils.PadAddressTopic(owner)
	query := queryIn{
		Logs: []logSelection{
			{Topics: [][]string{{TransferTopic}, {}, {ownerTopic}}},
			{Topics: [][]string{{TransferTopic}, {ownerTopic}}},
		},
	}
	query.FieldSelection.Log = []string{
		"address", "topic0", "topic1", "topic2", "topic3",
		"block_number", "log_index", "transaction_hash",
	}

	var transfers []Transfer
	for page := 0; page < c.maxPages; page++ {
		out, logs, err := c.query(ctx, &query)
		if err != nil {
			return nil, err
		}

		for _, l := range logs {
			if t, ok := decodeTransfer(l); ok {
				transfers = append(transfers, t)
			}
		}

		if out.ArchiveHeight == nil || out.NextBlock == 0 ||
			out.NextBlock <= query.FromBlock || out.NextBlock >= *out.ArchiveHeight {
			break
		}
		query.FromBlock = out.NextBlock
	}

	return transfers, nil
}

func (c *Client) query(ctx context.Context, query *queryIn) (*queryOut, []logOut, error) {
	jsonData, err := json.Marshal(query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out queryOut
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	logs, err := decodeLogs(out.Data)
	if err != nil {
		return nil, nil, err
	}

	return &out, logs, nil
}

// decodeLogs accepts "data" either as a list of batches or as a single batch.
func decodeLogs(data json.RawMessage) ([]logOut, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var batches []batchOut
		if err := json.Unmarshal(trimmed, &batches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log batches: %w", err)
		}
		var logs []logOut
		for _, b := range batches {
			logs = append(logs, b.Logs...)
		}
		return logs, nil
	}

	var batch batchOut
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal log batch: %w", err)
	}
	return batch.Logs, nil
}

func decodeTransfer(l logOut) (Transfer, bool) {
	if l.Topic0 == nil || !strings.EqualFold(*l.Topic0, TransferTopic) {
		return Transfer{}, false
	}
	if l.Topic1 == nil || l.Topic2 == nil || l.Topic3 == nil {
		return Transfer{}, false
	}

	tokenID, ok := new(big.Int).SetString(strings.TrimPrefix(strings.ToLower(*l.Topic3), "0x"), 16)
	if !ok {
		return Transfer{}, false
	}

	return Transfer{
		Contract:        utils.NormalizeAddress(l.Address),
		TokenID:         tokenID.String(),
		From:            utils.TopicToAddress(*l.Topic1),
		To:              utils.TopicToAddress(*l.Topic2),
		BlockNumber:     l.BlockNumber,
		LogIndex:        l.LogIndex,
		TransactionHash: l.TransactionHash,
	}, true
}

// Holding is a token the owner holds after replay.
type Holding struct {
	Contract    string
	TokenID     string
	BlockNumber uint64
}

// Replay applies transfers in (block, logIndex) order and returns what owner
// holds at the end, ordered by acquisition.
func Replay(owner string, transfers []Transfer) []Holding {
	owner = utils.NormalizeAddress(owner)

	ordered := make([]Transfer, len(transfers))
	copy(ordered, transfers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BlockNumber != ordered[j].BlockNumber {
			return ordered[i].BlockNumber < ordered[j].BlockNumber
		}
		return ordered[i].LogIndex < ordered[j].LogIndex
	})

	held := map[string]Holding{}
	var order []string
	for _, t := range ordered {
		key := t.Contract + "-" + t.TokenID
		switch {
		case t.To == owner:
			if _, ok := held[key]; !ok {
				order = append(order, key)
			}
			held[key] = Holding{Contract: t.Contract, TokenID: t.TokenID, BlockNumber: t.BlockNumber}
		case t.From == owner:
			delete(held, key)
		}
	}

	holdings := make([]Holding, 0, len(held))
	for _, key := range order {
		if h, ok := held[key]; ok {
			holdings = append(holdings, h)
			// a token re-acquired later is listed once
			delete(held, key)
		}
	}
	return holdings
}

func (c *Client) toNFT(h Holding, now string) models.NFT {
	title := "Monad NFT #" + h.TokenID
	image := "https://via.placeholder.com/400x400/9945FF/FFFFFF?text=Monad+NFT+" + h.TokenID

	return models.NFT{
		Contract:    models.NFTContract{Address: h.Contract},
		TokenID:     h.TokenID,
		TokenType:   "ERC721",
		Title:       title,
		Description: "NFT from " + c.network,
		Media:       []models.NFTMedia{{Gateway: image, Raw: image, Format: "png"}},
		Metadata: models.NFTMetadata{
			Name:        title,
			Description: "NFT minted on " + c.network,
			Image:       image,
			Attributes: []models.NFTAttribute{
				{TraitType: "Network", Value: c.network},
				{TraitType: "Type", Value: "ERC721"},
			},
		},
		TimeLastUpdated: now,
	}
}
