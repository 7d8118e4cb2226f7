// internal/services/nft_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vials-labs/vials-backend/internal/alchemy"
	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/hypersync"
	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/utils"
)

// Where an ownership result came from.
const (
	SourceLive  = "live"
	SourceMock  = "mock"
	SourceEmpty = "empty"
)

// NFTFetcher lists the NFTs an owner holds on one network.
type NFTFetcher interface {
	GetNFTsForOwner(ctx context.Context, owner, pageKey string) (*models.NFTPage, error)
}

// NFTMetadataFetcher is implemented by fetchers that can look up one token.
type NFTMetadataFetcher interface {
	GetNFTMetadata(ctx context.Context, contract, tokenID string) (*models.NFT, error)
}

// ChainRoute binds a network to its fetcher and its placeholder data.
type ChainRoute struct {
	Network Network
	Fetcher NFTFetcher
	Mock    func() *models.NFTPage
}

type OwnedNFTsResult struct {
	ChainID  int64           `json:"chainId"`
	Network  string          `json:"network"`
	Source   string          `json:"source"`
	Degraded bool            `json:"degraded"`
	Page     *models.NFTPage `json:"data"`
}

type ChainSummary struct {
	ChainID  int64  `json:"chainId"`
	Network  string `json:"network"`
	Source   string `json:"source"`
	Degraded bool   `json:"degraded"`
	Count    int    `json:"count"`
}

type MultiChainResult struct {
	OwnedNFTs  []models.NFT   `json:"ownedNfts"`
	TotalCount int            `json:"totalCount"`
	Chains     []ChainSummary `json:"chains"`
}

type NFTService struct {
	routes         map[int64]ChainRoute
	defaultChainID int64
	defaultChains  []int64
	mockFallback   bool
	maxChains      int
}

func NewNFTService(cfg *config.Config, networks *NetworkService) *NFTService {
	timeout := time.Duration(cfg.NFT.FetchTimeout) * time.Second

	var routes []ChainRoute
	for _, n := range networks.Networks() {
		switch n.Service {
		case ServiceAlchemy:
			routes = append(routes, ChainRoute{
				Network: n,
				Fetcher: alchemy.NewClient(n.alchemyNetwork, cfg.NFT.AlchemyAPIKey, cfg.NFT.AlchemyBaseURL, timeout),
				Mock:    alchemy.MockNFTs,
			})
		case ServiceHyperSync:
			routes = append(routes, ChainRoute{
				Network: n,
				Fetcher: hypersync.NewClient(cfg.NFT.HyperSyncURL, cfg.NFT.HyperSyncAPIKey, n.Name, timeout),
				Mock:    hypersync.MockNFTs,
			})
		}
	}

	return NewNFTServiceWithRoutes(routes, cfg.NFT.MockFallback, cfg.NFT.MaxChainsPerCall)
}

// NewNFTServiceWithRoutes builds a dispatcher over explicit routes. The route
// for DefaultChainID must be present.
func NewNFTServiceWithRoutes(routes []ChainRoute, mockFallback bool, maxChains int) *NFTService {
	if maxChains < 1 {
		maxChains = 1
	}

	s := &NFTService{
		routes:         make(map[int64]ChainRoute, len(routes)),
		defaultChainID: DefaultChainID,
		defaultChains:  []int64{ChainArbitrumSepolia, ChainMonadTestnet},
		mockFallback:   mockFallback,
		maxChains:      maxChains,
	}
	for _, r := range routes {
		s.routes[r.Network.ChainID] = r
	}
	return s
}

func (s *NFTService) route(chainID int64) ChainRoute {
	if r, ok := s.routes[chainID]; ok {
		return r
	}
	return s.routes[s.defaultChainID]
}

// GetNFTsForOwner asks the chain's indexer for owner's NFTs. chainID 0 or an
// unknown chain uses the default route. Indexer failures never surface as
// errors: the result is the mock set or an empty page, flagged as degraded.
func (s *NFTService) GetNFTsForOwner(ctx context.Context, owner string, chainID int64, pageKey string) (*OwnedNFTsResult, error) {
	if !utils.IsValidAddress(owner) {
		return nil, fmt.Errorf("%w: wallet %q", ErrInvalidInput, owner)
	}

	route := s.route(chainID)
	result := &OwnedNFTsResult{
		ChainID: route.Network.ChainID,
		Network: route.Network.Name,
		Source:  SourceLive,
	}

	page, err := s.fetch(ctx, route, utils.NormalizeAddress(owner), pageKey)
	if err != nil {
		result.Degraded = true
		page = s.degrade(route, owner, err)
		result.Source = SourceEmpty
		if s.mockFallback && route.Mock != nil {
			result.Source = SourceMock
		}
	}

	for i := range page.OwnedNFTs {
		page.OwnedNFTs[i].ChainID = route.Network.ChainID
	}
	result.Page = page

	return result, nil
}

func (s *NFTService) fetch(ctx context.Context, route ChainRoute, owner, pageKey string) (*models.NFTPage, error) {
	if route.Fetcher == nil {
		return nil, ErrNotConfigured
	}

	page, err := route.Fetcher.GetNFTsForOwner(ctx, owner, pageKey)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	if page == nil {
		page = models.EmptyNFTPage()
	}
	if page.OwnedNFTs == nil {
		page.OwnedNFTs = []models.NFT{}
	}
	return page, nil
}

func (s *NFTService) degrade(route ChainRoute, owner string, err error) *models.NFTPage {
	entry := logrus.WithError(err).WithFields(logrus.Fields{
		"chain_id": route.Network.ChainID,
		"network":  route.Network.Name,
		"service":  route.Network.Service,
		"owner":    owner,
	})

	if s.mockFallback && route.Mock != nil {
		entry.Warn("NFT fetch failed, serving mock data")
		return route.Mock()
	}

	entry.Warn("NFT fetch failed, serving empty result")
	return models.EmptyNFTPage()
}

// GetNFTsForChains fetches several chains concurrently and concatenates the
// results in request order. An empty chainIDs list means the default set.
func (s *NFTService) GetNFTsForChains(ctx context.Context, owner string, chainIDs []int64) (*MultiChainResult, error) {
	if !utils.IsValidAddress(owner) {
		return nil, fmt.Errorf("%w: wallet %q", ErrInvalidInput, owner)
	}

	chains := dedupeChains(chainIDs)
	if len(chains) == 0 {
		chains = s.defaultChains
	}
	if len(chains) > s.maxChains {
		return nil, fmt.Errorf("%w: at most %d chains per request", ErrInvalidInput, s.maxChains)
	}
	for _, id := range chains {
		if _, ok := s.routes[id]; !ok {
			return nil, fmt.Errorf("%w: unsupported chain %d", ErrInvalidInput, id)
		}
	}

	results := make([]*OwnedNFTsResult, len(chains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxChains)
	for i, id := range chains {
		i, id := i, id
		g.Go(func() error {
			res, err := s.GetNFTsForOwner(gctx, owner, id, "")
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &MultiChainResult{
		OwnedNFTs: []models.NFT{},
		Chains:    make([]ChainSummary, 0, len(results)),
	}
	for _, res := range results {
		out.OwnedNFTs = append(out.OwnedNFTs, res.Page.OwnedNFTs...)
		out.Chains = append(out.Chains, ChainSummary{
			ChainID:  res.ChainID,
			Network:  res.Network,
			Source:   res.Source,
			Degraded: res.Degraded,
			Count:    len(res.Page.OwnedNFTs),
		})
	}
	out.TotalCount = len(out.OwnedNFTs)

	return out, nil
}

// GetNFTMetadata looks up one token on chainID. Unlike ownership listing,
// failures are reported to the caller.
func (s *NFTService) GetNFTMetadata(ctx context.Context, chainID int64, contract, tokenID string) (*models.NFT, error) {
	if !utils.IsValidAddress(contract) {
		return nil, fmt.Errorf("%w: contract %q", ErrInvalidInput, contract)
	}
	if _, err := utils.ParseUintString(tokenID); err != nil {
		return nil, fmt.Errorf("%w: token id %q", ErrInvalidInput, tokenID)
	}

	route := s.route(chainID)
	fetcher, ok := route.Fetcher.(NFTMetadataFetcher)
	if !ok {
		return nil, fmt.Errorf("%w: metadata lookup is not available on %s", ErrInvalidInput, route.Network.Name)
	}

	nft, err := fetcher.GetNFTMetadata(ctx, utils.NormalizeAddress(contract), tokenID)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	nft.ChainID = route.Network.ChainID

	return nft, nil
}

func classifyFetchError(err error) error {
	var alchemyStatus *alchemy.StatusError
	switch {
	case errors.Is(err, alchemy.ErrMissingAPIKey), errors.Is(err, hypersync.ErrMissingURL):
		return errors.Join(ErrNotConfigured, err)
	case errors.As(err, &alchemyStatus) && alchemyStatus.StatusCode == http.StatusNotFound:
		return errors.Join(ErrNotFound, err)
	default:
		return errors.Join(ErrUpstream, err)
	}
}

func dedupeChains(chainIDs []int64) []int64 {
	seen := make(map[int64]bool, len(chainIDs))
	var out []int64
	for _, id := range chainIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
