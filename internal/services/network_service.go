// internal/services/network_service.go
package services

import (
	"github.com/vials-labs/vials-backend/internal/alchemy"
	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/utils"
)

const (
	ChainEthereum        int64 = 1
	ChainOptimism        int64 = 10
	ChainPolygon         int64 = 137
	ChainMonadTestnet    int64 = 10143
	ChainArbitrumOne     int64 = 42161
	ChainArbitrumSepolia int64 = 421614

	// DefaultChainID serves requests with a missing or unknown chain.
	DefaultChainID = ChainArbitrumSepolia
)

const (
	ServiceAlchemy   = "Alchemy"
	ServiceHyperSync = "Envio HyperSync"
)

type Network struct {
	ChainID   int64             `json:"chainId"`
	Name      string            `json:"name"`
	Service   string            `json:"service"`
	Testnet   bool              `json:"testnet"`
	Contracts *NetworkContracts `json:"contracts,omitempty"`

	alchemyNetwork alchemy.Network
}

type NetworkContracts struct {
	DerivativeNFT string `json:"derivativeNFT,omitempty"`
	Marketplace   string `json:"marketplace,omitempty"`
}

var supportedNetworks = []Network{
	{ChainID: ChainArbitrumSepolia, Name: "Arbitrum Sepolia", Service: ServiceAlchemy, Testnet: true, alchemyNetwork: alchemy.ArbitrumSepolia},
	{ChainID: ChainEthereum, Name: "Ethereum", Service: ServiceAlchemy, alchemyNetwork: alchemy.EthereumMainnet},
	{ChainID: ChainPolygon, Name: "Polygon", Service: ServiceAlchemy, alchemyNetwork: alchemy.PolygonMainnet},
	{ChainID: ChainArbitrumOne, Name: "Arbitrum One", Service: ServiceAlchemy, alchemyNetwork: alchemy.ArbitrumMainnet},
	{ChainID: ChainOptimism, Name: "Optimism", Service: ServiceAlchemy, alchemyNetwork: alchemy.OptimismMainnet},
	{ChainID: ChainMonadTestnet, Name: "Monad Testnet", Service: ServiceHyperSync, Testnet: true},
}

// NetworkService is the registry of chains the backend can read ownership
// from, and where the derivative contracts are deployed on them.
type NetworkService struct {
	networks []Network
}

func NewNetworkService(cfg *config.Config) *NetworkService {
	contracts := map[int64]NetworkContracts{
		ChainArbitrumSepolia: {
			DerivativeNFT: checksumOrEmpty(cfg.Contracts.ArbitrumDerivativeNFT),
			Marketplace:   checksumOrEmpty(cfg.Contracts.ArbitrumMarketplace),
		},
		ChainMonadTestnet: {
			DerivativeNFT: checksumOrEmpty(cfg.Contracts.MonadDerivativeNFT),
			Marketplace:   checksumOrEmpty(cfg.Contracts.MonadMarketplace),
		},
	}

	networks := make([]Network, len(supportedNetworks))
	copy(networks, supportedNetworks)
	for i := range networks {
		if c, ok := contracts[networks[i].ChainID]; ok && (c.DerivativeNFT != "" || c.Marketplace != "") {
			c := c
			networks[i].Contracts = &c
		}
	}

	return &NetworkService{networks: networks}
}

func (s *NetworkService) Networks() []Network {
	out := make([]Network, len(s.networks))
	copy(out, s.networks)
	return out
}

// Network looks up a chain. ok is false for chains not in the registry.
func (s *NetworkService) Network(chainID int64) (Network, bool) {
	for _, n := range s.networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}

// ContractsFor returns the deployment on chainID. Unknown chains get the
// default chain's deployment, matching the ownership dispatcher.
func (s *NetworkService) ContractsFor(chainID int64) NetworkContracts {
	n, ok := s.Network(chainID)
	if !ok {
		n, _ = s.Network(DefaultChainID)
	}
	if n.Contracts == nil {
		return NetworkContracts{}
	}
	return *n.Contracts
}

func checksumOrEmpty(address string) string {
	if !utils.IsValidAddress(address) {
		return ""
	}
	return utils.ChecksumAddress(address)
}
