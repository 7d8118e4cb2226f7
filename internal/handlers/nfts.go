// internal/handlers/nfts.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type NFTHandler struct {
	nftService     *services.NFTService
	networkService *services.NetworkService
}

func NewNFTHandler(nftService *services.NFTService, networkService *services.NetworkService) *NFTHandler {
	return &NFTHandler{
		nftService:     nftService,
		networkService: networkService,
	}
}

var nftErrors = errorKeys{
	invalid:  i18n.KeyValidationAddress,
	notFound: i18n.KeyNFTNotFound,
	upstream: i18n.KeyNFTFetchFailed,
}

// GET /api/nfts?wallet=&chainId=&pageKey=
func (h *NFTHandler) GetNFTs(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet := c.Query("wallet")
	if wallet == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationWallet), nil)
		return
	}

	chainID, ok := parseChainID(c.Query("chainId"))
	if !ok {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationChainID), nil)
		return
	}

	result, err := h.nftService.GetNFTsForOwner(c.Request.Context(), wallet, chainID, c.Query("pageKey"))
	if err != nil {
		respondServiceError(c, err, nftErrors)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"data":     result.Page,
		"chainId":  result.ChainID,
		"network":  result.Network,
		"source":   result.Source,
		"degraded": result.Degraded,
	})
}

// GET /api/nfts/multichain?wallet=&chainIds=421614,10143
func (h *NFTHandler) GetMultiChainNFTs(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet := c.Query("wallet")
	if wallet == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationWallet), nil)
		return
	}

	var chainIDs []int64
	if raw := c.Query("chainIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			chainID, ok := parseChainID(strings.TrimSpace(part))
			if !ok || chainID == 0 {
				utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationChainID), nil)
				return
			}
			chainIDs = append(chainIDs, chainID)
		}
	}

	result, err := h.nftService.GetNFTsForChains(c.Request.Context(), wallet, chainIDs)
	if err != nil {
		respondServiceError(c, err, errorKeys{invalid: i18n.KeyValidationChainID})
		return
	}

	utils.SuccessResponse(c, gin.H{
		"data": gin.H{
			"ownedNfts":  result.OwnedNFTs,
			"totalCount": result.TotalCount,
		},
		"chains": result.Chains,
	})
}

// GET /api/nfts/metadata?contract=&tokenId=&chainId=
func (h *NFTHandler) GetNFTMetadata(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	chainID, ok := parseChainID(c.Query("chainId"))
	if !ok {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationChainID), nil)
		return
	}

	nft, err := h.nftService.GetNFTMetadata(c.Request.Context(), chainID, c.Query("contract"), c.Query("tokenId"))
	if err != nil {
		respondServiceError(c, err, errorKeys{
			notFound: i18n.KeyNFTNotFound,
			upstream: i18n.KeyNFTFetchFailed,
		})
		return
	}

	utils.SuccessResponse(c, gin.H{"nft": nft})
}

// GET /api/networks
func (h *NFTHandler) GetNetworks(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"networks":       h.networkService.Networks(),
		"defaultChainId": services.DefaultChainID,
	})
}

// GET /api/networks/:chainId/contracts
func (h *NFTHandler) GetContracts(c *gin.Context) {
	chainID, ok := parseChainID(c.Param("chainId"))
	if !ok {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationChainID), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"chainId":   chainID,
		"contracts": h.networkService.ContractsFor(chainID),
	})
}

// parseChainID accepts an empty string as "no chain".
func parseChainID(raw string) (int64, bool) {
	if raw == "" {
		return 0, true
	}
	chainID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chainID < 0 {
		return 0, false
	}
	return chainID, true
}
