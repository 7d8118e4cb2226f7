// internal/tests/api_test.go
package tests

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/alchemy"
	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/database/databasetest"
	"github.com/vials-labs/vials-backend/internal/hypersync"
	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/models"
	"github.com/vials-labs/vials-backend/internal/router"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

type APITestSuite struct {
	suite.Suite
	db      *gorm.DB
	cfg     *config.Config
	router  *gin.Engine
	arb     *stubFetcher
	monad   *stubFetcher
	pinner  *stubPinner
	imageTS *httptest.Server
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize("en"))

	suite.imageTS = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
}

func (suite *APITestSuite) TearDownSuite() {
	suite.imageTS.Close()
}

func (suite *APITestSuite) SetupTest() {
	suite.db = databasetest.Open(suite.T())
	suite.cfg = testConfig()
	suite.buildRouter()
}

func (suite *APITestSuite) buildRouter() {
	suite.arb = &stubFetcher{
		page: &models.NFTPage{
			OwnedNFTs: []models.NFT{
				{Contract: models.NFTContract{Address: testContract}, TokenID: "7", TokenType: "ERC721", Title: "Arb #7"},
			},
			TotalCount: 1,
		},
		nft: &models.NFT{Contract: models.NFTContract{Address: testContract}, TokenID: "7", Title: "Arb #7"},
	}
	suite.monad = &stubFetcher{page: models.EmptyNFTPage()}
	suite.pinner = &stubPinner{}

	nftService := services.NewNFTServiceWithRoutes([]services.ChainRoute{
		{
			Network: services.Network{ChainID: services.ChainArbitrumSepolia, Name: "Arbitrum Sepolia", Service: services.ServiceAlchemy},
			Fetcher: suite.arb,
			Mock:    alchemy.MockNFTs,
		},
		{
			Network: services.Network{ChainID: services.ChainMonadTestnet, Name: "Monad Testnet", Service: services.ServiceHyperSync},
			Fetcher: suite.monad,
			Mock:    hypersync.MockNFTs,
		},
	}, suite.cfg.NFT.MockFallback, suite.cfg.NFT.MaxChainsPerCall)

	suite.router = router.InitializeWithServices(suite.db, suite.cfg, router.Services{
		NFT:        nftService,
		IPFS:       services.NewIPFSServiceWithPinner(suite.pinner, suite.cfg.IPFS.GatewayURL, false, 5*time.Second, 1<<20, services.WithLoopbackDownloads()),
		Generation: services.NewGenerationService(suite.cfg),
	})
}

func (suite *APITestSuite) saveDraft(wallet string) map[string]interface{} {
	w := performRequest(suite.router, "POST", "/api/drafts/save", map[string]interface{}{
		"wallet":      wallet,
		"baseNFT":     baseContract,
		"baseTokenId": "1",
		"imageURL":    "https://example.com/derivative.png",
		"prompt":      "Transform into pixel art",
		"name":        "Pixel Ape",
		"description": "An ape, but pixelated",
		"metadata":    map[string]interface{}{"style": "pixel"},
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	return decodeBody(w)["draft"].(map[string]interface{})
}

func (suite *APITestSuite) createListing(listingID string) *httptest.ResponseRecorder {
	return performRequest(suite.router, "POST", "/api/marketplace/listings", map[string]interface{}{
		"listingId":   listingID,
		"nftContract": "0x" + strings.ToUpper(testContract[2:]),
		"tokenId":     "7",
		"seller":      testWallet,
		"price":       "500000000000000000",
	})
}

func (suite *APITestSuite) TestHealth() {
	w := performRequest(suite.router, "GET", "/health", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(w)
	assert.Equal(suite.T(), "healthy", response["status"])
	assert.Equal(suite.T(), "ok", response["database"])
}

func (suite *APITestSuite) TestDraftLifecycle() {
	draft := suite.saveDraft(testWallet)
	assert.Equal(suite.T(), strings.ToLower(testWallet), draft["wallet"])
	assert.Equal(suite.T(), baseContract, draft["baseNFT"])
	draftID := draft["id"].(string)

	// Listing is case-insensitive on the wallet
	w := performRequest(suite.router, "GET", "/api/drafts/"+strings.ToLower(testWallet), nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	drafts := decodeBody(w)["drafts"].([]interface{})
	require.Len(suite.T(), drafts, 1)
	assert.Equal(suite.T(), draftID, drafts[0].(map[string]interface{})["id"])

	// Another wallet cannot delete it
	w = performRequest(suite.router, "DELETE", "/api/drafts/"+otherWallet+"?id="+draftID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", decodeBody(w)["code"])

	w = performRequest(suite.router, "DELETE", "/api/drafts/"+testWallet+"?id="+draftID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = performRequest(suite.router, "GET", "/api/drafts/"+testWallet, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Empty(suite.T(), decodeBody(w)["drafts"])
}

func (suite *APITestSuite) TestDraftsNewestFirst() {
	first := suite.saveDraft(testWallet)
	time.Sleep(5 * time.Millisecond)
	second := suite.saveDraft(testWallet)

	w := performRequest(suite.router, "GET", "/api/drafts/"+testWallet, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	drafts := decodeBody(w)["drafts"].([]interface{})
	require.Len(suite.T(), drafts, 2)
	assert.Equal(suite.T(), second["id"], drafts[0].(map[string]interface{})["id"])
	assert.Equal(suite.T(), first["id"], drafts[1].(map[string]interface{})["id"])
}

func (suite *APITestSuite) TestSaveDraftValidation() {
	w := performRequest(suite.router, "POST", "/api/drafts/save", map[string]interface{}{
		"wallet":      testWallet,
		"baseNFT":     baseContract,
		"baseTokenId": "1",
		"prompt":      "<b></b>",
		"name":        "No image",
		"description": "Missing the image URL",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	response := decodeBody(w)
	assert.Equal(suite.T(), "VALIDATION_ERROR", response["code"])

	fields := map[string]bool{}
	for _, d := range response["details"].([]interface{}) {
		fields[d.(map[string]interface{})["field"].(string)] = true
	}
	assert.True(suite.T(), fields["imageURL"])
	assert.True(suite.T(), fields["prompt"])
}

func (suite *APITestSuite) TestDraftBadRequests() {
	w := performRequest(suite.router, "GET", "/api/drafts/not-a-wallet", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = performRequest(suite.router, "DELETE", "/api/drafts/"+testWallet, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Draft ID is required", decodeBody(w)["error"])

	w = performRequest(suite.router, "DELETE", "/api/drafts/"+testWallet+"?id=not-a-uuid", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestListingLifecycle() {
	w := suite.createListing("listing-1")
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	listing := decodeBody(w)["listing"].(map[string]interface{})
	assert.Equal(suite.T(), testContract, listing["nftContract"])
	assert.Equal(suite.T(), strings.ToLower(testWallet), listing["seller"])
	assert.Equal(suite.T(), "0.5", listing["priceEth"])
	assert.Equal(suite.T(), true, listing["active"])

	w = performRequest(suite.router, "POST", "/api/marketplace/listings", map[string]interface{}{
		"listingId":   "listing-1",
		"nftContract": baseContract,
		"tokenId":     "99",
		"seller":      otherWallet,
		"price":       "1",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "CONFLICT", decodeBody(w)["code"])

	// The original survives the conflicting create untouched
	w = performRequest(suite.router, "GET", "/api/marketplace/listings/listing-1", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	stored := decodeBody(w)["listing"].(map[string]interface{})
	assert.Equal(suite.T(), listing["id"], stored["id"])
	assert.Equal(suite.T(), "7", stored["tokenId"])
	assert.Equal(suite.T(), "500000000000000000", stored["price"])
	assert.Equal(suite.T(), strings.ToLower(testWallet), stored["seller"])
	assert.Equal(suite.T(), testContract, stored["nftContract"])

	w = performRequest(suite.router, "PATCH", "/api/marketplace/listings/listing-1", map[string]interface{}{
		"active": false,
		"buyer":  otherWallet,
		"soldAt": "2025-01-02T03:04:05Z",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	listing = decodeBody(w)["listing"].(map[string]interface{})
	assert.Equal(suite.T(), false, listing["active"])
	assert.Equal(suite.T(), otherWallet, listing["buyer"])
	assert.NotEmpty(suite.T(), listing["soldAt"])

	w = performRequest(suite.router, "GET", "/api/marketplace/listings?active=true", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Empty(suite.T(), decodeBody(w)["listings"])

	w = performRequest(suite.router, "GET", "/api/marketplace/listings/unknown", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = performRequest(suite.router, "PATCH", "/api/marketplace/listings/unknown", map[string]interface{}{"active": false})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestListingsActiveFilterIsStable() {
	for i := 0; i < 3; i++ {
		require.Equal(suite.T(), http.StatusOK, suite.createListing(fmt.Sprintf("listing-%d", i)).Code)
	}

	ids := func() []string {
		w := performRequest(suite.router, "GET", "/api/marketplace/listings?active=true", nil)
		require.Equal(suite.T(), http.StatusOK, w.Code)
		var out []string
		for _, l := range decodeBody(w)["listings"].([]interface{}) {
			out = append(out, l.(map[string]interface{})["listingId"].(string))
		}
		return out
	}

	first := ids()
	assert.Len(suite.T(), first, 3)
	assert.Equal(suite.T(), first, ids())
}

func (suite *APITestSuite) TestListingsUnpagedReturnEveryRow() {
	const count = utils.DefaultPageLimit + 5
	for i := 0; i < count; i++ {
		require.Equal(suite.T(), http.StatusOK, suite.createListing(fmt.Sprintf("listing-%d", i)).Code)
	}

	w := performRequest(suite.router, "GET", "/api/marketplace/listings", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(w)
	assert.Len(suite.T(), response["listings"], count)
	pagination := response["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(count), pagination["total"])
	assert.Equal(suite.T(), float64(1), pagination["total_pages"])
	assert.Equal(suite.T(), fmt.Sprint(count), w.Header().Get("X-Total-Count"))

	w = performRequest(suite.router, "GET", "/api/marketplace/listings?page=2&limit=50", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	response = decodeBody(w)
	assert.Len(suite.T(), response["listings"], 5)
	pagination = response["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(count), pagination["total"])
	assert.Equal(suite.T(), float64(2), pagination["total_pages"])
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Pages"))
}

func (suite *APITestSuite) TestCreateListingValidation() {
	w := performRequest(suite.router, "POST", "/api/marketplace/listings", map[string]interface{}{
		"listingId":   "bad-price",
		"nftContract": testContract,
		"tokenId":     "1",
		"seller":      testWallet,
		"price":       "-1",
	})

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", decodeBody(w)["code"])
}

func (suite *APITestSuite) TestRecordMint() {
	mint := map[string]interface{}{
		"tokenId":         "1",
		"contractAddress": testContract,
		"wallet":          testWallet,
		"baseNFT":         baseContract,
		"baseTokenId":     "9",
		"name":            "Pixel Ape",
		"description":     "",
		"imageURL":        "ipfs://QmImage",
		"metadataURL":     "ipfs://QmMetadata",
		"transactionHash": "0x" + strings.Repeat("ab", 32),
		"blockNumber":     123,
	}

	w := performRequest(suite.router, "POST", "/api/nfts/minted", mint)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), strings.ToLower(testWallet), decodeBody(w)["mintedNFT"].(map[string]interface{})["wallet"])

	// Same token under a differently-cased contract is still a duplicate
	mint["contractAddress"] = "0x" + strings.ToUpper(testContract[2:])
	w = performRequest(suite.router, "POST", "/api/nfts/minted", mint)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = performRequest(suite.router, "GET", "/api/nfts/minted?wallet="+testWallet, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), decodeBody(w)["mintedNFTs"], 1)
}

func (suite *APITestSuite) TestRecordMintValidation() {
	mint := func(overrides map[string]interface{}) map[string]interface{} {
		body := map[string]interface{}{
			"tokenId":         "2",
			"contractAddress": testContract,
			"wallet":          testWallet,
			"baseNFT":         baseContract,
			"baseTokenId":     "9",
			"name":            "Pixel Ape",
			"description":     "An ape, but pixelated",
			"imageURL":        "https://example.com/ape.png",
			"metadataURL":     "ipfs://QmMetadata",
			"transactionHash": "0x" + strings.Repeat("cd", 32),
		}
		for k, v := range overrides {
			body[k] = v
		}
		return body
	}

	tests := []struct {
		name      string
		overrides map[string]interface{}
		field     string
	}{
		{"image URL", map[string]interface{}{"imageURL": "not a url"}, "imageURL"},
		{"metadata URL", map[string]interface{}{"metadataURL": "also not"}, "metadataURL"},
		{"missing description", map[string]interface{}{"description": nil}, "description"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := performRequest(suite.router, "POST", "/api/nfts/minted", mint(tt.overrides))
			assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
			response := decodeBody(w)
			assert.Equal(suite.T(), "VALIDATION_ERROR", response["code"])
			details := response["details"].([]interface{})
			require.NotEmpty(suite.T(), details)
			assert.Equal(suite.T(), tt.field, details[0].(map[string]interface{})["field"])
		})
	}

	var count int64
	require.NoError(suite.T(), suite.db.Model(&models.MintedNFT{}).Count(&count).Error)
	assert.Zero(suite.T(), count)
}

func (suite *APITestSuite) TestRelayerTokenRequired() {
	suite.cfg.JWT.RequireRelayerToken = true
	suite.buildRouter()

	w := suite.createListing("guarded")
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateRelayerToken("indexer", 1)
	require.NoError(suite.T(), err)

	w = performRequest(suite.router, "POST", "/api/marketplace/listings", map[string]interface{}{
		"listingId":   "guarded",
		"nftContract": testContract,
		"tokenId":     "7",
		"seller":      testWallet,
		"price":       "1",
	}, "Authorization", "Bearer "+token)
	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
}

func (suite *APITestSuite) TestGetNFTs() {
	w := performRequest(suite.router, "GET", "/api/nfts?wallet="+testWallet, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(w)
	assert.Equal(suite.T(), float64(services.ChainArbitrumSepolia), response["chainId"])
	assert.Equal(suite.T(), services.SourceLive, response["source"])
	assert.Equal(suite.T(), false, response["degraded"])
	assert.Len(suite.T(), response["data"].(map[string]interface{})["ownedNfts"], 1)

	// Unknown chains fall back to the default network
	w = performRequest(suite.router, "GET", "/api/nfts?wallet="+testWallet+"&chainId=999", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(services.ChainArbitrumSepolia), decodeBody(w)["chainId"])

	w = performRequest(suite.router, "GET", "/api/nfts?wallet="+testWallet+"&chainId=10143", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Monad Testnet", decodeBody(w)["network"])
}

func (suite *APITestSuite) TestGetNFTsBadRequests() {
	w := performRequest(suite.router, "GET", "/api/nfts", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Wallet address is required", decodeBody(w)["error"])

	w = performRequest(suite.router, "GET", "/api/nfts?wallet=0x123", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = performRequest(suite.router, "GET", "/api/nfts?wallet="+testWallet+"&chainId=arbitrum", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestGetNFTsIndexerDown() {
	suite.arb.err = errors.New("connection refused")

	w := performRequest(suite.router, "GET", "/api/nfts?wallet="+testWallet, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(w)
	assert.Equal(suite.T(), true, response["degraded"])
	assert.Equal(suite.T(), services.SourceEmpty, response["source"])
	assert.Empty(suite.T(), response["data"].(map[string]interface{})["ownedNfts"])
}

func (suite *APITestSuite) TestMultiChainNFTs() {
	w := performRequest(suite.router, "GET", "/api/nfts/multichain?wallet="+testWallet, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	response := decodeBody(w)
	assert.Equal(suite.T(), float64(1), response["data"].(map[string]interface{})["totalCount"])
	assert.Len(suite.T(), response["chains"], 2)
	assert.Equal(suite.T(), 1, suite.arb.calls)
	assert.Equal(suite.T(), 1, suite.monad.calls)

	w = performRequest(suite.router, "GET", "/api/nfts/multichain?wallet="+testWallet+"&chainIds=421614,1,10143", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = performRequest(suite.router, "GET", "/api/nfts/multichain?wallet="+testWallet+"&chainIds=abc", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestNFTMetadata() {
	w := performRequest(suite.router, "GET", "/api/nfts/metadata?contract="+testContract+"&tokenId=7", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), "Arb #7", decodeBody(w)["nft"].(map[string]interface{})["title"])

	w = performRequest(suite.router, "GET", "/api/nfts/metadata?contract="+testContract+"&tokenId=x", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	suite.arb.err = &alchemy.StatusError{StatusCode: http.StatusNotFound}
	w = performRequest(suite.router, "GET", "/api/nfts/metadata?contract="+testContract+"&tokenId=7", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	suite.arb.err = &alchemy.StatusError{StatusCode: http.StatusInternalServerError}
	w = performRequest(suite.router, "GET", "/api/nfts/metadata?contract="+testContract+"&tokenId=7", nil)
	assert.Equal(suite.T(), http.StatusBadGateway, w.Code)
}

func (suite *APITestSuite) TestNetworks() {
	w := performRequest(suite.router, "GET", "/api/networks", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	response := decodeBody(w)
	assert.Equal(suite.T(), float64(services.DefaultChainID), response["defaultChainId"])
	assert.Len(suite.T(), response["networks"], 6)

	w = performRequest(suite.router, "GET", "/api/networks/10143/contracts", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = performRequest(suite.router, "GET", "/api/networks/monad/contracts", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestGenerate() {
	w := performRequest(suite.router, "GET", "/api/generate/styles", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Len(suite.T(), decodeBody(w)["styles"], 8)

	w = performRequest(suite.router, "POST", "/api/generate", map[string]interface{}{
		"baseImageUrl": "https://example.com/ape.png",
		"style":        "pixel",
		"baseNFTName":  "Ape #1",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	result := decodeBody(w)["result"].(map[string]interface{})
	assert.Equal(suite.T(), "pixel", result["style"])
	assert.Contains(suite.T(), result["name"], "Ape #1")
	assert.Contains(suite.T(), result["imageUrl"], "FF00FF/800080")

	w = performRequest(suite.router, "POST", "/api/generate", map[string]interface{}{
		"baseImageUrl": "https://example.com/ape.png",
		"style":        "vaporwave",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Unknown AI style", decodeBody(w)["error"])
}

func (suite *APITestSuite) TestGenerateStream() {
	server := httptest.NewServer(suite.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/generate/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(suite.T(), err)
	defer conn.Close()

	require.NoError(suite.T(), conn.WriteJSON(map[string]interface{}{
		"baseImageUrl": "https://example.com/ape.png",
		"style":        "ghibli",
	}))

	var stages []string
	for {
		var frame map[string]interface{}
		require.NoError(suite.T(), conn.ReadJSON(&frame))

		if frame["type"] == "progress" {
			stages = append(stages, frame["progress"].(map[string]interface{})["stage"].(string))
			continue
		}

		require.Equal(suite.T(), "result", frame["type"], frame)
		assert.Equal(suite.T(), "ghibli", frame["result"].(map[string]interface{})["style"])
		break
	}

	assert.Equal(suite.T(), []string{
		services.StagePreparing,
		services.StageGenerating,
		services.StageProcessing,
		services.StageComplete,
	}, stages)

	_, _, err = conn.ReadMessage()
	assert.True(suite.T(), websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
}

func (suite *APITestSuite) TestGenerateStreamUnknownStyle() {
	server := httptest.NewServer(suite.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/generate/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(suite.T(), err)
	defer conn.Close()

	require.NoError(suite.T(), conn.WriteJSON(map[string]interface{}{
		"baseImageUrl": "https://example.com/ape.png",
		"style":        "vaporwave",
	}))

	var frame map[string]interface{}
	require.NoError(suite.T(), conn.ReadJSON(&frame))
	assert.Equal(suite.T(), "error", frame["type"])
	assert.Equal(suite.T(), "VALIDATION_ERROR", frame["code"])
}

func (suite *APITestSuite) TestUploadDerivativeLinksDraft() {
	draft := suite.saveDraft(testWallet)

	w := performRequest(suite.router, "POST", "/api/ipfs/derivative", map[string]interface{}{
		"imageUrl": suite.imageTS.URL + "/derivative.png",
		"wallet":   testWallet,
		"draftId":  draft["id"],
		"metadata": map[string]interface{}{
			"name":             "Pixel Ape",
			"description":      "An ape, but pixelated",
			"base_nft_address": baseContract,
			"generation_style": "pixel",
		},
	})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	response := decodeBody(w)
	assert.Equal(suite.T(), "QmImageCID", response["image"].(map[string]interface{})["hash"])
	assert.Equal(suite.T(), "https://gateway.test/ipfs/QmMetadataCID", response["metadata"].(map[string]interface{})["url"])
	document := response["document"].(map[string]interface{})
	assert.Equal(suite.T(), "https://gateway.test/ipfs/QmImageCID", document["image"])
	assert.NotEmpty(suite.T(), document["created_at"])
	require.Len(suite.T(), suite.pinner.files, 1)
	assert.Equal(suite.T(), pngBytes, suite.pinner.files[0])

	var stored models.DerivativeDraft
	require.NoError(suite.T(), suite.db.First(&stored, "id = ?", draft["id"]).Error)
	assert.Equal(suite.T(), "https://gateway.test/ipfs/QmMetadataCID", stored.MetadataURL)
}

func (suite *APITestSuite) TestUploadDerivativeFailures() {
	w := performRequest(suite.router, "POST", "/api/ipfs/derivative", map[string]interface{}{
		"imageUrl": suite.imageTS.URL + "/missing.png",
		"metadata": map[string]interface{}{"name": "Pixel Ape"},
	})
	assert.Equal(suite.T(), http.StatusBadGateway, w.Code)
	assert.Equal(suite.T(), "Failed to download source image", decodeBody(w)["error"])

	suite.pinner.fail = true
	w = performRequest(suite.router, "POST", "/api/ipfs/derivative", map[string]interface{}{
		"imageUrl": suite.imageTS.URL + "/derivative.png",
		"metadata": map[string]interface{}{"name": "Pixel Ape"},
	})
	assert.Equal(suite.T(), http.StatusBadGateway, w.Code)
	assert.Equal(suite.T(), "UPSTREAM_ERROR", decodeBody(w)["code"])

	w = performRequest(suite.router, "POST", "/api/ipfs/derivative", map[string]interface{}{
		"imageUrl": suite.imageTS.URL + "/derivative.png",
		"draftId":  "6f1c2f0e-8d9b-4a55-9a3e-1d2c3b4a5f60",
		"metadata": map[string]interface{}{"name": "Pixel Ape"},
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestUploadDerivativeRejectsInternalURL() {
	// Same wiring as production: no loopback allowance
	suite.router = router.InitializeWithServices(suite.db, suite.cfg, router.Services{
		IPFS: services.NewIPFSServiceWithPinner(suite.pinner, suite.cfg.IPFS.GatewayURL, false, 5*time.Second, 1<<20),
	})

	for _, imageURL := range []string{
		suite.imageTS.URL + "/derivative.png",
		"http://169.254.169.254/latest/meta-data/",
		"http://10.0.0.1/derivative.png",
	} {
		w := performRequest(suite.router, "POST", "/api/ipfs/derivative", map[string]interface{}{
			"imageUrl": imageURL,
			"metadata": map[string]interface{}{"name": "Pixel Ape"},
		})
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, imageURL)
		assert.Equal(suite.T(), "Image URL points to a disallowed address", decodeBody(w)["error"], imageURL)
	}

	assert.Empty(suite.T(), suite.pinner.files)
}

func (suite *APITestSuite) TestUploadMetadataValidation() {
	w := performRequest(suite.router, "POST", "/api/ipfs/metadata", map[string]interface{}{
		"description": "No name",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", decodeBody(w)["code"])
}

func (suite *APITestSuite) TestLocalizedErrors() {
	w := performRequest(suite.router, "GET", "/api/marketplace/listings/unknown", nil, "Accept-Language", "zh-TW,zh;q=0.9")
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.NotEqual(suite.T(), "Listing not found", decodeBody(w)["error"])
	assert.NotEmpty(suite.T(), w.Header().Get("X-Request-ID"))
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
