// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/handlers"
	"github.com/vials-labs/vials-backend/internal/middleware"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

// Services lets callers, mainly tests, replace the adapters that reach
// third-party APIs. Nil fields are built from configuration.
type Services struct {
	NFT        *services.NFTService
	IPFS       *services.IPFSService
	Generation *services.GenerationService
}

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	return InitializeWithServices(db, cfg, Services{})
}

func InitializeWithServices(db *gorm.DB, cfg *config.Config, overrides Services) *gin.Engine {
	// Initialize services
	networkService := services.NewNetworkService(cfg)
	draftService := services.NewDraftService(db)
	listingService := services.NewListingService(db)
	mintedService := services.NewMintedService(db)

	nftService := overrides.NFT
	if nftService == nil {
		nftService = services.NewNFTService(cfg, networkService)
	}
	ipfsService := overrides.IPFS
	if ipfsService == nil {
		ipfsService = services.NewIPFSService(cfg)
	}
	generationService := overrides.Generation
	if generationService == nil {
		generationService = services.NewGenerationService(cfg)
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	draftHandler := handlers.NewDraftHandler(draftService)
	listingHandler := handlers.NewListingHandler(listingService)
	mintedHandler := handlers.NewMintedHandler(mintedService)
	nftHandler := handlers.NewNFTHandler(nftService, networkService)
	generationHandler := handlers.NewGenerationHandler(generationService, cfg.CORS.AllowedOrigins)
	ipfsHandler := handlers.NewIPFSHandler(ipfsService, draftService, cfg.IPFS.MaxImageSizeMB)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiters := middleware.NewRateLimiters(cfg.RateLimit)
	relayer := middleware.RelayerAuth(cfg.JWT.RequireRelayerToken)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))

	// Health check
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	api.Use(limiters.General.Middleware())
	{
		// Draft routes
		drafts := api.Group("/drafts")
		{
			drafts.POST("/save", draftHandler.SaveDraft)
			drafts.GET("/:wallet", draftHandler.ListDrafts)
			drafts.DELETE("/:wallet", draftHandler.DeleteDraft)
		}

		// Marketplace routes
		listings := api.Group("/marketplace/listings")
		{
			listings.GET("", listingHandler.ListListings)
			listings.GET("/:listingId", listingHandler.GetListing)
			listings.POST("", relayer, listingHandler.CreateListing)
			listings.PATCH("/:listingId", relayer, listingHandler.UpdateListing)
		}

		// NFT ownership and mint records
		nfts := api.Group("/nfts")
		{
			nfts.GET("", nftHandler.GetNFTs)
			nfts.GET("/multichain", nftHandler.GetMultiChainNFTs)
			nfts.GET("/metadata", nftHandler.GetNFTMetadata)
			nfts.GET("/minted", mintedHandler.ListMinted)
			nfts.POST("/minted", relayer, mintedHandler.RecordMint)
		}

		// Network registry
		networks := api.Group("/networks")
		{
			networks.GET("", nftHandler.GetNetworks)
			networks.GET("/:chainId/contracts", nftHandler.GetContracts)
		}

		// Generation routes
		generate := api.Group("/generate")
		{
			generate.GET("/styles", generationHandler.GetStyles)
			generate.POST("", limiters.Generate.Middleware(), generationHandler.Generate)
			generate.GET("/stream", limiters.Generate.Middleware(), generationHandler.Stream)
		}

		// IPFS routes
		ipfs := api.Group("/ipfs")
		ipfs.Use(limiters.Upload.Middleware())
		{
			ipfs.POST("/derivative", ipfsHandler.UploadDerivative)
			ipfs.POST("/image", ipfsHandler.UploadImage)
			ipfs.POST("/metadata", ipfsHandler.UploadMetadata)
		}
	}

	return r
}
