// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError = "error.internal"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationAddress  = "validation.invalid_address"
	KeyValidationWallet   = "validation.wallet_required"
	KeyValidationDraftID  = "validation.draft_id_required"
	KeyValidationChainID  = "validation.invalid_chain_id"
	KeyValidationStyle    = "validation.unknown_style"
	KeyValidationFile     = "validation.file_required"
	KeyValidationFileSize = "validation.file_too_large"
	KeyValidationImageURL = "validation.image_url_not_allowed"

	// Drafts
	KeyDraftNotFound = "draft.not_found"
	KeyDraftDeleted  = "draft.deleted"

	// Listings
	KeyListingNotFound = "listing.not_found"
	KeyListingExists   = "listing.exists"

	// Minted NFTs
	KeyMintedExists = "minted.exists"

	// NFT ownership
	KeyNFTFetchFailed = "nft.fetch_failed"
	KeyNFTNotFound    = "nft.not_found"

	// IPFS
	KeyIPFSUploadFailed   = "ipfs.upload_failed"
	KeyIPFSDownloadFailed = "ipfs.download_failed"

	// Generation
	KeyGenerationFailed = "generation.failed"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
