// internal/services/ipfs_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/pinata"
	"github.com/vials-labs/vials-backend/internal/utils"
)

const mockMetadataHash = "mock_metadata_hash"

// ErrImageDownload marks failures fetching the source image, as opposed to
// failures pinning it.
var ErrImageDownload = errors.New("image download failed")

// ErrRestrictedAddress is returned when an image URL resolves to a loopback,
// private or link-local address.
var ErrRestrictedAddress = errors.New("image URL resolves to a restricted address")

// Carrier-grade NAT range; net.IP has no predicate for it.
var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// Pinner stores content on IPFS and returns its CID.
type Pinner interface {
	PinFile(ctx context.Context, name, contentType string, data []byte) (string, error)
	PinJSON(ctx context.Context, name string, value interface{}) (string, error)
}

type PinResult struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
	Mock bool   `json:"mock,omitempty"`
}

type MetadataAttribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// DerivativeMetadata is the ERC-721 metadata document pinned for a
// derivative, with the extra fields that link it to its base NFT.
type DerivativeMetadata struct {
	Name             string              `json:"name" validate:"required,max=255"`
	Description      string              `json:"description"`
	Image            string              `json:"image,omitempty"`
	Attributes       []MetadataAttribute `json:"attributes,omitempty"`
	ExternalURL      string              `json:"external_url,omitempty" validate:"omitempty,url"`
	BackgroundColor  string              `json:"background_color,omitempty" validate:"omitempty,hexadecimal,len=6"`
	AnimationURL     string              `json:"animation_url,omitempty" validate:"omitempty,url"`
	BaseNFTAddress   string              `json:"base_nft_address,omitempty" validate:"omitempty,eth_address"`
	BaseTokenID      string              `json:"base_token_id,omitempty"`
	GenerationStyle  string              `json:"generation_style,omitempty"`
	GenerationPrompt string              `json:"generation_prompt,omitempty"`
	CreatedAt        string              `json:"created_at,omitempty"`
}

type UploadDerivativeRequest struct {
	ImageURL string             `json:"imageUrl" validate:"required,url"`
	Metadata DerivativeMetadata `json:"metadata"`
	Wallet   string             `json:"wallet,omitempty" validate:"omitempty,eth_address"`
	DraftID  string             `json:"draftId,omitempty" validate:"omitempty,uuid"`
}

type DerivativeUploadResult struct {
	Image    PinResult          `json:"image"`
	Metadata PinResult          `json:"metadata"`
	Document DerivativeMetadata `json:"document"`
}

type IPFSService struct {
	pinner        Pinner
	gatewayURL    string
	mockFallback  bool
	maxImageBytes int64
	httpClient    *http.Client
}

type ipfsOptions struct {
	allowLoopback bool
}

type IPFSOption func(*ipfsOptions)

// WithLoopbackDownloads lets image downloads reach 127.0.0.0/8 and ::1, for
// tests that serve images from httptest. Private and link-local ranges stay
// blocked.
func WithLoopbackDownloads() IPFSOption {
	return func(o *ipfsOptions) {
		o.allowLoopback = true
	}
}

type pinataPinner struct {
	client *pinata.Client
}

func (p pinataPinner) PinFile(ctx context.Context, name, contentType string, data []byte) (string, error) {
	res, err := p.client.PinFile(ctx, name, contentType, data)
	if err != nil {
		return "", err
	}
	return res.IpfsHash, nil
}

func (p pinataPinner) PinJSON(ctx context.Context, name string, value interface{}) (string, error) {
	res, err := p.client.PinJSON(ctx, name, value)
	if err != nil {
		return "", err
	}
	return res.IpfsHash, nil
}

// NewIPFSService picks the pinning backend from configuration. A backend
// without credentials leaves the service without a pinner; whether that is
// served as mock data depends on IPFS_MOCK_FALLBACK.
func NewIPFSService(cfg *config.Config) *IPFSService {
	var pinner Pinner

	switch cfg.IPFS.Backend {
	case "pinata":
		if cfg.IPFS.PinataJWT != "" {
			pinner = pinataPinner{client: pinata.NewClient(cfg.IPFS.PinataAPIURL, cfg.IPFS.PinataJWT, 0)}
		}
	case "filebase":
		storage, err := NewStorageService(cfg)
		if err != nil {
			logrus.WithError(err).Warn("Filebase pinning unavailable")
		} else {
			pinner = storage
		}
	}

	if pinner == nil {
		logrus.WithField("backend", cfg.IPFS.Backend).Warn("No IPFS pinning backend configured")
	}

	return NewIPFSServiceWithPinner(
		pinner,
		cfg.IPFS.GatewayURL,
		cfg.IPFS.MockFallback,
		time.Duration(cfg.IPFS.DownloadTimeout)*time.Second,
		int64(cfg.IPFS.MaxImageSizeMB)*1024*1024,
	)
}

func NewIPFSServiceWithPinner(pinner Pinner, gatewayURL string, mockFallback bool, downloadTimeout time.Duration, maxImageBytes int64, opts ...IPFSOption) *IPFSService {
	var options ipfsOptions
	for _, opt := range opts {
		opt(&options)
	}

	if gatewayURL == "" {
		gatewayURL = "https://gateway.pinata.cloud"
	}
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Second
	}
	return &IPFSService{
		pinner:        pinner,
		gatewayURL:    strings.TrimSuffix(gatewayURL, "/"),
		mockFallback:  mockFallback,
		maxImageBytes: maxImageBytes,
		httpClient: &http.Client{
			Timeout:   downloadTimeout,
			Transport: downloadTransport(options.allowLoopback),
		},
	}
}

// downloadTransport checks every dialed address after DNS resolution, which
// also covers redirects. No proxy: the check must see the real destination.
func downloadTransport(allowLoopback bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			ip := net.ParseIP(host)
			if ip == nil {
				return fmt.Errorf("%w: %s", ErrRestrictedAddress, address)
			}
			if allowLoopback && ip.IsLoopback() {
				return nil
			}
			if isRestrictedIP(ip) {
				return fmt.Errorf("%w: %s", ErrRestrictedAddress, ip)
			}
			return nil
		},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return transport
}

func isRestrictedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() ||
		sharedAddressSpace.Contains(ip)
}

// IPFSURL resolves a CID or ipfs:// URI to a gateway URL. HTTP(S) URLs are
// returned unchanged.
func (s *IPFSService) IPFSURL(hash string) string {
	switch {
	case strings.HasPrefix(hash, "http://"), strings.HasPrefix(hash, "https://"):
		return hash
	case strings.HasPrefix(hash, "ipfs://"):
		return s.gatewayURL + "/ipfs/" + strings.TrimPrefix(hash, "ipfs://")
	default:
		return s.gatewayURL + "/ipfs/" + hash
	}
}

func (s *IPFSService) UploadImage(ctx context.Context, filename, contentType string, data []byte) (*PinResult, error) {
	if s.pinner == nil {
		return s.mockFile("image", ErrNotConfigured)
	}

	hash, err := s.pinner.PinFile(ctx, filename, contentType, data)
	if err != nil {
		return s.mockFile("image", errors.Join(ErrUpstream, err))
	}

	return &PinResult{Hash: hash, URL: s.IPFSURL(hash)}, nil
}

// UploadImageFromURL downloads imageURL and pins the bytes.
func (s *IPFSService) UploadImageFromURL(ctx context.Context, imageURL, filename string) (*PinResult, error) {
	data, contentType, err := s.download(ctx, imageURL)
	if err != nil {
		if errors.Is(err, ErrRestrictedAddress) {
			logrus.WithField("url", imageURL).Warn("Rejected image URL on a restricted network")
			return nil, errors.Join(ErrInvalidInput, err)
		}
		if s.mockFallback {
			logrus.WithError(err).WithField("url", imageURL).Warn("Image download failed, keeping original URL")
			return &PinResult{Hash: "mock_hash", URL: imageURL, Mock: true}, nil
		}
		return nil, errors.Join(ErrUpstream, ErrImageDownload, err)
	}

	return s.UploadImage(ctx, filename, contentType, data)
}

func (s *IPFSService) UploadMetadata(ctx context.Context, metadata *DerivativeMetadata) (*PinResult, error) {
	if err := utils.ValidateStruct(metadata); err != nil {
		return nil, invalidInput(err)
	}

	if s.pinner == nil {
		return s.mockMetadata(metadata, ErrNotConfigured)
	}

	hash, err := s.pinner.PinJSON(ctx, metadataFileName(metadata.Name), metadata)
	if err != nil {
		return s.mockMetadata(metadata, errors.Join(ErrUpstream, err))
	}

	return &PinResult{Hash: hash, URL: s.IPFSURL(hash)}, nil
}

// UploadDerivative pins the generated image, points the metadata at the
// pinned copy, stamps created_at and pins the metadata.
func (s *IPFSService) UploadDerivative(ctx context.Context, req *UploadDerivativeRequest) (*DerivativeUploadResult, error) {
	req.Metadata.Name = utils.SanitizeText(req.Metadata.Name)
	req.Metadata.Description = utils.SanitizeText(req.Metadata.Description)
	req.Metadata.GenerationPrompt = utils.SanitizeText(req.Metadata.GenerationPrompt)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidInput(err)
	}

	image, err := s.UploadImageFromURL(ctx, req.ImageURL, req.Metadata.Name+".png")
	if err != nil {
		return nil, err
	}

	document := req.Metadata
	document.Image = image.URL
	document.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if document.BaseNFTAddress != "" {
		document.BaseNFTAddress = utils.NormalizeAddress(document.BaseNFTAddress)
	}

	metadata, err := s.UploadMetadata(ctx, &document)
	if err != nil {
		return nil, err
	}

	return &DerivativeUploadResult{Image: *image, Metadata: *metadata, Document: document}, nil
}

func (s *IPFSService) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, "", fmt.Errorf("unsupported image URL %q", imageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if s.maxImageBytes > 0 {
		reader = io.LimitReader(resp.Body, s.maxImageBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if s.maxImageBytes > 0 && int64(len(data)) > s.maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", s.maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}

func (s *IPFSService) mockFile(kind string, cause error) (*PinResult, error) {
	if !s.mockFallback {
		return nil, cause
	}

	suffix, err := utils.GenerateRandomString(44)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mock hash: %w", err)
	}

	logrus.WithError(cause).WithField("kind", kind).Warn("IPFS pin failed, serving mock hash")
	hash := "Qm" + suffix
	return &PinResult{Hash: hash, URL: s.IPFSURL(hash), Mock: true}, nil
}

func (s *IPFSService) mockMetadata(metadata *DerivativeMetadata, cause error) (*PinResult, error) {
	if !s.mockFallback {
		return nil, cause
	}

	logrus.WithError(cause).Warn("IPFS metadata pin failed, serving data URL")
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return &PinResult{
		Hash: mockMetadataHash,
		URL:  "data:application/json," + url.PathEscape(string(data)),
		Mock: true,
	}, nil
}

func metadataFileName(name string) string {
	base := path.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == "/" {
		base = "derivative"
	}
	return base + "-metadata"
}
