// internal/tests/helpers_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/models"
)

const (
	testWallet   = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"
	otherWallet  = "0x1111111111111111111111111111111111111111"
	testContract = "0xc0ffee254729296a45a3885639ac7e10f9d54979"
	baseContract = "0x3333333333333333333333333333333333333333"
)

// pngBytes is the smallest header isValidImageType accepts as PNG.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Database:    config.DatabaseConfig{Driver: "sqlite"},
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			RelayerTokenTTL: 1,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			GenerateBurst:     1000,
		},
		NFT: config.NFTConfig{MaxChainsPerCall: 2},
		IPFS: config.IPFSConfig{
			Backend:        "none",
			GatewayURL:     "https://gateway.test",
			MaxImageSizeMB: 1,
		},
		I18n: config.I18nConfig{DefaultLocale: "en"},
	}
}

type stubFetcher struct {
	mu    sync.Mutex
	page  *models.NFTPage
	nft   *models.NFT
	err   error
	calls int
}

func (f *stubFetcher) GetNFTsForOwner(ctx context.Context, owner, pageKey string) (*models.NFTPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.NFTPage{OwnedNFTs: append([]models.NFT(nil), f.page.OwnedNFTs...), TotalCount: f.page.TotalCount}, nil
}

func (f *stubFetcher) GetNFTMetadata(ctx context.Context, contract, tokenID string) (*models.NFT, error) {
	if f.err != nil {
		return nil, f.err
	}
	nft := *f.nft
	return &nft, nil
}

// stubPinner records pins and answers with fixed CIDs.
type stubPinner struct {
	mu    sync.Mutex
	files [][]byte
	docs  []interface{}
	fail  bool
}

func (p *stubPinner) PinFile(ctx context.Context, name, contentType string, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", errors.New("pinning service unavailable")
	}
	p.files = append(p.files, data)
	return "QmImageCID", nil
}

func (p *stubPinner) PinJSON(ctx context.Context, name string, value interface{}) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", errors.New("pinning service unavailable")
	}
	p.docs = append(p.docs, value)
	return "QmMetadataCID", nil
}

func performRequest(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonData)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return response
}
