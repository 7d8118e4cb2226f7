// internal/handlers/generation_test.go
package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://vials.app"})

	req := httptest.NewRequest("GET", "/api/generate/stream", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://vials.app")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

func TestParseChainID(t *testing.T) {
	id, ok := parseChainID("")
	assert.True(t, ok)
	assert.Zero(t, id)

	id, ok = parseChainID("10143")
	assert.True(t, ok)
	assert.Equal(t, int64(10143), id)

	_, ok = parseChainID("-1")
	assert.False(t, ok)

	_, ok = parseChainID("arbitrum")
	assert.False(t, ok)
}
