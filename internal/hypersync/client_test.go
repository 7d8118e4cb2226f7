package hypersync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vials-labs/vials-backend/internal/utils"
)

const (
	owner    = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	stranger = "0x1111111111111111111111111111111111111111"
	contract = "0xc0ffee254729296a45a3885639ac7e10f9d54979"
)

func TestTransferTopic(t *testing.T) {
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", TransferTopic)
}

func TestReplay(t *testing.T) {
	transfers := []Transfer{
		// Out of order on purpose: replay sorts by block then log index
		{Contract: contract, TokenID: "1", From: owner, To: stranger, BlockNumber: 20, LogIndex: 0},
		{Contract: contract, TokenID: "1", From: stranger, To: owner, BlockNumber: 10, LogIndex: 1},
		{Contract: contract, TokenID: "2", From: stranger, To: owner, BlockNumber: 10, LogIndex: 0},
		{Contract: contract, TokenID: "3", From: stranger, To: owner, BlockNumber: 30, LogIndex: 0},
		{Contract: contract, TokenID: "3", From: owner, To: stranger, BlockNumber: 31, LogIndex: 0},
		{Contract: contract, TokenID: "3", From: stranger, To: owner, BlockNumber: 32, LogIndex: 0},
	}

	holdings := Replay("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", transfers)

	require.Len(t, holdings, 2)
	assert.Equal(t, "2", holdings[0].TokenID)
	assert.Equal(t, "3", holdings[1].TokenID)
	assert.Equal(t, uint64(32), holdings[1].BlockNumber)
}

func TestReplayMint(t *testing.T) {
	zero := "0x0000000000000000000000000000000000000000"
	holdings := Replay(owner, []Transfer{{Contract: contract, TokenID: "5", From: zero, To: owner, BlockNumber: 1}})
	require.Len(t, holdings, 1)
	assert.Equal(t, contract, holdings[0].Contract)
}

func topic(s string) *string { return &s }

func transferLog(from, to string, tokenID int64, block uint64) logOut {
	return logOut{
		Address:     "0xC0FFEE254729296a45a3885639AC7E10F9d54979",
		Topic0:      topic(TransferTopic),
		Topic1:      topic(utils.PadAddressTopic(from)),
		Topic2:      topic(utils.PadAddressTopic(to)),
		Topic3:      topic(fmt.Sprintf("0x%064x", tokenID)),
		BlockNumber: block,
	}
}

func TestDecodeTransfer(t *testing.T) {
	transfer, ok := decodeTransfer(transferLog(stranger, owner, 255, 7))
	require.True(t, ok)
	assert.Equal(t, contract, transfer.Contract)
	assert.Equal(t, "255", transfer.TokenID)
	assert.Equal(t, stranger, transfer.From)
	assert.Equal(t, owner, transfer.To)

	// ERC-20 transfers carry the amount in data, not topic3
	erc20 := transferLog(stranger, owner, 1, 7)
	erc20.Topic3 = nil
	_, ok = decodeTransfer(erc20)
	assert.False(t, ok)

	other := transferLog(stranger, owner, 1, 7)
	other.Topic0 = topic("0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925")
	_, ok = decodeTransfer(other)
	assert.False(t, ok)
}

func TestDecodeLogsShapes(t *testing.T) {
	logs, err := decodeLogs(json.RawMessage(`[{"logs":[{"block_number":1}]},{"logs":[{"block_number":2}]}]`))
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = decodeLogs(json.RawMessage(`{"logs":[{"block_number":3}]}`))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	logs, err = decodeLogs(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestGetNFTsForOwnerPages(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hs-key", r.Header.Get("Authorization"))

		var query queryIn
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		if !assert.Len(t, query.Logs, 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, utils.PadAddressTopic(owner), query.Logs[0].Topics[2][0])
		assert.Equal(t, utils.PadAddressTopic(owner), query.Logs[1].Topics[1][0])

		var batch batchOut
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			assert.Equal(t, uint64(0), query.FromBlock)
			batch.Logs = []logOut{transferLog(stranger, owner, 1, 10), transferLog(stranger, owner, 2, 11)}
			writeQueryOut(w, []batchOut{batch}, 100, 200)
		default:
			assert.Equal(t, uint64(100), query.FromBlock)
			batch.Logs = []logOut{transferLog(owner, stranger, 1, 150)}
			writeQueryOut(w, []batchOut{batch}, 200, 200)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "hs-key", "Monad Testnet", time.Second)
	page, err := client.GetNFTsForOwner(context.Background(), owner, "ignored")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Len(t, page.OwnedNFTs, 1)
	assert.Equal(t, 1, page.TotalCount)
	nft := page.OwnedNFTs[0]
	assert.Equal(t, "2", nft.TokenID)
	assert.Equal(t, "Monad NFT #2", nft.Title)
	assert.Equal(t, "NFT from Monad Testnet", nft.Description)
}

func writeQueryOut(w http.ResponseWriter, batches []batchOut, next, archive uint64) {
	data, _ := json.Marshal(batches)
	json.NewEncoder(w).Encode(queryOut{Data: data, NextBlock: next, ArchiveHeight: &archive})
}

func TestGetNFTsForOwnerErrors(t *testing.T) {
	_, err := NewClient("", "", "Monad Testnet", 0).GetNFTsForOwner(context.Background(), owner, "")
	assert.ErrorIs(t, err, ErrMissingURL)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err = NewClient(server.URL, "", "Monad Testnet", time.Second).GetNFTsForOwner(context.Background(), owner, "")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestMockNFTs(t *testing.T) {
	page := MockNFTs()
	require.Len(t, page.OwnedNFTs, 2)
	assert.Contains(t, page.OwnedNFTs[0].Media[0].Gateway, "data:image/svg+xml;base64,")
}
