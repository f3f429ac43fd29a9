package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/orm/testutil"
)

func newTestApi(t *testing.T) (*Api, sqlmock.Sqlmock) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.SetChainConfig(&config.ChainConfig{ChainId: "test-1"})

	return New(cfg, logger, db), mock
}

func TestHealth(t *testing.T) {
	a, _ := newTestApi(t)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/health", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestErrorHandler_JSONBody(t *testing.T) {
	a, _ := newTestApi(t)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/indexer/transfer-volume/not-hex", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestUnknownRoute(t *testing.T) {
	a, _ := newTestApi(t)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/indexer/nope", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	a, _ := newTestApi(t)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSwaggerDoc(t *testing.T) {
	a, _ := newTestApi(t)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/swagger/doc.json", nil)
	resp, err := a.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "/indexer", doc.BasePath)
	assert.Contains(t, doc.Paths, "/transfer-volume")
	assert.Contains(t, doc.Paths, "/transfer-volume/{address}")
	assert.Contains(t, doc.Paths, "/status")
}
