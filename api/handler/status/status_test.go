package status

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initia-labs/transfervolume/api/handler/common"
	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/orm/testutil"
)

func setupStatusApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.SetChainConfig(&config.ChainConfig{ChainId: "test-1"})

	app := fiber.New()
	NewStatusHandler(common.NewBaseHandler(db, cfg, logger)).Register(app)
	return app, mock
}

func getStatus(t *testing.T, app *fiber.App) (*http.Response, StatusResponse) {
	t.Helper()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body StatusResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestGetStatus(t *testing.T) {
	app, mock := setupStatusApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "block" WHERE chain_id = \$1 ORDER BY height DESC`).
		WithArgs("test-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"chain_id", "height", "hash", "transfer_count", "row_count"}).
			AddRow("test-1", 120, "0xabc", 3, 2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "transfer_volume"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectRollback()

	resp, body := getStatus(t, app)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "test-1", body.ChainId)
	assert.Equal(t, int64(120), body.Height)
	assert.Equal(t, int64(5), body.TrackedTokens)
	assert.Equal(t, config.Version, body.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatus_NoBlocksYet(t *testing.T) {
	app, mock := setupStatusApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "block"`).
		WillReturnRows(sqlmock.NewRows([]string{"chain_id", "height"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "transfer_volume"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	resp, body := getStatus(t, app)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, body.Height)
	assert.Zero(t, body.TrackedTokens)
}

func TestGetStatus_DBError(t *testing.T) {
	app, mock := setupStatusApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "block"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	resp, _ := getStatus(t, app)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
