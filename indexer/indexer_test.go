package indexer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/indexer/metadata"
	"github.com/initia-labs/transfervolume/orm"
	dbconfig "github.com/initia-labs/transfervolume/orm/config"
	"github.com/initia-labs/transfervolume/orm/testutil"
	"github.com/initia-labs/transfervolume/types"
)

const (
	apeToken   = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	apeAddress = "5fbdb2315678afecb367f032d93f642f64180aa3"
)

type fakeChain struct {
	head      atomic.Int64
	onLatest  func(calls int32)
	calls     atomic.Int32
	logs      map[int64][]types.EvmLog
	receiptsE error
}

func (c *fakeChain) GetLatestHeight(context.Context) (int64, error) {
	n := c.calls.Add(1)
	if c.onLatest != nil {
		c.onLatest(n)
	}
	return c.head.Load(), nil
}

func (c *fakeChain) GetEvmTxs(_ context.Context, height int64) ([]types.EvmTx, error) {
	if c.receiptsE != nil {
		return nil, c.receiptsE
	}
	return []types.EvmTx{{Logs: c.logs[height]}}, nil
}

func (c *fakeChain) GetEvmBlockHeader(_ context.Context, height int64) (*types.EvmBlockHeader, error) {
	return &types.EvmBlockHeader{Hash: "0xhash", Timestamp: "0x6553f100"}, nil
}

type staticResolver map[string]metadata.TokenMeta

func (r staticResolver) Resolve(_ context.Context, address string, _ int64) (metadata.TokenMeta, error) {
	meta, ok := r[address]
	if !ok {
		return metadata.TokenMeta{}, errors.New("not a token")
	}
	return meta, nil
}

func transferLog(token string) types.EvmLog {
	return types.EvmLog{
		Address: token,
		Topics: []string{
			types.EvmTransferTopic,
			"0x000000000000000000000000f39fd6e51aad88f6f4ce6ab8827279cfffb92266",
			"0x00000000000000000000000070997970c51812dc3a010c7d01b50e0d17dc79c8",
		},
		Data: "0x0000000000000000000000000000000000000000000000000000000000000001",
	}
}

func setupTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.SetDBConfig(&dbconfig.Config{BatchSize: 100})
	cfg.SetChainConfig(&config.ChainConfig{ChainId: "test-chain"})
	cfg.SetPollingInterval(10 * time.Millisecond)
	return cfg
}

func setupTestIndexer(t *testing.T, chain *fakeChain) (*Indexer, *orm.Database, sqlmock.Sqlmock) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	resolver := staticResolver{apeAddress: {Name: "ApeCoin", Symbol: "APE"}}
	i, err := NewWithClient(setupTestConfig(), logger, db, chain, resolver)
	require.NoError(t, err)
	return i, db, mock
}

func TestProcessHeightCommitsBlock(t *testing.T) {
	chain := &fakeChain{logs: map[int64][]types.EvmLog{
		7: {transferLog(apeToken), transferLog(apeToken)},
	}}
	i, _, mock := setupTestIndexer(t, chain)
	i.store.Restore(map[string]int64{apeAddress: 10})

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "transfer_volume"`).
		WithArgs(apeAddress, "ApeCoin", "APE", int64(12), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "transfer_volume_store"`).
		WithArgs(apeAddress, int64(2), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "block"`).
		WithArgs("test-chain", int64(7), "0xhash", sqlmock.AnyArg(), 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, i.processHeight(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())

	v, _ := i.store.Get(apeAddress)
	assert.Equal(t, int64(12), v)
	assert.Empty(t, i.store.Deltas())
}

func TestProcessHeightRollsBackOnCommitFailure(t *testing.T) {
	chain := &fakeChain{logs: map[int64][]types.EvmLog{
		3: {transferLog(apeToken)},
	}}
	i, _, mock := setupTestIndexer(t, chain)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "transfer_volume"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := i.processHeight(context.Background(), 3)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	_, ok := i.store.Get(apeAddress)
	assert.False(t, ok)
}

func TestProcessHeightRejectsCommittedHeight(t *testing.T) {
	chain := &fakeChain{logs: map[int64][]types.EvmLog{
		8: {transferLog(apeToken)},
	}}
	i, _, mock := setupTestIndexer(t, chain)
	i.store.Restore(map[string]int64{apeAddress: 5})

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "transfer_volume"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "transfer_volume_store"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "block"`).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := i.processHeight(context.Background(), 8)
	require.Error(t, err)
	code, ok := orm.PgErrorCode(err)
	require.True(t, ok)
	assert.Equal(t, "23505", code)
	require.NoError(t, mock.ExpectationsWereMet())

	v, _ := i.store.Get(apeAddress)
	assert.Equal(t, int64(5), v)
}

func TestProcessHeightDecodeFault(t *testing.T) {
	bad := transferLog(apeToken)
	bad.Data = "0x01"
	chain := &fakeChain{logs: map[int64][]types.EvmLog{4: {bad}}}
	i, _, mock := setupTestIndexer(t, chain)

	err := i.processHeight(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, types.IsDecodeFault(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessHeightFetchError(t *testing.T) {
	chain := &fakeChain{receiptsE: errors.New("exhausted all retries")}
	i, _, mock := setupTestIndexer(t, chain)

	require.Error(t, i.processHeight(context.Background(), 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunResumesFromDatabase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chain := &fakeChain{logs: map[int64][]types.EvmLog{}}
	chain.head.Store(6)
	// first call is the readiness check, second is the poll after catching up
	chain.onLatest = func(calls int32) {
		if calls >= 2 {
			cancel()
		}
	}
	i, _, mock := setupTestIndexer(t, chain)

	mock.ExpectQuery(`SELECT \* FROM "block" WHERE chain_id = \$1 ORDER BY height desc`).
		WillReturnRows(sqlmock.NewRows([]string{"chain_id", "height"}).AddRow("test-chain", 5))
	mock.ExpectQuery(`SELECT \* FROM "transfer_volume_store"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "height"}).AddRow(apeAddress, 4, 5))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "block"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, i.Run(ctx))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, int64(7), i.Height())
	v, ok := i.store.Get(apeAddress)
	require.True(t, ok)
	assert.Equal(t, int64(4), v)
}

func TestRunReplaysBlockOnSerializationFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chain := &fakeChain{logs: map[int64][]types.EvmLog{}}
	chain.head.Store(6)
	chain.onLatest = func(calls int32) {
		if calls >= 2 {
			cancel()
		}
	}
	i, _, mock := setupTestIndexer(t, chain)

	mock.ExpectQuery(`SELECT \* FROM "block"`).
		WillReturnRows(sqlmock.NewRows([]string{"chain_id", "height"}).AddRow("test-chain", 5))
	mock.ExpectQuery(`SELECT \* FROM "transfer_volume_store"`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "height"}))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "block"`).WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "block"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, i.Run(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, int64(7), i.Height())
}

func TestBuildBlock(t *testing.T) {
	removed := transferLog(apeToken)
	removed.Removed = true

	block, err := buildBlock("test-chain", 9, &types.EvmBlockHeader{Hash: "0xabc", Timestamp: "0x10"}, []types.EvmTx{
		{Logs: []types.EvmLog{transferLog(apeToken)}},
		{Logs: []types.EvmLog{removed}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", block.Hash)
	assert.Equal(t, time.Unix(16, 0).UTC(), block.Timestamp)
	assert.Len(t, block.Logs, 1)

	_, err = buildBlock("test-chain", 9, &types.EvmBlockHeader{Timestamp: "nothex"}, nil)
	assert.Error(t, err)
}
