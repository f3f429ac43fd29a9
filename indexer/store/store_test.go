package store

import (
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initia-labs/transfervolume/orm"
	"github.com/initia-labs/transfervolume/orm/testutil"
)

func setupTestDB(t *testing.T) (*orm.Database, sqlmock.Sqlmock) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	return db, mock
}

func TestMemoryStoreAddGet(t *testing.T) {
	s := NewMemoryStore()

	_, ok := s.Get("aa")
	assert.False(t, ok)

	s.Add("aa", 1)
	s.Add("aa", 1)
	s.Add("bb", 1)

	v, ok := s.Get("aa")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)

	v, ok = s.Get("bb")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
	assert.Equal(t, 2, s.Size())
}

func TestMemoryStoreDeltaWindow(t *testing.T) {
	s := NewMemoryStore()
	s.Restore(map[string]int64{"aa": 10})

	s.BeginBlock()
	s.Add("aa", 1)
	s.Add("bb", 1)
	s.Add("bb", 1)
	assert.Equal(t, map[string]int64{"aa": 1, "bb": 2}, s.Deltas())

	s.Commit()
	assert.Empty(t, s.Deltas())
	assert.Equal(t, map[string]int64{"aa": 11, "bb": 2}, s.Snapshot())
}

func TestMemoryStoreRollback(t *testing.T) {
	s := NewMemoryStore()
	s.Restore(map[string]int64{"aa": 10, "zero": 0})

	s.BeginBlock()
	s.Add("aa", 1)
	s.Add("zero", 1)
	s.Add("new", 1)
	s.Rollback()

	assert.Equal(t, map[string]int64{"aa": 10, "zero": 0}, s.Snapshot())
	_, ok := s.Get("new")
	assert.False(t, ok)
	v, ok := s.Get("zero")
	assert.True(t, ok)
	assert.Equal(t, int64(0), v)
	assert.Empty(t, s.Deltas())
}

func TestMemoryStoreConcurrentAdd(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Add("aa", 1)
			}
		}()
	}
	wg.Wait()

	v, _ := s.Get("aa")
	assert.Equal(t, int64(1000), v)
	assert.Equal(t, map[string]int64{"aa": 1000}, s.Deltas())
}

func TestMemoryStoresAreIndependent(t *testing.T) {
	a := NewMemoryStore()
	b := NewMemoryStore()

	a.Add("aa", 1)
	_, ok := b.Get("aa")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	db, mock := setupTestDB(t)

	rows := sqlmock.NewRows([]string{"key", "value", "height"}).
		AddRow("aa", 3, 10).
		AddRow("bb", 7, 12)
	mock.ExpectQuery(`SELECT \* FROM "transfer_volume_store"`).WillReturnRows(rows)

	values, err := Load(db.DB)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"aa": 3, "bb": 7}, values)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpoint(t *testing.T) {
	db, mock := setupTestDB(t)

	mock.ExpectExec(`INSERT INTO "transfer_volume_store" .* ON CONFLICT \("key"\) DO UPDATE SET`).
		WithArgs("aa", int64(1), int64(42), "bb", int64(2), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := Checkpoint(db.DB, 42, map[string]int64{"bb": 2, "aa": 1}, 100)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckpointEmpty(t *testing.T) {
	db, mock := setupTestDB(t)

	require.NoError(t, Checkpoint(db.DB, 42, nil, 100))
	require.NoError(t, mock.ExpectationsWereMet())
}
