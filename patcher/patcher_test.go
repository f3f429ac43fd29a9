package patcher

import (
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/initia-labs/transfervolume/config"
	"github.com/initia-labs/transfervolume/orm/testutil"
)

func TestPatch_AppliesPendingAndSkipsApplied(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	// v1.0.1 already recorded
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "upgrade_history" WHERE version = \$1`).
		WithArgs("v1.0.1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	// v1.0.2 pending
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "upgrade_history" WHERE version = \$1`).
		WithArgs("v1.0.2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT "address" FROM "transfer_volume" WHERE NOT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"address"}).AddRow("aa").AddRow("bb"))
	mock.ExpectExec(`DELETE FROM "transfer_volume" WHERE address IN \(\$1,\$2\)`).
		WithArgs("aa", "bb").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "upgrade_history"`).
		WithArgs("v1.0.2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, Patch(&config.Config{}, db, logger))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_FailedPatchRollsBack(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	failing := []PatchHandler{{
		Version: "v9.9.9",
		Func: func(tx *gorm.DB, _ *config.Config, _ *slog.Logger) error {
			return assert.AnError
		},
	}}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "upgrade_history"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err = run(failing, &config.Config{}, db, logger)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "v9.9.9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_OrdersBySemver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, mock, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	var ran []string
	record := func(version string) PatchHandler {
		return PatchHandler{Version: version, Func: func(*gorm.DB, *config.Config, *slog.Logger) error {
			ran = append(ran, version)
			return nil
		}}
	}

	// v1.0.10 sorts after v1.0.9 only under semver
	for _, version := range []string{"v1.0.9", "v1.0.10"} {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "upgrade_history"`).
			WithArgs(version).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "upgrade_history"`).
			WithArgs(version, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	require.NoError(t, run([]PatchHandler{record("v1.0.10"), record("v1.0.9")}, &config.Config{}, db, logger))
	assert.Equal(t, []string{"v1.0.9", "v1.0.10"}, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_InvalidVersion(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, _, err := testutil.NewMockDB(logger)
	require.NoError(t, err)

	err = run([]PatchHandler{{Version: "1.0.0"}}, &config.Config{}, db, logger)
	assert.ErrorContains(t, err, "invalid patch version")
}
