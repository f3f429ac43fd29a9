package orm

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PgErrorCode returns the SQLSTATE of the first postgres error in err's chain
func PgErrorCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}
	return "", false
}

// IsSerializationFailure reports serialization_failure and deadlock_detected,
// both of which succeed when the transaction is replayed
func IsSerializationFailure(err error) bool {
	code, ok := PgErrorCode(err)
	return ok && (code == "40001" || code == "40P01")
}
