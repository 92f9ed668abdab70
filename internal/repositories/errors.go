package repositories

import (
	"errors"

	"github.com/lib/pq"
)

// ErrMissingReference is returned when a write points at a row that does not
// exist, such as a deal moved into a stage deleted in the meantime.
var ErrMissingReference = errors.New("referenced row does not exist")

const (
	pgForeignKeyViolation = "23503"
	// SQLITE_CONSTRAINT_FOREIGNKEY, as an extended result code
	sqliteForeignKeyViolation = 787
)

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgForeignKeyViolation
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code() == sqliteForeignKeyViolation
	}
	return false
}
