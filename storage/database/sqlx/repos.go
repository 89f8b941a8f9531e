package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/medatlas/medatlas/core"
)

// trapNoRowsErr maps "no rows" errors to notFound. A closed connection cannot be recovered from
// and asks the server to shut down.
func trapNoRowsErr(err error, notFound error, msg string) error {
	switch errors.Cause(err) {
	case sql.ErrNoRows:
		return notFound
	case sql.ErrConnDone:
		return core.NewShutdownError("database connection closed")
	}
	return errors.Wrap(err, msg)
}

// isUUID reports whether id can be compared against a UUID column.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func uuids(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}
