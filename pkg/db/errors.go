package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
)

// IsUniqueViolation reports whether err is a unique violation, optionally on the
// named constraint. Postgres errors are matched by SQLSTATE and constraint name.
func IsUniqueViolation(err error, constraintName string) bool {
	return isViolation(err, pkgerrors.SQLStateUniqueViolation, constraintName, "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint failure, e.g. the
// orders_shopify_sync_check guard.
func IsCheckViolation(err error, constraintName string) bool {
	return isViolation(err, pkgerrors.SQLStateCheckViolation, constraintName, "CHECK constraint failed")
}

func isViolation(err error, sqlState, constraintName, sqliteMarker string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.AsPG(err); ok {
		if pg.Code != sqlState {
			return false
		}
		return constraintName == "" || pg.Constraint == constraintName
	}
	// SQLite names columns rather than constraints, so only the kind is matched.
	return strings.Contains(err.Error(), sqliteMarker)
}
