package database

import (
	"fmt"
	"strings"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// ParseURL splits a DATABASE_URL into its dialect and the DSN the driver
// expects. postgres:// and postgresql:// URLs are passed through unchanged;
// sqlite://<path> and file:<path> yield the bare path.
func ParseURL(databaseURL string) (dialect, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn = strings.TrimPrefix(databaseURL, "sqlite://")
	case strings.HasPrefix(databaseURL, "file:"):
		dsn = strings.TrimPrefix(databaseURL, "file:")
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL scheme in %q", redact(databaseURL))
	}

	if dsn == "" {
		return "", "", fmt.Errorf("DATABASE_URL %q has no path", databaseURL)
	}
	return DialectSQLite, dsn, nil
}

func redact(u string) string {
	if i := strings.Index(u, "@"); i >= 0 {
		if j := strings.Index(u, "://"); j >= 0 && j < i {
			return u[:j+3] + "***" + u[i:]
		}
	}
	return u
}
