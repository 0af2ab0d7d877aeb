package db

import "database/sql"

// DB wraps the shared connection pool so repositories depend on one type.
type DB struct {
	*sql.DB
}
