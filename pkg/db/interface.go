package db

import "database/sql"

// DBProvider exposes a connected sql.DB handle. SQLClient and SupabaseClient
// both satisfy it, so SQL sinks accept either.
type DBProvider interface {
	DB() *sql.DB
}
