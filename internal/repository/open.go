package repository

import "fmt"

// Open returns the Store selected by kind: memory, bolt, postgres or sqlite.
func Open(kind, dsn string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "bolt", "bbolt", "":
		if dsn == "" {
			dsn = "data/ledger.db"
		}
		return OpenBolt(dsn)
	case "postgres":
		return OpenSQL(DriverPostgres, dsn)
	case "sqlite", "sqlite3":
		if dsn == "" {
			dsn = "data/ledger.sqlite"
		}
		return OpenSQL(DriverSQLite, dsn)
	}
	return nil, fmt.Errorf("unknown store kind %q", kind)
}
