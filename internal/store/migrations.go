package store

import (
	"context"
	"fmt"
	"strings"
)

// dialect holds the column types and driver name that differ between the
// supported databases.
type dialect struct {
	name      string
	sqlDriver string
	timestamp string
	boolean   string
	falseLit  string
	// indexIfNotExists is false for MySQL, which has no CREATE INDEX IF NOT EXISTS.
	indexIfNotExists bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name: DriverSQLite, sqlDriver: "sqlite",
		timestamp: "DATETIME", boolean: "INTEGER", falseLit: "0",
		indexIfNotExists: true,
	},
	DriverMySQL: {
		name: DriverMySQL, sqlDriver: "mysql",
		timestamp: "DATETIME(6)", boolean: "BOOLEAN", falseLit: "FALSE",
	},
	DriverPostgres: {
		name: DriverPostgres, sqlDriver: "pgx",
		timestamp: "TIMESTAMPTZ", boolean: "BOOLEAN", falseLit: "FALSE",
		indexIfNotExists: true,
	},
}

func (d dialect) migrations() []string {
	index := func(name, table, cols string) string {
		if d.indexIfNotExists {
			return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, cols)
		}
		return fmt.Sprintf("CREATE INDEX %s ON %s(%s)", name, table, cols)
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100) NOT NULL DEFAULT '',
			last_name VARCHAR(100) NOT NULL DEFAULT '',
			is_admin %[2]s NOT NULL DEFAULT %[3]s,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL
		)`, d.timestamp, d.boolean, d.falseLit),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vehicles (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			vehicle_type VARCHAR(20) NOT NULL DEFAULT 'cars',
			vehicle_brand VARCHAR(50) NOT NULL,
			brand_name VARCHAR(100) NOT NULL,
			vehicle_model VARCHAR(50) NOT NULL,
			model_name VARCHAR(100) NOT NULL,
			year_code VARCHAR(20) NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL DEFAULT 1,
			purchase_date VARCHAR(10) NOT NULL,
			buyer_name VARCHAR(100) NOT NULL,
			phone_number VARCHAR(20) NOT NULL,
			created_at %[1]s NOT NULL,
			updated_at %[1]s NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`, d.timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS files (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL,
			original_name VARCHAR(255) NOT NULL,
			filename VARCHAR(255) NOT NULL UNIQUE,
			mime_type VARCHAR(255) NOT NULL,
			size BIGINT NOT NULL,
			uploaded_at %[1]s NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`, d.timestamp),

		index("idx_vehicles_owner_id", "vehicles", "owner_id"),
		index("idx_vehicles_type", "vehicles", "vehicle_type"),
		index("idx_files_owner_id", "files", "owner_id"),
	}
}

func (s *Store) migrate(ctx context.Context) error {
	for _, m := range s.dialect.migrations() {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			// MySQL reports an existing index as "Duplicate key name";
			// treat it as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
