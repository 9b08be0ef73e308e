package directory

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
)

// PostgresStore serves user locations from a local mapping table, for
// deployments that host the uid → node mapping next to the gateway instead
// of a remote lookup server.
//
// Schema:
//
//	CREATE TABLE user_locations (
//	    uid        TEXT PRIMARY KEY,
//	    location   TEXT NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Search returns uid's location, or empty when unmapped.
func (s *PostgresStore) Search(ctx context.Context, uid string) (string, error) {
	var location string
	err := s.db.QueryRowContext(ctx,
		`SELECT location FROM user_locations WHERE uid = $1`, uid,
	).Scan(&location)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("search user location: %w", err)
	}
	return location, nil
}

// Assign maps uid to a node address, replacing any previous mapping. Used
// by provisioning tooling when accounts move between nodes.
func (s *PostgresStore) Assign(ctx context.Context, uid, location string) error {
	query := `
		INSERT INTO user_locations (uid, location, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (uid) DO UPDATE SET
			location = EXCLUDED.location,
			updated_at = now()
	`
	if _, err := s.db.ExecContext(ctx, query, uid, location); err != nil {
		return fmt.Errorf("assign user location: %w", err)
	}
	return nil
}

// Remove deletes uid's mapping. Removing an unmapped uid is a no-op.
func (s *PostgresStore) Remove(ctx context.Context, uid string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_locations WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("remove user location: %w", err)
	}
	return nil
}
