//go:build integration

package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fedgate/internal/directory"
	"fedgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *directory.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())

	_, err := s.pg.DB.Exec(`
		CREATE TABLE IF NOT EXISTS user_locations (
		    uid        TEXT PRIMARY KEY,
		    location   TEXT NOT NULL,
		    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	s.Require().NoError(err)

	s.store = directory.NewPostgresStore(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec(`TRUNCATE user_locations`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestSearchUnknownUserIsEmpty() {
	location, err := s.store.Search(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Empty(location)
}

func (s *PostgresStoreSuite) TestAssignAndSearch() {
	ctx := context.Background()

	s.Require().NoError(s.store.Assign(ctx, "carol", "nodeA.example"))

	location, err := s.store.Search(ctx, "carol")
	s.Require().NoError(err)
	s.Equal("nodeA.example", location)
}

func (s *PostgresStoreSuite) TestAssignReplacesExistingMapping() {
	ctx := context.Background()

	s.Require().NoError(s.store.Assign(ctx, "carol", "nodeA.example"))
	s.Require().NoError(s.store.Assign(ctx, "carol", "nodeB.example"))

	location, err := s.store.Search(ctx, "carol")
	s.Require().NoError(err)
	s.Equal("nodeB.example", location)
}

func (s *PostgresStoreSuite) TestRemove() {
	ctx := context.Background()

	s.Require().NoError(s.store.Assign(ctx, "carol", "nodeA.example"))
	s.Require().NoError(s.store.Remove(ctx, "carol"))

	location, err := s.store.Search(ctx, "carol")
	s.Require().NoError(err)
	s.Empty(location)

	// Removing an unmapped uid is a no-op.
	s.Require().NoError(s.store.Remove(ctx, "carol"))
}
