//go:build integration

package directory_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fedgate/internal/directory"
	"fedgate/pkg/testutil/containers"
)

// countingDirectory records how often the underlying directory is hit.
type countingDirectory struct {
	locations map[string]string
	calls     int
}

func (d *countingDirectory) Search(_ context.Context, uid string) (string, error) {
	d.calls++
	return d.locations[uid], nil
}

type CacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	backend *countingDirectory
	cache   *directory.Cache
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.backend = &countingDirectory{locations: map[string]string{"carol": "nodeA.example"}}
	s.cache = directory.NewCache(s.backend, s.redis.Client, 5*time.Minute, slog.Default())
}

func (s *CacheSuite) TestReadThrough() {
	ctx := context.Background()

	location, err := s.cache.Search(ctx, "carol")
	s.Require().NoError(err)
	s.Equal("nodeA.example", location)
	s.Equal(1, s.backend.calls)

	// Second lookup is served from cache.
	location, err = s.cache.Search(ctx, "carol")
	s.Require().NoError(err)
	s.Equal("nodeA.example", location)
	s.Equal(1, s.backend.calls)
}

func (s *CacheSuite) TestMissesAreNotCached() {
	ctx := context.Background()

	location, err := s.cache.Search(ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(location)

	_, err = s.cache.Search(ctx, "nobody")
	s.Require().NoError(err)
	s.Equal(2, s.backend.calls, "unknown users must hit the directory every time")
}

func (s *CacheSuite) TestInvalidate() {
	ctx := context.Background()

	_, err := s.cache.Search(ctx, "carol")
	s.Require().NoError(err)

	s.backend.locations["carol"] = "nodeB.example"
	s.Require().NoError(s.cache.Invalidate(ctx, "carol"))

	location, err := s.cache.Search(ctx, "carol")
	s.Require().NoError(err)
	s.Equal("nodeB.example", location)
}
