//go:build integration

package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cadastre/internal/attrschema/models"
	"cadastre/internal/attrschema/resolver"
	"cadastre/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *resolver.RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = resolver.NewRedisCache(s.redis.Client, time.Minute)
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) schema() *models.EffectiveSchema {
	return models.NewEffectiveSchema([]models.SchemaField{
		{Name: "homeowner", BaseType: models.BaseText, Presence: models.PresenceRequired, Index: 0},
		{Name: "dob", BaseType: models.BaseText, Presence: models.PresenceOptional, Index: 1},
	})
}

func (s *RedisCacheSuite) TestGetSet() {
	s.Run("miss on an empty cache", func() {
		_, ok := s.cache.Get(s.ctx, "missing")
		s.False(ok)
	})

	s.Run("set then get round-trips the schema", func() {
		s.cache.Set(s.ctx, "key-a", s.schema())

		got, ok := s.cache.Get(s.ctx, "key-a")
		s.Require().True(ok)
		s.Equal(2, got.Len())

		field, ok := got.Field("homeowner")
		s.Require().True(ok)
		s.True(field.Required())
	})
}

func (s *RedisCacheSuite) TestPurge() {
	s.Run("purge invalidates every cached answer", func() {
		s.cache.Set(s.ctx, "key-a", s.schema())
		s.cache.Set(s.ctx, "key-b", s.schema())

		s.cache.Purge(s.ctx)

		_, ok := s.cache.Get(s.ctx, "key-a")
		s.False(ok)
		_, ok = s.cache.Get(s.ctx, "key-b")
		s.False(ok)

		// The cache keeps working after a purge.
		s.cache.Set(s.ctx, "key-a", s.schema())
		_, ok = s.cache.Get(s.ctx, "key-a")
		s.True(ok)
	})
}
