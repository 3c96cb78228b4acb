package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cadastre/internal/temporal/models"
	"cadastre/internal/temporal/store/memory"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	store    *memory.Store
	records  *Service
	resolver *Resolver
	ctx      context.Context
	now      time.Time
	from     time.Time
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.store = memory.New()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.from = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	var err error
	s.records, err = New(s.store, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.resolver, err = NewResolver(s.records, s.store, nil)
	s.Require().NoError(err)
}

func (s *ResolverSuite) insert(fields models.Fields, refs ...models.Reference) domain.EntityID {
	entity := domain.NewEntityID()
	_, err := s.records.Insert(s.ctx, InsertRequest{
		Entity:     entity,
		Valid:      models.Interval{From: s.from},
		Fields:     fields,
		References: refs,
	})
	s.Require().NoError(err)
	s.now = s.now.Add(time.Second)
	return entity
}

func (s *ResolverSuite) inEffect(entity domain.EntityID, at time.Time) bool {
	_, err := s.records.AsOf(s.ctx, entity, at, time.Time{})
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return false
	}
	s.Require().NoError(err)
	return true
}

func (s *ResolverSuite) TestResolve() {
	at := s.from.AddDate(1, 0, 0)

	s.Run("follows a live reference to the target revision", func() {
		party := s.insert(models.Fields{"name": "Adjoa Sarpong"})
		tenure := s.insert(nil, models.Reference{Field: "party", Target: party, Policy: models.PolicyCascade})

		target, err := s.resolver.Resolve(s.ctx, tenure, "party", at)
		s.Require().NoError(err)
		s.Require().NotNil(target)
		s.Equal("Adjoa Sarpong", target.Fields["name"])
	})

	s.Run("unknown field is not found", func() {
		tenure := s.insert(nil)

		_, err := s.resolver.Resolve(s.ctx, tenure, "party", at)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("dangling target resolves to nil without error", func() {
		party := s.insert(models.Fields{"name": "retired party"})
		tenure := s.insert(nil, models.Reference{Field: "party", Target: party, Policy: models.PolicySetNull})

		_, err := s.records.Retire(s.ctx, party, s.from)
		s.Require().NoError(err)
		s.now = s.now.Add(time.Second)

		target, err := s.resolver.Resolve(s.ctx, tenure, "party", at)
		s.NoError(err)
		s.Nil(target)
	})
}

func (s *ResolverSuite) TestCascadeRetire() {
	at := s.from.AddDate(1, 0, 0)

	s.Run("retires cascade referrers transitively", func() {
		party := s.insert(models.Fields{"name": "root"})
		tenure := s.insert(nil, models.Reference{Field: "party", Target: party, Policy: models.PolicyCascade})
		resource := s.insert(nil, models.Reference{Field: "object", Target: tenure, Policy: models.PolicyCascade})

		s.Require().NoError(s.resolver.CascadeRetire(s.ctx, party, at))

		s.False(s.inEffect(party, at))
		s.False(s.inEffect(tenure, at))
		s.False(s.inEffect(resource, at))
	})

	s.Run("live restrict referrer aborts before any mutation", func() {
		tenureType := s.insert(models.Fields{"name": "freehold"})
		tenure := s.insert(nil, models.Reference{Field: "type", Target: tenureType, Policy: models.PolicyRestrict})

		err := s.resolver.CascadeRetire(s.ctx, tenureType, at)
		s.True(dErrors.HasCode(err, dErrors.CodeIntegrityViolation))

		// Nothing was retired.
		s.True(s.inEffect(tenureType, at))
		s.True(s.inEffect(tenure, at))
	})

	s.Run("set_null referrers survive with the link cleared", func() {
		party := s.insert(models.Fields{"name": "leaving"})
		other := s.insert(models.Fields{"name": "staying"})
		watcher := s.insert(nil,
			models.Reference{Field: "subject", Target: party, Policy: models.PolicySetNull},
			models.Reference{Field: "peer", Target: other, Policy: models.PolicySetNull})

		s.Require().NoError(s.resolver.CascadeRetire(s.ctx, party, at))

		s.False(s.inEffect(party, at))
		rev, err := s.records.AsOf(s.ctx, watcher, at, time.Time{})
		s.Require().NoError(err)
		s.Require().Len(rev.References, 1)
		s.Equal(other, rev.References[0].Target)
	})

	s.Run("reference cycles terminate", func() {
		a := domain.NewEntityID()
		b := domain.NewEntityID()
		_, err := s.records.Insert(s.ctx, InsertRequest{
			Entity:     a,
			Valid:      models.Interval{From: s.from},
			References: []models.Reference{{Field: "peer", Target: b, Policy: models.PolicyCascade}},
		})
		s.Require().NoError(err)
		s.now = s.now.Add(time.Second)
		_, err = s.records.Insert(s.ctx, InsertRequest{
			Entity:     b,
			Valid:      models.Interval{From: s.from},
			References: []models.Reference{{Field: "peer", Target: a, Policy: models.PolicyCascade}},
		})
		s.Require().NoError(err)
		s.now = s.now.Add(time.Second)

		s.Require().NoError(s.resolver.CascadeRetire(s.ctx, a, at))

		s.False(s.inEffect(a, at))
		s.False(s.inEffect(b, at))
	})

	s.Run("retiring an unknown entity is not found", func() {
		err := s.resolver.CascadeRetire(s.ctx, domain.NewEntityID(), at)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
