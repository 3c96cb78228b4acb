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

type RecordServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestRecordServiceSuite(t *testing.T) {
	suite.Run(t, new(RecordServiceSuite))
}

func (s *RecordServiceSuite) SetupTest() {
	s.store = memory.New()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var err error
	s.service, err = New(s.store, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
}

// advance moves the injected clock so successive writes land on distinct
// recording instants.
func (s *RecordServiceSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *RecordServiceSuite) insert(entity domain.EntityID, validFrom time.Time, fields models.Fields) domain.RevisionID {
	rev, err := s.service.Insert(s.ctx, InsertRequest{
		Entity: entity,
		Valid:  models.Interval{From: validFrom},
		Fields: fields,
	})
	s.Require().NoError(err)
	return rev
}

func (s *RecordServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
	})
}

func (s *RecordServiceSuite) TestInsert() {
	validFrom := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Run("rejects a missing entity id", func() {
		_, err := s.service.Insert(s.ctx, InsertRequest{Valid: models.Interval{From: validFrom}})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an inverted valid interval", func() {
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity: domain.NewEntityID(),
			Valid:  models.Interval{From: validFrom, To: validFrom.Add(-time.Hour)},
		})
		s.Error(err)
	})

	s.Run("rejects an unknown cascade policy", func() {
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity:     domain.NewEntityID(),
			Valid:      models.Interval{From: validFrom},
			References: []models.Reference{{Field: "party", Target: domain.NewEntityID(), Policy: "explode"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("appends a revision readable at its coordinate", func() {
		entity := domain.NewEntityID()
		s.insert(entity, validFrom, models.Fields{"name": "Kofi Mensah"})

		rev, err := s.service.AsOf(s.ctx, entity, validFrom, time.Time{})
		s.Require().NoError(err)
		s.Equal("Kofi Mensah", rev.Fields["name"])
		s.True(rev.Coordinate.Recorded.Open())
	})

	s.Run("overlapping open valid intervals conflict", func() {
		entity := domain.NewEntityID()
		s.insert(entity, validFrom, nil)

		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: validFrom.AddDate(1, 0, 0)},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("disjoint valid intervals coexist", func() {
		entity := domain.NewEntityID()
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: validFrom, To: validFrom.AddDate(1, 0, 0)},
		})
		s.Require().NoError(err)

		_, err = s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: validFrom.AddDate(1, 0, 0)},
		})
		s.NoError(err)
	})
}

func (s *RecordServiceSuite) TestCorrect() {
	validFrom := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Run("unknown entity is not found", func() {
		_, err := s.service.Correct(s.ctx, CorrectRequest{
			Entity:    domain.NewEntityID(),
			AsOfValid: validFrom,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("correction supersedes without losing history", func() {
		entity := domain.NewEntityID()
		s.insert(entity, validFrom, models.Fields{"name": "Akua Boateng"})
		beforeCorrection := s.now

		s.advance(time.Hour)
		_, err := s.service.Correct(s.ctx, CorrectRequest{
			Entity:    entity,
			AsOfValid: validFrom,
			Fields:    models.Fields{"name": "Akua Boateng-Smith"},
		})
		s.Require().NoError(err)

		// Present belief reflects the correction.
		current, err := s.service.AsOf(s.ctx, entity, validFrom, time.Time{})
		s.Require().NoError(err)
		s.Equal("Akua Boateng-Smith", current.Fields["name"])

		// A read dated before the correction reproduces the old belief.
		old, err := s.service.AsOf(s.ctx, entity, validFrom, beforeCorrection)
		s.Require().NoError(err)
		s.Equal("Akua Boateng", old.Fields["name"])
	})

	s.Run("keeps the valid interval when no replacement is given", func() {
		entity := domain.NewEntityID()
		until := validFrom.AddDate(10, 0, 0)
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: validFrom, To: until},
			Fields: models.Fields{"name": "before"},
		})
		s.Require().NoError(err)

		s.advance(time.Hour)
		_, err = s.service.Correct(s.ctx, CorrectRequest{
			Entity:    entity,
			AsOfValid: validFrom,
			Fields:    models.Fields{"name": "after"},
		})
		s.Require().NoError(err)

		rev, err := s.service.AsOf(s.ctx, entity, validFrom, time.Time{})
		s.Require().NoError(err)
		s.Equal(until, rev.Coordinate.Valid.To)
	})

	s.Run("extending over a disjoint sibling conflicts", func() {
		entity := domain.NewEntityID()
		split := validFrom.AddDate(1, 0, 0)
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: validFrom, To: split},
			Fields: models.Fields{"name": "first term"},
		})
		s.Require().NoError(err)
		_, err = s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: split},
			Fields: models.Fields{"name": "second term"},
		})
		s.Require().NoError(err)

		s.advance(time.Hour)
		_, err = s.service.Correct(s.ctx, CorrectRequest{
			Entity:    entity,
			AsOfValid: validFrom,
			Fields:    models.Fields{"name": "first term, unbounded"},
			NewValid:  models.Interval{From: validFrom},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		// The sibling still answers alone for its interval.
		rev, err := s.service.AsOf(s.ctx, entity, split.AddDate(1, 0, 0), time.Time{})
		s.Require().NoError(err)
		s.Equal("second term", rev.Fields["name"])
	})

	s.Run("may extend into unclaimed valid time", func() {
		entity := domain.NewEntityID()
		until := validFrom.AddDate(1, 0, 0)
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity: entity,
			Valid:  models.Interval{From: validFrom, To: until},
			Fields: models.Fields{"name": "bounded"},
		})
		s.Require().NoError(err)

		s.advance(time.Hour)
		_, err = s.service.Correct(s.ctx, CorrectRequest{
			Entity:    entity,
			AsOfValid: validFrom,
			Fields:    models.Fields{"name": "unbounded"},
			NewValid:  models.Interval{From: validFrom},
		})
		s.Require().NoError(err)

		rev, err := s.service.AsOf(s.ctx, entity, until.AddDate(1, 0, 0), time.Time{})
		s.Require().NoError(err)
		s.Equal("unbounded", rev.Fields["name"])
	})

	s.Run("carries references forward when asked", func() {
		entity := domain.NewEntityID()
		target := domain.NewEntityID()
		_, err := s.service.Insert(s.ctx, InsertRequest{
			Entity:     entity,
			Valid:      models.Interval{From: validFrom},
			References: []models.Reference{{Field: "party", Target: target, Policy: models.PolicyCascade}},
		})
		s.Require().NoError(err)

		s.advance(time.Hour)
		_, err = s.service.Correct(s.ctx, CorrectRequest{
			Entity:         entity,
			AsOfValid:      validFrom,
			Fields:         models.Fields{"name": "corrected"},
			KeepReferences: true,
		})
		s.Require().NoError(err)

		rev, err := s.service.AsOf(s.ctx, entity, validFrom, time.Time{})
		s.Require().NoError(err)
		s.Require().Len(rev.References, 1)
		s.Equal(target, rev.References[0].Target)
	})
}

func (s *RecordServiceSuite) TestRetire() {
	validFrom := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	retireAt := validFrom.AddDate(5, 0, 0)

	s.Run("unknown entity is not found", func() {
		_, err := s.service.Retire(s.ctx, domain.NewEntityID(), retireAt)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("closes the valid interval and keeps history readable", func() {
		entity := domain.NewEntityID()
		s.insert(entity, validFrom, models.Fields{"name": "Yaw Owusu"})

		s.advance(time.Hour)
		_, err := s.service.Retire(s.ctx, entity, retireAt)
		s.Require().NoError(err)

		// No longer in effect at or after the retirement instant.
		_, err = s.service.AsOf(s.ctx, entity, retireAt, time.Time{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		// Still in effect just before it, fields intact.
		rev, err := s.service.AsOf(s.ctx, entity, retireAt.Add(-time.Second), time.Time{})
		s.Require().NoError(err)
		s.Equal("Yaw Owusu", rev.Fields["name"])
	})

	s.Run("rejects a retire instant at the valid start", func() {
		entity := domain.NewEntityID()
		s.insert(entity, validFrom, models.Fields{"name": "Efua Sutherland"})

		s.advance(time.Hour)
		_, err := s.service.Retire(s.ctx, entity, validFrom)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		// The entity stays live, its revision untouched.
		rev, err := s.service.AsOf(s.ctx, entity, validFrom, time.Time{})
		s.Require().NoError(err)
		s.Equal("Efua Sutherland", rev.Fields["name"])
	})
}

func (s *RecordServiceSuite) TestAsOf() {
	s.Run("unknown coordinate is not found", func() {
		_, err := s.service.AsOf(s.ctx, domain.NewEntityID(), s.now, time.Time{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
