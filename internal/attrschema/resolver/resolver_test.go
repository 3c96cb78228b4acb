package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cadastre/internal/attrschema/models"
	schemamemory "cadastre/internal/attrschema/store/memory"
	temporal "cadastre/internal/temporal/models"
	temporalsvc "cadastre/internal/temporal/service"
	temporalmemory "cadastre/internal/temporal/store/memory"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

type SchemaResolverSuite struct {
	suite.Suite
	records  *temporalsvc.Service
	resolver *Resolver
	cache    *MemoryCache
	ctx      context.Context
	now      time.Time
	from     time.Time
	org      domain.OrgID
	project  domain.ProjectID
}

func TestSchemaResolverSuite(t *testing.T) {
	suite.Run(t, new(SchemaResolverSuite))
}

func (s *SchemaResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.from = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s.org = domain.NewOrgID()
	s.project = domain.NewProjectID()

	var err error
	s.records, err = temporalsvc.New(temporalmemory.New(),
		temporalsvc.WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	s.cache = NewMemoryCache()
	s.resolver, err = New(s.records, schemamemory.New(), WithCache(s.cache))
	s.Require().NoError(err)
}

func (s *SchemaResolverSuite) define(scope models.Scope, subtype, name string, index int, presence models.Presence) domain.EntityID {
	entity, err := s.resolver.Define(s.ctx, models.FieldDefinition{
		Scope:      scope,
		ObjectType: domain.ObjectParty,
		Subtype:    subtype,
		Index:      index,
		Name:       name,
		BaseType:   models.BaseText,
		Presence:   presence,
	}, temporal.Interval{From: s.from})
	s.Require().NoError(err)
	s.now = s.now.Add(time.Second)
	return entity
}

func (s *SchemaResolverSuite) resolve(subtype string, at time.Time) *models.EffectiveSchema {
	schema, err := s.resolver.Resolve(s.ctx, &s.org, &s.project, domain.ObjectParty, subtype, at)
	s.Require().NoError(err)
	return schema
}

func names(schema *models.EffectiveSchema) []string {
	out := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		out = append(out, f.Name)
	}
	return out
}

func (s *SchemaResolverSuite) TestResolve() {
	at := s.from.AddDate(1, 0, 0)

	s.Run("empty chain yields an empty schema", func() {
		schema := s.resolve("", at)
		s.Equal(0, schema.Len())
	})

	s.Run("more specific scope overrides the general definition", func() {
		s.define(models.SystemScope(), "", "homeowner", 0, models.PresenceOptional)
		s.define(models.ProjectScope(s.org, s.project), "", "homeowner", 0, models.PresenceRequired)

		schema := s.resolve("", at)
		field, ok := schema.Field("homeowner")
		s.Require().True(ok)
		s.True(field.Required())
	})

	s.Run("subtype layer overrides the generic layer in scope", func() {
		s.define(models.OrgScope(s.org), "", "dob", 1, models.PresenceOptional)
		s.define(models.OrgScope(s.org), "IN", "dob", 1, models.PresenceRequired)

		generic := s.resolve("", at)
		field, ok := generic.Field("dob")
		s.Require().True(ok)
		s.False(field.Required())

		individual := s.resolve("IN", at)
		field, ok = individual.Field("dob")
		s.Require().True(ok)
		s.True(field.Required())
	})

	s.Run("presence D removes an inherited field", func() {
		s.define(models.SystemScope(), "", "legacy_code", 5, models.PresenceOptional)
		s.define(models.ProjectScope(s.org, s.project), "", "legacy_code", 5, models.PresenceDelete)

		// Gone at project scope, still visible at org scope.
		project := s.resolve("", at)
		_, ok := project.Field("legacy_code")
		s.False(ok)

		orgSchema, err := s.resolver.Resolve(s.ctx, &s.org, nil, domain.ObjectParty, "", at)
		s.Require().NoError(err)
		_, ok = orgSchema.Field("legacy_code")
		s.True(ok)
	})

	s.Run("fields order by index then name", func() {
		s.define(models.OrgScope(s.org), "", "b_field", 2, models.PresenceOptional)
		s.define(models.OrgScope(s.org), "", "a_field", 2, models.PresenceOptional)
		s.define(models.OrgScope(s.org), "", "z_first", 1, models.PresenceOptional)

		schema := s.resolve("", at)
		s.Equal([]string{"homeowner", "dob", "z_first", "a_field", "b_field"}, names(schema))
	})

	s.Run("definitions are invisible before their valid interval", func() {
		schema := s.resolve("", s.from.Add(-time.Hour))
		s.Equal(0, schema.Len())
	})

	s.Run("project scope without org is rejected", func() {
		_, err := s.resolver.Resolve(s.ctx, nil, &s.project, domain.ObjectParty, "", at)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown subtype is rejected", func() {
		_, err := s.resolver.Resolve(s.ctx, &s.org, &s.project, domain.ObjectParty, "XX", at)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *SchemaResolverSuite) TestCorrections() {
	at := s.from.AddDate(1, 0, 0)

	s.Run("correcting a definition changes resolution and purges the cache", func() {
		entity := s.define(models.OrgScope(s.org), "", "gender", 3, models.PresenceOptional)

		before := s.resolve("", at)
		field, ok := before.Field("gender")
		s.Require().True(ok)
		s.False(field.Required())

		_, err := s.resolver.CorrectDefinition(s.ctx, entity, models.FieldDefinition{
			Scope:      models.OrgScope(s.org),
			ObjectType: domain.ObjectParty,
			Index:      3,
			Name:       "gender",
			BaseType:   models.BaseText,
			Presence:   models.PresenceRequired,
		}, at)
		s.Require().NoError(err)
		s.now = s.now.Add(time.Second)

		after := s.resolve("", at)
		field, ok = after.Field("gender")
		s.Require().True(ok)
		s.True(field.Required())
	})

	s.Run("retiring a definition removes it from later valid times", func() {
		s.define(models.OrgScope(s.org), "", "temp_field", 9, models.PresenceOptional)
		entity := s.define(models.OrgScope(s.org), "", "keep_field", 10, models.PresenceOptional)

		_, err := s.resolver.RetireDefinition(s.ctx, entity, at)
		s.Require().NoError(err)
		s.now = s.now.Add(time.Second)

		after := s.resolve("", at.Add(time.Hour))
		_, ok := after.Field("keep_field")
		s.False(ok)
		_, ok = after.Field("temp_field")
		s.True(ok)

		// Still resolvable before the retirement instant.
		before := s.resolve("", at.Add(-time.Hour))
		_, ok = before.Field("keep_field")
		s.True(ok)
	})
}

func (s *SchemaResolverSuite) TestCaching() {
	at := s.from.AddDate(1, 0, 0)

	s.Run("repeated resolution hits the cache", func() {
		s.define(models.OrgScope(s.org), "", "cached", 0, models.PresenceOptional)

		first := s.resolve("", at)
		s.Require().Equal(1, first.Len())

		key := cacheKey(models.Scope{Org: &s.org, Project: &s.project}, domain.ObjectParty, "", at)
		_, ok := s.cache.Get(s.ctx, key)
		s.True(ok)
	})

	s.Run("defining a field purges stale answers", func() {
		stale := s.resolve("", at)
		s.define(models.OrgScope(s.org), "", "newcomer", 1, models.PresenceOptional)

		fresh := s.resolve("", at)
		s.Equal(stale.Len()+1, fresh.Len())
	})

	s.Run("a caller mutating its copy leaves the cache intact", func() {
		got := s.resolve("", at)
		s.Require().NotZero(got.Len())
		got.Fields[0].Name = "scribbled"

		again := s.resolve("", at)
		s.NotEqual("scribbled", again.Fields[0].Name)
	})
}
