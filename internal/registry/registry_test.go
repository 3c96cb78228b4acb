package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
	"cadastre/pkg/testutil"
)

func TestValidateSubtype(t *testing.T) {
	testutil.Given(t, "a type with a closed subtype vocabulary", func(t *testing.T) {
		testutil.Then(t, "known codes are accepted", func(t *testing.T) {
			assert.NoError(t, ValidateSubtype(domain.ObjectParty, "IN"))
			assert.NoError(t, ValidateSubtype(domain.ObjectParty, "GR"))
			assert.NoError(t, ValidateSubtype(domain.ObjectSpatialUnit, "PA"))
			assert.NoError(t, ValidateSubtype(domain.ObjectTenureRelationshipType, "RIGHT"))
		})

		testutil.Then(t, "unknown codes are rejected", func(t *testing.T) {
			err := ValidateSubtype(domain.ObjectParty, "XX")
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})

		testutil.Then(t, "the empty subtype is always valid", func(t *testing.T) {
			assert.NoError(t, ValidateSubtype(domain.ObjectParty, ""))
		})
	})

	testutil.Given(t, "a type without a vocabulary", func(t *testing.T) {
		testutil.Then(t, "any subtype is accepted", func(t *testing.T) {
			assert.NoError(t, ValidateSubtype(domain.ObjectResource, "photo"))
		})
	})
}

func TestSubtypeLabel(t *testing.T) {
	assert.Equal(t, "Individual", SubtypeLabel(domain.ObjectParty, "IN"))
	// Types without a vocabulary echo the raw code.
	assert.Equal(t, "deed-scan", SubtypeLabel(domain.ObjectResource, "deed-scan"))
}
