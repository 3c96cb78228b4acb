package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Invariants validates identifier parsing at trust boundaries:
// only canonical UUID strings are accepted.
func TestParse_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseEntityID("")
		require.Error(t, err)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseEntityID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseEntityID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, EntityID(valid), id)
	})

	t.Run("nil UUID parses as the nil identity", func(t *testing.T) {
		// The nil UUID is a legitimate sentinel (unset scope parts),
		// so parsing accepts it; IsNil distinguishes it.
		id, err := ParseOrgID(uuid.Nil.String())
		require.NoError(t, err)
		assert.True(t, id.IsNil())
	})
}

// TestJSONRoundTrip verifies IDs travel through JSON as canonical strings.
func TestJSONRoundTrip(t *testing.T) {
	original := NewEntityID()

	encoded, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+original.String()+`"`, string(encoded))

	var decoded EntityID
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
}

// TestTypeDistinction documents the compile-time invariant: the identifier
// types are not interchangeable.
func TestTypeDistinction(t *testing.T) {
	entityID := NewEntityID()
	revisionID := NewRevisionID()

	// These would fail to compile if types were interchangeable:
	// var _ EntityID = revisionID   // compile error
	// var _ RevisionID = entityID   // compile error

	assert.NotEqual(t, uuid.UUID(entityID), uuid.UUID(revisionID))
}
