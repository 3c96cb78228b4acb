// Package validator checks and normalizes attribute documents against a
// resolved effective schema. All issues are accumulated and returned
// together, never truncated to the first failure: callers need the full
// list to render actionable feedback.
package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"cadastre/internal/attrschema/models"
)

// IssueKind classifies one validation failure.
type IssueKind string

const (
	KindUnknownField    IssueKind = "unknown_field"
	KindMissingRequired IssueKind = "missing_required"
	KindTypeMismatch    IssueKind = "type_mismatch"
	KindFullType        IssueKind = "full_type"
)

// Issue is a single field-level validation failure.
type Issue struct {
	Field   string    `json:"field"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// Error carries every issue found in one document. It is always user-facing:
// the document can be corrected and resubmitted.
type Error struct {
	Issues []Issue `json:"issues"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "attribute document invalid: " + strings.Join(parts, "; ")
}

// Fields returns the offending field names for one issue kind, sorted.
func (e *Error) Fields(kind IssueKind) []string {
	var out []string
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			out = append(out, issue.Field)
		}
	}
	sort.Strings(out)
	return out
}

// Validate checks document against schema and returns the normalized copy.
// Rules apply in order: unknown keys, missing required fields, base type
// compatibility, full-type profiles. Optional absent fields stay absent; no
// defaults are materialized. Validating an already-normalized document is
// idempotent.
func Validate(schema *models.EffectiveSchema, document map[string]any) (map[string]any, error) {
	var issues []Issue

	unknown := make([]string, 0)
	for key := range document {
		if _, ok := schema.Field(key); !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		issues = append(issues, Issue{Field: key, Kind: KindUnknownField, Message: "field is not permitted by the schema"})
	}

	normalized := make(map[string]any, len(document))
	for _, field := range schema.Fields {
		value, present := document[field.Name]
		if !present {
			if field.Required() {
				issues = append(issues, Issue{Field: field.Name, Kind: KindMissingRequired, Message: "required field is missing"})
			}
			continue
		}

		norm, issue := checkBaseType(field, value)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		if field.FullType != "" {
			norm, issue = applyFullType(field, norm)
			if issue != nil {
				issues = append(issues, *issue)
				continue
			}
		}
		normalized[field.Name] = norm
	}

	if len(issues) > 0 {
		return nil, &Error{Issues: issues}
	}
	return normalized, nil
}

// checkBaseType verifies base-type compatibility and produces the canonical
// representation: int64 for integers, float64 for other numerics, string
// for text.
func checkBaseType(field models.SchemaField, value any) (any, *Issue) {
	switch field.BaseType {
	case models.BaseText:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch(field, "expected a text value")
		}
		return s, nil
	case models.BaseInteger:
		n, ok := numeric(value)
		if !ok {
			return nil, mismatch(field, "expected an integer value")
		}
		if n != math.Trunc(n) {
			return nil, mismatch(field, "expected an integer value without fractional part")
		}
		return int64(n), nil
	case models.BaseNumber, models.BaseDecimal:
		n, ok := numeric(value)
		if !ok {
			return nil, mismatch(field, "expected a numeric value")
		}
		return n, nil
	}
	return nil, mismatch(field, fmt.Sprintf("unsupported base type %q", field.BaseType))
}

func mismatch(field models.SchemaField, msg string) *Issue {
	return &Issue{Field: field.Name, Kind: KindTypeMismatch, Message: msg}
}

// numeric accepts the value shapes a JSON decoder or Go caller can produce.
func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
