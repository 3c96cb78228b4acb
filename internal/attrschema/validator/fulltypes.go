package validator

import (
	"fmt"
	"regexp"
	"strings"

	"cadastre/internal/attrschema/models"
)

// Full-type profiles layer finer validation and canonicalization on top of a
// base type. The set is closed and versioned with the code: an externally
// pluggable registry would make validation nondeterministic across
// deployments.

// profile canonicalizes a string value or reports why it cannot.
type profile func(value string) (string, error)

var fullTypes = map[string]profile{
	"id-post-code":    normalizeIDPostCode,
	"gb-post-code":    normalizeGBPostCode,
	"us-phone-number": normalizeUSPhone,
}

var (
	idPostCodeRe = regexp.MustCompile(`^[0-9]{5}$`)
	gbPostCodeRe = regexp.MustCompile(`^[A-Z]{1,2}[0-9][A-Z0-9]? ?[0-9][A-Z]{2}$`)
	nonDigitRe   = regexp.MustCompile(`[^0-9]`)
)

// normalizeIDPostCode validates an Indonesian five-digit postal code.
func normalizeIDPostCode(value string) (string, error) {
	v := strings.TrimSpace(value)
	if !idPostCodeRe.MatchString(v) {
		return "", fmt.Errorf("expected a five-digit postal code")
	}
	return v, nil
}

// normalizeGBPostCode canonicalizes a UK postcode to uppercase with a single
// space before the inward code.
func normalizeGBPostCode(value string) (string, error) {
	v := strings.ToUpper(strings.Join(strings.Fields(value), ""))
	if len(v) < 5 {
		return "", fmt.Errorf("postcode too short")
	}
	v = v[:len(v)-3] + " " + v[len(v)-3:]
	if !gbPostCodeRe.MatchString(v) {
		return "", fmt.Errorf("not a valid UK postcode")
	}
	return v, nil
}

// normalizeUSPhone canonicalizes a North American phone number to
// +1NNNNNNNNNN form.
func normalizeUSPhone(value string) (string, error) {
	digits := nonDigitRe.ReplaceAllString(value, "")
	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, nil
	}
	return "", fmt.Errorf("expected a ten-digit North American phone number")
}

// applyFullType runs the field's full-type profile over an already
// base-type-checked value. Profiles only apply to text values; a full type
// on a non-text field, or an unknown profile name, is a definition error
// surfaced as a full-type issue.
func applyFullType(field models.SchemaField, value any) (any, *Issue) {
	p, ok := fullTypes[field.FullType]
	if !ok {
		return nil, &Issue{Field: field.Name, Kind: KindFullType,
			Message: fmt.Sprintf("unknown full type profile %q", field.FullType)}
	}
	s, ok := value.(string)
	if !ok {
		return nil, &Issue{Field: field.Name, Kind: KindFullType,
			Message: fmt.Sprintf("full type %q requires a text value", field.FullType)}
	}
	norm, err := p(s)
	if err != nil {
		return nil, &Issue{Field: field.Name, Kind: KindFullType,
			Message: fmt.Sprintf("%s: %v", field.FullType, err)}
	}
	return norm, nil
}
