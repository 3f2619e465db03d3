package valueobjects

import (
	"strings"

	pkgerrors "github.com/TPCMinistries/insight-engine/pkg/errors"
)

// Concept is a value object representing a normalized graph node identity.
// Concepts are never stored as rows of their own; they exist as edge
// endpoints, so identity comparison must be stable across every code path
// that touches them: case-insensitive, trimmed, inner whitespace collapsed.
type Concept struct {
	value string
}

// NewConcept normalizes a raw concept string and validates it
func NewConcept(raw string) (Concept, error) {
	normalized := normalizeConcept(raw)
	if normalized == "" {
		return Concept{}, pkgerrors.NewValidationError("concept cannot be empty")
	}
	return Concept{value: normalized}, nil
}

// String returns the normalized form of the concept
func (c Concept) String() string {
	return c.value
}

// Equals checks if two concepts are the same identity
func (c Concept) Equals(other Concept) bool {
	return c.value == other.value
}

// IsZero checks if the concept is the zero value
func (c Concept) IsZero() bool {
	return c.value == ""
}

// MarshalJSON implements json.Marshaler
func (c Concept) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Concept) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return pkgerrors.NewValidationError("concept must be a string")
	}
	c.value = normalizeConcept(string(data[1 : len(data)-1]))
	return nil
}

// normalizeConcept folds case and whitespace so that "Machine  Learning " and
// "machine learning" compare equal
func normalizeConcept(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	return strings.Join(strings.Fields(lowered), " ")
}
