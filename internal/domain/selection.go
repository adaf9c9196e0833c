package domain

import "fmt"

// FieldSelection holds the values a user picked for each attribute
type FieldSelection struct {
	Values      map[string]string
	Accessories []string
}

// Value returns the selected value for a single-valued attribute
func (s FieldSelection) Value(key string) string {
	return s.Values[key]
}

// Clone returns a deep copy so a request snapshot cannot be changed by the form host
func (s FieldSelection) Clone() FieldSelection {
	out := FieldSelection{Values: make(map[string]string, len(s.Values))}
	for k, v := range s.Values {
		out.Values[k] = v
	}
	if s.Accessories != nil {
		out.Accessories = append([]string{}, s.Accessories...)
	}
	return out
}

// WithDefaults fills attributes the user left unset from the catalog defaults.
// Accessories are never defaulted.
func (s FieldSelection) WithDefaults(c AttributeCatalog) FieldSelection {
	out := s.Clone()
	for _, a := range Attributes {
		if a.Multi {
			continue
		}
		if out.Values[a.Key] == "" {
			out.Values[a.Key] = c.DefaultFor(a)
		}
	}
	return out
}

// Validate checks every chosen value against the catalog
func (s FieldSelection) Validate(c AttributeCatalog) error {
	for key, value := range s.Values {
		a, ok := LookupAttribute(key)
		if !ok {
			return NewValidationError(fmt.Sprintf("unknown attribute %q", key), nil)
		}
		if a.Multi {
			return NewValidationError(fmt.Sprintf("attribute %q takes multiple values", key), nil)
		}
		if value != "" && !c.Contains(a, value) {
			return NewValidationError(fmt.Sprintf("%s %q is not an allowed value", a.Label, value), nil)
		}
	}
	accessories, _ := LookupAttribute("accessories")
	for _, value := range s.Accessories {
		if !c.Contains(accessories, value) {
			return NewValidationError(fmt.Sprintf("%s %q is not an allowed value", accessories.Label, value), nil)
		}
	}
	return nil
}

// InclusionPolicy decides whether an attribute is written into the prompt
type InclusionPolicy interface {
	Included(key string) bool
}

type includeAll struct{}

func (includeAll) Included(string) bool { return true }

// IncludeAll includes every attribute
var IncludeAll InclusionPolicy = includeAll{}

// Toggles is a per-field include flag set. Attributes without a flag are included.
type Toggles map[string]bool

// Included implements InclusionPolicy
func (t Toggles) Included(key string) bool {
	include, ok := t[key]
	return !ok || include
}

// ExcludeAll returns toggles that switch every attribute off
func ExcludeAll() Toggles {
	t := make(Toggles, len(Attributes))
	for _, a := range Attributes {
		t[a.Key] = false
	}
	return t
}

// Only returns toggles that include just the named attributes
func Only(keys ...string) Toggles {
	t := ExcludeAll()
	for _, k := range keys {
		t[k] = true
	}
	return t
}
