package domain

import "sort"

// DefaultValue is the catalog entry preferred as the initial selection
const DefaultValue = "Default"

// Attribute describes one selectable avatar attribute
type Attribute struct {
	Key        string
	CatalogKey string
	Label      string
	Multi      bool
	// Sorted attributes are presented alphabetically rather than in catalog order
	Sorted bool
}

// Attributes is the fixed order in which attributes appear in the prompt
var Attributes = []Attribute{
	{Key: "gender", CatalogKey: "genders", Label: "Gender", Sorted: true},
	{Key: "pose", CatalogKey: "poses", Label: "Pose", Sorted: true},
	{Key: "background", CatalogKey: "backgrounds", Label: "Background View", Sorted: true},
	{Key: "age", CatalogKey: "ages", Label: "Age"},
	{Key: "cultural_background", CatalogKey: "cultural_backgrounds", Label: "Cultural background", Sorted: true},
	{Key: "artistic_style", CatalogKey: "artistic_styles", Label: "Artistic style", Sorted: true},
	{Key: "personality_trait", CatalogKey: "personality_traits", Label: "Personality trait", Sorted: true},
	{Key: "accessories", CatalogKey: "accessories", Label: "Accessories", Multi: true, Sorted: true},
	{Key: "clothing_style", CatalogKey: "clothing_styles", Label: "Clothing style", Sorted: true},
	{Key: "hair_style_color", CatalogKey: "hair_styles_colors", Label: "Hair style/color", Sorted: true},
	{Key: "expression", CatalogKey: "expressions", Label: "Expression", Sorted: true},
	{Key: "eye_color", CatalogKey: "eye_colors", Label: "Eye color", Sorted: true},
	{Key: "skin_tone", CatalogKey: "skin_tones", Label: "Skin tone", Sorted: true},
	{Key: "body_type", CatalogKey: "body_types", Label: "Body type", Sorted: true},
}

// LookupAttribute finds an attribute by its selection key
func LookupAttribute(key string) (Attribute, bool) {
	for _, a := range Attributes {
		if a.Key == key {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttributeCatalog maps a catalog key to its allowed values
type AttributeCatalog map[string][]string

// Empty reports whether the catalog holds no values at all.
// An empty catalog means generation is unavailable.
func (c AttributeCatalog) Empty() bool {
	for _, values := range c {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Options returns the values of an attribute in display order
func (c AttributeCatalog) Options(a Attribute) []string {
	values := append([]string(nil), c[a.CatalogKey]...)
	if a.Sorted {
		sort.Strings(values)
	}
	return values
}

// Contains reports whether value is allowed for the attribute
func (c AttributeCatalog) Contains(a Attribute, value string) bool {
	for _, v := range c[a.CatalogKey] {
		if v == value {
			return true
		}
	}
	return false
}

// DefaultFor returns the preferred initial selection for a single-valued attribute:
// "Default" when present, otherwise the first option in display order.
func (c AttributeCatalog) DefaultFor(a Attribute) string {
	options := c.Options(a)
	if len(options) == 0 {
		return ""
	}
	return options[DefaultIndex(options)]
}

// DefaultIndex returns the index of "Default" in values, or 0 when absent
func DefaultIndex(values []string) int {
	for i, v := range values {
		if v == DefaultValue {
			return i
		}
	}
	return 0
}
