package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() AttributeCatalog {
	return AttributeCatalog{
		"genders":     {"Male", "Female", "Default"},
		"ages":        {"Young Adult", "Adult", "Senior"},
		"accessories": {"Hat", "Glasses"},
	}
}

func TestResolutionValid(t *testing.T) {
	for _, r := range Resolutions {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Resolution("512x512").Valid())
	assert.False(t, Resolution("").Valid())
}

func TestCatalogOptionsAndDefaults(t *testing.T) {
	c := testCatalog()
	gender, _ := LookupAttribute("gender")
	age, _ := LookupAttribute("age")

	assert.Equal(t, []string{"Default", "Female", "Male"}, c.Options(gender))
	assert.Equal(t, []string{"Young Adult", "Adult", "Senior"}, c.Options(age), "ages keep catalog order")
	assert.Equal(t, "Default", c.DefaultFor(gender))
	assert.Equal(t, "Young Adult", c.DefaultFor(age))

	pose, _ := LookupAttribute("pose")
	assert.Equal(t, "", c.DefaultFor(pose))

	// Options must not reorder the catalog itself
	assert.Equal(t, []string{"Male", "Female", "Default"}, c["genders"])
}

func TestCatalogEmpty(t *testing.T) {
	assert.True(t, AttributeCatalog{}.Empty())
	assert.True(t, AttributeCatalog{"genders": nil}.Empty())
	assert.False(t, testCatalog().Empty())
}

func TestDefaultIndex(t *testing.T) {
	assert.Equal(t, 2, DefaultIndex([]string{"a", "b", "Default"}))
	assert.Equal(t, 0, DefaultIndex([]string{"a", "b"}))
	assert.Equal(t, 0, DefaultIndex(nil))
}

func TestSelectionWithDefaults(t *testing.T) {
	sel := FieldSelection{Values: map[string]string{"age": "Senior"}}
	out := sel.WithDefaults(testCatalog())

	assert.Equal(t, "Default", out.Value("gender"))
	assert.Equal(t, "Senior", out.Value("age"))
	assert.Empty(t, out.Accessories)
	_, touched := sel.Values["gender"]
	assert.False(t, touched, "original selection is not modified")
}

func TestSelectionValidate(t *testing.T) {
	c := testCatalog()

	require.NoError(t, FieldSelection{
		Values:      map[string]string{"gender": "Female"},
		Accessories: []string{"Hat"},
	}.Validate(c))

	tests := []struct {
		name string
		sel  FieldSelection
	}{
		{"unknown attribute", FieldSelection{Values: map[string]string{"wings": "yes"}}},
		{"value not in catalog", FieldSelection{Values: map[string]string{"gender": "Robot"}}},
		{"accessories as single value", FieldSelection{Values: map[string]string{"accessories": "Hat"}}},
		{"accessory not in catalog", FieldSelection{Accessories: []string{"Cape"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate(c)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestSelectionClone(t *testing.T) {
	sel := FieldSelection{Values: map[string]string{"gender": "Male"}, Accessories: []string{"Hat"}}
	clone := sel.Clone()
	sel.Values["gender"] = "Female"
	sel.Accessories[0] = "Glasses"

	assert.Equal(t, "Male", clone.Value("gender"))
	assert.Equal(t, []string{"Hat"}, clone.Accessories)
}

func TestInclusionPolicies(t *testing.T) {
	assert.True(t, IncludeAll.Included("gender"))

	assert.True(t, Toggles{}.Included("gender"), "missing flag means included")
	assert.True(t, Toggles(nil).Included("gender"))
	assert.False(t, Toggles{"gender": false}.Included("gender"))

	only := Only("gender")
	for _, a := range Attributes {
		assert.Equal(t, a.Key == "gender", only.Included(a.Key), a.Key)
	}
}

func TestGeneratedImageFormat(t *testing.T) {
	assert.Equal(t, "jpg", (&GeneratedImage{Format: "jpeg"}).Extension())
	assert.Equal(t, "png", (&GeneratedImage{Format: "png"}).Extension())
	assert.Equal(t, "image/png", (&GeneratedImage{Format: "png"}).ContentType())
	assert.Equal(t, "image/jpeg", (&GeneratedImage{}).ContentType())
}

func TestErrorKind(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("failed to generate image: %w", NewServiceError("image generation failed", cause))

	assert.Equal(t, KindService, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to generate image: image generation failed: connection reset", err.Error())
	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.Equal(t, "prompt cannot be empty", NewValidationError("prompt cannot be empty", nil).Error())
}

func TestNewGenerationRequestSnapshots(t *testing.T) {
	sel := FieldSelection{Values: map[string]string{"gender": "Male"}}
	toggles := Toggles{"gender": true}

	req := NewGenerationRequest("p", Resolution1024x1024, sel, toggles)
	sel.Values["gender"] = "Female"
	toggles["gender"] = false

	assert.Equal(t, "Male", req.Selection.Value("gender"))
	assert.True(t, req.Inclusion.Included("gender"))

	assert.Equal(t, IncludeAll, NewGenerationRequest("p", Resolution1024x1024, sel, nil).Inclusion)
}
