package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/avatargen/internal/domain"
)

const reader = "A person who loves to read books."

func fullSelection() domain.FieldSelection {
	return domain.FieldSelection{
		Values: map[string]string{
			"gender":              "Female",
			"pose":                "Sitting",
			"background":          "Library",
			"age":                 "Adult",
			"cultural_background": "Nordic",
			"artistic_style":      "Watercolor",
			"personality_trait":   "Curious",
			"clothing_style":      "Casual",
			"hair_style_color":    "Short/Black",
			"expression":          "Smiling",
			"eye_color":           "Green",
			"skin_tone":           "Fair",
			"body_type":           "Slim",
		},
		Accessories: []string{"Glasses", "Scarf"},
	}
}

func TestComposeAllExcluded(t *testing.T) {
	for _, base := range []string{reader, "  " + reader + "\n\t", "x"} {
		got, err := Compose(base, fullSelection(), domain.ExcludeAll())
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSpace(base), got)
	}
}

func TestComposeSingleField(t *testing.T) {
	got, err := Compose(reader, fullSelection(), domain.Only("gender"))
	require.NoError(t, err)
	assert.Equal(t, "A person who loves to read books.\n\nWith the following attributes:\n- Gender: Female\n\nAvoids using explicit labels or pointers to indicate the requested attributes.", got)
}

func TestComposeIncludeAll(t *testing.T) {
	got, err := Compose(reader, fullSelection(), domain.IncludeAll)
	require.NoError(t, err)

	want := strings.Join([]string{
		reader,
		"",
		"With the following attributes:",
		"- Gender: Female",
		"- Pose: Sitting",
		"- Background View: Library",
		"- Age: Adult",
		"- Cultural background: Nordic",
		"- Artistic style: Watercolor",
		"- Personality trait: Curious",
		"- Accessories: Glasses, Scarf",
		"- Clothing style: Casual",
		"- Hair style/color: Short/Black",
		"- Expression: Smiling",
		"- Eye color: Green",
		"- Skin tone: Fair",
		"- Body type: Slim",
		"",
		"Avoids using explicit labels or pointers to indicate the requested attributes.",
	}, "\n")
	assert.Equal(t, want, got)

	nilPolicy, err := Compose(reader, fullSelection(), nil)
	require.NoError(t, err)
	assert.Equal(t, got, nilPolicy)
}

func TestComposeLinesFollowPolicy(t *testing.T) {
	toggles := domain.Toggles{"pose": false, "accessories": false, "eye_color": false}
	got, err := Compose(reader, fullSelection(), toggles)
	require.NoError(t, err)

	count := 0
	last := -1
	for _, a := range domain.Attributes {
		idx := strings.Index(got, "\n- "+a.Label+":")
		if !toggles.Included(a.Key) {
			assert.Equal(t, -1, idx, "excluded %s present", a.Key)
			continue
		}
		require.NotEqual(t, -1, idx, "included %s missing", a.Key)
		assert.Greater(t, idx, last, "%s out of order", a.Key)
		last = idx
		count++
	}
	assert.Equal(t, count, strings.Count(got, "\n- "))
}

func TestComposeAccessories(t *testing.T) {
	sel := fullSelection()
	sel.Accessories = nil

	got, err := Compose(reader, sel, domain.Only("accessories"))
	require.NoError(t, err)
	assert.Contains(t, got, "- Accessories: None")

	got, err = Compose(reader, sel, domain.Only("gender"))
	require.NoError(t, err)
	assert.NotContains(t, got, "Accessories")
}

func TestComposeEmptySingleValue(t *testing.T) {
	c := domain.AttributeCatalog{"genders": {"Default", "Female"}}
	sel := domain.FieldSelection{}.WithDefaults(c)

	got, err := Compose("p", sel, domain.Only("gender", "pose"))
	require.NoError(t, err)
	assert.Equal(t, "p\n\nWith the following attributes:\n- Gender: Default\n- Pose: None\n\nAvoids using explicit labels or pointers to indicate the requested attributes.", got)

	sel.Values["pose"] = "   "
	got, err = Compose("p", sel, domain.Only("pose"))
	require.NoError(t, err)
	assert.Contains(t, got, "- Pose: None")
}

func TestComposeEmptyPrompt(t *testing.T) {
	for _, base := range []string{"", "   ", "\n\t "} {
		_, err := Compose(base, fullSelection(), domain.IncludeAll)
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.Equal(t, "prompt cannot be empty", err.Error())
	}
}

func TestComposeDeterministic(t *testing.T) {
	first, err := ComposeRequest(domain.GenerationRequest{Prompt: reader, Selection: fullSelection(), Inclusion: domain.IncludeAll})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compose(reader, fullSelection(), domain.IncludeAll)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
