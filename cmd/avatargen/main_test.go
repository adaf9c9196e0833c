package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	sel, err := parseSelection([]string{"gender=Female", "hair_style_color=Short/Black", "pose="}, []string{"Hat"})
	require.NoError(t, err)
	assert.Equal(t, "Female", sel.Value("gender"))
	assert.Equal(t, "Short/Black", sel.Value("hair_style_color"))
	assert.Equal(t, "", sel.Value("pose"))
	assert.Equal(t, []string{"Hat"}, sel.Accessories)

	_, err = parseSelection([]string{"gender"}, nil)
	assert.Error(t, err)
	_, err = parseSelection([]string{"=Female"}, nil)
	assert.Error(t, err)
}

func TestStringList(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("a"))
	require.NoError(t, l.Set("b"))
	assert.Equal(t, "a,b", l.String())
}
