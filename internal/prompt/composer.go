// Package prompt turns a base prompt and attribute selections into the
// instruction sent to the image service.
package prompt

import (
	"strings"

	"github.com/basel-ax/avatargen/internal/domain"
)

const (
	attributesHeader = "With the following attributes:"
	noLabelsClause   = "Avoids using explicit labels or pointers to indicate the requested attributes."
	// noValue is written for an included attribute that has nothing selected
	noValue = "None"
)

// Compose builds the prompt for a generation request.
// A nil policy includes every attribute.
func Compose(base string, sel domain.FieldSelection, policy domain.InclusionPolicy) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", domain.NewValidationError("prompt cannot be empty", nil)
	}
	if policy == nil {
		policy = domain.IncludeAll
	}

	var lines []string
	for _, a := range domain.Attributes {
		if !policy.Included(a.Key) {
			continue
		}
		lines = append(lines, "- "+a.Label+": "+value(a, sel))
	}
	if len(lines) == 0 {
		return base, nil
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	b.WriteString(attributesHeader)
	b.WriteString("\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(noLabelsClause)
	return b.String(), nil
}

// ComposeRequest composes the prompt for a full request snapshot
func ComposeRequest(req domain.GenerationRequest) (string, error) {
	return Compose(req.Prompt, req.Selection, req.Inclusion)
}

func value(a domain.Attribute, sel domain.FieldSelection) string {
	var v string
	if a.Multi {
		v = strings.Join(sel.Accessories, ", ")
	} else {
		v = strings.TrimSpace(sel.Value(a.Key))
	}
	if v == "" {
		return noValue
	}
	return v
}
