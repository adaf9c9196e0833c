// Package catalog loads the allowed attribute values from a JSON or YAML document.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/basel-ax/avatargen/internal/domain"
)

// Load reads the attribute catalog at path.
// On failure it returns an empty catalog together with a configuration error.
func Load(path string) (domain.AttributeCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.AttributeCatalog{}, domain.NewConfigurationError("configuration file not found", err)
		}
		return domain.AttributeCatalog{}, domain.NewConfigurationError("failed to read configuration file", err)
	}

	c, err := Parse(data, formatOf(path))
	if err != nil {
		return domain.AttributeCatalog{}, err
	}
	return c, nil
}

// Format is the encoding of a catalog document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a catalog document, dropping duplicate values within an attribute
func Parse(data []byte, format Format) (domain.AttributeCatalog, error) {
	raw := map[string][]string{}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return domain.AttributeCatalog{}, domain.NewConfigurationError(fmt.Sprintf("error decoding the %s configuration file", format), err)
	}

	c := make(domain.AttributeCatalog, len(raw))
	for key, values := range raw {
		c[key] = unique(values)
	}
	return c, nil
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
