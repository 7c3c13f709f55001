package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseKeyValuePairs parses KEY=VALUE pairs. Only the key is trimmed; values
// keep their whitespace because prompts and descriptions are free text.
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid key=value pair (missing =): %s", pair)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("invalid key=value pair (empty key): %s", pair)
		}
		result[key] = parts[1]
	}
	return result, nil
}

// ModelRef is a model given on the command line as ID, NAME or ID:NAME.
type ModelRef struct {
	ID   *int
	Name string
}

// ParseModelRef splits ID:NAME. A bare number is an id, anything else a name.
func ParseModelRef(s string) (ModelRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModelRef{}, fmt.Errorf("empty model reference")
	}
	idPart, name, hasName := strings.Cut(s, ":")
	id, err := strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil {
		if hasName {
			return ModelRef{}, fmt.Errorf("invalid model id %q", idPart)
		}
		return ModelRef{Name: s}, nil
	}
	return ModelRef{ID: &id, Name: strings.TrimSpace(name)}, nil
}
