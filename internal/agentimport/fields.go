package agentimport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when a value is set for a key no field owns.
var ErrUnknownField = errors.New("unknown config field")

// FieldStore maps resolution keys to user-supplied values. Grouping by agent
// is left to the presentation layer.
type FieldStore struct {
	keys   []string
	values map[string]string
}

// NewFieldStore creates an entry holding "" for every field.
func NewFieldStore(fields []ConfigField) *FieldStore {
	s := &FieldStore{values: make(map[string]string, len(fields))}
	for _, f := range fields {
		if _, ok := s.values[f.Key]; ok {
			continue
		}
		s.keys = append(s.keys, f.Key)
		s.values[f.Key] = ""
	}
	return s
}

// Set replaces the value of one field.
func (s *FieldStore) Set(key, value string) error {
	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	s.values[key] = value
	return nil
}

// Get returns the value for key and whether the key exists.
func (s *FieldStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *FieldStore) Len() int { return len(s.keys) }

// Complete reports whether every field has a non-blank value.
func (s *FieldStore) Complete() bool {
	return len(s.Missing()) == 0
}

// Missing returns the keys whose value is empty or whitespace only.
func (s *FieldStore) Missing() []string {
	var missing []string
	for _, k := range s.keys {
		if strings.TrimSpace(s.values[k]) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// Values returns a copy of the store contents.
func (s *FieldStore) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// FieldGroup is the fields owned by one agent.
type FieldGroup struct {
	AgentKey string        `json:"agentKey"`
	Fields   []ConfigField `json:"fields"`
}

// GroupByAgent groups fields by owning agent, keeping first-seen agent order.
func GroupByAgent(fields []ConfigField) []FieldGroup {
	var groups []FieldGroup
	index := map[string]int{}
	for _, f := range fields {
		i, ok := index[f.AgentKey]
		if !ok {
			i = len(groups)
			index[f.AgentKey] = i
			groups = append(groups, FieldGroup{AgentKey: f.AgentKey})
		}
		groups[i].Fields = append(groups[i].Fields, f)
	}
	return groups
}
