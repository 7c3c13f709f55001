package models

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// sourceMembers records the members an object was decoded from. Encoding an
// object that carries them writes untouched members back exactly as they were
// read, keeps members the Go type does not model and leaves out modelled
// members the source never had unless they were set afterwards.
//
// A sourceMembers value is never mutated once built, so clones share it.
type sourceMembers struct {
	keys []string
	raw  map[string]json.RawMessage
	// baseline holds the typed encoding of every modelled member right after
	// decoding; nil until withBaseline runs.
	baseline map[string]string
}

func captureJSONMembers(b []byte) *sourceMembers {
	res := gjson.ParseBytes(b)
	if !res.IsObject() {
		return nil
	}
	m := &sourceMembers{raw: map[string]json.RawMessage{}}
	res.ForEach(func(key, value gjson.Result) bool {
		m.add(key.String(), json.RawMessage(value.Raw))
		return true
	})
	return m
}

// captureYAMLMembers converts each member of a YAML mapping to JSON. Members
// that have no JSON form, such as mappings with non-string keys, are skipped.
func captureYAMLMembers(node *yaml.Node) *sourceMembers {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	m := &sourceMembers{raw: map[string]json.RawMessage{}}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v any
		if err := node.Content[i+1].Decode(&v); err != nil {
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		m.add(node.Content[i].Value, b)
	}
	return m
}

func (m *sourceMembers) add(key string, value json.RawMessage) {
	if _, dup := m.raw[key]; !dup {
		m.keys = append(m.keys, key)
	}
	m.raw[key] = value
}

// withBaseline returns a copy of m that remembers typed as the encoding of the
// freshly decoded object. A baseline is only taken once.
func (m *sourceMembers) withBaseline(typed []byte) *sourceMembers {
	if m == nil || m.baseline != nil {
		return m
	}
	out := *m
	out.baseline = map[string]string{}
	gjson.ParseBytes(typed).ForEach(func(key, value gjson.Result) bool {
		out.baseline[key.String()] = value.Raw
		return true
	})
	return &out
}

func (m *sourceMembers) unchanged(key, typed string) bool {
	if m.baseline == nil {
		return false
	}
	base, ok := m.baseline[key]
	return ok && base == typed
}

// encode merges the typed encoding of an object with its source members.
func (m *sourceMembers) encode(typed []byte) ([]byte, error) {
	if m == nil {
		return typed, nil
	}
	var order []string
	current := map[string]string{}
	gjson.ParseBytes(typed).ForEach(func(key, value gjson.Result) bool {
		order = append(order, key.String())
		current[key.String()] = value.Raw
		return true
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value []byte) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(value)
		return nil
	}

	for _, key := range m.keys {
		value := []byte(m.raw[key])
		if typedValue, modelled := current[key]; modelled && !m.unchanged(key, typedValue) {
			value = []byte(typedValue)
		}
		if err := write(key, value); err != nil {
			return nil, err
		}
	}
	for _, key := range order {
		if _, seen := m.raw[key]; seen || m.unchanged(key, current[key]) {
			continue
		}
		if err := write(key, []byte(current[key])); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
