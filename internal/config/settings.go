package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Setting is one server setting as authored in the profile, keyed by its
// inner-caps name (e.g. listenAddresses).
type Setting struct {
	Key   string
	Value any
}

// Settings is an ordered list of settings. Document order is kept so the
// generated configuration is stable and reads like the profile.
type Settings []Setting

// UnmarshalYAML decodes a mapping while keeping key order.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: settings must be a mapping", node.Line)
	}
	out := make(Settings, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var value any
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("line %d: setting %q: %w", valueNode.Line, keyNode.Value, err)
		}
		out = out.Set(keyNode.Value, value)
	}
	*s = out
	return nil
}

// Get returns the value for key.
func (s Settings) Get(key string) (any, bool) {
	for _, setting := range s {
		if setting.Key == key {
			return setting.Value, true
		}
	}
	return nil, false
}

// Set returns s with key set to value. An existing key keeps its position.
func (s Settings) Set(key string, value any) Settings {
	for i := range s {
		if s[i].Key == key {
			s[i].Value = value
			return s
		}
	}
	return append(s, Setting{Key: key, Value: value})
}

// Merge returns a new list with override applied on top of s.
// Overridden keys keep their original position; new keys are appended.
func (s Settings) Merge(override Settings) Settings {
	merged := make(Settings, len(s), len(s)+len(override))
	copy(merged, s)
	for _, setting := range override {
		merged = merged.Set(setting.Key, setting.Value)
	}
	return merged
}
