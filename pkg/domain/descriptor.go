package domain

import (
	"fmt"
	"strings"
)

// KeySeparator joins key segments in the string form of a Key.
const KeySeparator = "/"

// Key is the stable identity of a descriptor: an ordered list of path segments.
type Key []string

// NewKey builds a key from segments.
func NewKey(segments ...string) Key {
	return Key(append([]string(nil), segments...))
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}
	parts := strings.Split(s, KeySeparator)
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("key %q has an empty segment", s)
		}
	}
	return Key(parts), nil
}

func (k Key) String() string {
	return strings.Join(k, KeySeparator)
}

// Equal reports whether two keys have the same segments.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// MarshalText encodes the key in its string form, so keys work as JSON/YAML scalars.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes the string form of a key.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Descriptor is the flat, dependency-annotated output of a translation pass.
type Descriptor struct {
	Key        Key               `json:"key" yaml:"key"`
	Kind       ContentType       `json:"kind" yaml:"kind"`
	Deps       []Key             `json:"deps" yaml:"deps"`
	Properties map[string]any    `json:"properties,omitempty" yaml:"properties,omitempty"`
	Tags       map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DependsOn reports whether the descriptor declares a dependency on key.
func (d Descriptor) DependsOn(key Key) bool {
	for _, dep := range d.Deps {
		if dep.Equal(key) {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or maps with d.
// Property values are copied shallowly.
func (d Descriptor) Clone() Descriptor {
	out := Descriptor{
		Key:  NewKey(d.Key...),
		Kind: d.Kind,
		Deps: make([]Key, len(d.Deps)),
	}
	for i, dep := range d.Deps {
		out.Deps[i] = NewKey(dep...)
	}
	if d.Properties != nil {
		out.Properties = make(map[string]any, len(d.Properties))
		for k, v := range d.Properties {
			out.Properties[k] = v
		}
	}
	if d.Tags != nil {
		out.Tags = make(map[string]string, len(d.Tags))
		for k, v := range d.Tags {
			out.Tags[k] = v
		}
	}
	return out
}
