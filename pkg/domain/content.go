package domain

import "fmt"

// ContentType tags the kind of object a property bag describes.
type ContentType string

const (
	// ContentTypeContainer is a top-level grouping of items (a workbook).
	ContentTypeContainer ContentType = "workbook"
	// ContentTypeItem is a unit of content inside a container (a view or sheet).
	ContentTypeItem ContentType = "view"
	// ContentTypeSubReference points to a shared underlying resource (a published data source).
	ContentTypeSubReference ContentType = "data_source"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeContainer, ContentTypeItem, ContentTypeSubReference:
		return true
	}
	return false
}

// ContentData is a semi-structured property bag plus its content type tag.
type ContentData struct {
	Type ContentType `json:"type" yaml:"type"`
	ID   string      `json:"id" yaml:"id"`

	// ContainerID is only set for items.
	ContainerID string `json:"container_id,omitempty" yaml:"container_id,omitempty"`

	Properties map[string]any `json:"properties" yaml:"properties"`
}

// String returns a short human label, e.g. "view:abc".
func (c ContentData) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.ID)
}

// Property returns the named property, or nil.
func (c ContentData) Property(name string) any {
	if c.Properties == nil {
		return nil
	}
	return c.Properties[name]
}

// StringProperty returns the named property when it is a non-empty string.
func (c ContentData) StringProperty(name string) (string, bool) {
	return AsString(c.Property(name))
}

// AsString converts a decoded JSON value into a non-empty string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
