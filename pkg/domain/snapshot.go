package domain

import "fmt"

// index is an insertion-ordered map of content by external id.
type index struct {
	order []string
	byID  map[string]ContentData
}

func newIndex() index {
	return index{byID: make(map[string]ContentData)}
}

func (x *index) add(c ContentData) bool {
	if _, exists := x.byID[c.ID]; exists {
		return false
	}
	x.order = append(x.order, c.ID)
	x.byID[c.ID] = c
	return true
}

// Snapshot is the read-only result of one fetch cycle: containers, items and
// sub-references keyed by external id, each kept in fetch order.
// Property maps are shared with the builder's input and must not be mutated.
type Snapshot struct {
	siteName      string
	containers    index
	items         index
	subReferences index
	itemsByParent map[string][]string
}

// SiteName returns the site (tenant) the snapshot was fetched from.
func (s *Snapshot) SiteName() string { return s.siteName }

// ContainerIDs returns container ids in fetch order.
func (s *Snapshot) ContainerIDs() []string { return append([]string(nil), s.containers.order...) }

// Container looks up a container by id.
func (s *Snapshot) Container(id string) (ContentData, bool) {
	c, ok := s.containers.byID[id]
	return c, ok
}

// ItemIDs returns all item ids in fetch order.
func (s *Snapshot) ItemIDs() []string { return append([]string(nil), s.items.order...) }

// ItemsOf returns the ids of the items fetched under a container, in fetch order.
func (s *Snapshot) ItemsOf(containerID string) []string {
	return append([]string(nil), s.itemsByParent[containerID]...)
}

// Item looks up an item by id.
func (s *Snapshot) Item(id string) (ContentData, bool) {
	c, ok := s.items.byID[id]
	return c, ok
}

// SubReferenceIDs returns sub-reference ids in first-seen order.
func (s *Snapshot) SubReferenceIDs() []string {
	return append([]string(nil), s.subReferences.order...)
}

// SubReference looks up a sub-reference by id.
func (s *Snapshot) SubReference(id string) (ContentData, bool) {
	c, ok := s.subReferences.byID[id]
	return c, ok
}

// Len returns the number of containers, items and sub-references.
func (s *Snapshot) Len() (containers, items, subReferences int) {
	return len(s.containers.order), len(s.items.order), len(s.subReferences.order)
}

// SnapshotBuilder accumulates content during a fetch and freezes it into a Snapshot.
type SnapshotBuilder struct {
	snap  *Snapshot
	built bool
}

// NewSnapshotBuilder starts a snapshot for the given site.
func NewSnapshotBuilder(siteName string) *SnapshotBuilder {
	return &SnapshotBuilder{
		snap: &Snapshot{
			siteName:      siteName,
			containers:    newIndex(),
			items:         newIndex(),
			subReferences: newIndex(),
			itemsByParent: make(map[string][]string),
		},
	}
}

// AddContainer registers a container. Re-adding an id is an error.
func (b *SnapshotBuilder) AddContainer(id string, props map[string]any) error {
	if err := b.check(id); err != nil {
		return err
	}
	if !b.snap.containers.add(ContentData{Type: ContentTypeContainer, ID: id, Properties: props}) {
		return fmt.Errorf("duplicate container %q", id)
	}
	return nil
}

// AddItem registers an item under an already registered container.
func (b *SnapshotBuilder) AddItem(containerID, id string, props map[string]any) error {
	if err := b.check(id); err != nil {
		return err
	}
	if _, ok := b.snap.containers.byID[containerID]; !ok {
		return fmt.Errorf("item %q: unknown container %q", id, containerID)
	}
	item := ContentData{Type: ContentTypeItem, ID: id, ContainerID: containerID, Properties: props}
	if !b.snap.items.add(item) {
		return fmt.Errorf("duplicate item %q", id)
	}
	b.snap.itemsByParent[containerID] = append(b.snap.itemsByParent[containerID], id)
	return nil
}

// AddSubReference registers a sub-reference. It reports false if the id was already
// present; the first registration wins.
func (b *SnapshotBuilder) AddSubReference(id string, props map[string]any) (bool, error) {
	if err := b.check(id); err != nil {
		return false, err
	}
	return b.snap.subReferences.add(ContentData{Type: ContentTypeSubReference, ID: id, Properties: props}), nil
}

// Build freezes the builder. Further Add calls fail.
func (b *SnapshotBuilder) Build() *Snapshot {
	b.built = true
	return b.snap
}

func (b *SnapshotBuilder) check(id string) error {
	if b.built {
		return fmt.Errorf("snapshot already built")
	}
	if id == "" {
		return fmt.Errorf("empty id")
	}
	return nil
}
