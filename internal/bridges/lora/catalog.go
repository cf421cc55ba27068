package lora

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// catalogFilePermissions is the permission mode for the catalog snapshot.
const catalogFilePermissions = 0600

// ReconcileResult describes what reconciliation did with a descriptor.
type ReconcileResult int

// Reconciliation outcomes.
const (
	// ReconcileUnchanged means an equal descriptor was already present.
	ReconcileUnchanged ReconcileResult = iota

	// ReconcileAdded means the descriptor was new and appended.
	ReconcileAdded

	// ReconcileReplaced means an existing descriptor diverged and was
	// replaced in place.
	ReconcileReplaced
)

// catalogSnapshot is the persisted form of the catalog.
type catalogSnapshot struct {
	Entities []Descriptor `yaml:"entities"`
}

// Catalog is the gateway's cache of radio-announced entity metadata.
//
// Descriptors keep insertion order so the persisted snapshot is
// deterministic. The catalog is owned by a single dispatch goroutine;
// it is not safe for concurrent use.
type Catalog struct {
	path        string
	descriptors []Descriptor
	index       map[uint8]int
	dirty       bool
}

// NewCatalog creates an empty catalog backed by the snapshot file at path.
func NewCatalog(path string) *Catalog {
	return &Catalog{
		path:  path,
		index: make(map[uint8]int),
	}
}

// Load reads the snapshot file into the catalog.
//
// A missing or unreadable snapshot is not fatal to the gateway: the
// caller should log the returned error as a warning and continue with
// the empty catalog.
//
// Returns:
//   - error: If the file is missing, unreadable or not valid YAML
func (c *Catalog) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}

	var snapshot catalogSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}

	c.descriptors = c.descriptors[:0]
	c.index = make(map[uint8]int, len(snapshot.Entities))
	for _, d := range snapshot.Entities {
		if _, dup := c.index[d.EntityID]; dup {
			continue
		}
		c.index[d.EntityID] = len(c.descriptors)
		c.descriptors = append(c.descriptors, d)
	}
	c.dirty = false

	return nil
}

// Get returns the descriptor for an entity id.
func (c *Catalog) Get(entityID uint8) (Descriptor, bool) {
	i, ok := c.index[entityID]
	if !ok {
		return Descriptor{}, false
	}
	return c.descriptors[i], true
}

// Len returns the number of descriptors in the catalog.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}

// Descriptors returns a copy of the descriptors in insertion order.
func (c *Catalog) Descriptors() []Descriptor {
	out := make([]Descriptor, len(c.descriptors))
	copy(out, c.descriptors)
	return out
}

// Reconcile merges an incoming discovery descriptor into the catalog.
//
// A new entity id is appended. An existing descriptor that matches
// field for field (config items excluded) is left alone. A diverging
// descriptor is replaced in place; radio-side metadata is authoritative.
// Added and replaced descriptors mark the catalog dirty for the next
// PersistIfDirty call.
//
// Parameters:
//   - d: Decoded discovery descriptor
//
// Returns:
//   - ReconcileResult: What was done with the descriptor
func (c *Catalog) Reconcile(d Descriptor) ReconcileResult {
	i, ok := c.index[d.EntityID]
	if !ok {
		c.index[d.EntityID] = len(c.descriptors)
		c.descriptors = append(c.descriptors, d)
		c.dirty = true
		return ReconcileAdded
	}

	if c.descriptors[i].Equal(d) {
		return ReconcileUnchanged
	}

	c.descriptors[i] = d
	c.dirty = true
	return ReconcileReplaced
}

// PersistIfDirty writes the full catalog snapshot if it has changed
// since the last successful persist.
//
// On write failure the catalog stays dirty and usable in memory, so
// the next reconciliation retries the write.
//
// Returns:
//   - bool: true if a snapshot was written
//   - error: If serialization or the file write fails
func (c *Catalog) PersistIfDirty() (bool, error) {
	if !c.dirty {
		return false, nil
	}

	data, err := yaml.Marshal(catalogSnapshot{Entities: c.descriptors})
	if err != nil {
		return false, fmt.Errorf("serializing catalog: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return false, fmt.Errorf("creating catalog directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, catalogFilePermissions); err != nil {
		return false, fmt.Errorf("writing catalog: %w", err)
	}

	c.dirty = false
	return true, nil
}
