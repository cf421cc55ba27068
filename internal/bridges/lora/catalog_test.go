package lora

import (
	"os"
	"path/filepath"
	"testing"
)

func testDescriptor(id uint8) Descriptor {
	return Descriptor{
		EntityID:    id,
		Component:   ComponentCover,
		DeviceClass: "door",
		Unit:        "",
		Signed:      false,
		Size:        1,
		Precision:   0,
	}
}

func TestCatalogLoadMissingFile(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "nope.yaml"))

	if err := c.Load(); err == nil {
		t.Error("Load of missing file should return error")
	}
	// Catalog stays usable
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if c.Reconcile(testDescriptor(1)) != ReconcileAdded {
		t.Error("empty catalog should accept descriptors after failed load")
	}
}

func TestCatalogLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("entities: [not: valid: yaml"), 0600); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog(path)
	if err := c.Load(); err == nil {
		t.Error("Load of corrupt file should return error")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCatalogReconcileAdd(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "catalog.yaml"))

	if got := c.Reconcile(testDescriptor(5)); got != ReconcileAdded {
		t.Errorf("Reconcile = %v, want added", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	d, ok := c.Get(5)
	if !ok {
		t.Fatal("Get(5) not found")
	}
	if d.DeviceClass != "door" {
		t.Errorf("DeviceClass = %q, want door", d.DeviceClass)
	}
}

func TestCatalogReconcileUnchanged(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "catalog.yaml"))

	c.Reconcile(testDescriptor(5))
	if got := c.Reconcile(testDescriptor(5)); got != ReconcileUnchanged {
		t.Errorf("Reconcile = %v, want unchanged", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCatalogReconcileReplace(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "catalog.yaml"))

	c.Reconcile(testDescriptor(5))

	diverged := testDescriptor(5)
	diverged.DeviceClass = "garage"
	if got := c.Reconcile(diverged); got != ReconcileReplaced {
		t.Errorf("Reconcile = %v, want replaced", got)
	}

	d, _ := c.Get(5)
	if d.DeviceClass != "garage" {
		t.Errorf("DeviceClass = %q, radio side should be authoritative", d.DeviceClass)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCatalogReconcileIgnoresConfigItemsForEquality(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "catalog.yaml"))

	d := testDescriptor(5)
	d.ConfigItems = []ConfigItem{{ID: 1, Unit: "s", Size: 2}}
	c.Reconcile(d)

	same := testDescriptor(5)
	same.ConfigItems = nil
	if got := c.Reconcile(same); got != ReconcileUnchanged {
		t.Errorf("Reconcile = %v, want unchanged (config items excluded)", got)
	}
}

func TestCatalogPersistOnlyWhenDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	c := NewCatalog(path)

	// Nothing to persist yet
	wrote, err := c.PersistIfDirty()
	if err != nil {
		t.Fatalf("PersistIfDirty failed: %v", err)
	}
	if wrote {
		t.Error("clean catalog must not be written")
	}

	c.Reconcile(testDescriptor(5))
	wrote, err = c.PersistIfDirty()
	if err != nil {
		t.Fatalf("PersistIfDirty failed: %v", err)
	}
	if !wrote {
		t.Error("dirty catalog must be written")
	}

	// Idempotency: same descriptor again triggers no second write
	c.Reconcile(testDescriptor(5))
	wrote, err = c.PersistIfDirty()
	if err != nil {
		t.Fatalf("PersistIfDirty failed: %v", err)
	}
	if wrote {
		t.Error("unchanged reconciliation must not trigger a write")
	}
}

func TestCatalogPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	c := NewCatalog(path)

	temp := Descriptor{
		EntityID:    9,
		Component:   ComponentSensor,
		DeviceClass: "temperature",
		Unit:        "°C",
		Signed:      true,
		Size:        2,
		Precision:   1,
		ConfigItems: []ConfigItem{{ID: 1, Unit: "s", Signed: false, Size: 2, Precision: 0}},
	}
	c.Reconcile(testDescriptor(5))
	c.Reconcile(temp)
	if _, err := c.PersistIfDirty(); err != nil {
		t.Fatalf("PersistIfDirty failed: %v", err)
	}

	reloaded := NewCatalog(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reloaded.Len())
	}

	// Insertion order preserved
	list := reloaded.Descriptors()
	if list[0].EntityID != 5 || list[1].EntityID != 9 {
		t.Errorf("order = [%d %d], want [5 9]", list[0].EntityID, list[1].EntityID)
	}

	got, ok := reloaded.Get(9)
	if !ok {
		t.Fatal("Get(9) not found after reload")
	}
	if !got.Equal(temp) {
		t.Errorf("descriptor changed over persist/reload: %+v → %+v", temp, got)
	}
	if len(got.ConfigItems) != 1 || got.ConfigItems[0] != temp.ConfigItems[0] {
		t.Errorf("config items changed over persist/reload: %+v", got.ConfigItems)
	}
}

func TestCatalogPersistFailureKeepsCatalogUsable(t *testing.T) {
	// A directory path makes the write fail
	dir := t.TempDir()
	c := NewCatalog(dir)

	c.Reconcile(testDescriptor(5))
	if _, err := c.PersistIfDirty(); err == nil {
		t.Fatal("PersistIfDirty to a directory should fail")
	}

	// In-memory catalog is intact and still dirty for a retry
	if _, ok := c.Get(5); !ok {
		t.Error("catalog lost descriptor after failed persist")
	}
	if _, err := c.PersistIfDirty(); err == nil {
		t.Error("catalog should still be dirty and retry the write")
	}
}
