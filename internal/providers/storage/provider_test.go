package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/virtuoslabs/virtuos/backend/internal/domain/vfs"
	"github.com/virtuoslabs/virtuos/backend/internal/shared/types"
)

func newTestProvider() *Provider {
	return NewProvider(vfs.New(), "")
}

func nsCtx(ns string) *types.Context {
	return &types.Context{Namespace: strPtr(ns)}
}

func TestStorageSetGet(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app1")

	// Set a value
	result, err := storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "test_key",
		"value": "test_value",
	}, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Set failed: %v", err)
	}

	// Get the value
	result, err = storage.Execute(ctx, "storage.get", map[string]interface{}{
		"key": "test_key",
	}, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Get failed: %v", err)
	}

	if result.Data["value"].(string) != "test_value" {
		t.Errorf("Expected 'test_value', got %v", result.Data["value"])
	}
}

func TestStorageComplex(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app2")

	// Store complex object
	complexValue := map[string]interface{}{
		"name":   "test",
		"count":  42,
		"active": true,
		"tags":   []interface{}{"a", "b", "c"},
	}

	result, err := storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "complex",
		"value": complexValue,
	}, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Set complex failed: %v", err)
	}

	// Retrieve complex object
	result, err = storage.Execute(ctx, "storage.get", map[string]interface{}{
		"key": "complex",
	}, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Get complex failed: %v", err)
	}

	retrieved := result.Data["value"].(map[string]interface{})
	if retrieved["name"].(string) != "test" {
		t.Errorf("Expected name 'test', got %v", retrieved["name"])
	}
	// Numbers come back as float64 after the JSON round trip
	if count := retrieved["count"].(float64); count != 42 {
		t.Errorf("Expected count 42, got %v", count)
	}
	if tags := retrieved["tags"].([]interface{}); len(tags) != 3 {
		t.Errorf("Expected 3 tags, got %v", tags)
	}
}

func TestStorageOverwrite(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app2b")

	storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key": "k", "value": "first",
	}, appCtx)
	storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key": "k", "value": "second",
	}, appCtx)

	result, _ := storage.Execute(ctx, "storage.get", map[string]interface{}{"key": "k"}, appCtx)
	if result.Data["value"].(string) != "second" {
		t.Errorf("Expected 'second', got %v", result.Data["value"])
	}
}

func TestStorageRemove(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app3")

	// Set a value
	storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "to_remove",
		"value": "will be deleted",
	}, appCtx)

	// Remove it
	result, err := storage.Execute(ctx, "storage.remove", map[string]interface{}{
		"key": "to_remove",
	}, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Remove failed: %v", err)
	}
	if !result.Data["deleted"].(bool) {
		t.Error("Expected deleted=true for existing key")
	}

	// Try to get it (should return nil)
	result, err = storage.Execute(ctx, "storage.get", map[string]interface{}{
		"key": "to_remove",
	}, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Get after remove failed: %v", err)
	}

	if result.Data["value"] != nil {
		t.Errorf("Expected nil value after remove, got %v", result.Data["value"])
	}

	// Removing a missing key reports deleted=false, not an error
	result, _ = storage.Execute(ctx, "storage.remove", map[string]interface{}{
		"key": "to_remove",
	}, appCtx)
	if !result.Success || result.Data["deleted"].(bool) {
		t.Error("Expected deleted=false for missing key")
	}
}

func TestStorageList(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app4")

	result, err := storage.Execute(ctx, "storage.list", nil, appCtx)
	if err != nil || !result.Success {
		t.Fatalf("List on empty namespace failed: %v", err)
	}
	if result.Data["count"].(int) != 0 {
		t.Errorf("Expected empty namespace, got %v", result.Data["keys"])
	}

	storage.Execute(ctx, "storage.set", map[string]interface{}{"key": "beta", "value": 2}, appCtx)
	storage.Execute(ctx, "storage.set", map[string]interface{}{"key": "alpha", "value": 1}, appCtx)

	result, _ = storage.Execute(ctx, "storage.list", nil, appCtx)
	keys := result.Data["keys"].([]string)
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "alpha" || keys[1] != "beta" {
		t.Errorf("Unexpected keys: %v", keys)
	}

	// Keys from another namespace stay invisible
	other, _ := storage.Execute(ctx, "storage.list", nil, nsCtx("elsewhere"))
	if other.Data["count"].(int) != 0 {
		t.Errorf("Namespaces leaked: %v", other.Data["keys"])
	}
}

func TestStorageClear(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app5")

	// Set multiple values
	storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "key1",
		"value": "value1",
	}, appCtx)
	storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "key2",
		"value": "value2",
	}, appCtx)

	// Clear all
	result, err := storage.Execute(ctx, "storage.clear", nil, appCtx)

	if err != nil || !result.Success {
		t.Fatalf("Clear failed: %v", err)
	}
	if result.Data["count"].(int) != 2 {
		t.Errorf("Expected 2 cleared keys, got %v", result.Data["count"])
	}

	// Verify cleared
	result, _ = storage.Execute(ctx, "storage.get", map[string]interface{}{
		"key": "key1",
	}, appCtx)

	if result.Data["value"] != nil {
		t.Errorf("Expected nil after clear, got %v", result.Data["value"])
	}
}

func TestStorageNoContext(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()

	result, _ := storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "test",
		"value": "test",
	}, nil)

	if result.Success {
		t.Error("Expected failure without a namespace")
	}
}

func TestStorageKeyValidation(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()
	appCtx := nsCtx("app6")

	result, _ := storage.Execute(ctx, "storage.set", map[string]interface{}{
		"key":   "nested/key",
		"value": "x",
	}, appCtx)
	if result.Success {
		t.Error("Expected failure for key containing '/'")
	}

	result, _ = storage.Execute(ctx, "storage.set", map[string]interface{}{
		"value": "x",
	}, appCtx)
	if result.Success {
		t.Error("Expected failure for missing key")
	}
}

func TestStorageNamespaceValidation(t *testing.T) {
	storage := newTestProvider()
	ctx := context.Background()

	for _, ns := range []string{"../etc", "a/b", `a\b`, ".", ".."} {
		result, _ := storage.Execute(ctx, "storage.set", map[string]interface{}{
			"key":   "k",
			"value": "x",
		}, nsCtx(ns))
		if result.Success {
			t.Errorf("Expected failure for namespace %q", ns)
		}
	}

	// Nothing may have been written outside the storage base.
	if storage.fs.Exists("/etc") || storage.fs.Exists("/system/etc") {
		t.Error("namespace escaped the storage base directory")
	}
}

func strPtr(s string) *string {
	return &s
}
