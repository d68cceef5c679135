package store_test

import (
	"testing"

	"courier/internal/store"
)

func TestKV_SetGetDelete(t *testing.T) {
	kv := store.NewKV(t.TempDir())

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var out payload
	found, err := kv.Get("missing", &out)
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if found {
		t.Fatal("found a key that was never set")
	}

	if err := kv.Set("p", payload{Name: "x", Count: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	found, err = kv.Get("p", &out)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if out.Name != "x" || out.Count != 3 {
		t.Fatalf("got %+v", out)
	}

	if err := kv.Delete("p"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	found, _ = kv.Get("p", &out)
	if found {
		t.Fatal("key survived delete")
	}
	if err := kv.Delete("p"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}
}

func TestKV_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	if err := store.NewKV(dir).Set("k", []string{"a", "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got []string
	found, err := store.NewKV(dir).Get("k", &got)
	if err != nil || !found {
		t.Fatalf("Get from fresh instance: found=%v err=%v", found, err)
	}
	if len(got) != 2 || got[0] != "a" {
		t.Fatalf("got %v", got)
	}
}
