package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("load before save: ok=%v err=%v", ok, err)
	}

	contract := "0x6c3ea9036406852006290770BEdFcAbA0e23A0e8"
	if err := store.Save(contract, 19000000); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected checkpoint")
	}
	if cp.Contract != contract || cp.LastProcessedBlock != 19000000 {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}
	if cp.UpdatedAt == "" {
		t.Fatalf("updated_at missing")
	}

	if err := store.Save(contract, 19000500); err != nil {
		t.Fatalf("save again: %v", err)
	}
	cp, _, err = store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cp.LastProcessedBlock != 19000500 {
		t.Fatalf("checkpoint not advanced: %+v", cp)
	}
}

func TestCheckpointCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if err := store.Save("0xabc", 100); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("checkpoint file missing: %v", err)
	}
}

func TestCheckpointDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)

	if err := store.Save("0xabc", 100); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled store must not write: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("disabled load: ok=%v err=%v", ok, err)
	}
}

func TestCheckpointCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store := NewCheckpointStore(path, true)
	if _, _, err := store.Load(); err == nil {
		t.Fatalf("expected error for corrupt checkpoint")
	}
}
