package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luke-gav/namigator/internal/xerr"
)

func assertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Fatal(msg)
	}
}

func TestFsDataSourceReadsWorldAdtAndModelFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Azeroth.wdt"), []byte("world"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "Azeroth"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Azeroth", "Azeroth_32_48.adt"), []byte("adt"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "world", "doodad.mdl"), []byte("model"), 0o644); err != nil {
		if os.MkdirAll(filepath.Join(dir, "world"), 0o755) != nil {
			t.Fatalf("setup: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "world", "doodad.mdl"), []byte("model"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	src := fsDataSource{DataDir: dir}

	world, err := src.OpenWorldFile("Azeroth")
	if err != nil {
		t.Fatalf("OpenWorldFile: %v", err)
	}
	assertTrue(t, string(world) == "world", "expected world file contents")

	adt, err := src.OpenAdtFile("Azeroth", 32, 48)
	if err != nil {
		t.Fatalf("OpenAdtFile: %v", err)
	}
	assertTrue(t, string(adt) == "adt", "expected adt file contents")

	model, err := src.OpenModelFile("world/doodad.mdl")
	if err != nil {
		t.Fatalf("OpenModelFile: %v", err)
	}
	assertTrue(t, string(model) == "model", "expected model file contents")
}

func TestFsDataSourceMissingFileIsNotFound(t *testing.T) {
	src := fsDataSource{DataDir: t.TempDir()}
	_, err := src.OpenWorldFile("Nowhere")
	assertTrue(t, xerr.Is(err, xerr.NotFound), "expected NotFound for a missing world file")
}

func TestFsArchiveRoundTripsThroughFilesystem(t *testing.T) {
	dir := t.TempDir()
	archive := fsArchive{OutDir: dir, MapName: "Azeroth"}

	data := []byte{1, 2, 3, 4}
	if err := archive.WriteAdt(32, 48, data); err != nil {
		t.Fatalf("WriteAdt: %v", err)
	}

	path := filepath.Join(dir, "Azeroth", "adt_32_48.bin")
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected archive file at %s: %v", path, err)
	}
	assertTrue(t, string(got) == string(data), "expected written bytes to round-trip")
}
