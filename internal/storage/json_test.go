package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/WayBetterSolutions/LEAF/internal/apperr"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "doc.json")

	want := doc{Name: "alpha", Count: 3}
	if err := WriteJSON(path, want); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	got, err := ReadJSON(path, doc{})
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestReadMissingFileReturnsDefault(t *testing.T) {
	def := doc{Name: "default"}
	got, err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), def)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got != def {
		t.Errorf("got %+v, want default %+v", got, def)
	}
}

func TestReadEmptyFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	def := doc{Name: "default"}
	got, err := ReadJSON(path, def)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got != def {
		t.Errorf("got %+v, want default %+v", got, def)
	}
}

func TestReadCorruptFileBacksUpAndReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	def := doc{Name: "default"}
	got, err := ReadJSON(path, def)
	if !errors.Is(err, apperr.ErrCorrupted) {
		t.Fatalf("err = %v, want ErrCorrupted", err)
	}
	if got != def {
		t.Errorf("got %+v, want default %+v", got, def)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("corrupt file still present at %s", path)
	}
	backups, err := filepath.Glob(path + ".corrupted_*")
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("backups = %v, want exactly one", backups)
	}
	data, err := os.ReadFile(backups[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{not json" {
		t.Errorf("backup content = %q", data)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	if err := WriteJSON(path, doc{Name: "a"}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := WriteJSON(path, doc{Name: "b"}); err != nil {
		t.Fatalf("WriteJSON overwrite: %v", err)
	}

	temps, err := filepath.Glob(filepath.Join(dir, ".leaf-tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(temps) != 0 {
		t.Errorf("leftover temp files: %v", temps)
	}
}

func TestStrayTempDoesNotAffectTarget(t *testing.T) {
	// A temp file left over from a crashed writer must not break reads or
	// later writes of the real document.
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := WriteJSON(path, doc{Name: "kept", Count: 1}); err != nil {
		t.Fatal(err)
	}
	stray := filepath.Join(dir, ".leaf-tmp-crash")
	if err := os.WriteFile(stray, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadJSON(path, doc{})
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Name != "kept" {
		t.Errorf("got %+v, want kept doc", got)
	}
	if err := WriteJSON(path, doc{Name: "updated"}); err != nil {
		t.Fatalf("WriteJSON after stray temp: %v", err)
	}
}

func TestMoveAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	backup, err := MoveAside(path, "deleted")
	if err != nil {
		t.Fatalf("MoveAside: %v", err)
	}
	if !strings.Contains(backup, ".deleted_") {
		t.Errorf("backup path %q missing label", backup)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("original still present")
	}
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func TestMoveAsideMissingFile(t *testing.T) {
	if _, err := MoveAside(filepath.Join(t.TempDir(), "nope.json"), "deleted"); err == nil {
		t.Error("expected error for missing file")
	}
}
