package banlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "banlist.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp ban list: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeList(t, `symbol,since
BANDHANBNK,2025-11-28
KAYNES,2025-12-01
badrow
MANAPPURAM,not-a-date
`)

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(l.Entries()); n != 2 {
		t.Fatalf("loaded %d entries, want 2", n)
	}

	if !l.Contains("BANDHANBNK") {
		t.Error("Contains(BANDHANBNK) = false, want true")
	}
	if !l.Contains("kaynes") {
		t.Error("Contains is not case-insensitive")
	}
	if l.Contains("MANAPPURAM") {
		t.Error("row with malformed date was not skipped")
	}
	if l.Contains("RELIANCE") {
		t.Error("Contains(RELIANCE) = true, want false")
	}

	e, ok := l.Lookup("BANDHANBNK")
	if !ok {
		t.Fatal("Lookup(BANDHANBNK) not found")
	}
	want := time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC)
	if !e.Since.Equal(want) {
		t.Errorf("Since = %v, want %v", e.Since, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Load on missing file returned nil error")
	}
}
