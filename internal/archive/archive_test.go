package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestExtractAll(t *testing.T) {
	root := t.TempDir()
	writeZip(t, filepath.Join(root, "TrialTwin_Abbott.sqlite3.zip"), map[string]string{
		"TrialTwin_Abbott.sqlite3": "abbott",
	})
	// Archives in subdirectories still extract into root.
	writeZip(t, filepath.Join(root, "downloads", "TrialTwin_Pfizer.sqlite3.zip"), map[string]string{
		"TrialTwin_Pfizer.sqlite3": "pfizer",
	})
	os.WriteFile(filepath.Join(root, "notes.txt"), []byte("keep me"), 0o644)

	n, err := ExtractAll(root)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if n != 2 {
		t.Errorf("extracted %d archives, want 2", n)
	}
	for name, want := range map[string]string{
		"TrialTwin_Abbott.sqlite3": "abbott",
		"TrialTwin_Pfizer.sqlite3": "pfizer",
		"notes.txt":                "keep me",
	} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			t.Errorf("reading %s: %v", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "downloads", "TrialTwin_Pfizer.sqlite3")); !os.IsNotExist(err) {
		t.Error("archive should not be extracted next to itself")
	}
}

func TestExtractAllOverwrites(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "TrialTwin_Roche.sqlite3"), []byte("old contents that are longer"), 0o644)
	writeZip(t, filepath.Join(root, "r.zip"), map[string]string{"TrialTwin_Roche.sqlite3": "new"})

	if _, err := ExtractAll(root); err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "TrialTwin_Roche.sqlite3"))
	if string(data) != "new" {
		t.Errorf("file not overwritten: %q", data)
	}
}

func TestExtractAllRejectsZipSlip(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "_Datafiles")
	writeZip(t, filepath.Join(root, "evil.zip"), map[string]string{"../escaped.txt": "gotcha"})

	_, err := ExtractAll(root)
	if !errors.Is(err, ErrUnsafeArchivePath) {
		t.Fatalf("got %v, want ErrUnsafeArchivePath", err)
	}
	if _, statErr := os.Stat(filepath.Join(parent, "escaped.txt")); !os.IsNotExist(statErr) {
		t.Error("zip-slip entry was written outside root")
	}
}

func TestExtractAllEmpty(t *testing.T) {
	n, err := ExtractAll(t.TempDir())
	if err != nil || n != 0 {
		t.Errorf("ExtractAll on empty dir = %d, %v", n, err)
	}
}

func TestExtractAllMissingRoot(t *testing.T) {
	if _, err := ExtractAll(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestSafeJoin(t *testing.T) {
	dest := t.TempDir()
	ok := []string{"a.txt", "dir/b.txt", "dir/../c.txt"}
	bad := []string{"../x", "dir/../../x", "/etc/passwd", ".."}
	for _, name := range ok {
		if _, err := safeJoin(dest, name); err != nil {
			t.Errorf("safeJoin(%q) unexpected error %v", name, err)
		}
	}
	for _, name := range bad {
		if _, err := safeJoin(dest, name); !errors.Is(err, ErrUnsafeArchivePath) {
			t.Errorf("safeJoin(%q) err = %v, want ErrUnsafeArchivePath", name, err)
		}
	}
}
