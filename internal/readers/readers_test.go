package readers

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ziadkadry99/trialrag/internal/document"

	_ "modernc.org/sqlite"
)

func corpusDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "sample_corpus")
}

func TestDirectoryReader_Load(t *testing.T) {
	r := NewDirectoryReader(corpusDir(t), nil, nil, nil)

	docs, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	byID := map[string]*document.Document{}
	for _, d := range docs {
		byID[d.ID] = d
	}

	txt := byID["protocol_thrombosis.txt"]
	if txt == nil {
		t.Fatal("missing protocol_thrombosis.txt")
	}
	if !strings.Contains(txt.Text, "heparin") {
		t.Errorf("text document body not read: %q", txt.Text)
	}
	if txt.Metadata[MetaFileType] != "text/plain" {
		t.Errorf("file_type = %q, want text/plain", txt.Metadata[MetaFileType])
	}
	if !filepath.IsAbs(txt.Metadata[MetaFilePath]) {
		t.Errorf("file_path should be absolute, got %q", txt.Metadata[MetaFilePath])
	}

	pdfDoc := byID["heplisav_b.pdf"]
	if pdfDoc == nil {
		t.Fatal("missing heplisav_b.pdf")
	}
	if pdfDoc.Metadata[MetaPageCount] != "1" {
		t.Errorf("page_count = %q, want 1", pdfDoc.Metadata[MetaPageCount])
	}
	if !strings.Contains(strings.ReplaceAll(pdfDoc.Text, " ", ""), "HeplisavB") {
		t.Errorf("pdf text not extracted: %q", pdfDoc.Text)
	}

	if byID["notes/elastography.md"] == nil {
		t.Error("nested markdown file not read")
	}
}

func TestDirectoryReader_OnlyPathVisible(t *testing.T) {
	docs, err := NewDirectoryReader(corpusDir(t), []string{"*.txt"}, nil, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	for _, mode := range []document.MetadataMode{document.MetadataModeLLM, document.MetadataModeEmbed} {
		meta := docs[0].MetadataString(mode)
		if !strings.HasPrefix(meta, "file_path: ") || strings.Contains(meta, "\n") {
			t.Errorf("%s view should show only file_path, got %q", mode, meta)
		}
	}
	if all := docs[0].MetadataString(document.MetadataModeAll); !strings.Contains(all, "file_size: ") {
		t.Errorf("all view should include file_size, got %q", all)
	}
}

func TestDirectoryReader_MissingDir(t *testing.T) {
	r := NewDirectoryReader(filepath.Join(t.TempDir(), "_data"), nil, nil, nil)
	if _, err := r.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing data directory")
	}
	fp, err := r.Fingerprint(context.Background())
	if err != nil || fp != "" {
		t.Fatalf("Fingerprint() = %q, %v; want empty fingerprint for missing data directory", fp, err)
	}
}

func TestDirectoryReader_SkipsBrokenPDF(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("%PDF-1.4\nnot really a pdf"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("Elastography measures tissue stiffness."), 0o644)

	docs, err := NewDirectoryReader(dir, nil, nil, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "notes.txt" {
		t.Errorf("expected only notes.txt, got %d documents", len(docs))
	}
}

func TestDirectoryReader_Fingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	os.WriteFile(path, []byte("first"), 0o644)

	r := NewDirectoryReader(dir, nil, nil, nil)
	ctx := context.Background()

	fp1, err := r.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	fp2, _ := r.Fingerprint(ctx)
	if fp1 != fp2 {
		t.Error("fingerprint should be stable for unchanged content")
	}

	os.WriteFile(path, []byte("second"), 0o644)
	fp3, _ := r.Fingerprint(ctx)
	if fp3 == fp1 {
		t.Error("fingerprint should change when content changes")
	}
}

// writeTrialDB creates a sponsor database with three trials, one of which
// has a NULL phase.
func writeTrialDB(t *testing.T, path string) {
	t.Helper()
	w, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer w.Close()

	stmts := []string{
		`CREATE TABLE Pfizer (nct_id TEXT, study_type TEXT, phase TEXT, enrollment INTEGER)`,
		`INSERT INTO Pfizer VALUES ('NCT00000003', 'Observational', 'Phase 2', 40)`,
		`INSERT INTO Pfizer VALUES ('NCT00000001', 'Interventional', 'Phase 3', 120)`,
		`INSERT INTO Pfizer VALUES ('NCT00000002', 'Interventional', NULL, 75)`,
	}
	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func TestDatabaseReader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TrialTwin_Pfizer.sqlite3")
	writeTrialDB(t, path)

	r := &DatabaseReader{
		Path:      path,
		Query:     `SELECT "nct_id", "study_type", "phase", "enrollment" FROM "Pfizer" ORDER BY "nct_id" ASC LIMIT ?`,
		Args:      []any{2},
		Sponsor:   "Pfizer",
		Table:     "Pfizer",
		KeyColumn: "nct_id",
	}

	docs, err := r.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 rows (LIMIT 2), got %d", len(docs))
	}

	want := "nct_id: NCT00000001, study_type: Interventional, phase: Phase 3, enrollment: 120"
	if docs[0].Text != want {
		t.Errorf("row text = %q, want %q", docs[0].Text, want)
	}
	if !strings.Contains(docs[1].Text, "phase: None") {
		t.Errorf("NULL should render as None, got %q", docs[1].Text)
	}
	if docs[1].Metadata["nct_id"] != "NCT00000002" {
		t.Errorf("order key metadata = %q", docs[1].Metadata["nct_id"])
	}
	if docs[0].Metadata[MetaSponsor] != "Pfizer" || docs[0].Metadata[MetaTable] != "Pfizer" {
		t.Errorf("unexpected metadata %v", docs[0].Metadata)
	}
}

func TestDatabaseReader_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TrialTwin_Pfizer.sqlite3")
	writeTrialDB(t, path)

	r := &DatabaseReader{Path: path, Query: `SELECT 1`, Table: "Roche"}
	_, err := r.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing table")
	}
	if !strings.Contains(err.Error(), "Pfizer") {
		t.Errorf("error should list available tables, got %v", err)
	}
}

func TestDatabaseReader_MissingFile(t *testing.T) {
	r := &DatabaseReader{Path: filepath.Join(t.TempDir(), "TrialTwin_Nobody.sqlite3"), Query: "SELECT 1"}
	if _, err := r.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
	_, err := r.Fingerprint(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Fingerprint() error = %v, want os.ErrNotExist", err)
	}
}

func TestDatabaseReader_FingerprintTracksQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TrialTwin_Pfizer.sqlite3")
	writeTrialDB(t, path)
	ctx := context.Background()

	r := &DatabaseReader{Path: path, Query: "SELECT 1 LIMIT ?", Args: []any{10}}
	fp1, err := r.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint() error: %v", err)
	}
	r.Args = []any{25}
	fp2, _ := r.Fingerprint(ctx)
	if fp1 == fp2 {
		t.Error("fingerprint should change with the row limit")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "None"},
		{[]byte("abc"), "abc"},
		{int64(42), "42"},
		{1.5, "1.5"},
		{"x", "x"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
