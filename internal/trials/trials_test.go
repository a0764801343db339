package trials

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/trialrag/internal/config"
	"github.com/ziadkadry99/trialrag/internal/llm"
	"github.com/ziadkadry99/trialrag/internal/progress"

	_ "modernc.org/sqlite"
)

// --- Mocks ---

type mockEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 8)
		for j, ch := range text {
			vec[(int(ch)+j)%8]++
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return 8 }
func (m *mockEmbedder) Name() string    { return "nomic-embed-text" }

type mockProvider struct {
	mu      sync.Mutex
	prompts []string
}

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req.Messages[len(req.Messages)-1].Content)
	return &llm.CompletionResponse{Content: "There are 3 studies."}, nil
}

func (m *mockProvider) Name() string { return "mock" }

// --- Fixtures ---

func testConfig(t *testing.T, sponsors ...string) config.Config {
	t.Helper()
	cfg := *config.DefaultConfig()
	cfg.Trials.SQLiteDir = t.TempDir()
	cfg.Trials.Sponsors = sponsors
	cfg.Trials.Columns = []string{"nct_id", "study_type", "overall_status"}
	cfg.Trials.LimitRecords = 2
	return cfg
}

func writeSponsorDB(t *testing.T, path, table string) {
	t.Helper()
	w, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer w.Close()
	stmts := []string{
		`CREATE TABLE "` + table + `" (nct_id TEXT, study_type TEXT, overall_status TEXT, phase TEXT)`,
		`INSERT INTO "` + table + `" VALUES ('NCT003', 'Interventional', 'Recruiting', 'Phase 1')`,
		`INSERT INTO "` + table + `" VALUES ('NCT001', 'Interventional', 'Completed', 'Phase 3')`,
		`INSERT INTO "` + table + `" VALUES ('NCT002', 'Observational', NULL, NULL)`,
	}
	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func newTestBatch(cfg config.Config, out *bytes.Buffer) (*Batch, *mockEmbedder, *mockProvider) {
	emb := &mockEmbedder{}
	p := &mockProvider{}
	b := NewBatch(cfg, emb, p, out, nil)
	b.NewReporter = func(string) progress.Reporter { return progress.Nop{} }
	return b, emb, p
}

// --- Tests ---

func TestBuildQuery(t *testing.T) {
	q, err := BuildQuery("Abbott", "nct_id", []string{"nct_id", "phase"})
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	want := `SELECT "nct_id", "phase" FROM "Abbott" ORDER BY "nct_id" ASC LIMIT ?`
	if q != want {
		t.Errorf("BuildQuery = %q, want %q", q, want)
	}

	q, _ = BuildQuery("Abbott", "nct_id", nil)
	if !strings.HasPrefix(q, "SELECT * FROM") {
		t.Errorf("no columns should select *, got %q", q)
	}
}

func TestBuildQueryRejectsInjection(t *testing.T) {
	cases := []struct{ table, key, col string }{
		{`Abbott"; DROP TABLE Abbott; --`, "nct_id", "nct_id"},
		{"Abbott", "nct_id DESC", "nct_id"},
		{"Abbott", "nct_id", "count(*)"},
		{"", "nct_id", "nct_id"},
	}
	for _, c := range cases {
		_, err := BuildQuery(c.table, c.key, []string{c.col})
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("BuildQuery(%q, %q, %q) err = %v, want ErrInvalidIdentifier", c.table, c.key, c.col, err)
		}
	}
}

func TestSponsors(t *testing.T) {
	cfg := *config.DefaultConfig()
	cfg.Trials.SQLiteDir = "/data/_Datafiles"

	list, err := Sponsors(cfg)
	if err != nil {
		t.Fatalf("Sponsors: %v", err)
	}
	if len(list) != 9 {
		t.Fatalf("expected 9 sponsors, got %d", len(list))
	}
	first := list[0]
	if first.Name != "Abbott" || first.Table != "Abbott" {
		t.Errorf("first sponsor = %+v", first)
	}
	if first.DatabasePath != filepath.Join("/data/_Datafiles", "TrialTwin_Abbott.sqlite3") {
		t.Errorf("DatabasePath = %q", first.DatabasePath)
	}
	if first.IndexDir != filepath.Join("/data/_Datafiles", "_Abbott") {
		t.Errorf("IndexDir = %q", first.IndexDir)
	}

	cfg.Trials.IndexRoot = "/data/indexes"
	list, _ = Sponsors(cfg)
	if list[0].IndexDir != filepath.Join("/data/indexes", "_Abbott") {
		t.Errorf("IndexDir with index_root = %q", list[0].IndexDir)
	}

	cfg.Trials.Sponsors = []string{"Johnson & Johnson"}
	if _, err := Sponsors(cfg); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("got %v, want ErrInvalidIdentifier", err)
	}
}

func TestSelect(t *testing.T) {
	all := []Sponsor{{Name: "Abbott"}, {Name: "Pfizer"}, {Name: "Roche"}}
	got, err := Select(all, []string{"Roche", "Abbott"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Roche" || got[1].Name != "Abbott" {
		t.Errorf("Select = %+v", got)
	}
	if got, _ := Select(all, nil); len(got) != 3 {
		t.Errorf("empty selection should return all, got %d", len(got))
	}
	if _, err := Select(all, []string{"Bayer"}); err == nil {
		t.Error("expected error for unconfigured sponsor")
	}
}

func TestGenerateIndices(t *testing.T) {
	cfg := testConfig(t, "Abbott", "Pfizer")
	sponsors, _ := Sponsors(cfg)
	for _, s := range sponsors {
		writeSponsorDB(t, s.DatabasePath, s.Table)
	}

	var out bytes.Buffer
	b, emb, _ := newTestBatch(cfg, &out)
	ctx := context.Background()

	if err := b.GenerateIndices(ctx, sponsors, false); err != nil {
		t.Fatalf("GenerateIndices: %v", err)
	}
	text := out.String()
	for _, s := range sponsors {
		for _, want := range []string{
			"Retrieve data from SQLite3 file for [" + s.Name + "]",
			"Database results received.\nWill generate index in directory [" + s.IndexDir + "]",
			"Index stored in directory [" + s.IndexDir + "]",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("output missing %q:\n%s", want, text)
			}
		}
	}
	firstCalls := emb.calls

	// The databases go away; existing indexes must reload without them.
	for _, s := range sponsors {
		os.Remove(s.DatabasePath)
	}
	out.Reset()
	if err := b.GenerateIndices(ctx, sponsors, false); err != nil {
		t.Fatalf("second GenerateIndices: %v", err)
	}
	if strings.Contains(out.String(), "Retrieve data from SQLite3") {
		t.Errorf("existing index should not query the database:\n%s", out.String())
	}
	if emb.calls != firstCalls {
		t.Errorf("existing index should not be re-embedded (%d -> %d calls)", firstCalls, emb.calls)
	}

	if err := b.GenerateIndices(ctx, sponsors, true); err == nil {
		t.Error("forced rebuild without databases should fail")
	}
}

func TestGenerateIndicesRespectsLimit(t *testing.T) {
	cfg := testConfig(t, "Abbott")
	sponsors, _ := Sponsors(cfg)
	writeSponsorDB(t, sponsors[0].DatabasePath, "Abbott")

	var out bytes.Buffer
	b, _, _ := newTestBatch(cfg, &out)
	if err := b.GenerateIndices(context.Background(), sponsors, false); err != nil {
		t.Fatalf("GenerateIndices: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(sponsors[0].IndexDir, "manifest.json"))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if !strings.Contains(string(data), `"documents": 2`) {
		t.Errorf("expected 2 documents (limit_records=2), manifest:\n%s", data)
	}
}

func TestGenerateIndicesMissingTable(t *testing.T) {
	cfg := testConfig(t, "Roche")
	sponsors, _ := Sponsors(cfg)
	writeSponsorDB(t, sponsors[0].DatabasePath, "Abbott")

	b, _, _ := newTestBatch(cfg, &bytes.Buffer{})
	err := b.GenerateIndices(context.Background(), sponsors, false)
	if err == nil || !strings.Contains(err.Error(), "Roche") {
		t.Fatalf("expected sponsor-qualified error, got %v", err)
	}
	if _, statErr := os.Stat(sponsors[0].IndexDir); !os.IsNotExist(statErr) {
		t.Error("a failed build must not leave an index directory behind")
	}
}

func generate(t *testing.T, cfg config.Config) []Sponsor {
	t.Helper()
	sponsors, _ := Sponsors(cfg)
	for _, s := range sponsors {
		writeSponsorDB(t, s.DatabasePath, s.Table)
	}
	b, _, _ := newTestBatch(cfg, &bytes.Buffer{})
	if err := b.GenerateIndices(context.Background(), sponsors, false); err != nil {
		t.Fatalf("GenerateIndices: %v", err)
	}
	return sponsors
}

func TestAskQuestionsStopsAfterFirstSponsor(t *testing.T) {
	cfg := testConfig(t, "Abbott", "Pfizer", "Roche")
	sponsors := generate(t, cfg)

	var out bytes.Buffer
	b, _, p := newTestBatch(cfg, &out)
	answered, err := b.AskQuestions(context.Background(), sponsors, cfg.Trials.Questions)
	if err != nil {
		t.Fatalf("AskQuestions: %v", err)
	}
	if len(answered) != 1 || answered[0] != "Abbott" {
		t.Errorf("answered = %v, want [Abbott]", answered)
	}
	if len(p.prompts) != len(cfg.Trials.Questions) {
		t.Errorf("expected %d model calls, got %d", len(cfg.Trials.Questions), len(p.prompts))
	}

	text := out.String()
	if !strings.HasPrefix(text, "\n\n\n"+InferenceBanner+"\n") {
		t.Errorf("output should open with the inference banner:\n%s", text)
	}
	wantSeq := []string{
		"= = = = = Sponsor: Abbott = = = = =",
		"Loading index from directory [" + sponsors[0].IndexDir + "]",
		"Index loaded.",
		"There are 3 studies. \n\n",
	}
	pos := 0
	for _, w := range wantSeq {
		i := strings.Index(text[pos:], w)
		if i < 0 {
			t.Fatalf("output missing %q after offset %d:\n%s", w, pos, text)
		}
		pos += i + len(w)
	}
	if strings.Contains(text, "Sponsor: Pfizer") {
		t.Error("only the first sponsor should be questioned by default")
	}
}

func TestAskQuestionsAllSponsors(t *testing.T) {
	cfg := testConfig(t, "Abbott", "Pfizer", "Roche")
	cfg.Trials.StopAfterFirst = false
	sponsors := generate(t, cfg)

	var out bytes.Buffer
	b, _, p := newTestBatch(cfg, &out)
	answered, err := b.AskQuestions(context.Background(), sponsors, cfg.Trials.Questions[:1])
	if err != nil {
		t.Fatalf("AskQuestions: %v", err)
	}
	if strings.Join(answered, ",") != "Abbott,Pfizer,Roche" {
		t.Errorf("answered = %v", answered)
	}
	if len(p.prompts) != 3 {
		t.Errorf("expected one model call per sponsor, got %d", len(p.prompts))
	}
	if strings.Count(out.String(), InferenceBanner) != 1 {
		t.Error("inference banner should be printed once")
	}
}

func TestAskQuestionsDoesNotQueryDatabase(t *testing.T) {
	cfg := testConfig(t, "Abbott")
	sponsors := generate(t, cfg)
	os.Remove(sponsors[0].DatabasePath)

	var out bytes.Buffer
	b, _, p := newTestBatch(cfg, &out)
	if _, err := b.AskQuestions(context.Background(), sponsors, []string{"How many studies?"}); err != nil {
		t.Fatalf("AskQuestions: %v", err)
	}
	if len(p.prompts) != 1 || !strings.Contains(p.prompts[0], "nct_id: NCT001") {
		t.Errorf("prompt should carry indexed rows, got %v", p.prompts)
	}
}

func TestAskQuestionsMissingIndex(t *testing.T) {
	cfg := testConfig(t, "Abbott")
	sponsors, _ := Sponsors(cfg)

	b, _, _ := newTestBatch(cfg, &bytes.Buffer{})
	answered, err := b.AskQuestions(context.Background(), sponsors, []string{"q?"})
	if err == nil || !strings.Contains(err.Error(), "sponsors index") {
		t.Fatalf("expected hint to build the index, got %v", err)
	}
	if len(answered) != 0 {
		t.Errorf("answered = %v", answered)
	}
}
