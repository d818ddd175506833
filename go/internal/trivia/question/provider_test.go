package question

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mcdev12/trivia/go/clients/opentdb_client"
)

type fakeSource struct {
	mu         sync.Mutex
	responses  []*opentdb_client.QuestionsResponse
	errs       []error
	calls      int
	params     []opentdb_client.QuestionsParams
	categories []opentdb_client.Category
	catErr     error
}

func (f *fakeSource) GetQuestions(_ context.Context, params opentdb_client.QuestionsParams) (*opentdb_client.QuestionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	f.params = append(f.params, params)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeSource) GetCategories(context.Context) ([]opentdb_client.Category, error) {
	return f.categories, f.catErr
}

func validRaw() opentdb_client.Question {
	return opentdb_client.Question{
		Category:         "Geography",
		Type:             "multiple",
		Difficulty:       "easy",
		Question:         "What is the capital of Peru?",
		CorrectAnswer:    "Lima",
		IncorrectAnswers: []string{"Cusco", "Arequipa", "Trujillo"},
	}
}

func ok(q opentdb_client.Question) *opentdb_client.QuestionsResponse {
	return &opentdb_client.QuestionsResponse{ResponseCode: 0, Results: []opentdb_client.Question{q}}
}

func testConfig() Config {
	return Config{MaxAttempts: 3, Backoff: 0, QuestionType: "multiple"}
}

func TestFetchReturnsShuffledQuestionWithCorrectIndex(t *testing.T) {
	src := &fakeSource{responses: []*opentdb_client.QuestionsResponse{ok(validRaw())}}
	p := NewProvider(src, &Catalog{}, testConfig())
	// reverse: correct answer (appended last) ends up first
	p.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	q, err := p.Fetch(context.Background(), 22, DifficultyEasy)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Prompt != "What is the capital of Peru?" {
		t.Fatalf("unexpected prompt %q", q.Prompt)
	}
	if len(q.Answers) != 4 {
		t.Fatalf("expected 4 answers, got %d", len(q.Answers))
	}
	if q.Correct != 0 || q.Answers[q.Correct] != "Lima" {
		t.Fatalf("expected Lima at index 0, got %d (%v)", q.Correct, q.Answers)
	}
	if src.params[0].Category != 22 || src.params[0].Difficulty != "easy" || src.params[0].Type != "multiple" {
		t.Fatalf("unexpected params %+v", src.params[0])
	}
}

func TestFetchCorrectIndexTracksRealShuffle(t *testing.T) {
	src := &fakeSource{responses: []*opentdb_client.QuestionsResponse{ok(validRaw())}}
	p := NewProvider(src, &Catalog{}, testConfig())

	for i := 0; i < 50; i++ {
		q, err := p.Fetch(context.Background(), 0, DifficultyAny)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if q.Answers[q.Correct] != "Lima" {
			t.Fatalf("correct index %d points at %q", q.Correct, q.Answers[q.Correct])
		}
	}
}

func TestFetchRetriesUntilValid(t *testing.T) {
	bad := validRaw()
	bad.IncorrectAnswers = []string{"Lima", "Cusco", "Arequipa"}
	src := &fakeSource{responses: []*opentdb_client.QuestionsResponse{
		{ResponseCode: 0},
		ok(bad),
		ok(validRaw()),
	}}
	p := NewProvider(src, &Catalog{}, testConfig())

	q, err := p.Fetch(context.Background(), 22, DifficultyEasy)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if src.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", src.calls)
	}
	if q.Answers[q.Correct] != "Lima" {
		t.Fatalf("unexpected correct answer %q", q.Answers[q.Correct])
	}
}

func TestFetchIsBoundedAndFallsBackToCache(t *testing.T) {
	src := &fakeSource{responses: []*opentdb_client.QuestionsResponse{ok(validRaw())}}
	p := NewProvider(src, &Catalog{}, testConfig())

	if _, err := p.Fetch(context.Background(), 22, DifficultyEasy); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	src.responses = []*opentdb_client.QuestionsResponse{{ResponseCode: 4}}
	src.calls = 0
	q, err := p.Fetch(context.Background(), 22, DifficultyEasy)
	if err != nil {
		t.Fatalf("fallback fetch: %v", err)
	}
	if src.calls != 3 {
		t.Fatalf("expected retries bounded at 3, got %d", src.calls)
	}
	if q.Prompt != "What is the capital of Peru?" {
		t.Fatalf("expected cached question, got %q", q.Prompt)
	}
}

func TestFetchFallsBackToCatalog(t *testing.T) {
	src := &fakeSource{errs: []error{errors.New("boom"), errors.New("boom"), errors.New("boom")}}
	catalog := &Catalog{Fallback: []FallbackQuestion{
		{Category: 9, Difficulty: DifficultyEasy, Prompt: "Other", Correct: "a", Incorrect: []string{"b", "c", "d"}},
		{Category: 22, Difficulty: DifficultyEasy, Prompt: "Capital of Chile?", Correct: "Santiago", Incorrect: []string{"Valparaiso", "Concepcion", "Arica"}},
	}}
	p := NewProvider(src, catalog, testConfig())

	q, err := p.Fetch(context.Background(), 22, DifficultyEasy)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Prompt != "Capital of Chile?" {
		t.Fatalf("expected catalog fallback, got %q", q.Prompt)
	}
	if q.Answers[q.Correct] != "Santiago" {
		t.Fatalf("unexpected correct answer %q", q.Answers[q.Correct])
	}
}

func TestFetchNoQuestionAvailable(t *testing.T) {
	src := &fakeSource{responses: []*opentdb_client.QuestionsResponse{{ResponseCode: 1}}}
	p := NewProvider(src, &Catalog{}, testConfig())

	_, err := p.Fetch(context.Background(), 22, DifficultyHard)
	if !errors.Is(err, ErrNoQuestion) {
		t.Fatalf("expected ErrNoQuestion, got %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("no-results is permanent, expected 1 call, got %d", src.calls)
	}
}

func TestFetchHonoursCancellation(t *testing.T) {
	src := &fakeSource{responses: []*opentdb_client.QuestionsResponse{ok(validRaw())}}
	p := NewProvider(src, DefaultCatalog(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src.errs = []error{context.Canceled}

	_, err := p.Fetch(ctx, 22, DifficultyEasy)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchThroughHTTPClient(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if r.URL.Path != "/api.php" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			fmt.Fprint(w, `{"response_code":0,"results":[{"type":"multiple","question":"","correct_answer":"x","incorrect_answers":["a","b","c"]}]}`)
			return
		}
		fmt.Fprint(w, `{"response_code":0,"results":[{"category":"Geography","type":"multiple","difficulty":"easy","question":"Which river flows through &quot;Cairo&quot;?","correct_answer":"Nile","incorrect_answers":["Amazon","Danube","Congo"]}]}`)
	}))
	defer srv.Close()

	p := NewProvider(opentdb_client.NewOpenTDBClient(srv.URL), nil, testConfig())
	q, err := p.Fetch(context.Background(), 22, DifficultyEasy)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Prompt != `Which river flows through "Cairo"?` {
		t.Fatalf("expected unescaped prompt, got %q", q.Prompt)
	}
	if q.Answers[q.Correct] != "Nile" {
		t.Fatalf("unexpected correct answer %q", q.Answers[q.Correct])
	}
	if hits != 2 {
		t.Fatalf("expected 2 requests, got %d", hits)
	}
}

func TestCategoriesFallsBackToCatalog(t *testing.T) {
	src := &fakeSource{catErr: errors.New("down")}
	p := NewProvider(src, nil, testConfig())

	cats := p.Categories(context.Background())
	if len(cats) != len(DefaultCatalog().Categories) {
		t.Fatalf("expected default catalog categories, got %d", len(cats))
	}

	src.catErr = nil
	src.categories = []opentdb_client.Category{{ID: 11, Name: "Film"}}
	cats = p.Categories(context.Background())
	if len(cats) != 1 || cats[0].Name != "Film" {
		t.Fatalf("expected remote categories, got %+v", cats)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
categories:
  - id: 22
    name: Geography
fallback:
  - category: 22
    difficulty: easy
    prompt: Capital of Spain?
    correct: Madrid
    incorrect: [Barcelona, Seville, Valencia]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(catalog.Categories) != 1 || catalog.Categories[0].Name != "Geography" {
		t.Fatalf("unexpected categories %+v", catalog.Categories)
	}
	if len(catalog.Fallback) != 1 || catalog.Fallback[0].Correct != "Madrid" {
		t.Fatalf("unexpected fallback %+v", catalog.Fallback)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("fallback:\n  - difficulty: impossible\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCatalog(bad); err == nil {
		t.Fatal("expected error for unknown difficulty")
	}
}
