package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/medlingua/medlingua/internal/glossary"
	"github.com/medlingua/medlingua/internal/ingest"
	"github.com/medlingua/medlingua/internal/recommend"
	"github.com/medlingua/medlingua/internal/storage"
	"github.com/medlingua/medlingua/internal/translator"
)

// fakeTranslator returns canned translations and counts backend calls.
type fakeTranslator struct {
	out        map[string]string
	err        error
	calls      int
	lastSource string
	lastTarget string
}

func (f *fakeTranslator) Translate(_ context.Context, text, sourceLang, targetLang string) (string, error) {
	f.calls++
	f.lastSource = sourceLang
	f.lastTarget = targetLang
	if f.err != nil {
		return "", f.err
	}
	if got, ok := f.out[text]; ok {
		return got, nil
	}
	return text, nil
}

func (f *fakeTranslator) Languages(context.Context) ([]translator.Language, error) {
	return []translator.Language{{Code: "en", Name: "English"}, {Code: "es", Name: "Spanish"}}, nil
}

func newPipeline(t *testing.T, tr translator.Translator, opts ...Option) *Pipeline {
	t.Helper()
	index, err := glossary.LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin: %v", err)
	}
	return New(index, tr, ingest.NewExtractor(), nil, opts...)
}

func TestProcessText(t *testing.T) {
	tr := &fakeTranslator{out: map[string]string{
		"I have a fever and a headache": "Tengo fiebre y dolor de cabeza",
	}}
	p := newPipeline(t, tr)

	res, err := p.Process(context.Background(), "I have a fever and a headache", "en", "es", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.TranslatedText != "Tengo fiebre y dolor de cabeza" {
		t.Errorf("translated = %q", res.TranslatedText)
	}

	if len(res.Keywords) != 2 {
		t.Fatalf("keywords = %+v, want 2", res.Keywords)
	}
	if res.Keywords[0].Term != "fiebre" || res.Keywords[0].Concept != "fever" {
		t.Errorf("first keyword = %+v", res.Keywords[0])
	}
	if res.Keywords[1].Term != "dolor de cabeza" || res.Keywords[1].Concept != "headache" {
		t.Errorf("second keyword = %+v", res.Keywords[1])
	}

	// fever carries one department, headache two; per-concept mode keeps
	// the duplicate General Medicine row.
	if len(res.Recommendations) != 3 {
		t.Fatalf("recommendations = %+v, want 3", res.Recommendations)
	}
	general := 0
	for _, rec := range res.Recommendations {
		if rec.Department == "Medicina General" {
			general++
		}
	}
	if general != 2 {
		t.Errorf("Medicina General appeared %d times, want 2", general)
	}
}

func TestProcessDedupMode(t *testing.T) {
	tr := &fakeTranslator{out: map[string]string{
		"I have a fever and a headache": "Tengo fiebre y dolor de cabeza",
	}}
	p := newPipeline(t, tr)

	res, err := p.Process(context.Background(), "I have a fever and a headache", "en", "es", recommend.ModeDedup)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, rec := range res.Recommendations {
		if rec.Concept != "" {
			t.Errorf("dedup row carries concept: %+v", rec)
		}
		if seen[rec.Department] {
			t.Errorf("duplicate department %q", rec.Department)
		}
		seen[rec.Department] = true
	}
}

func TestProcessEmptyText(t *testing.T) {
	tr := &fakeTranslator{}
	p := newPipeline(t, tr)

	res, err := p.Process(context.Background(), "   \n\t", "en", "es", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if tr.calls != 0 {
		t.Errorf("backend called %d times for empty text", tr.calls)
	}
	if res.TranslatedText != "" {
		t.Errorf("translated = %q", res.TranslatedText)
	}
	if res.Keywords == nil || len(res.Keywords) != 0 {
		t.Errorf("keywords = %#v, want empty non-nil", res.Keywords)
	}
	if res.Recommendations == nil || len(res.Recommendations) != 0 {
		t.Errorf("recommendations = %#v, want empty non-nil", res.Recommendations)
	}
}

func TestProcessUsesCache(t *testing.T) {
	cache, err := storage.NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	tr := &fakeTranslator{out: map[string]string{"I have a cough": "Tengo tos"}}
	p := newPipeline(t, tr, WithCache(cache))

	for i := 0; i < 3; i++ {
		res, err := p.Process(context.Background(), "I have a cough", "en", "es", "")
		if err != nil {
			t.Fatalf("Process #%d: %v", i, err)
		}
		if res.TranslatedText != "Tengo tos" {
			t.Errorf("Process #%d translated = %q", i, res.TranslatedText)
		}
	}
	if tr.calls != 1 {
		t.Errorf("backend called %d times, want 1", tr.calls)
	}
}

func TestProcessCanonicalizesLanguageTags(t *testing.T) {
	tr := &fakeTranslator{}
	p := newPipeline(t, tr)

	res, err := p.Process(context.Background(), "I have a fever", "en-US", "es-MX", "")
	if err != nil {
		t.Fatal(err)
	}
	if tr.lastSource != "en" || tr.lastTarget != "es" {
		t.Errorf("backend saw %s→%s, want en→es", tr.lastSource, tr.lastTarget)
	}
	if len(res.Recommendations) == 0 {
		t.Error("regioned target tag should still resolve department names")
	}
}

func TestProcessTranslatorError(t *testing.T) {
	wantErr := &translator.Error{Status: 400, Message: "zz is not supported"}
	tr := &fakeTranslator{err: wantErr}
	p := newPipeline(t, tr)

	_, err := p.Process(context.Background(), "I have a fever", "en", "zz", "")
	var terr *translator.Error
	if !errors.As(err, &terr) || terr.Status != 400 {
		t.Fatalf("err = %v, want translator error with status 400", err)
	}
}

func TestProcessDocument(t *testing.T) {
	tr := &fakeTranslator{out: map[string]string{
		"symptom\nfever": "síntoma\nfiebre",
	}}
	p := newPipeline(t, tr)

	content := []byte("symptom\nfever\n")
	res, err := p.ProcessDocument(context.Background(), content, ingest.KindCSV, "en", "es", "")
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if len(res.Keywords) != 1 || res.Keywords[0].Concept != "fever" {
		t.Errorf("keywords = %+v", res.Keywords)
	}
	if len(res.Recommendations) == 0 {
		t.Error("document requests should carry recommendations")
	}
}

func TestProcessDocumentUnsupportedKind(t *testing.T) {
	p := newPipeline(t, &fakeTranslator{})
	_, err := p.ProcessDocument(context.Background(), []byte("x"), ingest.Kind("tarball"), "en", "es", "")
	if !errors.Is(err, ingest.ErrUnsupportedKind) {
		t.Fatalf("err = %v, want ErrUnsupportedKind", err)
	}
}

func TestCanonicalLang(t *testing.T) {
	cases := []struct{ in, want string }{
		{"en", "en"},
		{"en-US", "en"},
		{"ES", "es"},
		{"hi-IN", "hi"},
		{"not a tag", "not a tag"},
	}
	for _, tc := range cases {
		if got := canonicalLang(tc.in); got != tc.want {
			t.Errorf("canonicalLang(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
