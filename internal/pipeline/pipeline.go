// Package pipeline orchestrates the end-to-end flow: ingest, concept
// matching, translation, normalization, annotation, and department
// recommendation.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/medlingua/medlingua/internal/annotate"
	"github.com/medlingua/medlingua/internal/glossary"
	"github.com/medlingua/medlingua/internal/ingest"
	"github.com/medlingua/medlingua/internal/match"
	"github.com/medlingua/medlingua/internal/normalize"
	"github.com/medlingua/medlingua/internal/recommend"
	"github.com/medlingua/medlingua/internal/storage"
	"github.com/medlingua/medlingua/internal/translator"
)

// Result is the aggregated outcome of one request.
type Result struct {
	TranslatedText  string                     `json:"translated_text"`
	Keywords        []annotate.Occurrence      `json:"keywords"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// Pipeline wires the core components around the translation collaborator.
// It is safe for concurrent use: the glossary-backed components only read,
// and per-request state stays on the stack.
type Pipeline struct {
	matcher     *match.Matcher
	annotator   *annotate.Annotator
	recommender *recommend.Recommender
	normalizer  *normalize.Normalizer
	translator  translator.Translator
	extractor   *ingest.Extractor
	cache       storage.TranslationCache
	defaultMode recommend.Mode
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache enables the translation cache.
func WithCache(c storage.TranslationCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithDefaultMode sets the recommendation mode used when a request does not
// choose one.
func WithDefaultMode(m recommend.Mode) Option {
	return func(p *Pipeline) { p.defaultMode = m }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline over the given glossary, translation collaborator,
// and document extractor.
func New(index *glossary.Index, tr translator.Translator, ex *ingest.Extractor, normalizeLangs []string, opts ...Option) *Pipeline {
	p := &Pipeline{
		matcher:     match.NewMatcher(index),
		annotator:   annotate.NewAnnotator(index),
		recommender: recommend.NewRecommender(index),
		normalizer:  normalize.New(normalizeLangs),
		translator:  tr,
		extractor:   ex,
		defaultMode: recommend.ModePerConcept,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the text pipeline: match concepts in the source text,
// translate, normalize, annotate the translated output, and recommend
// departments. Empty or whitespace-only text short-circuits to an empty
// success payload.
func (p *Pipeline) Process(ctx context.Context, text, sourceLang, targetLang string, mode recommend.Mode) (*Result, error) {
	sourceLang = canonicalLang(sourceLang)
	targetLang = canonicalLang(targetLang)
	if mode == "" {
		mode = p.defaultMode
	}
	res := &Result{
		Keywords:        []annotate.Occurrence{},
		Recommendations: []recommend.Recommendation{},
	}
	if strings.TrimSpace(text) == "" {
		return res, nil
	}

	keys := p.matcher.FindConcepts(text, sourceLang)

	translated, err := p.translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	translated = p.normalizer.Normalize(translated, targetLang)

	res.TranslatedText = translated
	if occs := p.annotator.Annotate(keys, translated, targetLang); occs != nil {
		res.Keywords = occs
	}
	if recs := p.recommender.Recommend(keys, targetLang, mode); recs != nil {
		res.Recommendations = recs
	}
	if p.logger != nil {
		p.logger.Debug("processed text",
			zap.String("source_lang", sourceLang),
			zap.String("target_lang", targetLang),
			zap.Int("concepts", len(keys)),
			zap.Int("occurrences", len(res.Keywords)),
		)
	}
	return res, nil
}

// ProcessDocument ingests a document and runs the text pipeline over the
// extracted content. Document requests produce recommendations exactly like
// text requests.
func (p *Pipeline) ProcessDocument(ctx context.Context, content []byte, kind ingest.Kind, sourceLang, targetLang string, mode recommend.Mode) (*Result, error) {
	text, err := p.extractor.ExtractText(ctx, content, kind)
	if err != nil {
		return nil, fmt.Errorf("ingest document: %w", err)
	}
	return p.Process(ctx, text, sourceLang, targetLang, mode)
}

// translate goes through the cache when one is configured. Cache errors are
// logged and ignored; the backend remains the source of truth.
func (p *Pipeline) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, sourceLang, targetLang, text)
		if err != nil && p.logger != nil {
			p.logger.Warn("translation cache get failed", zap.Error(err))
		}
		if ok {
			return cached, nil
		}
	}
	translated, err := p.translator.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	if p.cache != nil {
		if err := p.cache.Put(ctx, sourceLang, targetLang, text, translated); err != nil && p.logger != nil {
			p.logger.Warn("translation cache put failed", zap.Error(err))
		}
	}
	return translated, nil
}

// canonicalLang reduces a language tag to its base form ("en-US" → "en") so
// regioned client tags hit the base-keyed glossary. Unparseable tags pass
// through unchanged; the translation backend will reject them if needed.
func canonicalLang(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, conf := tag.Base()
	if conf == language.No {
		return code
	}
	return base.String()
}
