package glossary

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// SearchHit is a glossary search result.
type SearchHit struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Searcher is an in-memory full-text index over glossary entries, used for
// term lookup and autocomplete. It indexes the concept key plus all surface
// forms across languages.
type Searcher struct {
	index bleve.Index
}

type searchDoc struct {
	Key   string `json:"key"`
	Terms string `json:"terms"`
}

// NewSearcher builds a memory-only search index over all concepts in x.
func NewSearcher(x *Index) (*Searcher, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so queries match
	// surface forms literally in any language.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("terms", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("key", keywordFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("create glossary index: %w", err)
	}
	batch := index.NewBatch()
	for _, key := range x.Keys() {
		c := x.Concept(key)
		var terms []string
		terms = append(terms, key)
		for _, forms := range c.Forms {
			terms = append(terms, forms...)
		}
		if err := batch.Index(key, &searchDoc{Key: key, Terms: strings.Join(terms, " ")}); err != nil {
			return nil, fmt.Errorf("index concept %q: %w", key, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("index glossary: %w", err)
	}
	return &Searcher{index: index}, nil
}

// Search returns up to limit concepts matching query across any language.
// Falls back to prefix matching when the full match query finds nothing, so
// partially typed terms still resolve.
func (s *Searcher) Search(query string, limit int) ([]*SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	hits, err := s.run(bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false))
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits, nil
	}
	prefix := bleve.NewPrefixQuery(strings.ToLower(query))
	prefix.SetField("terms")
	return s.run(bleve.NewSearchRequestOptions(prefix, limit, 0, false))
}

func (s *Searcher) run(req *bleve.SearchRequest) ([]*SearchHit, error) {
	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("glossary search: %w", err)
	}
	hits := make([]*SearchHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, &SearchHit{Key: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Close releases the underlying index.
func (s *Searcher) Close() error {
	return s.index.Close()
}
