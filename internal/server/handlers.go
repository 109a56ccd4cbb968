package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/medlingua/medlingua/internal/glossary"
	"github.com/medlingua/medlingua/internal/ingest"
	"github.com/medlingua/medlingua/internal/ocr"
	"github.com/medlingua/medlingua/internal/recommend"
	"github.com/medlingua/medlingua/internal/translator"
)

const (
	defaultSourceLang = "en"
	defaultTargetLang = "es"
)

type translateRequest struct {
	Text               *string `json:"text"`
	SourceLang         string  `json:"source_lang"`
	TargetLang         string  `json:"target_lang"`
	RecommendationMode string  `json:"recommendation_mode,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == nil {
		s.respondError(w, http.StatusBadRequest, "text is required")
		return
	}
	source, target := langsOrDefaults(req.SourceLang, req.TargetLang)
	mode, err := recommend.ParseMode(req.RecommendationMode)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("translate request",
		zap.String("source_lang", source), zap.String("target_lang", target),
		zap.Int("text_len", len(*req.Text)))

	result, err := s.pipeline.Process(r.Context(), *req.Text, source, target, mode)
	if err != nil {
		s.respondProcessError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTranslateDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	kind := ingest.KindForFile(header.Filename)
	if kind == ingest.KindUnknown {
		kind = ingest.KindFromMIME(header.Header.Get("Content-Type"))
	}
	if kind == ingest.KindUnknown {
		s.respondError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported document type: %s", header.Filename))
		return
	}

	path, err := s.uploads.Save(file, header.Filename)
	if err != nil {
		s.logger.Error("upload save failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer s.uploads.Remove(path)

	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("upload read failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	source, target := langsOrDefaults(r.FormValue("source_lang"), r.FormValue("target_lang"))
	mode, err := recommend.ParseMode(r.FormValue("recommendation_mode"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("document translate request",
		zap.String("filename", header.Filename), zap.String("kind", string(kind)),
		zap.String("source_lang", source), zap.String("target_lang", target))

	result, err := s.pipeline.ProcessDocument(r.Context(), content, kind, source, target, mode)
	if err != nil {
		s.respondProcessError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := s.translator.Languages(r.Context())
	if err != nil {
		s.logger.Error("languages fetch failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"languages": langs})
}

func (s *Server) handleGlossarySearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	hits, err := s.searcher.Search(query, limit)
	if err != nil {
		s.logger.Error("glossary search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []*glossary.SearchHit{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

type sosRequest struct {
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	TargetLang string   `json:"target_lang"`
}

func (s *Server) handleSOS(w http.ResponseWriter, r *http.Request) {
	var req sosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Lat == nil || req.Lon == nil {
		s.respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	target := req.TargetLang
	if target == "" {
		target = defaultTargetLang
	}
	message := fmt.Sprintf("Emergency! I need help. My location is: https://www.google.com/maps?q=%v,%v", *req.Lat, *req.Lon)

	// An emergency alert must not fail because the backend is down; fall
	// back to the untranslated message.
	translated, err := s.translator.Translate(r.Context(), message, defaultSourceLang, target)
	if err != nil {
		s.logger.Warn("sos translation failed, sending untranslated", zap.Error(err))
		translated = message
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":              message,
		"translated_sos_alert": translated,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"concepts":    s.glossary.ConceptCount(),
		"departments": s.glossary.DepartmentCount(),
	}
	if s.cache != nil {
		n, err := s.cache.Count(r.Context())
		if err != nil {
			s.logger.Error("status: count cached translations failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["cached_translations"] = n
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondProcessError maps pipeline failures to HTTP statuses: client-caused
// problems (unsupported formats, rejected language pairs) are 4xx, a broken
// or unreachable collaborator is 502.
func (s *Server) respondProcessError(w http.ResponseWriter, err error) {
	if errors.Is(err, ingest.ErrUnsupportedKind) {
		s.respondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	var terr *translator.Error
	if errors.As(err, &terr) {
		if terr.Status >= 400 && terr.Status < 500 {
			s.respondError(w, http.StatusBadRequest, terr.Message)
			return
		}
		s.logger.Error("translation backend failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, terr.Message)
		return
	}
	var ofail *ocr.Failure
	if errors.As(err, &ofail) {
		s.logger.Error("ocr collaborator failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.logger.Error("processing failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func langsOrDefaults(source, target string) (string, string) {
	if source == "" {
		source = defaultSourceLang
	}
	if target == "" {
		target = defaultTargetLang
	}
	return source, target
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
