package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/catalog"
	"github.com/skillet-cli/skillet/pkg/lint"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/registry"
	"github.com/skillet-cli/skillet/pkg/render"
	"github.com/skillet-cli/skillet/pkg/search"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
	"github.com/skillet-cli/skillet/pkg/version"
)

// SkillSummary is one entry of the list endpoint
type SkillSummary struct {
	Key         string    `json:"key"`
	Category    string    `json:"category"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	License     string    `json:"license,omitempty"`
	Author      string    `json:"author,omitempty"`
	Version     string    `json:"version,omitempty"`
	Path        string    `json:"path,omitempty"`
	ModifiedAt  time.Time `json:"modifiedAt,omitempty"`
}

// ListResponse is the list endpoint payload
type ListResponse struct {
	Skills []SkillSummary `json:"skills"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// SkillDetail is the detail endpoint payload
type SkillDetail struct {
	Key      string             `json:"key"`
	Manifest skilldoc.Manifest  `json:"manifest"`
	Sections []skilldoc.Section `json:"sections,omitempty"`
	Body     string             `json:"body"`
	Path     string             `json:"path,omitempty"`
	Checksum string             `json:"checksum,omitempty"`
}

// PromptResponse is the rendered prompt payload
type PromptResponse struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSONResponse(w, map[string]string{
		"status":  "ok",
		"version": version.Get().Version,
	})
}

// handleListSkills handles GET /api/skills. Backed by the catalog when one
// is wired, falling back to the in-memory registry.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseIntParam(query.Get("limit"), 0)
	offset := parseIntParam(query.Get("offset"), 0)

	if s.catalog != nil {
		result, err := s.catalog.List(r.Context(), catalog.ListOptions{
			Category:   query.Get("category"),
			SearchTerm: query.Get("q"),
			SortBy:     query.Get("sortBy"),
			SortOrder:  query.Get("sortOrder"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list skills", err)
			return
		}

		skills := make([]SkillSummary, 0, len(result.Records))
		for _, record := range result.Records {
			skills = append(skills, summaryFromRecord(record))
		}
		s.writeJSONResponse(w, ListResponse{Skills: skills, Total: result.Total, Limit: limit, Offset: offset})
		return
	}

	docs := s.registry.Documents()
	if category := query.Get("category"); category != "" {
		docs = s.registry.FilterCategory(category)
	}
	if term := strings.ToLower(query.Get("q")); term != "" {
		var filtered []*skilldoc.Document
		for _, doc := range docs {
			if strings.Contains(strings.ToLower(doc.Name), term) ||
				strings.Contains(strings.ToLower(doc.Description), term) {
				filtered = append(filtered, doc)
			}
		}
		docs = filtered
	}

	total := len(docs)
	docs = paginate(docs, limit, offset)

	skills := make([]SkillSummary, 0, len(docs))
	for _, doc := range docs {
		skills = append(skills, summaryFromDocument(doc))
	}
	s.writeJSONResponse(w, ListResponse{Skills: skills, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.resolveSkill(w, r)
	if !ok {
		return
	}

	s.writeJSONResponse(w, SkillDetail{
		Key:      doc.Key(),
		Manifest: doc.Manifest,
		Sections: doc.Sections,
		Body:     doc.Body,
		Path:     doc.Path,
		Checksum: doc.Checksum,
	})
}

// handleGetPrompt handles GET /api/skills/{category}/{slug}/prompt. Query
// parameters become template arguments; rendered payloads are cached by
// document checksum.
func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.resolveSkill(w, r)
	if !ok {
		return
	}

	args := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			args[key] = values[0]
		}
	}

	rendered, err := s.registry.CachedRender(doc, render.Fingerprint(args), func() (string, error) {
		return s.renderer.Render(r.Context(), doc, args)
	})
	if err != nil {
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, "failed to render skill", err)
		return
	}

	s.writeJSONResponse(w, PromptResponse{Key: doc.Key(), Prompt: rendered})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if s.catalog != nil {
		counts, err := s.catalog.CategoryCounts(r.Context())
		if err != nil {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to list categories", err)
			return
		}
		s.writeJSONResponse(w, map[string]interface{}{"categories": counts})
		return
	}

	s.writeJSONResponse(w, map[string]interface{}{"categories": s.registry.Categories()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.writeErrorResponse(w, http.StatusNotImplemented, "search index is not configured", nil)
		return
	}

	query := r.URL.Query()
	result, err := s.index.Search(r.Context(), search.Query{
		Text:      query.Get("q"),
		Category:  query.Get("category"),
		Limit:     parseIntParam(query.Get("limit"), 0),
		Offset:    parseIntParam(query.Get("offset"), 0),
		Fuzziness: parseIntParam(query.Get("fuzzy"), 0),
	})
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "search failed", err)
		return
	}

	s.writeJSONResponse(w, result)
}

// handleLint handles GET /api/lint with a fresh report over the loaded
// library.
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	report := s.linter.LintLibrary(r.Context(), s.registry.Library())
	s.writeJSONResponse(w, map[string]interface{}{
		"checked":  report.Checked,
		"errors":   report.Errors(),
		"warnings": report.Warnings(),
		"failed":   report.Failed(),
		"findings": findingsOrEmpty(report),
	})
}

func (s *Server) resolveSkill(w http.ResponseWriter, r *http.Request) (*skilldoc.Document, bool) {
	vars := mux.Vars(r)
	key := vars["category"] + "/" + vars["slug"]

	doc, err := s.registry.Get(key)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			s.writeErrorResponse(w, http.StatusNotFound, "skill not found", err)
		} else {
			s.writeErrorResponse(w, http.StatusInternalServerError, "failed to resolve skill", err)
		}
		return nil, false
	}
	return doc, true
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L.WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		response["detail"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.L.WithError(encodeErr).Error("failed to encode error response")
	}
}

func summaryFromRecord(record catalog.Record) SkillSummary {
	return SkillSummary{
		Key:         record.Key(),
		Category:    record.Category,
		Slug:        record.Slug,
		Name:        record.Name,
		Description: record.Description,
		License:     record.License,
		Author:      record.Author,
		Version:     record.Version,
		Path:        record.Path,
		ModifiedAt:  record.ModifiedAt,
	}
}

func summaryFromDocument(doc *skilldoc.Document) SkillSummary {
	return SkillSummary{
		Key:         doc.Key(),
		Category:    doc.Category,
		Slug:        doc.Slug,
		Name:        doc.Name,
		Description: doc.Description,
		License:     doc.License,
		Author:      doc.Author(),
		Version:     doc.Version(),
		Path:        doc.Path,
		ModifiedAt:  doc.ModTime,
	}
}

func paginate(docs []*skilldoc.Document, limit, offset int) []*skilldoc.Document {
	if offset > 0 {
		if offset >= len(docs) {
			return nil
		}
		docs = docs[offset:]
	}
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

func parseIntParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func findingsOrEmpty(report *lint.Report) []lint.Finding {
	if report.Findings == nil {
		return []lint.Finding{}
	}
	return report.Findings
}
