// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/document"
	"github.com/pdiddy/answer-engine/internal/jsonblock"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/motivations"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/registry"
)

// maxUploadBytes bounds ingestion request bodies.
const maxUploadBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// modelErrorStatus maps model and parse failures onto HTTP status codes.
func modelErrorStatus(err error) int {
	var parseErr *jsonblock.ParseError
	switch {
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, llm.ErrService), errors.Is(err, llm.ErrEmptyResponse):
		return http.StatusBadGateway
	case errors.As(err, &parseErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// handleIngest parses the request body as plain text or markdown and
// registers the resulting document. The lifecycle record is created first so
// a parse failure is visible as a failed document rather than vanishing.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	title := r.URL.Query().Get("title")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "document body is empty")
		return
	}
	if len(body) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "document exceeds upload limit")
		return
	}

	id, err := s.registry.Begin(ctx, title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	doc, err := document.ParseText(title, string(body))
	if err != nil {
		if failErr := s.registry.Fail(ctx, id, err); failErr != nil {
			s.log.Error("recording ingestion failure", zap.Error(failErr))
		}
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("parsing document: %v", err))
		return
	}

	if err := s.registry.Complete(ctx, id, doc); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry, err := s.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListDocs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": s.registry.List()})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	entry, err := s.registry.Get(id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	if entry.Status != registry.StatusReady {
		writeJSON(w, http.StatusOK, entry)
		return
	}

	doc, err := s.registry.Document(id)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":    entry.ID,
		"title":     doc.Title,
		"status":    entry.Status,
		"sections":  doc.Sections,
		"equations": doc.Equations,
	})
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.registry.Delete(r.Context(), id); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleGetParagraph(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doc, err := s.registry.Document(vars["id"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	p, ok := doc.Paragraph(vars["pid"])
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("paragraph %s not found", vars["pid"]))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMotivations(w http.ResponseWriter, r *http.Request) {
	doc, err := s.registry.Document(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	if query := r.URL.Query().Get("q"); query != "" {
		writeJSON(w, http.StatusOK, map[string]any{"motivations": motivations.Search(doc, query)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"motivations": motivations.ForDocument(doc),
		"summary":     motivations.Summary(doc),
	})
}

// askRequest is the POST body for question answering.
type askRequest struct {
	Question     string   `json:"question"`
	ParagraphIDs []string `json:"paragraph_ids,omitempty"`
	Debug        bool     `json:"debug,omitempty"`
	Compose      bool     `json:"compose,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Question) > s.cfg.MaxQuestionLength {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("question exceeds %d characters", s.cfg.MaxQuestionLength))
		return
	}

	doc, err := s.registry.Document(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	start := time.Now()
	answer, err := s.pipeline.Answer(r.Context(), doc, pipeline.Request{
		Question:    req.Question,
		EvidenceIDs: req.ParagraphIDs,
		Debug:       req.Debug,
		Compose:     req.Compose,
	})
	modelLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		s.log.Warn("pipeline failure", zap.Error(err))
		writeError(w, errorStatus(err), err.Error())
		return
	}

	answersTotal.WithLabelValues(string(answer.Confidence), fmt.Sprintf("%t", answer.IsRefusal())).Inc()
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "search requires persistent storage")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	hits, err := s.store.SearchParagraphs(r.Context(), query, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []registry.ParagraphHit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}
