// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/registry"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const samplePaper = `ABSTRACT

Attention mechanisms allow modeling of dependencies without regard to their distance in the input or output sequences.

MODEL ARCHITECTURE

An attention function maps a query and a set of key-value pairs to an output. The output is computed as a weighted sum of the values using scaled dot-product attention; Attention(Q, K, V) = softmax(QK^T / √d_k)V.
`

// newTestServer builds a server over an in-memory registry. A nil store
// disables full-text search.
func newTestServer(t *testing.T, client llm.Client, store *registry.Store) *Server {
	t.Helper()

	reg, err := registry.New(context.Background(), store)
	require.NoError(t, err)

	p, err := pipeline.New(client, nil)
	require.NoError(t, err)

	s, err := New(types.ServerConfig{}, zap.NewNop(), reg, store, p)
	require.NoError(t, err)
	return s
}

// ingestSample uploads samplePaper and returns the document ID.
func ingestSample(t *testing.T, s *Server) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/docs?title=attention", strings.NewReader(samplePaper))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var entry registry.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	require.Equal(t, registry.StatusReady, entry.Status)
	return entry.ID
}

func TestIngestAndInspect(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)
	id := ingestSample(t, s)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "MODEL ARCHITECTURE")
	assert.Contains(t, rec.Body.String(), "eq1")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/"+id+"/paragraphs/s1_p1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Attention mechanisms")
}

func TestIngestRejectsEmptyAndUnparseable(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs", strings.NewReader("   \n\n   ")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The failed ingestion is still visible in the listing.
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	assert.Contains(t, rec.Body.String(), string(registry.StatusFailed))
}

func TestUnknownDocumentIs404(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)

	for _, path := range []string{
		"/api/docs/nope",
		"/api/docs/nope/paragraphs/s1_p1",
		"/api/docs/nope/motivations",
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func askBody(t *testing.T, question string) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(askRequest{Question: question})
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestAskGrounded(t *testing.T) {
	mock := &llm.Mock{
		Response: llm.MockAnswer("Attention maps queries to outputs.", []string{"s2_p1"}, "high"),
	}
	s := newTestServer(t, mock, nil)
	id := ingestSample(t, s)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs/"+id+"/ask", askBody(t, "What is attention?")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var answer types.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, []string{"s2_p1"}, answer.Citations)
	assert.Equal(t, types.ConfidenceHigh, answer.Confidence)
	assert.Equal(t, 1, mock.Calls())
}

func TestAskRefusesOffTopicWithoutModelCall(t *testing.T) {
	mock := &llm.Mock{}
	s := newTestServer(t, mock, nil)
	id := ingestSample(t, s)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs/"+id+"/ask", askBody(t, "What is quantum computing?")))
	require.Equal(t, http.StatusOK, rec.Code)

	var answer types.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.True(t, answer.IsRefusal())
	assert.Equal(t, 0, mock.Calls())
}

func TestAskValidation(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)
	id := ingestSample(t, s)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "empty question", body: `{"question": "  "}`, wantCode: http.StatusBadRequest},
		{name: "oversized question", body: `{"question": "` + strings.Repeat("w", 1500) + `"}`, wantCode: http.StatusBadRequest},
		{name: "malformed body", body: `{`, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs/"+id+"/ask", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestAskModelFailureStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "timeout", err: llm.ErrTimeout, wantCode: http.StatusGatewayTimeout},
		{name: "rate limited", err: llm.ErrRateLimited, wantCode: http.StatusTooManyRequests},
		{name: "service error", err: llm.ErrService, wantCode: http.StatusBadGateway},
		{name: "empty response", err: llm.ErrEmptyResponse, wantCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &llm.Mock{Err: tt.err}, nil)
			id := ingestSample(t, s)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs/"+id+"/ask", askBody(t, "What is attention?")))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestAskUnparseableModelOutputIs500(t *testing.T) {
	s := newTestServer(t, &llm.Mock{Response: "no structured output whatsoever"}, nil)
	id := ingestSample(t, s)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/docs/"+id+"/ask", askBody(t, "What is attention?")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), types.RefusalAnswer)
}

func TestSearch(t *testing.T) {
	store, err := registry.NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()

	s := newTestServer(t, &llm.Mock{}, store)
	id := ingestSample(t, s)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=attention", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchWithoutStore(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=attention", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)
	id := ingestSample(t, s)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/docs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &llm.Mock{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
