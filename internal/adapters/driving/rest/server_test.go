package rest

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docq-cli/internal/adapters/driven/embedding/embeddingtest"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/extract"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/dense"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/index/sparse"
	"github.com/parchment-labs/docq-cli/internal/adapters/driven/storage/memory"
	"github.com/parchment-labs/docq-cli/internal/chunker"
	"github.com/parchment-labs/docq-cli/internal/core/domain"
	"github.com/parchment-labs/docq-cli/internal/core/services"
)

// newTestServer wires a server over in-memory services with the fake
// embedder and no LLM (extractive answers).
func newTestServer(t *testing.T) *Server {
	t.Helper()

	denseIdx, err := dense.New(embeddingtest.New(), dense.Config{})
	require.NoError(t, err)
	sparseIdx := sparse.New()
	store := memory.NewDocumentStore()

	chunking := chunker.Config{ChunkSize: 200, Overlap: 40}
	ingest := services.NewIngestService(store, extract.New(), denseIdx, sparseIdx, chunking, "fake-embed")
	retriever := services.NewRetrievalService(store, denseIdx, sparseIdx, domain.RetrievalSettings{
		TopN:            5,
		OverFetchFactor: 3,
		RRFConstant:     60,
	})
	answerer := services.NewAnswerService(retriever, nil, domain.AnswerSettings{
		MaxContextChars: 2500,
		MaxCitations:    3,
	})

	return NewServer(ingest, retriever, answerer)
}

// upload posts a multipart file to /documents.
func upload(t *testing.T, server *Server, name, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["documents"])
}

func TestUploadAndStats(t *testing.T) {
	server := newTestServer(t)

	rec := upload(t, server, "handbook.txt", "Employees receive 25 days annual leave")
	require.Equal(t, http.StatusCreated, rec.Code)

	var report domain.IngestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "handbook.txt", report.Name)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Indexed)

	statsReq := httptest.NewRequest(http.MethodGet, "/stats", nil)
	statsRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(statsRec, statsReq)

	require.Equal(t, http.StatusOK, statsRec.Code)
	var stats domain.CorpusStats
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.EmbeddedChunks)
}

func TestUpload_UnsupportedFormat(t *testing.T) {
	server := newTestServer(t)

	rec := upload(t, server, "photo.png", "binary-ish")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUpload_EmptyDocument(t *testing.T) {
	server := newTestServer(t)

	rec := upload(t, server, "empty.txt", "   ")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	server := newTestServer(t)
	upload(t, server, "handbook.txt", "Employees receive 25 days annual leave")

	body := `{"query": "how many annual leave days"}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Passages []domain.ScoredPassage `json:"passages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Passages, 1)
	assert.Equal(t, "handbook.txt §1", resp.Passages[0].Citation)
}

func TestSearch_MissingQuery(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_ExtractiveAnswer(t *testing.T) {
	server := newTestServer(t)
	upload(t, server, "handbook.txt", "Employees receive 25 days annual leave")

	body := `{"question": "how many annual leave days"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var answer domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Contains(t, answer.Text, "25 days annual leave")
	assert.Contains(t, answer.Text, "[source: handbook.txt §1]")
}

func TestQuery_NoEvidenceRefuses(t *testing.T) {
	server := newTestServer(t)

	body := `{"question": "what is the capital of France"}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var answer domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, services.RefusalText, answer.Text)
}

func TestListAndDeleteDocument(t *testing.T) {
	server := newTestServer(t)
	upload(t, server, "handbook.txt", "Employees receive 25 days annual leave")

	listReq := httptest.NewRequest(http.MethodGet, "/documents", nil)
	listRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)
	assert.Contains(t, listRec.Body.String(), "handbook.txt")

	delReq := httptest.NewRequest(http.MethodDelete, "/documents/handbook.txt", nil)
	delRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(delRec, delReq)
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	againReq := httptest.NewRequest(http.MethodDelete, "/documents/handbook.txt", nil)
	againRec := httptest.NewRecorder()
	server.Handler().ServeHTTP(againRec, againReq)
	assert.Equal(t, http.StatusNotFound, againRec.Code)
}
