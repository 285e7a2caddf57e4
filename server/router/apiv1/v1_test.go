package apiv1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/cinesense/internal/profile"
	"github.com/hrygo/cinesense/server/retrieval"
)

type fakeQueryService struct {
	results   []*retrieval.Result
	err       error
	gotPrompt string
	gotTopK   int
}

func (f *fakeQueryService) Query(_ context.Context, prompt string, topK int) ([]*retrieval.Result, error) {
	f.gotPrompt = prompt
	f.gotTopK = topK
	return f.results, f.err
}

func newTestServer(svc QueryService) *echo.Echo {
	e := echo.New()
	api := NewAPIV1Service(&profile.Profile{Mode: "dev"}, svc)
	api.Register(e)
	return e
}

func TestHealthz(t *testing.T) {
	e := newTestServer(&fakeQueryService{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "online")
}

func TestQueryReturnsRankedResults(t *testing.T) {
	svc := &fakeQueryService{results: []*retrieval.Result{
		{Titulo: "Duna", ChunkTexto: "um deserto infinito", Similaridade: 0.91},
		{Titulo: "Matrix", ChunkTexto: "simulação", Similaridade: 0.72},
	}}
	e := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/query",
		strings.NewReader(`{"prompt": "filmes sobre desertos", "top_k": 2}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "filmes sobre desertos", svc.gotPrompt)
	require.Equal(t, 2, svc.gotTopK)

	var results []retrieval.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	require.Equal(t, "Duna", results[0].Titulo)
	require.Equal(t, 0.91, results[0].Similaridade)
}

func TestQueryEmptyPromptIsValid(t *testing.T) {
	svc := &fakeQueryService{}
	e := newTestServer(svc)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"prompt": ""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "", svc.gotPrompt)
}

func TestQueryEmbedderUnavailable(t *testing.T) {
	e := newTestServer(&fakeQueryService{err: retrieval.ErrEmbedderUnavailable})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"prompt": "x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Detail, "not available")
}

func TestQueryInternalError(t *testing.T) {
	e := newTestServer(&fakeQueryService{err: errors.New("pq: connection refused")})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"prompt": "x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Detail, "connection refused")
}

func TestQueryMalformedBody(t *testing.T) {
	e := newTestServer(&fakeQueryService{})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"prompt": `))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
