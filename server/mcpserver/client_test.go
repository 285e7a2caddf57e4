package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchPrettyPrintsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/query", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, "naves no deserto", payload["prompt"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"titulo":"Duna","chunk_texto":"uma saga de ação","similaridade":0.91}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	text := client.Search(context.Background(), "naves no deserto")

	require.Contains(t, text, "\"titulo\": \"Duna\"")
	require.Contains(t, text, "ação", "non-ASCII text must stay unescaped")
	require.Contains(t, text, "\n", "output is indented for display")
}

func TestSearchReturnsErrorBodyOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"erro interno do servidor"}`))
	}))
	defer srv.Close()

	text := NewClient(srv.URL).Search(context.Background(), "x")

	require.Contains(t, text, "HTTP 500")
	require.Contains(t, text, "erro interno do servidor")
}

func TestSearchDescribesConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	text := NewClient(url).Search(context.Background(), "x")

	require.Contains(t, text, "error calling query service")
}

func TestSearchPassesThroughUnindentableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	text := NewClient(srv.URL).Search(context.Background(), "x")
	require.Equal(t, "not json at all", text)
}
