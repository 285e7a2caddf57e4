package profile

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the cinesense server and tools.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the query API server
	Addr string
	// Port is the binding port for the query API server
	Port int
	// Driver is the database driver (postgres or sqlite)
	Driver string
	// DSN points to where cinesense stores its data
	DSN string
	// Version is the current version of the server
	Version string

	// ReviewsDir is the directory scanned by `ingest --all`
	ReviewsDir string
	// ChunkSize is the maximum character count per review chunk
	ChunkSize int
	// ChunkOverlap is the character overlap between consecutive chunks
	ChunkOverlap int

	// SimilarityThreshold is the minimum cosine similarity for a chunk to
	// qualify as a query result, in [0, 1]
	SimilarityThreshold float64
	// TopK is the default maximum number of query results
	TopK int
	// DBMaxOpenConns bounds the database connection pool
	DBMaxOpenConns int
	// MaxConcurrentQueries bounds in-flight similarity queries
	MaxConcurrentQueries int

	// Embedding model configuration (OpenAI-compatible endpoint)
	EmbeddingBaseURL string // CINESENSE_EMBEDDING_BASE_URL
	EmbeddingAPIKey  string // CINESENSE_EMBEDDING_API_KEY
	EmbeddingModel   string // CINESENSE_EMBEDDING_MODEL
	EmbeddingDim     int    // CINESENSE_EMBEDDING_DIM, must match the model output size

	// QueryServiceURL is the query API base URL the MCP adapter forwards to
	QueryServiceURL string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv fills unset fields from CINESENSE_* environment variables.
// Flags bound through viper take precedence; this covers the pieces that
// are secret-shaped and usually live in the environment or a .env file.
func (p *Profile) FromEnv() {
	if p.DSN == "" {
		p.DSN = os.Getenv("CINESENSE_DSN")
	}
	if p.EmbeddingBaseURL == "" {
		p.EmbeddingBaseURL = getEnvOrDefault("CINESENSE_EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	}
	if p.EmbeddingAPIKey == "" {
		p.EmbeddingAPIKey = os.Getenv("CINESENSE_EMBEDDING_API_KEY")
	}
	if p.EmbeddingModel == "" {
		p.EmbeddingModel = getEnvOrDefault("CINESENSE_EMBEDDING_MODEL", "text-embedding-3-small")
	}
	if p.EmbeddingDim == 0 {
		if dim, err := strconv.Atoi(os.Getenv("CINESENSE_EMBEDDING_DIM")); err == nil && dim > 0 {
			p.EmbeddingDim = dim
		}
	}
}

// Validate normalizes and checks the profile before anything starts.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.Driver != "postgres" && p.Driver != "sqlite" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if p.DSN == "" {
		return errors.New("database DSN is required")
	}
	if p.SimilarityThreshold < 0 || p.SimilarityThreshold > 1 {
		return errors.Errorf("similarity threshold %.2f is outside [0, 1]", p.SimilarityThreshold)
	}
	if p.TopK <= 0 {
		p.TopK = 3
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = 512
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		p.ChunkOverlap = 50
	}
	if p.EmbeddingDim <= 0 {
		p.EmbeddingDim = 1536
	}
	if p.DBMaxOpenConns <= 0 {
		p.DBMaxOpenConns = 10
	}
	if p.MaxConcurrentQueries <= 0 {
		p.MaxConcurrentQueries = 8
	}
	return nil
}
