package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/cinesense/internal/profile"
	"github.com/hrygo/cinesense/server/ai"
	"github.com/hrygo/cinesense/server/ingest"
	"github.com/hrygo/cinesense/server/mcpserver"
	"github.com/hrygo/cinesense/server/retrieval"
	"github.com/hrygo/cinesense/server/router/apiv1"
	"github.com/hrygo/cinesense/store"
	"github.com/hrygo/cinesense/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "cinesense",
	Short: "Retrieval-augmented lookup service for movie reviews",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the similarity query API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		st, err := newStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := ai.NewProvider(ai.NewConfigFromProfile(instanceProfile))
		if err != nil {
			return fmt.Errorf("failed to create embedding provider: %w", err)
		}
		if err := provider.Validate(ctx); err != nil {
			return fmt.Errorf("embedding model failed to initialize: %w", err)
		}

		queryService := retrieval.New(
			st,
			provider,
			instanceProfile.SimilarityThreshold,
			instanceProfile.TopK,
			int64(instanceProfile.MaxConcurrentQueries),
		)

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		apiService := apiv1.NewAPIV1Service(instanceProfile, queryService)
		apiService.Register(e)

		addr := fmt.Sprintf("%s:%d", instanceProfile.Addr, instanceProfile.Port)
		go func() {
			slog.Info("query API server started",
				"addr", addr,
				"version", version,
				"mode", instanceProfile.Mode)
			if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
				slog.Error("server stopped unexpectedly", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
		slog.Info("query API server stopped")
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest review files into the vector store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		file, _ := cmd.Flags().GetString("file")
		all, _ := cmd.Flags().GetBool("all")
		if file == "" && !all {
			cmd.Println("nothing to do: use --file <path> or --all")
			return nil
		}

		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		st, err := newStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer st.Close()

		provider, err := ai.NewProvider(ai.NewConfigFromProfile(instanceProfile))
		if err != nil {
			return fmt.Errorf("failed to create embedding provider: %w", err)
		}

		pipeline := ingest.New(st, provider, instanceProfile.ChunkSize, instanceProfile.ChunkOverlap)
		if file != "" {
			if _, err := pipeline.IngestFile(ctx, file); err != nil {
				return fmt.Errorf("failed to ingest %s: %w", file, err)
			}
			return nil
		}
		return pipeline.IngestAll(ctx, instanceProfile.ReviewsDir)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP stdio adapter in front of the query API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queryServiceURL := viper.GetString("query-service-url")
		slog.Info("MCP adapter started", "query_service_url", queryServiceURL)
		return mcpserver.NewServer(queryServiceURL).Run(ctx)
	},
}

// loadProfile assembles the profile from flags, environment and defaults.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:                 viper.GetString("mode"),
		Addr:                 viper.GetString("addr"),
		Port:                 viper.GetInt("port"),
		Driver:               viper.GetString("driver"),
		DSN:                  viper.GetString("dsn"),
		Version:              version,
		ReviewsDir:           viper.GetString("reviews-dir"),
		ChunkSize:            viper.GetInt("chunk-size"),
		ChunkOverlap:         viper.GetInt("chunk-overlap"),
		SimilarityThreshold:  viper.GetFloat64("similarity-threshold"),
		TopK:                 viper.GetInt("top-k"),
		DBMaxOpenConns:       viper.GetInt("db-max-open-conns"),
		MaxConcurrentQueries: viper.GetInt("max-concurrent-queries"),
		EmbeddingDim:         viper.GetInt("embedding-dim"),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}

// newStore opens the database driver and applies the schema.
func newStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return st, nil
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "dev" or "prod"`)
	rootCmd.PersistentFlags().String("addr", "127.0.0.1", "address of the query API server")
	rootCmd.PersistentFlags().Int("port", 8000, "port of the query API server")
	rootCmd.PersistentFlags().String("driver", "postgres", `database driver, "postgres" or "sqlite"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("reviews-dir", "resenhas", "directory of review .txt files for --all ingestion")
	rootCmd.PersistentFlags().Int("chunk-size", 512, "maximum characters per review chunk")
	rootCmd.PersistentFlags().Int("chunk-overlap", 50, "character overlap between consecutive chunks")
	rootCmd.PersistentFlags().Float64("similarity-threshold", 0.5, "minimum cosine similarity for query results")
	rootCmd.PersistentFlags().Int("top-k", 3, "default maximum number of query results")
	rootCmd.PersistentFlags().Int("db-max-open-conns", 10, "database connection pool size")
	rootCmd.PersistentFlags().Int("max-concurrent-queries", 8, "bound on in-flight similarity queries")
	rootCmd.PersistentFlags().Int("embedding-dim", 1536, "embedding vector dimension, must match the model")
	rootCmd.PersistentFlags().String("query-service-url", "http://localhost:8000", "query API base URL for the MCP adapter")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("cinesense")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	ingestCmd.Flags().String("file", "", "path to a single review .txt file to ingest")
	ingestCmd.Flags().Bool("all", false, "ingest every .txt file in the reviews directory")

	rootCmd.AddCommand(serveCmd, ingestCmd, mcpCmd)
}

func main() {
	// Matches the original deployment's dotenv convention; missing files
	// are fine.
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
