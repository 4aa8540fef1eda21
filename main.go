package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drafthub/config"
	"drafthub/config/database"
	articleHandler "drafthub/internal/article"
	articleRepo "drafthub/internal/article/repository"
	articleService "drafthub/internal/article/service"
	"drafthub/internal/generation"
	"drafthub/internal/identity"
	profileRepo "drafthub/internal/identity/repository"
	"drafthub/pkg/logger"
	"drafthub/pkg/metrics"
	"drafthub/router"
	"drafthub/socket"

	"github.com/go-chi/docgen"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const serviceName = "drafthub"

var (
	configPath string
	logLevel   string
	migrate    bool
)

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "Article drafting backend with AI-assisted structure generation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, realtime feed and metrics listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users and articles tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(cmd.Context(), db)
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print Markdown documentation for the HTTP routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.Setup(router.Deps{
			Articles:   &articleHandler.ArticleHandler{},
			Identity:   &identity.Handler{},
			Generation: &generation.Handler{},
		})
		fmt.Fprintln(cmd.OutOrStdout(), docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: serviceName,
			Intro:       "drafthub HTTP API.",
		}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "drafthub.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	serveCmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")

	rootCmd.AddCommand(serveCmd, migrateCmd, routesCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Sugar.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger.Init(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	provider, err := identity.NewSupabaseProvider(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	if err != nil {
		return err
	}

	gen := generation.NewClient(generation.Config{
		APIKey:  cfg.Generation.APIKey,
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
		Timeout: cfg.Generation.TimeoutDuration(),
	})
	if !gen.Configured() {
		logger.Sugar.Warn("DEEPSEEK_API_KEY is not set; structure generation requests will fail")
	}

	hub := socket.NewHub(cfg.Server.AllowedOrigins)

	var m *metrics.Metrics
	if cfg.Server.DiagAddr != "" {
		if m, err = metrics.New(serviceName); err != nil {
			return fmt.Errorf("initialize prometheus exporter: %w", err)
		}
		hub.Gauge = m
	}

	handler := router.Setup(router.Deps{
		Articles: articleHandler.NewArticleHandler(
			articleService.NewArticleService(articleRepo.NewArticleRepository(db), hub),
		),
		Identity: identity.NewHandler(
			identity.NewService(provider, profileRepo.NewProfileRepository(db)),
		),
		Generation:     generation.NewHandler(gen),
		Hub:            hub,
		Metrics:        m,
		JWTSecret:      []byte(cfg.Supabase.JWTSecret),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })

	servers := []*http.Server{{Addr: cfg.Server.Addr, Handler: handler}}
	if m != nil {
		servers = append(servers, &http.Server{Addr: cfg.Server.DiagAddr, Handler: router.Diagnostics(m)})
	}
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Sugar.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Sugar.Info("Server stopped")
	return err
}
