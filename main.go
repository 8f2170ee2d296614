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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gridstack/config"
	"gridstack/internal/advisor"
	"gridstack/internal/catalog"
	"gridstack/internal/session"
	"gridstack/internal/usecase"
	"gridstack/logging"
)

var configPath string

// app holds the dependencies shared by every command.
type app struct {
	cfg      *config.Config
	catalog  *catalog.Client
	useCases *usecase.Table
	advisor  *advisor.Advisor
}

func newApp(cfg *config.Config) (*app, error) {
	useCases := usecase.Builtin()
	if cfg.UseCases.File != "" {
		t, err := usecase.Load(cfg.UseCases.File)
		if err != nil {
			return nil, fmt.Errorf("loading use cases: %w", err)
		}
		useCases = t
	}

	a := &app{
		cfg: cfg,
		catalog: catalog.New(catalog.Options{
			URL:          cfg.Catalog.URL,
			Timeout:      cfg.Catalog.Timeout,
			DefaultLimit: cfg.Catalog.DefaultLimit,
			CacheTTL:     cfg.Catalog.CacheTTL,
		}),
		useCases: useCases,
	}

	if cfg.Ollama.Enabled {
		gen, err := advisor.NewOllamaGenerator(cfg.Ollama.Host, cfg.Ollama.Model)
		if err != nil {
			return nil, err
		}
		a.advisor = advisor.New(gen, cfg.Ollama.MaxPromptLength)
	}
	return a, nil
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gridstack",
		Short:         "Assemble a web3 product stack and score how well it fits together",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(configPath); err != nil {
				return err
			}
			logging.InitLogger(config.AppConfig.Logging)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(serveCmd(), useCasesCmd(), buildCmd(), scoreCmd())
	return root
}

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			if port != 0 {
				cfg.Server.Port = port
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	sessions := session.NewRegistry(a.cfg.Session.TTL)
	go sessions.RunSweeper(ctx, a.cfg.Session.SweepInterval)

	srv := NewServer(a.catalog, a.useCases, sessions, a.advisor, a.cfg.Catalog.DefaultLimit)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           srv.Routes(a.cfg.Server.StaticDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.Infof("Server starting on port %d", a.cfg.Server.Port)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func useCasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usecases",
		Short: "List the available use cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.AppConfig)
			if err != nil {
				return err
			}
			printUseCases(cmd.OutOrStdout(), a.useCases)
			return nil
		},
	}
}

func buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [use-case-id]",
		Short: "Build a stack interactively in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.AppConfig)
			if err != nil {
				return err
			}
			var useCaseID string
			if len(args) == 1 {
				useCaseID = args[0]
				if _, err := a.useCases.Get(useCaseID); err != nil {
					return err
				}
			}
			return runTUI(cmd.Context(), a, useCaseID)
		},
	}
}

func scoreCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "score <products.json>",
		Short: "Score a set of products read from a JSON file (\"-\" for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := readProducts(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return writeScore(cmd.OutOrStdout(), products, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "gridstack:", err)
		os.Exit(1)
	}
}
