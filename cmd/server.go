package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ad-verify/internal/ads"
	"github.com/ziadkadry99/ad-verify/internal/audit"
	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/chat"
	"github.com/ziadkadry99/ad-verify/internal/db"
	"github.com/ziadkadry99/ad-verify/internal/metrics"
	"github.com/ziadkadry99/ad-verify/internal/notifications"
	"github.com/ziadkadry99/ad-verify/internal/server"
	"github.com/ziadkadry99/ad-verify/internal/verifier"
)

var serverPort int

const shutdownTimeout = 10 * time.Second

// lifecycle is the part of *server.Server that serveUntilDone drives.
type lifecycle interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serveUntilDone runs srv until ctx is canceled and returns only once
// Shutdown has finished draining in-flight handlers. Start returns as soon
// as Shutdown begins, so its return alone does not mean handlers are done.
func serveUntilDone(ctx context.Context, srv lifecycle, timeout time.Duration) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown: %v\n", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long:  `Starts the adverify HTTP API: accounts, verification, advertisements, results, chat (REST and WebSocket), knowledge base, audit and webhook notification endpoints, plus /healthz and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, err := db.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		m := metrics.New()
		kb, err := openKnowledge(ctx, cfg, m)
		if err != nil {
			return err
		}
		engine, err := buildEngine(ctx, cfg, kb, m)
		if err != nil {
			return err
		}

		auditStore := audit.NewStore(database)
		adStore := ads.NewStore(database)
		notifyStore := notifications.NewStore(database)
		dispatcher := notifications.NewDispatcher(notifyStore)
		svc := verifier.NewService(engine, adStore, auditStore, verifier.WithNotifier(dispatcher))

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.CORSAllowAll,
		}, server.Deps{
			Users:         auth.NewStore(database),
			Audit:         auditStore,
			Ads:           adStore,
			Knowledge:     kb,
			Verifier:      svc,
			Chat:          chat.NewBot(svc, chat.NewStore(database), auditStore),
			Notifications: notifyStore,
			Metrics:       m,
		})

		fmt.Fprintf(os.Stderr, "adverify server %s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DBPath())
		fmt.Fprintf(os.Stderr, "  Model: %s/%s\n", cfg.Provider, cfg.Model)
		fmt.Fprintf(os.Stderr, "  Guideline chunks: %d\n", kb.Count())

		if err := serveUntilDone(ctx, srv, shutdownTimeout); err != nil {
			return err
		}
		dispatcher.Wait()
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
