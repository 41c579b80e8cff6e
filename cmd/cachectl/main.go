// cachectl operates the invoicing cache: it serves the control-plane API
// and runs one-shot stats, clear, pre-warm, and cleanup actions against the
// configured backends.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quillbill/backend/cache"
	"github.com/quillbill/backend/cacheops"
	"github.com/quillbill/backend/config"
	"github.com/quillbill/backend/opsapi"
)

var (
	flagAddr    string
	flagBackend string
	flagVerbose bool
)

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newService(ctx context.Context, log *zap.Logger) (*cache.Service, *redis.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	opts := []cache.Option{}
	var client *redis.Client
	if cfg.Enabled {
		client = redis.NewClient(cfg.Redis.Options())
		opts = append(opts,
			cache.WithRedis(client),
			cache.WithPrefix(cfg.Redis.KeyPrefix))
	}
	return cache.New(ctx, log, opts...), client, nil
}

// backendLoader fetches a user's payload from the application backend so
// pre-warm runs the same computation a live request would.
func backendLoader(base, path string) cacheops.Loader {
	return func(ctx context.Context, userID string) (any, error) {
		u := base + path + "?userId=" + url.QueryEscape(userID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, errors.Wrap(err, "build pre-warm request")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch %s", path)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Newf("fetch %s: status %d", path, resp.StatusCode)
		}
		var payload any
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, errors.Wrapf(err, "decode %s response", path)
		}
		return payload, nil
	}
}

func buildOps(svc *cache.Service, log *zap.Logger) (*cacheops.Stats, *cacheops.Bulk) {
	inv := cacheops.NewInvalidator(svc, log)
	stats := cacheops.NewStats(svc, log)
	bulk := cacheops.NewBulk(svc, inv, log,
		backendLoader(flagBackend, "/api/dashboard"),
		backendLoader(flagBackend, "/api/settings"))
	return stats, bulk
}

func main() {
	root := &cobra.Command{
		Use:           "cachectl",
		Short:         "Operate the invoicing cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagBackend, "backend", "http://localhost:3000", "base URL of the application backend, used by pre-warm loaders")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache control-plane API",
		RunE:  runServe,
	}
	serve.Flags().StringVar(&flagAddr, "addr", ":8081", "listen address")

	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "stats",
			Short: "Print a snapshot of the cache contents",
			RunE:  runStats,
		},
		&cobra.Command{
			Use:   "clear-user <userId>",
			Short: "Clear every cache entry for one user",
			Args:  cobra.ExactArgs(1),
			RunE:  runClearUser,
		},
		&cobra.Command{
			Use:   "prewarm <userId>",
			Short: "Pre-warm the dashboard and settings entries for one user",
			Args:  cobra.ExactArgs(1),
			RunE:  runPrewarm,
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove expired entries from the in-process fallback store",
			RunE:  runCleanup,
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, client, err := newService(ctx, log)
	if err != nil {
		return err
	}
	defer svc.Close()
	if client != nil {
		defer client.Close()
	}

	stats, bulk := buildOps(svc, log)

	e := echo.New()
	e.HideBanner = true
	opsapi.New(svc, stats, bulk, log).Register(e)

	go func() {
		if err := e.Start(flagAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server stopped", zap.Error(err))
			stop()
		}
	}()
	log.Info("cache control plane listening", zap.String("addr", flagAddr))

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func runStats(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	svc, client, err := newService(cmd.Context(), log)
	if err != nil {
		return err
	}
	defer svc.Close()
	if client != nil {
		defer client.Close()
	}

	stats := cacheops.NewStats(svc, log)
	snap := stats.Snapshot(cmd.Context())
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	fmt.Println(string(out))
	return nil
}

func runClearUser(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	svc, client, err := newService(cmd.Context(), log)
	if err != nil {
		return err
	}
	defer svc.Close()
	if client != nil {
		defer client.Close()
	}

	_, bulk := buildOps(svc, log)
	bulk.ClearUser(cmd.Context(), args[0])
	fmt.Printf("cache cleared for user %s\n", args[0])
	return nil
}

func runPrewarm(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	svc, client, err := newService(cmd.Context(), log)
	if err != nil {
		return err
	}
	defer svc.Close()
	if client != nil {
		defer client.Close()
	}

	_, bulk := buildOps(svc, log)
	bulk.PreWarmUser(cmd.Context(), args[0])
	fmt.Printf("cache pre-warmed for user %s\n", args[0])
	return nil
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	svc, client, err := newService(cmd.Context(), log)
	if err != nil {
		return err
	}
	defer svc.Close()
	if client != nil {
		defer client.Close()
	}

	stats := cacheops.NewStats(svc, log)
	fmt.Printf("removed %d expired entries\n", stats.CleanupExpired())
	return nil
}
