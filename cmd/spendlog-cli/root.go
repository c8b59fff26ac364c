package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"spendlog/internal/backend"
	applog "spendlog/internal/log"
	"spendlog/internal/rates"
	"spendlog/internal/spot"
	"spendlog/internal/storage"
	"spendlog/internal/store"
)

// env is the prefix of the variables flags can be set through, so
// --data-dir reads SPENDLOG_DATA_DIR.
const env = "SPENDLOG"

// app resolves flags into the components a command needs.
type app struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "spendlog-cli",
		Short: "Log expenses and look up exchange rates and crypto prices",
		Long: `spendlog-cli records expenses in the same storage the spendlog server uses,
prints the log and the per-category chart, and runs currency and crypto lookups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.String("backend", string(backend.FileBackend), "storage backend: "+backendNames())
	f.String("data-dir", "./data", "directory of the file backend")
	f.String("sqlite-path", "./data/spendlog.db", "database of the sqlite backend")
	f.String("redis-addr", "localhost:6379", "address of the redis backend")
	f.String("redis-prefix", "spendlog:", "key prefix of the redis backend")
	f.String("key", storage.DefaultKey, "storage key of the collection")
	f.String("rates-url", rates.DefaultBaseURL, "exchange rate endpoint")
	f.String("rates-app-id", "236c789af61a41a4b7cb472e1b2369bf", "exchange rate app id")
	f.String("spot-url", spot.DefaultBaseURL, "crypto spot price endpoint")
	f.Duration("timeout", 10*time.Second, "timeout of lookup requests")
	f.Bool("verbose", false, "log debug output to stderr")

	a.v.SetEnvPrefix(env)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(f)

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newChartCmd(a),
		newConvertCmd(a),
		newCryptoCmd(a),
	)
	return root
}

func backendNames() string {
	names := make([]string, 0, 4)
	for _, t := range backend.GetBackendTypes() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}

func (a *app) logger(cmd *cobra.Command) *applog.Logger {
	level := slog.LevelWarn
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
}

// openStore opens the configured backend and loads the collection. The
// returned func releases the backend.
func (a *app) openStore(ctx context.Context, cmd *cobra.Command) (*store.Store, func(), error) {
	logger := a.logger(cmd)
	cfg := backend.Config{
		Type:          backend.BackendType(a.v.GetString("backend")),
		DataDirectory: a.v.GetString("data-dir"),
		SQLiteDBPath:  a.v.GetString("sqlite-path"),
		RedisAddr:     a.v.GetString("redis-addr"),
		RedisPrefix:   a.v.GetString("redis-prefix"),
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", cfg.Type, err)
	}
	closeFn := func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close storage backend", applog.FieldError, err.Error())
		}
	}

	s := store.New(res.Store, store.WithKey(a.v.GetString("key")), store.WithLogger(logger))
	if err := s.Load(ctx); err != nil {
		if !errors.Is(err, store.ErrCorruptSnapshot) {
			closeFn()
			return nil, nil, fmt.Errorf("load expenses: %w", err)
		}
		logger.Warn("Stored expenses were unreadable, starting empty",
			applog.FieldError, err.Error(), applog.FieldErrorType, applog.ErrorTypeSchema)
	}
	return s, closeFn, nil
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.v.GetDuration("timeout")}
}

func (a *app) converter() *rates.Converter {
	return rates.NewConverter(rates.NewClient(a.v.GetString("rates-url"), a.v.GetString("rates-app-id"), a.httpClient()))
}

func (a *app) spotClient() *spot.Client {
	return spot.NewClient(a.v.GetString("spot-url"), a.httpClient())
}
