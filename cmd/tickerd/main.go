package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"TickerSentinel/internal/collector"
	"TickerSentinel/internal/common"
	"TickerSentinel/internal/config"
	"TickerSentinel/internal/model"
	"TickerSentinel/internal/notifier"
	"TickerSentinel/internal/publisher"
	"TickerSentinel/internal/scheduler"
	"TickerSentinel/internal/store"
	"TickerSentinel/internal/updatecheck"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfgPath  string
	logLevel string
	cfg      *config.Config
	logger   *common.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "tickerd",
		Short:        "TickerSentinel - watchlist quotes, price alerts and portfolio valuation",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", config.PathFromEnv(), "configuration file path")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(a.newRunCmd(), a.newQuoteCmd(), a.newSearchCmd(), a.newValidateCmd(), newVersionCmd())
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = common.NewLogger(cfg.LogLevel)
	return nil
}

func (a *app) newCollector() *collector.Collector {
	fetcher := collector.NewYahooFetcher(collector.YahooOptions{
		APIURL:    a.cfg.Provider.APIURL,
		CookieURL: a.cfg.Provider.CookieURL,
		Proxy:     a.cfg.Proxy,
		RateLimit: a.cfg.Provider.RateLimit,
		Timeout:   a.cfg.Provider.Timeout,
	}, a.logger)
	a.logger.Info().Str("source", fetcher.Name()).Msg("data source ready")
	return collector.NewCollector(fetcher, a.logger)
}

func (a *app) openStore() (store.Store, error) {
	switch a.cfg.Storage.Driver {
	case config.StorageMemory:
		return store.NewMemoryStore(nil), nil
	case config.StorageFile:
		if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.StateFile), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		return store.NewFileStore(a.cfg.Storage.StateFile), nil
	default:
		if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return store.NewSQLiteStore(a.cfg.Storage.SQLitePath, a.logger)
	}
}

func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the refresh, rotation and alert service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}
}

func (a *app) run(parent context.Context) error {
	logger := a.logger
	logger.Info().Str("version", version).Msg("TickerSentinel starting")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := a.openStore()
	if err != nil {
		logger.Warn().Err(err).Msg("init store failed, using memory")
		st = store.NewMemoryStore(nil)
	}
	defer st.Close()

	var (
		n  notifier.Notifier = notifier.NewLogNotifier(logger)
		tn *notifier.TelegramNotifier
	)
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, logger)
		n = tn
	}

	sched := scheduler.NewScheduler(a.newCollector(), st, n, logger)

	if a.cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		pub := publisher.NewRedisPublisher(client, a.cfg.Redis.TTL, logger)
		if err := pub.Ping(ctx); err != nil {
			logger.Warn().Err(err).Str("addr", a.cfg.Redis.Addr).Msg("redis unavailable, snapshot publishing disabled")
			pub.Close()
		} else {
			sched.Publisher = pub
			defer pub.Close()
		}
	}

	if a.cfg.Updates.Repo != "" {
		sched.Updates = updatecheck.NewChecker(a.cfg.Updates.Repo, version)
		if err := sched.RegisterUpdateCheck(a.cfg.Updates.Interval); err != nil {
			return err
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")

		if settings, err := sched.Settings(ctx); err == nil {
			if err := tn.SendWithRetry(ctx, notifier.FormatStartup(settings.Watchlist, settings.RefreshInterval), tn.MaxRetries); err != nil {
				logger.Error().Err(err).Msg("send startup message")
			}
		}
	}

	logger.Info().Msg("TickerSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, stopping")
	return nil
}

func (a *app) newQuoteCmd() *cobra.Command {
	var detail bool
	cmd := &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Fetch quotes once and print them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := make([]string, len(args))
			for i, s := range args {
				symbols[i] = model.NormalizeSymbol(s)
			}
			res, err := a.newCollector().Collect(cmd.Context(), collector.Request{Symbols: symbols})
			if err != nil {
				return err
			}
			if len(res.Quotes) == 0 {
				return fmt.Errorf("unable to fetch quotes")
			}
			out := cmd.OutOrStdout()
			for _, q := range res.Quotes {
				if detail {
					fmt.Fprintln(out, notifier.FormatQuote(&q))
					continue
				}
				fmt.Fprintln(out, notifier.MenuText(&q, true, false))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&detail, "detail", false, "print the full quote detail")
	return cmd
}

func (a *app) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search symbols by name or ticker",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.newCollector().Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), notifier.FormatSearch(results))
			return nil
		},
	}
}

func (a *app) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate SYMBOL",
		Short: "Check that a symbol resolves to a quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.newCollector().Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", q.Symbol, q.Name, q.NormalizedCurrency())
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "TickerSentinel", version)
		},
	}
}
