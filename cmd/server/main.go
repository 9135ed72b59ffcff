package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thereceipt/receipt-templater/internal/api"
	"github.com/thereceipt/receipt-templater/internal/cache"
	"github.com/thereceipt/receipt-templater/internal/config"
	"github.com/thereceipt/receipt-templater/internal/engine"
	"github.com/thereceipt/receipt-templater/internal/i18n"
	"github.com/thereceipt/receipt-templater/internal/logging"
	"github.com/thereceipt/receipt-templater/internal/prepare"
	"github.com/thereceipt/receipt-templater/internal/printer"
	"github.com/thereceipt/receipt-templater/internal/templatestore"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

// Version is set during build via ldflags
var Version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	var (
		configPath string
		verbosity  int
		addr       string
	)

	cmd := &cobra.Command{
		Use:           "receipt-templater",
		Short:         "Receipt template rendering and printing server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("verbose") {
				cfg.Log.Verbosity = verbosity
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/receipt-templater/config.toml)")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v, -vv, -vvv)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = logging.DefaultLogFile()
	}
	logging.Setup(cfg.Log.Verbosity, nil, logFile)
	defer logging.Close()
	logger := logging.GetLogger("server")

	if !i18n.SetLanguage(cfg.Render.Language) {
		logger.Warn().
			Str("language", cfg.Render.Language).
			Strs("available", i18n.Languages()).
			Str("using", i18n.Language()).
			Msg("Unknown language, using default")
	}

	loc, err := cfg.Render.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Templates.Path), 0755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}
	store, err := templatestore.NewFileRepository(cfg.Templates.Path)
	if err != nil {
		return err
	}

	session := printer.NewSession(dialerFor(cfg.Printer), printer.SessionOptions{
		Timeout:    cfg.Printer.Timeout,
		CloseDelay: printer.DefaultCloseDelay,
	}, logging.GetLogger("printer"))

	queue := printer.NewPrintQueue(session, printer.QueueOptions{
		MaxRetries: cfg.Printer.MaxRetries,
		RetryDelay: cfg.Printer.RetryDelay,
	}, logging.GetLogger("queue"))
	defer queue.Stop()

	eng := engine.New(engine.Options{
		Store: store,
		Cache: cache.New[*receiptformat.Template](cfg.Templates.CacheTTL, nil),
		Preparer: prepare.New(prepare.Options{
			Location:        loc,
			LocalCurrency:   cfg.Render.LocalCurrency,
			ForeignCurrency: cfg.Render.ForeignCurrency,
		}),
		Queue:          queue,
		PrinterHost:    cfg.Printer.Host,
		CheckTarget:    cfg.Printer.Transport == config.TransportNetwork,
		Bindings:       cfg.BindingFor,
		RequiredFields: cfg.Render.RequiredFields,
		PaperWidth:     cfg.Render.PaperWidth,
		FontPath:       cfg.Render.FontPath,
		Logger:         logging.GetLogger("engine"),
	})

	if cfg.Templates.Watch {
		go func() {
			if err := templatestore.Watch(ctx, store, eng.InvalidateCache, logging.GetLogger("templates")); err != nil {
				logger.Warn().Err(err).Msg("Template watcher stopped")
			}
		}()
	}

	server := api.NewServer(eng, queue, logging.GetLogger("api"))
	queue.OnStatus(server.BroadcastJobStatus)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Server.Addr).
			Str("printer", session.Target()).
			Str("templates", cfg.Templates.Path).
			Str("version", Version).
			Msg("Starting API server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func dialerFor(p config.PrinterConfig) printer.Dialer {
	if p.Transport == config.TransportSerial {
		return printer.SerialDialer{Device: p.Device, Baud: p.Baud, ReadTimeout: p.Timeout}
	}
	return printer.NetworkDialer{Host: p.Host, Port: p.Port, Timeout: p.Timeout}
}
