package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/dictionary"
	"github.com/teatak/ikseg/logging"
	"github.com/teatak/ikseg/segmenter"
	"github.com/teatak/ikseg/server"
	"github.com/teatak/ikseg/util"
)

func main() {
	cmd := &cobra.Command{
		Use:          "ikseg-server",
		Short:        "Segmentation HTTP service with hot-reloaded dictionaries",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", config.DefaultFileName, "configuration file")
	flags.String("addr", ":8080", "listen address")
	flags.Bool("debug", false, "gin debug mode")
	flags.Duration("shutdown-timeout", 10*time.Second, "grace period for in-flight requests")
	for _, name := range []string{"config", "addr", "debug", "shutdown-timeout"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("IKSEG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)
	if !util.FileExists(cfg.Path) {
		logger.Warn("Config file %s not found, using defaults", cfg.Path)
	}

	// 1. Initial load
	metrics := dictionary.DefaultMetrics()
	svc, err := dictionary.NewService(ctx, cfg,
		dictionary.WithLogger(logging.WithComponent(logger, "dictionary")),
		dictionary.WithMetrics(metrics))
	if err != nil {
		logger.Error("Initial load failed: %v", err)
		return err
	}

	// 2. Hot reload
	monitor := dictionary.NewMonitor(svc, dictionary.WithMonitorLogger(logging.WithComponent(logger, "monitor")))
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	defer monitor.Close()

	// 3. HTTP
	srvCfg := server.DefaultConfig()
	srvCfg.Addr = viper.GetString("addr")
	srvCfg.Debug = viper.GetBool("debug")
	srv := server.New(srvCfg, svc, segmenter.OptionsFromConfig(cfg),
		server.WithLogger(logging.WithComponent(logger, "server")),
		server.WithGatherer(prometheus.DefaultGatherer))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("shutdown-timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
