package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/b3nn0/mt3339/common"
	"github.com/b3nn0/mt3339/config"
	"github.com/b3nn0/mt3339/gps"
)

type rootFlags struct {
	configPath    string
	port          string
	baud          int
	backend       string
	timeout       time.Duration
	logLevel      string
	metricsListen string
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "mt3339",
		Short:         "Configure and read a MediaTek MT3339 GPS receiver over PMTK",
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	pf.StringVarP(&flags.port, "port", "p", "", "serial device or tcp://host:port")
	pf.IntVarP(&flags.baud, "baud", "b", 0, "serial baud rate")
	pf.StringVar(&flags.backend, "backend", "", "serial backend (tarm, bugst, tcp)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "response timeout for commands")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.metricsListen, "metrics-listen", "", "serve prometheus metrics on this address")

	root.AddCommand(
		newPortsCmd(),
		newQueryCmd(&flags),
		newConfigureCmd(&flags),
		newStreamCmd(&flags),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfig loads the config file, if any, then applies the flags that
// were set on the command line.
func resolveConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, zerolog.Logger, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		fc, err := config.Load(flags.configPath)
		if err != nil {
			return cfg, zerolog.Nop(), fmt.Errorf("load config: %w", err)
		}
		cfg = fc
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if changed["port"] {
		cfg.Serial.Port = flags.port
	}
	if changed["baud"] {
		cfg.Serial.Baud = flags.baud
	}
	if changed["backend"] {
		cfg.Serial.Backend = flags.backend
	}
	if changed["timeout"] {
		cfg.Driver.Timeout = flags.timeout
	}
	if changed["log-level"] {
		cfg.Log.Level = flags.logLevel
	}
	if changed["metrics-listen"] {
		cfg.Metrics.Listen = flags.metricsListen
	}
	if err := cfg.Validate(); err != nil {
		return cfg, zerolog.Nop(), err
	}

	log, err := common.NewLogger(cfg.Log.Level, cfg.Log.Console)
	if err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("log.level: %w", err)
	}
	return cfg, log, nil
}

// openReceiver builds the driver from cfg and starts it. A receiver that does
// not answer the release query is logged but left open.
func openReceiver(cfg config.Config, log zerolog.Logger, m *gps.Metrics) (*gps.MT3339, bool, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, false, err
	}
	opts = append(opts, gps.WithLogger(log), gps.WithMetrics(m))

	g := gps.New(opts...)
	ok, err := g.Open(cfg.Serial.Port, gps.BaudRate(cfg.Serial.Baud))
	if err != nil {
		return nil, false, err
	}
	if !ok {
		log.Warn().Str("port", cfg.Serial.Port).Int("baud", cfg.Serial.Baud).Msg("receiver did not answer the release query")
	}
	return g, ok, nil
}

// serveMetrics registers the driver metrics and serves them until ctx ends.
// It returns nil metrics when listen is empty.
func serveMetrics(ctx context.Context, listen string, log zerolog.Logger) *gps.Metrics {
	if listen == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := gps.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: listen, Handler: mux}

	go func() {
		log.Info().Str("listen", listen).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	return m
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
