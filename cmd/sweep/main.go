// Command sweep streams a YAML-defined list of generation scenarios through
// the client and prints a pass/fail matrix. It exists to exercise the full
// stack against live endpoints: capacity admission, both wire formats, echo
// synthesis, and the stall watchdog.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mosheduminer/lmql/common/config"
)

func main() {
	logger, err := glog.NewConsoleWithName("lmql-sweep", glog.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %+v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.EnablePrometheusMetrics && config.SweepMetricsAddr != "" {
		go serveMetrics(config.SweepMetricsAddr, logger)
	}

	if err := run(ctx, logger); err != nil {
		logger.Error("sweep failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("sweep finished")
}

func serveMetrics(addr string, logger glog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("prometheus metrics endpoint available", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}
