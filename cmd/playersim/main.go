// Command playersim runs player entities headlessly from a YAML scenario file
// and prints how each one ended up.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hexapus/gamecore/logger"
	"github.com/hexapus/gamecore/player"
	"github.com/hexapus/gamecore/shutdown"
	"github.com/hexapus/gamecore/sim"
	"github.com/hexapus/gamecore/statemachine/visualizer"
	"github.com/hexapus/gamecore/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	flags := flag.NewFlagSet("playersim", flag.ContinueOnError)
	configPath := flags.String("config", "playersim.yaml", "path to the scenario file")
	metricsAddr := flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	diagram := flags.Bool("diagram", false, "print a Mermaid diagram of each entity's path")

	if err := flags.Parse(args); err != nil {
		return 2 //nolint:mnd
	}

	cfg, err := sim.LoadFileConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "playersim: %v\n", err)

		return 1
	}

	logOpts, err := cfg.Logging.Options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "playersim: %v\n", err)

		return 1
	}

	if logOpts.Subsystem == "" {
		logOpts.Subsystem = "playersim"
	}

	log := logger.ConfigureLoggingWithOptions(logOpts)

	ctx := shutdown.SetupHandler(context.Background())
	defer func() {
		shutdown.Shutdown()
		<-ctx.Done()
	}()

	if err := telemetry.Initialize(ctx, &cfg.Telemetry); err != nil {
		log.Error("failed to initialize telemetry", "error", err)

		return 1
	}

	shutdown.BeforeShutdown("telemetry", telemetry.Shutdown)

	if *metricsAddr != "" {
		serveMetrics(ctx, log, *metricsAddr)
	}

	runner := sim.NewRunner(cfg.Player, sim.WithWorkers(cfg.Workers))

	started := time.Now()
	results, runErr := runner.Run(ctx, cfg.Scenarios)

	log.InfoContext(ctx, "simulation finished",
		"scenarios", len(cfg.Scenarios),
		"completed", runner.Completed(),
		"deaths", runner.Deaths(),
		"duration", time.Since(started))

	fmt.Fprint(out, summary(results))

	if *diagram {
		if err := writeDiagrams(out, cfg, results); err != nil {
			log.Error("failed to render diagram", "error", err)

			return 1
		}
	}

	if runErr != nil {
		log.Error("simulation failed", "error", runErr)

		return 1
	}

	return 0
}

func serveMetrics(ctx context.Context, log *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.InfoContext(ctx, "serving metrics", "addr", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	shutdown.BeforeShutdown("metrics", srv.Shutdown)
}

// writeDiagrams prints the player machine once per scenario, highlighting the
// path that entity took.
func writeDiagrams(out io.Writer, cfg *sim.FileConfig, results []sim.Result) error {
	for i, res := range results {
		if res.State == "" {
			continue
		}

		tuning := cfg.Player
		if p := cfg.Scenarios[i].Player; p != nil {
			tuning = *p
		}

		tuning.Name = res.Name

		opts := visualizer.DefaultOptions().
			WithShowKinds(false).
			WithDirection("LR").
			WithHighlightPath(res.Path())

		d, err := visualizer.GenerateMermaidWithOptions(player.MachineConfig(tuning), opts)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", res.Name, err)
		}

		fmt.Fprintf(out, "\n%%%% %s\n%s\n", res.Name, d)
	}

	return nil
}
