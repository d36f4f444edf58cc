// Command fraudgraph operates the fraud-ring detection engine: it runs the
// graph analytics pipeline, explains individual transactions, and checks
// component health against a live graph store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-fraudgraph/pkg/analytics"
	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/explain"
	"github.com/dd0wney/cluso-fraudgraph/pkg/health"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/metrics"
	"github.com/dd0wney/cluso-fraudgraph/pkg/rules"
	"github.com/dd0wney/cluso-fraudgraph/pkg/scores"
	"github.com/dd0wney/cluso-fraudgraph/pkg/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config file (optional)")
		runPipeline = flag.Bool("pipeline", false, "run the analytics pipeline")
		explainTx   = flag.String("explain", "", "explain the transaction with this id")
		checkHealth = flag.Bool("check", false, "check store connectivity and exit")
	)
	flag.Parse()

	if !*runPipeline && *explainTx == "" && !*checkHealth {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -pipeline, -explain <txId> or -check")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *runPipeline, *explainTx, *checkHealth); err != nil {
		logger.Error("fraudgraph failed", logging.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger, runPipeline bool, explainTx string, checkHealth bool) error {
	graphStore, err := store.NewNeo4jStore(cfg.StoreOptions(), logger)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer graphStore.Close(context.Background())

	registry := metrics.NewRegistry()

	if checkHealth {
		return printHealth(ctx, graphStore)
	}

	if runPipeline {
		pipeline := analytics.NewPipeline(graphStore, analytics.NewRegistry(), cfg.PipelineOptions(), logger, registry)
		if err := pipeline.Run(ctx, ""); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}

	if explainTx != "" {
		explainer, err := buildExplainer(cfg, graphStore, logger, registry)
		if err != nil {
			return err
		}
		result, err := explainer.Explain(ctx, explainTx)
		if err != nil {
			return fmt.Errorf("explain: %w", err)
		}
		return printJSON(result)
	}

	return nil
}

func buildExplainer(cfg *config.Config, graphStore store.Store, logger logging.Logger, registry *metrics.Registry) (*explain.Explainer, error) {
	fanIn, err := rules.NewFanInDetector(graphStore, cfg.FanInOptions(), logger, registry)
	if err != nil {
		return nil, fmt.Errorf("fan-in detector: %w", err)
	}
	circular, err := rules.NewCircularFlowDetector(graphStore, cfg.CircularFlowOptions(), logger, registry)
	if err != nil {
		return nil, fmt.Errorf("circular-flow detector: %w", err)
	}

	lookup := scores.NewLookup(graphStore, logger)
	detectors := []rules.Detector{fanIn, circular}

	explainer, err := explain.NewExplainer(graphStore, lookup, detectors, cfg.ExplainOptions(), logger, registry)
	if err != nil {
		return nil, fmt.Errorf("explainer: %w", err)
	}
	return explainer, nil
}

func printHealth(ctx context.Context, graphStore store.Store) error {
	checker := health.NewHealthChecker()
	checker.RegisterCheck("store", health.StoreCheck(graphStore.Ping))
	checker.RegisterCheck("memory", health.MemoryCheck())

	response := checker.Check(ctx)
	if err := printJSON(response); err != nil {
		return err
	}
	if response.Status == health.StatusUnhealthy {
		return fmt.Errorf("health check failed: %s", response.Status)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
