// Command graflow runs a single workflow file to completion against
// parameters read from the JSON file named by -params (or {} when the
// flag is absent), printing the live event stream to the console. Grounded on the teacher's examples/ demo programs (since
// pruned as redundant duplicates of the same concept) and
// metrics_display.go's ANSI summary formatting.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/graflow/graflow/internal/domain"
	"github.com/graflow/graflow/internal/executors"
	"github.com/graflow/graflow/internal/infrastructure/config"
	"github.com/graflow/graflow/internal/infrastructure/logger"
	"github.com/graflow/graflow/internal/infrastructure/monitoring"
	"github.com/graflow/graflow/internal/infrastructure/storage"
	"github.com/graflow/graflow/internal/infrastructure/workflowfile"
	"github.com/graflow/graflow/internal/orchestrator"
	"github.com/graflow/graflow/internal/registry"
	"github.com/graflow/graflow/internal/stream"
)

const (
	colorReset = "\033[0m"
	colorBlue  = "\033[34m"
	bold       = "\033[1m"
)

func main() {
	workflowPath := flag.String("workflow", "", "path to a workflow definition (.yaml or .json)")
	paramsPath := flag.String("params", "", "path to a JSON file of execution parameters (defaults to {})")
	flag.Parse()

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "usage: graflow -workflow <path> [-params <path>]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, true)

	workflow, err := workflowfile.Load(*workflowPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load workflow")
		os.Exit(1)
	}

	parameters, err := loadParameters(*paramsPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load parameters")
		os.Exit(1)
	}

	workflows := storage.NewWorkflowStore()
	workflows.Put(workflow)

	reg := registry.New()
	reg.RegisterBuiltin(executors.NewHTTPExecutor())
	reg.RegisterBuiltin(executors.NewTransformExecutor())
	if cfg.OpenAIAPIKey != "" {
		reg.RegisterBuiltin(executors.NewLLMExecutor(cfg.OpenAIAPIKey))
	}

	orch := orchestrator.New(storage.NewMemoryJournal(), reg, workflows, log, cfg.GetMaxIterationsDefault())
	reg.SetCustomExecutorFactory(orch.CustomExecutorFactory())

	metrics := monitoring.NewMetricsCollector()
	orch.AddObserver(metrics)

	execution := domain.NewExecution(uuid.NewString(), workflow.ID, parameters, nil, workflow.DefaultConfigID)
	sink := monitoring.NewConsoleSink()

	result, err := orch.Execute(context.Background(), workflow, execution, stream.Context{Sink: sink})

	displaySummary(metrics.Summary())

	if err != nil {
		fmt.Fprintf(os.Stderr, "%sexecution failed: %v%s\n", "\033[31m", err, colorReset)
		os.Exit(1)
	}

	output, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("\n%sresult:%s\n%s\n", bold, colorReset, output)
}

func loadParameters(path string) (map[string]any, error) {
	var raw []byte
	var err error
	switch {
	case path != "":
		raw, err = os.ReadFile(path)
	default:
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	params := map[string]any{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}

func displaySummary(summary monitoring.MetricsSummary) {
	fmt.Printf("\n%s%s=== Execution Metrics ===%s\n\n", bold, colorBlue, colorReset)
	for workflowID, wm := range summary.Workflows {
		fmt.Printf("  workflow %-20s executions=%d failures=%d total_time=%s\n", workflowID, wm.Executions, wm.Failures, wm.TotalTime)
	}
	for nodeType, nm := range summary.NodeTypes {
		fmt.Printf("  node type %-20s executions=%d failures=%d total_time=%s\n", nodeType, nm.Executions, nm.Failures, nm.TotalTime)
	}
}
