package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
	"github.com/nidhogg/echoes/internal/compare"
	"github.com/nidhogg/echoes/internal/config"
	"github.com/nidhogg/echoes/internal/provider"
	"github.com/nidhogg/echoes/internal/songdb"
	"github.com/nidhogg/echoes/internal/tools"
)

func main() {
	_ = godotenv.Load()

	modelsFlag := flag.String("models", "gpt-4o-mini,gpt-4o", "comma-separated models to compare")
	suite := flag.String("suite", "all", "test suite to run: all, simple or complex")
	out := flag.String("out", "", "results file (default comparison_results/model_comparison_<timestamp>.json)")
	cfgPath := flag.String("config", "configs/echoes.json", "config file path")
	iterations := flag.Int("iterations", 0, "max reasoning iterations per query (0 uses the config value)")
	verbose := flag.Bool("verbose", false, "print per-query results after the summary")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if cfg.OpenAI.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is not set")
		os.Exit(1)
	}

	models := splitModels(*modelsFlag)
	if len(models) < 2 {
		fmt.Fprintln(os.Stderr, "need at least two models to compare")
		os.Exit(1)
	}
	for _, m := range models {
		if !agent.ModelSupported(m) {
			fmt.Fprintf(os.Stderr, "unsupported model %q, available: %s\n",
				m, strings.Join(agent.SupportedModels, ", "))
			os.Exit(1)
		}
	}

	var cases []compare.TestCase
	switch *suite {
	case "all":
		cases = compare.AllCases()
	case "simple":
		cases = compare.SimpleCases()
	case "complex":
		cases = compare.ComplexCases()
	default:
		fmt.Fprintf(os.Stderr, "unknown suite %q\n", *suite)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	songs, err := songdb.Open(cfg.Database.SongsPath)
	if err != nil {
		logger.Fatal("failed to open songs database", zap.Error(err))
	}
	defer songs.Close()

	llm := provider.NewOpenAI(provider.Config{
		Endpoint: cfg.OpenAI.Endpoint,
		APIKey:   cfg.OpenAI.APIKey,
		Timeout:  time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
	}, logger)

	registry := agent.NewToolRegistry()
	tools.RegisterAll(registry, songs, logger)
	prompts := agent.NewPromptRegistry()

	build := func(model string) (*agent.Executor, error) {
		a, buildErr := agent.New(agent.Config{
			Model:             model,
			Variant:           cfg.Agent.Variant,
			Temperature:       cfg.Agent.Temperature,
			MaxTokens:         cfg.Agent.MaxTokens,
			UseAdaptivePrompt: cfg.Agent.AdaptivePrompt,
			EnableReflection:  cfg.Agent.Reflection,
			Provider:          llm,
			Tools:             registry,
			Prompts:           prompts,
			Logger:            logger,
		})
		if buildErr != nil {
			return nil, buildErr
		}
		return agent.NewExecutor(a, model, logger), nil
	}

	evaluator := compare.NewEvaluator(models, build, logger)
	if *iterations > 0 {
		evaluator.SetMaxIterations(*iterations)
	} else {
		evaluator.SetMaxIterations(cfg.Agent.MaxIterations)
	}

	fmt.Printf("Comparing %s over %d test cases...\n", strings.Join(models, ", "), len(cases))
	start := time.Now()
	evaluator.Run(context.Background(), cases)
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())

	evaluator.WriteSummary(os.Stdout)
	if *verbose {
		printDetails(models, evaluator.Results())
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("comparison_results/model_comparison_%s.json",
			time.Now().Format("20060102_150405"))
	}
	if err := evaluator.SaveResults(path); err != nil {
		logger.Fatal("failed to save results", zap.Error(err))
	}
	fmt.Printf("Results saved to %s\n", path)
}

func splitModels(s string) []string {
	var models []string
	for _, part := range strings.Split(s, ",") {
		if m := strings.TrimSpace(part); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func printDetails(models []string, results map[string][]compare.Result) {
	for _, model := range models {
		fmt.Printf("\n%s\n", model)
		for _, r := range results[model] {
			status := "ok"
			if strings.Contains(strings.ToLower(r.Answer), "error") {
				status = "error"
			}
			fmt.Printf("  [%d] %-5s %.2fs $%.6f %d steps | %.60s\n",
				r.TestCase.ID, status, r.Metrics.ExecutionTimeSeconds,
				r.Metrics.EstimatedCostUSD, r.Metrics.NumSteps, r.Query)
		}
	}
}
