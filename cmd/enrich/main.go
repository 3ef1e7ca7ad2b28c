package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/cognicore/enrich/internal/llm"
	"github.com/cognicore/enrich/pkg/enrich"
	"github.com/cognicore/enrich/pkg/enrich/config"
	"github.com/cognicore/enrich/pkg/enrich/extract"
	"github.com/cognicore/enrich/pkg/enrich/store/jsonfile"
	"github.com/cognicore/enrich/pkg/enrich/store/runlog"
	"github.com/cognicore/enrich/pkg/enrich/unify"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "Input batch path (overrides config)")
		outputPath = flag.String("output", "", "Output batch path (overrides config)")
		configPath = flag.String("config", "", "YAML config file (optional)")
	)
	flag.Parse()

	// A .env file is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *inputPath != "" {
		cfg.Input = *inputPath
	}
	if *outputPath != "" {
		cfg.Output = *outputPath
	}

	client := &llm.Client{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}

	pipeline := enrich.New(enrich.Options{
		Extractor: &extract.Extractor{
			Completer:      client,
			MaxPromptChars: cfg.Limits.MaxPromptChars,
			MaxTags:        cfg.Limits.MaxTags,
		},
		Unifier: &unify.Unifier{Completer: client},
	})

	ctx := context.Background()

	posts, err := jsonfile.Load(cfg.Input)
	if err != nil {
		log.Fatal("load posts: ", err)
	}

	started := time.Now()
	enriched, report := pipeline.Run(ctx, posts)

	if err := jsonfile.Save(cfg.Output, enriched); err != nil {
		log.Fatal("save posts: ", err)
	}

	log.Printf("saved %d posts to %s (skipped %d, extraction fallbacks %d, unify fallback %v)",
		report.PostsOut, cfg.Output, report.Skipped, report.ExtractFallbacks, report.UnifyFallback)

	if cfg.RunLog != "" {
		recordRun(ctx, cfg, report, started)
	}
}

// recordRun appends to the audit trail. Run-log problems are reported but
// never fail a run whose output is already written.
func recordRun(ctx context.Context, cfg config.Config, report enrich.Report, started time.Time) {
	store, err := runlog.Open(ctx, cfg.RunLog)
	if err != nil {
		log.Printf("run log unavailable: %v", err)
		return
	}
	defer store.Close()

	err = store.Record(ctx, runlog.Run{
		StartedAt:        started,
		FinishedAt:       time.Now(),
		InputPath:        cfg.Input,
		OutputPath:       cfg.Output,
		PostsIn:          report.PostsIn,
		PostsOut:         report.PostsOut,
		Skipped:          report.Skipped,
		ExtractFallbacks: report.ExtractFallbacks,
		UnifyFallback:    report.UnifyFallback,
	})
	if err != nil {
		log.Printf("record run: %v", err)
	}
}
