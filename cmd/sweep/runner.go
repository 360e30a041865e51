package main

import (
	"context"
	"strings"
	"sync"
	"time"

	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/errors/v2"

	"github.com/mosheduminer/lmql/common/config"
	"github.com/mosheduminer/lmql/openai"
	"github.com/mosheduminer/lmql/tokenizer"
)

// run executes every scenario with bounded concurrency and renders the
// matrix. All scenarios share one client, so they also share one capacity
// controller, the way embedding programs use the package.
func run(ctx context.Context, logger glog.Logger) error {
	scenarios, err := loadScenarios(config.SweepScenarioFile)
	if err != nil {
		return errors.Wrap(err, "load scenarios")
	}

	logger.Info("starting streaming sweep",
		zap.String("scenario_file", config.SweepScenarioFile),
		zap.Int("scenario_count", len(scenarios)),
		zap.Int("concurrency", config.SweepConcurrency),
	)

	tok := tokenizer.New(config.TokenizerEncoding)
	client := openai.NewClient(openai.WithTokenizer(tok))

	outcomes := make(chan outcome, len(scenarios))

	var (
		results   []outcome
		collectWg sync.WaitGroup
	)
	collectWg.Go(func() {
		for out := range outcomes {
			results = append(results, out)
			if out.Err == nil {
				logger.Info("scenario finished",
					zap.String("scenario", out.Scenario),
					zap.String("model", out.Model),
					zap.Int("events", out.Events),
					zap.Duration("duration", out.Duration),
				)
				continue
			}
			logger.Warn("scenario failed",
				zap.String("scenario", out.Scenario),
				zap.String("model", out.Model),
				zap.Int("events", out.Events),
				zap.Duration("duration", out.Duration),
				zap.Error(out.Err),
			)
		}
	})

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(config.SweepConcurrency)
	for _, sc := range scenarios {
		grp.Go(func() error {
			out := execute(grpCtx, client, tok, sc)
			select {
			case outcomes <- out:
			case <-grpCtx.Done():
			}
			return nil
		})
	}

	_ = grp.Wait()
	close(outcomes)
	collectWg.Wait()

	rep := buildReport(scenarios, results)
	renderReport(rep)

	if rep.failedCount > 0 {
		return errors.Errorf("%d of %d scenarios failed", rep.failedCount, len(scenarios))
	}
	return nil
}

// execute runs a single scenario and collapses its stream into an outcome.
func execute(ctx context.Context, client *openai.Client, tok *tokenizer.Tokenizer, sc scenario) outcome {
	start := time.Now()
	out := outcome{
		Scenario: sc.Name,
		Model:    sc.Model,
		Format:   formatName(sc.Model),
	}
	defer func() { out.Duration = time.Since(start) }()

	prompts := sc.prompts()
	if ids, err := tok.TokenizeIDs(strings.Join(prompts, "\n")); err == nil {
		out.PromptTokens = len(ids)
	}

	req := &openai.GenerationRequest{
		Model:       sc.Model,
		Prompt:      prompts,
		MaxTokens:   sc.MaxTokens,
		Temperature: sc.Temperature,
		Stream:      true,
		Echo:        sc.Echo,
	}
	if sc.Endpoint != "" {
		req.APIConfig = &openai.APIConfig{Endpoint: sc.Endpoint}
	}
	if sc.ChunkTimeout > 0 {
		req.ChunkTimeout = time.Duration(sc.ChunkTimeout * float64(time.Second))
	}

	stream, err := client.Complete(ctx, req)
	if err != nil {
		out.Err = err
		return out
	}

	var text strings.Builder
	for ev := range stream.Events() {
		out.Events++
		for _, choice := range ev.Choices {
			if choice.Index == 0 {
				text.WriteString(choice.Text)
			}
		}
	}
	out.Text = text.String()
	out.Err = stream.Err()
	return out
}

func formatName(model string) string {
	if openai.IsChatModel(model) {
		return "chat"
	}
	return "completion"
}
