package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/intervue-ai/intervue/pkg/cache/memory"
	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/interview"
	"github.com/intervue-ai/intervue/pkg/llm"
	"github.com/intervue-ai/intervue/pkg/models"
	"github.com/intervue-ai/intervue/pkg/rapidfire"
	"github.com/intervue-ai/intervue/pkg/server"
	"github.com/intervue-ai/intervue/pkg/tracker"
)

const sweepInterval = time.Hour

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interview API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init tracker: %w", err)
			}
			defer func() { _ = tr.Close() }()

			var client llm.Client
			if g, err := llm.NewGemini(ctx, cfg.LLM); err != nil {
				log.Printf("llm disabled: %v", err)
			} else {
				client = g
			}

			var cache *interview.QuestionCache
			if cfg.Cache.Enabled {
				cache = newCache(cfg.Cache)
				go sweep(ctx, cache)
			}

			bank, err := rapidfire.Load(cfg.RapidFire.QuestionBank)
			if err != nil {
				log.Printf("rapid fire disabled: %v", err)
			}

			srv := server.New(cfg, interview.New(cfg, client, tr, cache, bank))
			log.Printf("starting intervue with db %s", cfg.DBPath)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "intervue.yaml", "path to config file")
	return cmd
}

func newCache(cfg config.CacheConfig) *interview.QuestionCache {
	return memory.New[models.Question, models.Analysis](
		memory.WithTTL(cfg.TTL),
		memory.WithMaxPoolSize(cfg.MaxPoolSize),
		memory.WithThreshold(cfg.SimilarityThreshold),
		memory.WithMaxSimilarReuse(cfg.MaxSimilarReuse),
		memory.WithAPICooldown(cfg.APICooldown),
	)
}

// sweep drops expired cache entries until ctx is done.
func sweep(ctx context.Context, cache *interview.QuestionCache) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := cache.SweepExpired(); n > 0 {
				log.Printf("cache: swept %d expired entries", n)
			}
		}
	}
}
