// Package worker はバックグラウンドジョブを定期実行するワーカーを提供する。
// 各ジョブは起動直後に1回実行され、以降は個別の間隔で繰り返される。
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job は定期実行されるジョブ。
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Worker は複数のジョブをerrgroupで並行実行する。
type Worker struct {
	jobs   []Job
	logger *slog.Logger
}

// New はWorkerを生成する。
func New(logger *slog.Logger, jobs ...Job) *Worker {
	return &Worker{
		jobs:   jobs,
		logger: logger,
	}
}

// Start はコンテキストがキャンセルされるまで全ジョブを実行する。
// ジョブの実行エラーはログに記録し、次の周期で再実行する。
func (w *Worker) Start(ctx context.Context) error {
	for _, job := range w.jobs {
		if job.Interval <= 0 {
			return fmt.Errorf("job %q: interval must be positive", job.Name)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, job := range w.jobs {
		g.Go(func() error {
			w.loop(ctx, job)
			return nil
		})
	}

	w.logger.Info("worker started", slog.Int("job_count", len(w.jobs)))
	err := g.Wait()
	w.logger.Info("worker stopped")
	return err
}

// loop は1つのジョブを間隔ごとに実行する。
func (w *Worker) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	w.logger.Info("job scheduled",
		slog.String("job", job.Name),
		slog.Duration("interval", job.Interval),
	)

	// 起動直後に1回実行
	w.runJob(ctx, job)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runJob(ctx, job)
		}
	}
}

func (w *Worker) runJob(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("job failed",
			slog.String("job", job.Name),
			slog.String("error", err.Error()),
			slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
		)
	}
}
