package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"crediflow/internal/app"
	"crediflow/internal/httputil"
	"crediflow/internal/profile"
	"crediflow/internal/prompt"
	"crediflow/internal/queue"
	"crediflow/internal/store"
)

// failureNoData marks reports whose user has no datasets.
const failureNoData = "no_data"

func main() {
	deps, err := app.BuildScorer()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to close dependencies", "err", err)
		}
	}()
	deps.Log.Info("scorer starting", "model", deps.Scoring.Model())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeScore, handleScore(deps))
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", deps.Config.HealthPort)
		return httputil.Serve(ctx, deps.Log, addr, healthRouter(deps))
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("scorer stopped", "err", err)
	}
}

func healthRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Metrics)
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Handle("/metrics", deps.Metrics.Handler())
	return r
}

// handleScore produces one report. Returned errors are retried by the queue;
// on the last attempt the report is marked failed first.
func handleScore(deps app.Deps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		payload, err := queue.DecodeScorePayload(task)
		if err != nil {
			deps.Log.Error("dropping malformed score task", "task_id", task.ID, "err", err)
			deps.Metrics.TaskHandled(string(task.Type), "rejected")
			return nil
		}
		log := deps.Log.With("report_id", payload.ReportID, "task_id", task.ID, "attempt", task.Attempts+1)

		outcome, err := score(ctx, deps, payload)
		if errors.Is(err, store.ErrReportNotFound) {
			log.Warn("dropping score task for unknown report")
			deps.Metrics.TaskHandled(string(task.Type), "rejected")
			return nil
		}
		if err != nil {
			if !task.LastAttempt() {
				log.Warn("score task failed, will retry", "err", err)
				deps.Metrics.TaskHandled(string(task.Type), "retry")
				return err
			}
			outcome = store.Outcome{Status: store.StatusFailed, Failure: "internal_error", Text: err.Error()}
		}

		if err := deps.Store.CompleteReport(ctx, payload.ReportID, outcome); err != nil {
			if errors.Is(err, store.ErrReportNotFound) {
				log.Warn("report vanished before completion")
				return nil
			}
			return fmt.Errorf("failed to complete report: %w", err)
		}
		deps.Metrics.TaskHandled(string(task.Type), string(outcome.Status))
		log.Info("report completed", "status", outcome.Status, "failure", outcome.Failure, "cached", outcome.Cached)
		return nil
	}
}

func score(ctx context.Context, deps app.Deps, payload queue.ScorePayload) (store.Outcome, error) {
	if err := deps.Store.UpdateReportStatus(ctx, payload.ReportID, store.StatusProcessing); err != nil {
		return store.Outcome{}, fmt.Errorf("failed to mark report processing: %w", err)
	}

	res, err := deps.Profiles.Resolve(ctx, payload.Email, payload.PAN)
	if errors.Is(err, profile.ErrNoData) {
		return store.Outcome{Status: store.StatusFailed, Failure: failureNoData, Text: err.Error()}, nil
	}
	if err != nil {
		return store.Outcome{}, fmt.Errorf("failed to resolve user data: %w", err)
	}

	text := prompt.Build(res.Transactions, res.Income, prompt.Params{SSI: payload.SSI, SBI: payload.SBI}, deps.Config.HeadRows)
	result := deps.Scoring.Score(ctx, text)

	outcome := store.Outcome{
		Status: store.StatusReady,
		Model:  result.Model,
		Text:   result.String(),
		Cached: result.Cached,
	}
	if !result.OK() {
		outcome.Status = store.StatusFailed
		outcome.Failure = string(result.Failure)
	}
	return outcome, nil
}
