package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"crediflow/internal/app"
	"crediflow/internal/httputil"
	"crediflow/internal/profile"
	"crediflow/internal/queue"
	"crediflow/internal/store"
)

const (
	enqueueAttempts  = 3
	enqueueBaseDelay = 200 * time.Millisecond
	taskMaxAttempts  = 5
)

type scoreRequest struct {
	Email string   `json:"email" validate:"required,email"`
	PAN   string   `json:"pan" validate:"omitempty,alphanum,len=10"`
	SSI   *float64 `json:"ssi" validate:"omitempty,gte=0,lte=1"`
	SBI   *float64 `json:"sbi" validate:"omitempty,gte=0,lte=1"`
}

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to close dependencies", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	if err := httputil.Serve(ctx, deps.Log, addr, newRouter(deps)); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Metrics)

	r.Get("/api/user-data/{email}", userDataHandler(deps))
	r.Post("/api/score", scoreHandler(deps))
	r.Get("/api/reports", listReportsHandler(deps))
	r.Get("/api/reports/{id}", reportHandler(deps))
	r.Delete("/api/cache", purgeCacheHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Handle("/metrics", deps.Metrics.Handler())

	return r
}

func userDataHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := chi.URLParam(r, "email")
		pan := r.URL.Query().Get("pan")

		data, err := deps.Profiles.UserData(r.Context(), email, pan)
		if errors.Is(err, profile.ErrNoData) {
			httputil.Fail(deps.Log, w, "No data found for this user", err, http.StatusNotFound)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load user data", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, data)
	}
}

func scoreHandler(deps app.Deps) http.HandlerFunc {
	maxBody := deps.Config.MaxBodySize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if maxBody > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid JSON body", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		ssi, sbi := deps.Config.SSI, deps.Config.SBI
		if req.SSI != nil {
			ssi = *req.SSI
		}
		if req.SBI != nil {
			sbi = *req.SBI
		}

		report, err := deps.Store.CreateReport(ctx, store.Report{
			Email:  req.Email,
			PAN:    req.PAN,
			Params: []float64{ssi, sbi},
			Status: store.StatusPending,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist report", err, http.StatusInternalServerError)
			return
		}

		task, err := queue.NewScoreTask(queue.ScorePayload{
			ReportID: report.ID,
			Email:    report.Email,
			PAN:      report.PAN,
			SSI:      ssi,
			SBI:      sbi,
		}, taskMaxAttempts)
		if err != nil {
			fail(deps, ctx, w, "failed to build score task", err, report.ID, http.StatusInternalServerError, true)
			return
		}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, enqueueAttempts, enqueueBaseDelay); err != nil {
			fail(deps, ctx, w, "failed to enqueue report; please retry", err, report.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"report_id": report.ID.String(),
			"status":    report.Status,
		})
	}
}

// fail answers with an error and, when asked, marks the report failed.
func fail(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, reportID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("report_id", reportID)
	if markFailed && reportID != uuid.Nil {
		if upErr := deps.Store.UpdateReportStatus(ctx, reportID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark report failed", "err", upErr)
		}
	}

	httputil.Fail(log, w, message, err, status)
}

func reportHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		reportID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid report id", err, http.StatusBadRequest)
			return
		}
		report, err := deps.Store.GetReport(r.Context(), reportID)
		if errors.Is(err, store.ErrReportNotFound) {
			fail(deps, r.Context(), w, "report not found", err, reportID, http.StatusNotFound, false)
			return
		}
		if err != nil {
			fail(deps, r.Context(), w, "failed to load report", err, reportID, http.StatusInternalServerError, false)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, report)
	}
}

func listReportsHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if err := httputil.Validator.Var(email, "required,email"); err != nil {
			httputil.Fail(deps.Log, w, "a valid email query parameter is required", err, http.StatusBadRequest)
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				httputil.Fail(deps.Log, w, "limit must be a positive integer", err, http.StatusBadRequest)
				return
			}
			limit = n
		}

		reports, err := deps.Store.ListReports(r.Context(), email, limit)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list reports", err, http.StatusInternalServerError)
			return
		}
		if reports == nil {
			reports = []store.Report{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
	}
}

func purgeCacheHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Cache.Purge(r.Context()); err != nil {
			httputil.Fail(deps.Log, w, "failed to purge report cache", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("report cache purged")
		w.WriteHeader(http.StatusNoContent)
	}
}
