// Package api is the HTTP front door: a single scoring endpoint plus health
// probes, JSON-enveloped.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/writetoearn/scorer/internal/scorer"
	"github.com/writetoearn/scorer/internal/store"
)

// ScoreRunner runs one scoring kind to completion. Satisfied by
// scorer.Scorer; faked in tests.
type ScoreRunner interface {
	Score(ctx context.Context, requestID string, kind scorer.Kind, contentURL string, meta scorer.CampaignMeta) (*scorer.Result, error)
}

// Auditor records one row per score request. Satisfied by store.Store.
type Auditor interface {
	SaveRequest(ctx context.Context, r *store.ScoreRequest) error
}

// Handler serves the scoring API.
type Handler struct {
	scorer     ScoreRunner
	audit      Auditor
	production bool
	log        *slog.Logger
}

// NewHandler builds a Handler. audit may be nil to disable request auditing.
func NewHandler(runner ScoreRunner, audit Auditor, production bool, log *slog.Logger) *Handler {
	return &Handler{
		scorer:     runner,
		audit:      audit,
		production: production,
		log:        log.With("component", "api"),
	}
}

// NewRouter mounts the handler on a chi router with the standard middleware
// stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(handler.recoverMiddleware)
	r.Use(handler.loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, "ok", nil)
	})
	r.Get("/getscore", handler.getScore)

	return r
}

// scorePayload mirrors the client-facing result shape: the AI-authorship
// verdict under AIContent, the campaign scores under score.
type scorePayload struct {
	AIContent  *scorer.AICheckResult  `json:"AIContent"`
	Score      *scorer.CampaignResult `json:"score"`
	ContentURL string                 `json:"contentUrl"`
}

type scoreData struct {
	Result scorePayload `json:"result"`
}

func (h *Handler) getScore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contentURL := q.Get("contentUrl")
	meta := scorer.CampaignMeta{
		Description:    q.Get("campaignDescription"),
		Keywords:       q.Get("campaign_keywords"),
		TargetAudience: q.Get("target_audience"),
		CTAGoal:        q.Get("CTA_goal"),
	}

	if contentURL == "" || meta.Description == "" {
		writeError(w, http.StatusBadRequest, "Missing required query parameters: contentUrl and campaignDescription")
		return
	}

	requestID := requestIDFromContext(r.Context())
	start := time.Now()

	var aiResult, campaignResult *scorer.Result
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		res, err := h.scorer.Score(ctx, requestID, scorer.KindAICheck, contentURL, meta)
		aiResult = res
		return err
	})
	g.Go(func() error {
		res, err := h.scorer.Score(ctx, requestID, scorer.KindCampaign, contentURL, meta)
		campaignResult = res
		return err
	})

	err := g.Wait()
	h.recordRequest(r.Context(), requestID, contentURL, meta.Description, time.Since(start), err)
	if err != nil {
		h.log.Error("scoring failed", "request_id", requestID, "content_url", contentURL, "error", err)
		writeError(w, http.StatusInternalServerError, h.errorMessage(err))
		return
	}

	writeSuccess(w, "Content scored successfully", scoreData{Result: scorePayload{
		AIContent:  aiResult.AICheck,
		Score:      campaignResult.Campaign,
		ContentURL: contentURL,
	}})
}

// errorMessage masks internal detail in production.
func (h *Handler) errorMessage(err error) string {
	if h.production {
		return "Internal server error"
	}
	return err.Error()
}

func (h *Handler) recordRequest(ctx context.Context, requestID, contentURL, campaign string, elapsed time.Duration, runErr error) {
	if h.audit == nil {
		return
	}

	outcome := "ok"
	if runErr != nil {
		outcome = runErr.Error()
	}
	row := &store.ScoreRequest{
		ID:         requestID,
		ContentURL: contentURL,
		Campaign:   campaign,
		Outcome:    outcome,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.audit.SaveRequest(ctx, row); err != nil {
		h.log.Warn("failed to audit request", "request_id", requestID, "error", err)
	}
}
