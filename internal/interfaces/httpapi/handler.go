package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/mercury-team/internal/domain/changelog"
	"github.com/riskibarqy/mercury-team/internal/platform/logging"
	"github.com/riskibarqy/mercury-team/internal/usecase"
)

type fixtureReader interface {
	Query(ctx context.Context, filter string, limit int) ([]usecase.FixtureView, error)
	GetByID(ctx context.Context, fixtureID string) (usecase.FixtureView, error)
	Next(ctx context.Context) (usecase.FixtureView, bool, error)
	ChangeLog(ctx context.Context, limit int) ([]changelog.Entry, error)
}

type syncRunner interface {
	Run(ctx context.Context) (usecase.SyncResult, error)
}

type Handler struct {
	fixtures  fixtureReader
	sync      syncRunner
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(fixtures fixtureReader, sync syncRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		fixtures:  fixtures,
		sync:      sync,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	req, err := parseListFixturesRequest(r)
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	views, err := h.fixtures.Query(ctx, req.Filter, req.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "filter", req.Filter, "limit", req.Limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(views))
	for _, view := range views {
		items = append(items, fixtureToDTO(view))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetNextFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetNextFixture")
	defer span.End()

	view, ok, err := h.fixtures.Next(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get next fixture failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no upcoming fixture", usecase.ErrNotFound))
		return
	}
	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(view))
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture")
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	view, err := h.fixtures.GetByID(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(view))
}

func (h *Handler) ListChanges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChanges")
	defer span.End()

	req, err := parseListChangesRequest(r)
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := h.fixtures.ChangeLog(ctx, req.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list changes failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]changeEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, changeEntryDTO{Timestamp: entry.Timestamp, Changes: entry.Changes})
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSync")
	defer span.End()

	if h.sync == nil {
		writeError(ctx, w, fmt.Errorf("%w: sync is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.sync.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "sync pass failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, syncResultToDTO(result))
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func parseListFixturesRequest(r *http.Request) (listFixturesRequest, error) {
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		return listFixturesRequest{}, err
	}
	return listFixturesRequest{
		Filter: strings.ToLower(strings.TrimSpace(query.Get("filter"))),
		Limit:  limit,
	}, nil
}

func parseListChangesRequest(r *http.Request) (listChangesRequest, error) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		return listChangesRequest{}, err
	}
	return listChangesRequest{Limit: limit}, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput)
	}
	return limit, nil
}
