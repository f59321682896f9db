package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/STTM-NSU/financeel/internal/portfolio"
	"github.com/STTM-NSU/financeel/internal/quotes"
	"github.com/STTM-NSU/financeel/internal/tools"
	"github.com/STTM-NSU/financeel/internal/tracker"
	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Portfolio is the part of tracker.Tracker the API serves.
type Portfolio interface {
	AddPosition(ctx context.Context, symbol string, quantity int64, unitCost decimal.NullDecimal) (model.Position, error)
	RemovePosition(ctx context.Context, index int) (model.Position, error)
	Clear(ctx context.Context) error
	Refresh(ctx context.Context) error
	Refreshing() bool
	Valuation() ([]model.Row, model.Totals)
	LastRefreshed() time.Time
}

type Handler struct {
	portfolio Portfolio
	display   tools.DisplayPolicy
	now       func() time.Time

	logger logger.Logger
}

func NewHandler(p Portfolio, display tools.DisplayPolicy, logger logger.Logger) *Handler {
	return &Handler{
		portfolio: p,
		display:   display,
		now:       time.Now,
		logger:    logger.With("component", "api"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.health)

	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.getPortfolio)
		r.Delete("/", h.clearPortfolio)
		r.Post("/positions", h.addPosition)
		r.Delete("/positions/{index}", h.removePosition)
		r.Post("/refresh", h.refresh)
	})
}

type addPositionRequest struct {
	Symbol   string              `json:"symbol"`
	Quantity int64               `json:"quantity"`
	UnitCost decimal.NullDecimal `json:"unit_cost"`
}

type portfolioView struct {
	Rows           []model.Row         `json:"rows"`
	Totals         model.Totals        `json:"totals"`
	Display        []tools.DisplayRow  `json:"display"`
	DisplayTotals  tools.DisplayTotals `json:"display_totals"`
	LastUpdate     *time.Time          `json:"last_update"`
	LastUpdateText string              `json:"last_update_text"`
	Refreshing     bool                `json:"refreshing"`
}

type errorView struct {
	Error string `json:"error"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getPortfolio(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.view())
}

func (h *Handler) view() portfolioView {
	rows, totals := h.portfolio.Valuation()
	v := portfolioView{
		Rows:           rows,
		Totals:         totals,
		Display:        h.display.Rows(rows),
		DisplayTotals:  h.display.Totals(totals),
		LastUpdateText: h.display.Since(h.now(), h.portfolio.LastRefreshed()),
		Refreshing:     h.portfolio.Refreshing(),
	}
	if last := h.portfolio.LastRefreshed(); !last.IsZero() {
		v.LastUpdate = &last
	}
	return v
}

func (h *Handler) addPosition(w http.ResponseWriter, r *http.Request) {
	var req addPositionRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	p, err := h.portfolio.AddPosition(r.Context(), req.Symbol, req.Quantity, req.UnitCost)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, p)
	case errors.Is(err, tracker.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrSymbolNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrPriceUnavailable):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Errorf("%s: can't add position", err)
		h.writeError(w, http.StatusInternalServerError, "can't add position")
	}
}

func (h *Handler) removePosition(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	_, err = h.portfolio.RemovePosition(r.Context(), index)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, portfolio.ErrIndexOutOfRange):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorf("%s: can't remove position", err)
		h.writeError(w, http.StatusInternalServerError, "can't remove position")
	}
}

func (h *Handler) clearPortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolio.Clear(r.Context()); err != nil {
		h.logger.Errorf("%s: can't clear portfolio", err)
		h.writeError(w, http.StatusInternalServerError, "can't clear portfolio")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	err := h.portfolio.Refresh(r.Context())
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, h.view())
	case errors.Is(err, quotes.ErrRefreshInProgress):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, quotes.ErrRefreshFailed):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Errorf("%s: refresh failed", err)
		h.writeError(w, http.StatusInternalServerError, "refresh failed")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := sonic.Marshal(data)
	if err != nil {
		h.logger.Errorf("%s: can't encode response", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Debugf("%s: can't write response", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorView{Error: msg})
}
