package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/aegis-value/internal/brain"
	"github.com/wonny/aegis-value/pkg/logger"
)

// StrategyService is the part of brain.Strategy exposed over HTTP
type StrategyService interface {
	State() brain.State
	LastRun() *brain.RunResult
	ConfigHash() string
	Tick(ctx context.Context, now time.Time) (*brain.RunResult, error)
}

// StrategyHandler handles strategy API endpoints
// ⭐ SSOT: 전략 상태/수동 틱 API는 여기서만
type StrategyHandler struct {
	strategy StrategyService
	now      func() time.Time
	logger   *logger.Logger
}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler(strategy StrategyService, log *logger.Logger) *StrategyHandler {
	return &StrategyHandler{
		strategy: strategy,
		now:      time.Now,
		logger:   log,
	}
}

// StateResponse is the strategy state without the full universe list
type StateResponse struct {
	Month         int       `json:"month"`
	Period        int       `json:"period"`
	NextRebalance int       `json:"next_rebalance_month"`
	RebalanceNext bool      `json:"rebalance_on_next_tick"`
	UniverseIndex string    `json:"universe_index,omitempty"`
	UniverseCount int       `json:"universe_count"`
	BondYield     float64   `json:"bond_yield"`
	LastAsOf      string    `json:"last_as_of,omitempty"`
	LastRunID     string    `json:"last_run_id,omitempty"`
	ConfigHash    string    `json:"config_hash"`
	InitializedAt time.Time `json:"initialized_at"`
}

// GetState handles GET /api/strategy/state
func (h *StrategyHandler) GetState(w http.ResponseWriter, r *http.Request) {
	st := h.strategy.State()
	resp := StateResponse{
		Month:         st.Month,
		Period:        st.Period,
		NextRebalance: brain.NextRebalanceMonth(st.Month, st.Period),
		RebalanceNext: brain.IsRebalanceMonth(st.Month, st.Period),
		BondYield:     st.BondYield,
		LastRunID:     st.LastRunID,
		ConfigHash:    h.strategy.ConfigHash(),
		InitializedAt: st.Initialized,
	}
	if st.Universe != nil {
		resp.UniverseIndex = st.Universe.IndexID
		resp.UniverseCount = st.Universe.Count()
	}
	if !st.LastAsOf.IsZero() {
		resp.LastAsOf = st.LastAsOf.Format("2006-01-02")
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetLastRun handles GET /api/strategy/runs/last
func (h *StrategyHandler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	last := h.strategy.LastRun()
	if last == nil {
		respondError(w, http.StatusNotFound, "no run recorded yet")
		return
	}
	respondJSON(w, http.StatusOK, last)
}

// TickResponse wraps a manual tick outcome
type TickResponse struct {
	Result *brain.RunResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Tick handles POST /api/strategy/tick[?at=YYYY-MM-DD]
// 중단된 사이클은 422 + 결과
func (h *StrategyHandler) Tick(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	if at := r.URL.Query().Get("at"); at != "" {
		t, err := time.Parse("2006-01-02", at)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid at (YYYY-MM-DD)")
			return
		}
		now = t
	}

	result, err := h.strategy.Tick(r.Context(), now)
	if err != nil {
		h.logger.WithError(err).WithField("at", now.Format(time.RFC3339)).Warn("Manual tick failed")
		if result == nil {
			respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondJSON(w, http.StatusUnprocessableEntity, TickResponse{Result: result, Error: err.Error()})
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"status": result.Status,
	}).Info("Manual tick completed")
	respondJSON(w, http.StatusOK, TickResponse{Result: result})
}
