package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-value/internal/contracts"
	"github.com/wonny/aegis-value/pkg/logger"
)

// OrderJournal persists order intents and their outcome
type OrderJournal interface {
	SaveOrders(ctx context.Context, orders []contracts.Order) error
	UpdateRunStatus(ctx context.Context, runID string, status contracts.Status) error
}

// JournalingExecutor records every submitted plan before and after delegating
type JournalingExecutor struct {
	next    contracts.Executor
	journal OrderJournal
	planner *Planner
	logger  *logger.Logger
}

// NewJournalingExecutor wraps an executor with an order journal
func NewJournalingExecutor(next contracts.Executor, journal OrderJournal, logger *logger.Logger) *JournalingExecutor {
	return &JournalingExecutor{
		next:    next,
		journal: journal,
		planner: NewPlanner(),
		logger:  logger,
	}
}

// Holdings delegates to the wrapped executor
func (e *JournalingExecutor) Holdings(ctx context.Context) (map[string]decimal.Decimal, error) {
	return e.next.Holdings(ctx)
}

// TotalValue delegates to the wrapped executor
func (e *JournalingExecutor) TotalValue(ctx context.Context) (decimal.Decimal, error) {
	return e.next.TotalValue(ctx)
}

// Submit saves PENDING orders, submits, then marks them SUBMITTED or REJECTED
func (e *JournalingExecutor) Submit(ctx context.Context, plan *contracts.RebalancePlan) error {
	orders := e.planner.Orders(plan)
	if err := e.journal.SaveOrders(ctx, orders); err != nil {
		return fmt.Errorf("journal orders: %w", err)
	}

	submitErr := e.next.Submit(ctx, plan)

	status := contracts.StatusSubmitted
	if submitErr != nil {
		status = contracts.StatusRejected
	}
	if err := e.journal.UpdateRunStatus(ctx, plan.RunID, status); err != nil {
		e.logger.WithError(err).WithField("run_id", plan.RunID).Error("Failed to update order status")
	}

	if submitErr != nil {
		return fmt.Errorf("submit: %w", submitErr)
	}
	return nil
}

// MemoryJournal keeps orders in memory
type MemoryJournal struct {
	mu     sync.Mutex
	orders []contracts.Order
}

// NewMemoryJournal creates an empty journal
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// SaveOrders appends orders
func (j *MemoryJournal) SaveOrders(ctx context.Context, orders []contracts.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders = append(j.orders, orders...)
	return nil
}

// UpdateRunStatus sets the status of every order of a run
func (j *MemoryJournal) UpdateRunStatus(ctx context.Context, runID string, status contracts.Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.orders {
		if j.orders[i].RunID == runID {
			j.orders[i].Status = status
		}
	}
	return nil
}

// Orders returns a copy of all orders
func (j *MemoryJournal) Orders() []contracts.Order {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]contracts.Order(nil), j.orders...)
}
