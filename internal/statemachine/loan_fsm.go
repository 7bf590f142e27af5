package statemachine

import (
	"context"
	"fmt"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/looplab/fsm"
)

const (
	stateActive = "active"
	stateClosed = "closed"
)

func stateName(status int) string {
	if status == models.LoanStatusActive {
		return stateActive
	}
	return stateClosed
}

func stateStatus(state string) int {
	if state == stateActive {
		return models.LoanStatusActive
	}
	return models.LoanStatusClosed
}

// LoanFSM wraps a loan with its lifecycle state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		stateName(loan.Status),
		fsm.Events{
			// active → closed
			{Name: "close", Src: []string{stateActive}, Dst: stateClosed},

			// closed → active (undo a closure)
			{Name: "reopen", Src: []string{stateClosed}, Dst: stateActive},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Close transitions the loan to closed state
func (l *LoanFSM) Close(ctx context.Context) error {
	if !l.loan.MayClose() {
		return fmt.Errorf("loan cannot be closed in current state: %s", stateName(l.loan.Status))
	}

	if err := l.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close loan: %w", err)
	}

	l.loan.Status = stateStatus(l.fsm.Current())
	return nil
}

// Reopen transitions the loan back to active state
func (l *LoanFSM) Reopen(ctx context.Context) error {
	if !l.loan.MayReopen() {
		return fmt.Errorf("loan cannot be reopened in current state: %s", stateName(l.loan.Status))
	}

	if err := l.fsm.Event(ctx, "reopen"); err != nil {
		return fmt.Errorf("failed to reopen loan: %w", err)
	}

	l.loan.Status = stateStatus(l.fsm.Current())
	return nil
}

// Current returns the current state name
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
