package statemachine

import (
	"strings"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
)

// Transition is a legal status change.
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// forwardChain is the happy path; each state may only move to the next one.
var forwardChain = []models.OrderStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusReady,
	models.StatusOnRoute,
	models.StatusDelivered,
}

var validTransitions = func() []Transition {
	var ts []Transition
	for i := 0; i < len(forwardChain)-1; i++ {
		ts = append(ts, Transition{From: forwardChain[i], To: forwardChain[i+1]})
	}
	// cancel from any non-terminal state
	for _, s := range forwardChain[:len(forwardChain)-1] {
		ts = append(ts, Transition{From: s, To: models.StatusCanceled})
	}
	return ts
}()

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// Known reports whether s is a status of the machine.
func Known(s models.OrderStatus) bool {
	if s == models.StatusCanceled {
		return true
	}
	for _, c := range forwardChain {
		if c == s {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func Terminal(s models.OrderStatus) bool {
	return s == models.StatusDelivered || s == models.StatusCanceled
}

// ValidTransitionsFrom returns all legal next states.
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition returns nil when from -> to is legal. Staying in the same
// state is legal so retries are safe.
func CanTransition(from, to models.OrderStatus) error {
	if from == to && Known(from) {
		return nil
	}
	if transitionMap[Transition{From: from, To: to}] {
		return nil
	}
	return apperrors.New(apperrors.ErrIllegalTransition,
		"invalid transition: %s -> %s is not allowed. Valid transitions from %s are: %s",
		from, to, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
