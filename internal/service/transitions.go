package service

import "github.com/team1306/purchase-tracker/internal/repository"

// transitions is the fixed state graph. Received and Completed are
// terminal. There is deliberately no Pending Approval -> Approved edge:
// full approval is a derived check, not a state mutation.
var transitions = map[repository.State][]repository.State{
	repository.StatePendingApproval: {repository.StateOnHold},
	repository.StateApproved:        {repository.StatePurchased, repository.StateOnHold},
	repository.StatePurchased:       {repository.StateReceived, repository.StateCompleted},
	repository.StateOnHold:          {repository.StatePendingApproval},
	repository.StateReceived:        {},
	repository.StateCompleted:       {},
}

// AvailableTransitions returns the allowed next states for a state.
// Unknown states yield an empty set.
func AvailableTransitions(state repository.State) []repository.State {
	next := transitions[state]
	out := make([]repository.State, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is an allowed state change.
func CanTransition(from, to repository.State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
