package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/team1306/purchase-tracker/internal/repository"
)

func TestAvailableTransitions(t *testing.T) {
	tests := []struct {
		name     string
		state    repository.State
		expected []repository.State
	}{
		{
			name:     "pending approval can only go on hold",
			state:    repository.StatePendingApproval,
			expected: []repository.State{repository.StateOnHold},
		},
		{
			name:     "approved goes to purchased or on hold",
			state:    repository.StateApproved,
			expected: []repository.State{repository.StatePurchased, repository.StateOnHold},
		},
		{
			name:     "purchased goes to received or completed",
			state:    repository.StatePurchased,
			expected: []repository.State{repository.StateReceived, repository.StateCompleted},
		},
		{
			name:     "on hold returns to pending approval",
			state:    repository.StateOnHold,
			expected: []repository.State{repository.StatePendingApproval},
		},
		{
			name:     "received is terminal",
			state:    repository.StateReceived,
			expected: []repository.State{},
		},
		{
			name:     "completed is terminal",
			state:    repository.StateCompleted,
			expected: []repository.State{},
		},
		{
			name:     "unknown state yields empty set",
			state:    repository.State("Bogus"),
			expected: []repository.State{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AvailableTransitions(tt.state))
		})
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(repository.StateApproved, repository.StatePurchased))
	assert.True(t, CanTransition(repository.StateOnHold, repository.StatePendingApproval))

	// no shortcut from pending approval to approved
	assert.False(t, CanTransition(repository.StatePendingApproval, repository.StateApproved))
	assert.False(t, CanTransition(repository.StateCompleted, repository.StatePendingApproval))
	assert.False(t, CanTransition(repository.State("Bogus"), repository.StateOnHold))
}
