package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team1306/purchase-tracker/internal/repository"
)

func testRoster() *repository.Roster {
	return repository.NewRoster(map[string][]string{
		repository.GroupPresidents: {"Pat President"},
		repository.GroupLeadership: {"Lee Leader", "Pat President"},
		repository.GroupMentors:    {"Mia Mentor"},
		repository.GroupDirectors:  {"Dana Director"},
	})
}

func testRequest(unitPrice, quantity, shipping string) *repository.PurchaseRequest {
	return &repository.PurchaseRequest{
		RequestID:       "1700000000000",
		ItemDescription: "NEO brushless motor",
		Category:        "Motors",
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		Shipping:        shipping,
		Requester:       "Riley Requester",
		State:           repository.StatePendingApproval,
	}
}

func TestTrackCapability(t *testing.T) {
	roster := testRoster()

	tests := []struct {
		name      string
		user      string
		track     repository.Track
		capable   bool
		unlimited bool
	}{
		{name: "president has unlimited student capability", user: "Pat President", track: repository.TrackStudent, capable: true, unlimited: true},
		{name: "leadership has limited student capability", user: "Lee Leader", track: repository.TrackStudent, capable: true},
		{name: "director has unlimited mentor capability", user: "Dana Director", track: repository.TrackMentor, capable: true, unlimited: true},
		{name: "mentor has limited mentor capability", user: "Mia Mentor", track: repository.TrackMentor, capable: true},
		{name: "plain member has no student capability", user: "Riley Requester", track: repository.TrackStudent},
		{name: "president has no mentor capability", user: "Pat President", track: repository.TrackMentor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cap := TrackCapability(roster, tt.user, tt.track)
			assert.Equal(t, tt.capable, cap.Capable)
			if tt.unlimited {
				assert.Nil(t, cap.Limit)
			} else if tt.capable {
				require.NotNil(t, cap.Limit)
				assert.True(t, cap.Limit.Equal(decimal.NewFromInt(500)))
			}
		})
	}
}

func TestTrackCapabilityDualMembershipKeepsHigherLimit(t *testing.T) {
	// Pat is in both Presidents and Leadership; the president's
	// unlimited capability must win.
	cap := TrackCapability(testRoster(), "Pat President", repository.TrackStudent)
	assert.True(t, cap.Capable)
	assert.Nil(t, cap.Limit)
}

func TestIsApproverValid(t *testing.T) {
	roster := testRoster()
	low := decimal.NewFromInt(320)
	high := decimal.NewFromInt(600)

	// empty approver is vacuously valid at any cost
	assert.True(t, IsApproverValid(roster, "", repository.TrackStudent, high))
	assert.True(t, IsApproverValid(roster, "", repository.TrackMentor, decimal.NewFromInt(999999)))

	assert.True(t, IsApproverValid(roster, "Lee Leader", repository.TrackStudent, low))
	assert.False(t, IsApproverValid(roster, "Lee Leader", repository.TrackStudent, high))
	assert.True(t, IsApproverValid(roster, "Pat President", repository.TrackStudent, high))
	assert.True(t, IsApproverValid(roster, "Dana Director", repository.TrackMentor, high))
	assert.False(t, IsApproverValid(roster, "Mia Mentor", repository.TrackMentor, high))
	assert.False(t, IsApproverValid(roster, "Nobody", repository.TrackStudent, low))
}

func TestCanApprove(t *testing.T) {
	roster := testRoster()

	t.Run("leadership approves tier1 request", func(t *testing.T) {
		// 100 * 3 + 20 = 320
		req := testRequest("100", "3", "20")
		d := CanApprove(req, repository.TrackStudent, "Lee Leader", roster)
		assert.True(t, d.Allowed, d.Reason)
	})

	t.Run("plain member cannot approve", func(t *testing.T) {
		req := testRequest("100", "3", "20")
		d := CanApprove(req, repository.TrackStudent, "Sam Student", roster)
		assert.False(t, d.Allowed)
		assert.NotEmpty(t, d.Reason)
	})

	t.Run("leadership blocked above its limit", func(t *testing.T) {
		req := testRequest("600", "1", "0")
		d := CanApprove(req, repository.TrackStudent, "Lee Leader", roster)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "limit")
	})

	t.Run("president approves above the standard limit", func(t *testing.T) {
		req := testRequest("600", "1", "0")
		d := CanApprove(req, repository.TrackStudent, "Pat President", roster)
		assert.True(t, d.Allowed, d.Reason)
	})

	t.Run("nobody approves above the hard ceiling", func(t *testing.T) {
		req := testRequest("2500", "1", "0")
		for _, user := range []string{"Pat President", "Lee Leader", "Mia Mentor", "Dana Director"} {
			for _, track := range []repository.Track{repository.TrackStudent, repository.TrackMentor} {
				d := CanApprove(req, track, user, roster)
				assert.False(t, d.Allowed, "user %s track %s", user, track)
			}
		}
	})

	t.Run("self approval forbidden even for directors", func(t *testing.T) {
		req := testRequest("100", "1", "0")
		req.Requester = "Dana Director"
		d := CanApprove(req, repository.TrackMentor, "Dana Director", roster)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "own")
	})

	t.Run("settled request rejects approval", func(t *testing.T) {
		for _, state := range []repository.State{repository.StatePurchased, repository.StateReceived, repository.StateCompleted} {
			req := testRequest("100", "1", "0")
			req.State = state
			d := CanApprove(req, repository.TrackMentor, "Dana Director", roster)
			assert.False(t, d.Allowed, "state %s", state)
		}
	})
}

func TestCanOverwrite(t *testing.T) {
	roster := testRoster()

	t.Run("no approver means nothing to overwrite", func(t *testing.T) {
		req := testRequest("100", "3", "20")
		assert.False(t, CanOverwrite(req, repository.TrackStudent, "Pat President", roster))
	})

	t.Run("valid approver cannot be overwritten", func(t *testing.T) {
		req := testRequest("100", "3", "20")
		req.StudentApprover = "Lee Leader"
		assert.False(t, CanOverwrite(req, repository.TrackStudent, "Pat President", roster))
	})

	t.Run("stale approver can be overwritten by a qualified user", func(t *testing.T) {
		// Lee approved at tier1; the cost then rose past Lee's limit.
		req := testRequest("600", "1", "0")
		req.StudentApprover = "Lee Leader"
		assert.True(t, CanOverwrite(req, repository.TrackStudent, "Pat President", roster))
		assert.False(t, CanOverwrite(req, repository.TrackStudent, "Sam Student", roster))
	})
}

func TestCanDelete(t *testing.T) {
	roster := testRoster()

	req := testRequest("100", "3", "20")
	assert.True(t, CanDelete(req, "Lee Leader", roster))
	assert.True(t, CanDelete(req, "Mia Mentor", roster))
	assert.False(t, CanDelete(req, "Sam Student", roster))

	// settled requests cannot be deleted by anyone
	req.State = repository.StateCompleted
	assert.False(t, CanDelete(req, "Dana Director", roster))
}

func TestCanEdit(t *testing.T) {
	roster := testRoster()
	req := testRequest("100", "3", "20")

	assert.True(t, CanEdit(req, "Riley Requester", roster))
	assert.True(t, CanEdit(req, "Lee Leader", roster))
	assert.True(t, CanEdit(req, "Dana Director", roster))
	assert.False(t, CanEdit(req, "Sam Student", roster))
}

func TestEditLocked(t *testing.T) {
	req := testRequest("100", "3", "20")
	assert.False(t, EditLocked(req))

	req.StudentApprover = "Lee Leader"
	assert.False(t, EditLocked(req))

	req.MentorApprover = "Mia Mentor"
	assert.True(t, EditLocked(req))
}

func TestIsFullyApproved(t *testing.T) {
	req := testRequest("100", "3", "20")
	assert.False(t, IsFullyApproved(req))

	req.StudentApprover = "Lee Leader"
	assert.False(t, IsFullyApproved(req))

	req.MentorApprover = "Mia Mentor"
	assert.True(t, IsFullyApproved(req))
}
