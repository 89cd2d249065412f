package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/team1306/purchase-tracker/internal/money"
	"github.com/team1306/purchase-tracker/internal/repository"
)

// Capability describes what a user may approve on one track. A nil Limit
// means no dollar limit.
type Capability struct {
	Capable bool             `json:"capable"`
	Limit   *decimal.Decimal `json:"limit,omitempty"`
}

// TrackCapability resolves a user's approval capability for a track from
// the roster. Presidents outrank Leadership and Directors outrank Mentors,
// so dual membership never lowers a limit.
func TrackCapability(roster *repository.Roster, user string, track repository.Track) Capability {
	var unlimited, limited string
	if track == repository.TrackMentor {
		unlimited, limited = repository.GroupDirectors, repository.GroupMentors
	} else {
		unlimited, limited = repository.GroupPresidents, repository.GroupLeadership
	}

	if roster.IsMember(unlimited, user) {
		return Capability{Capable: true}
	}
	if roster.IsMember(limited, user) {
		limit := money.StandardLimit
		return Capability{Capable: true, Limit: &limit}
	}
	return Capability{}
}

// IsApproverValid reports whether a recorded approver name still
// satisfies the rules for its track at the given total cost. An empty
// name is vacuously valid: there is no approval to invalidate. A false
// result marks a stale approver.
func IsApproverValid(roster *repository.Roster, name string, track repository.Track, total decimal.Decimal) bool {
	if name == "" {
		return true
	}
	cap := TrackCapability(roster, name, track)
	if !cap.Capable {
		return false
	}
	return cap.Limit == nil || total.LessThanOrEqual(*cap.Limit)
}

// Decision is the value-typed outcome of a rule check. Rejections are
// normal results with a user-readable reason, never errors.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// CanApprove decides whether actingUser may approve the request on a
// track. Checks run in order: settlement, the hard cost ceiling,
// self-approval, then role capability and limit.
func CanApprove(req *repository.PurchaseRequest, track repository.Track, actingUser string, roster *repository.Roster) Decision {
	if req.Settled() {
		return deny("request is already settled; approvals are frozen")
	}

	total := req.TotalCost()
	if total.GreaterThan(money.ApprovalCeiling) {
		return deny(fmt.Sprintf("total cost %s exceeds the %s approval ceiling; no role may approve it",
			money.Format(total), money.Format(money.ApprovalCeiling)))
	}

	if actingUser == req.Requester {
		return deny("requesters cannot approve their own requests")
	}

	cap := TrackCapability(roster, actingUser, track)
	if !cap.Capable {
		return deny(fmt.Sprintf("%s is not authorized to approve on the %s track", actingUser, track))
	}
	if cap.Limit != nil && total.GreaterThan(*cap.Limit) {
		return deny(fmt.Sprintf("total cost %s exceeds your %s approval limit",
			money.Format(total), money.Format(*cap.Limit)))
	}

	return allow()
}

// CanOverwrite reports whether actingUser may replace the recorded
// approver on a track: the recorded approver must be stale and actingUser
// must qualify to approve. The explicit confirmation lives with the
// caller.
func CanOverwrite(req *repository.PurchaseRequest, track repository.Track, actingUser string, roster *repository.Roster) bool {
	current := req.Approver(track)
	if current == "" {
		return false
	}
	if IsApproverValid(roster, current, track, req.TotalCost()) {
		return false
	}
	return CanApprove(req, track, actingUser, roster).Allowed
}

// CanDelete reports whether actingUser may hard-delete the request:
// capable on either track, any limit, and the request not settled.
func CanDelete(req *repository.PurchaseRequest, actingUser string, roster *repository.Roster) bool {
	if req.Settled() {
		return false
	}
	return TrackCapability(roster, actingUser, repository.TrackStudent).Capable ||
		TrackCapability(roster, actingUser, repository.TrackMentor).Capable
}

// CanEdit reports whether actingUser may edit the request: the original
// requester, or anyone who currently qualifies to approve on either
// track. The both-approvers edit lock is a separate precondition, see
// EditLocked.
func CanEdit(req *repository.PurchaseRequest, actingUser string, roster *repository.Roster) bool {
	if actingUser == req.Requester {
		return true
	}
	return CanApprove(req, repository.TrackStudent, actingUser, roster).Allowed ||
		CanApprove(req, repository.TrackMentor, actingUser, roster).Allowed
}

// EditLocked reports whether edits are blocked because both approver
// fields are filled.
func EditLocked(req *repository.PurchaseRequest) bool {
	return req.StudentApprover != "" && req.MentorApprover != ""
}

// InDisallowedState reports whether the request is settled, which gates
// withdrawing one's own approval.
func InDisallowedState(req *repository.PurchaseRequest) bool {
	return req.Settled()
}

// IsFullyApproved reports whether both approval tracks are signed off.
// Reaching full approval does not mutate state; it is a derived status.
func IsFullyApproved(req *repository.PurchaseRequest) bool {
	return req.StudentApprover != "" && req.MentorApprover != ""
}
