package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/team1306/purchase-tracker/internal/money"
)

// State is the lifecycle state of a purchase request.
type State string

const (
	StatePendingApproval State = "Pending Approval"
	StateApproved        State = "Approved"
	StatePurchased       State = "Purchased"
	StateReceived        State = "Received"
	StateCompleted       State = "Completed"
	StateOnHold          State = "On Hold"
)

// States lists every valid lifecycle state.
var States = []State{
	StatePendingApproval,
	StateApproved,
	StatePurchased,
	StateReceived,
	StateCompleted,
	StateOnHold,
}

// ValidState reports whether s is a known lifecycle state.
func ValidState(s State) bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Settled reports whether a request in this state is past the point of
// approval changes: approvals are frozen and deletion is forbidden.
func (s State) Settled() bool {
	return s == StatePurchased || s == StateReceived || s == StateCompleted
}

// Track is one of the two independent approval lanes.
type Track string

const (
	TrackStudent Track = "student"
	TrackMentor  Track = "mentor"
)

// ValidTrack reports whether t is a known approval track.
func ValidTrack(t Track) bool {
	return t == TrackStudent || t == TrackMentor
}

// Categories are the fixed item categories a request may carry.
var Categories = []string{
	"Electronics",
	"Motors",
	"Pneumatics",
	"Hardware",
	"Raw Materials",
	"Tools",
	"Software",
	"Miscellaneous",
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PurchaseRequest is one tracked purchase. Monetary and quantity fields
// are kept as entered; totals and tiers are always derived on read.
type PurchaseRequest struct {
	RequestID       string `json:"requestId"`
	ItemDescription string `json:"itemDescription"`
	ItemLink        string `json:"itemLink"`
	Category        string `json:"category"`
	GroupName       string `json:"groupName"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unitPrice"`
	Shipping        string `json:"shipping"`
	PackageSize     string `json:"packageSize"`
	Comments        string `json:"comments"`
	Requester       string `json:"requester"`
	State           State  `json:"state"`
	StudentApprover string `json:"studentApprover"`
	MentorApprover  string `json:"mentorApprover"`
	DateRequested   string `json:"dateRequested"`
	DatePurchased   string `json:"datePurchased"`
	DateReceived    string `json:"dateReceived"`
	OrderNumber     string `json:"orderNumber"`
	SlackMessageID  string `json:"slackMessageId"`
}

// TotalCost recomputes unitPrice * quantity + shipping from the source
// fields. The total is never persisted.
func (r *PurchaseRequest) TotalCost() decimal.Decimal {
	return money.Total(r.UnitPrice, r.Quantity, r.Shipping)
}

// Tier derives the cost tier from the current total.
func (r *PurchaseRequest) Tier() money.Tier {
	return money.TierOf(r.TotalCost())
}

// Settled reports whether the request's state freezes approvals.
func (r *PurchaseRequest) Settled() bool {
	return r.State.Settled()
}

// Approver returns the recorded approver name for a track. Empty means
// unapproved.
func (r *PurchaseRequest) Approver(track Track) string {
	if track == TrackMentor {
		return r.MentorApprover
	}
	return r.StudentApprover
}

// SetApprover records an approver name for a track.
func (r *PurchaseRequest) SetApprover(track Track, name string) {
	if track == TrackMentor {
		r.MentorApprover = name
		return
	}
	r.StudentApprover = name
}

// Clone returns a deep copy of the request.
func (r *PurchaseRequest) Clone() *PurchaseRequest {
	out := *r
	return &out
}

// Roster group names. The roster tab is the source of truth; the core
// never mutates it.
const (
	GroupPresidents = "Presidents"
	GroupLeadership = "Leadership"
	GroupMentors    = "Mentors"
	GroupDirectors  = "Directors"
)

// Groups lists the four fixed roster groups.
var Groups = []string{GroupPresidents, GroupLeadership, GroupMentors, GroupDirectors}

// Roster maps group names to member display names.
type Roster struct {
	Members map[string][]string
}

// NewRoster builds a roster from a group membership map.
func NewRoster(members map[string][]string) *Roster {
	if members == nil {
		members = make(map[string][]string)
	}
	return &Roster{Members: members}
}

// IsMember reports whether name appears in the given group.
func (r *Roster) IsMember(group, name string) bool {
	if r == nil || name == "" {
		return false
	}
	for _, member := range r.Members[group] {
		if member == name {
			return true
		}
	}
	return false
}

// AuditEntry is one immutable record of a request mutation. Entries feed
// both the audit tab and the chat notification thread.
type AuditEntry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RequestID  string    `json:"requestId"`
	ActingUser string    `json:"actingUser"`
	Details    string    `json:"details"`
	At         time.Time `json:"at"`
}
