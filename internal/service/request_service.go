package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/team1306/purchase-tracker/internal/errors"
	"github.com/team1306/purchase-tracker/internal/money"
	"github.com/team1306/purchase-tracker/internal/repository"
)

const dateLayout = "2006-01-02"

// RequestStore persists purchase requests. The Sheets-backed repository
// is the production implementation.
type RequestStore interface {
	List(ctx context.Context) ([]*repository.PurchaseRequest, error)
	Get(ctx context.Context, id string) (*repository.PurchaseRequest, error)
	Append(ctx context.Context, req *repository.PurchaseRequest) error
	UpdateFields(ctx context.Context, id string, patch map[string]string) error
	Delete(ctx context.Context, id string) error
}

// AuditLog records immutable mutation entries.
type AuditLog interface {
	Append(ctx context.Context, entry *repository.AuditEntry) error
}

// Notifier is the chat collaborator. PostRequestThread opens a thread for
// a new request and returns its message handle; LogEvent replies on an
// existing thread. Neither may block or fail a mutation: LogEvent
// swallows its own failures, and PostRequestThread errors are captured
// locally by the caller.
type Notifier interface {
	PostRequestThread(ctx context.Context, req *repository.PurchaseRequest) (string, error)
	LogEvent(ctx context.Context, threadID string, entry *repository.AuditEntry)
}

// RequestService orchestrates purchase request mutations: it composes the
// rules engine with the store, computes full field patches before any
// write, and records audit/notification events after successful writes.
type RequestService struct {
	requests RequestStore
	audit    AuditLog
	roster   *RosterCache
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

// NewRequestService creates a new request service.
func NewRequestService(
	requests RequestStore,
	audit AuditLog,
	roster *RosterCache,
	notifier Notifier,
	log zerolog.Logger,
) *RequestService {
	return &RequestService{
		requests: requests,
		audit:    audit,
		roster:   roster,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// RequestView is a request enriched with its derived read-time fields.
type RequestView struct {
	*repository.PurchaseRequest
	TotalCost            string             `json:"totalCost"`
	Tier                 string             `json:"tier"`
	FullyApproved        bool               `json:"fullyApproved"`
	AvailableTransitions []repository.State `json:"availableTransitions"`
}

func newView(req *repository.PurchaseRequest) *RequestView {
	return &RequestView{
		PurchaseRequest:      req,
		TotalCost:            money.Format(req.TotalCost()),
		Tier:                 req.Tier().String(),
		FullyApproved:        IsFullyApproved(req),
		AvailableTransitions: AvailableTransitions(req.State),
	}
}

// List returns the full request snapshot with derived fields.
func (s *RequestService) List(ctx context.Context) ([]*RequestView, error) {
	requests, err := s.requests.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*RequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, newView(req))
	}
	return views, nil
}

// Get returns one request with derived fields.
func (s *RequestService) Get(ctx context.Context, id string) (*RequestView, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return newView(req), nil
}

// CreateRequestInput carries the creator-settable fields of a new
// request.
type CreateRequestInput struct {
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
}

// Create validates and persists a new request in Pending Approval, then
// opens its notification thread. The thread handle is stored back on the
// row when the post succeeds; notification failure never fails creation.
func (s *RequestService) Create(ctx context.Context, in *CreateRequestInput) (*RequestView, error) {
	if in.ItemDescription == "" {
		return nil, errors.InvalidInput("itemDescription", "item description is required")
	}
	if in.Requester == "" {
		return nil, errors.InvalidInput("requester", "requester is required")
	}
	if !repository.ValidCategory(in.Category) {
		return nil, errors.InvalidInput("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	if !money.Parse(in.Quantity).IsPositive() {
		return nil, errors.InvalidInput("quantity", "quantity must be positive")
	}

	now := s.now()
	req := &repository.PurchaseRequest{
		RequestID:       strconv.FormatInt(now.UnixMilli(), 10),
		ItemDescription: in.ItemDescription,
		ItemLink:        in.ItemLink,
		Category:        in.Category,
		GroupName:       in.GroupName,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		Shipping:        in.Shipping,
		PackageSize:     in.PackageSize,
		Comments:        in.Comments,
		Requester:       in.Requester,
		State:           repository.StatePendingApproval,
		DateRequested:   now.Format(dateLayout),
	}

	if err := s.requests.Append(ctx, req); err != nil {
		return nil, err
	}

	if threadID, err := s.notifier.PostRequestThread(ctx, req); err != nil {
		s.log.Warn().Err(err).Str("request_id", req.RequestID).Msg("failed to post request thread")
	} else if threadID != "" {
		req.SlackMessageID = threadID
		patch := map[string]string{repository.FieldSlackMessageID: threadID}
		if err := s.requests.UpdateFields(ctx, req.RequestID, patch); err != nil {
			s.log.Warn().Err(err).Str("request_id", req.RequestID).Msg("failed to store thread handle")
		}
	}

	s.recordEvent(ctx, req, "created", in.Requester,
		fmt.Sprintf("%s (%s)", req.ItemDescription, money.Format(req.TotalCost())))

	s.log.Info().
		Str("request_id", req.RequestID).
		Str("requester", req.Requester).
		Str("tier", req.Tier().String()).
		Msg("Purchase request created")

	return newView(req), nil
}

// ApproveOutcome is the result of an approval attempt.
type ApproveOutcome struct {
	Approved             bool         `json:"approved"`
	Reason               string       `json:"reason,omitempty"`
	RequiresConfirmation bool         `json:"requiresConfirmation,omitempty"`
	Request              *RequestView `json:"request,omitempty"`
}

// Approve records actingUser as the track's approver. When the recorded
// approver is stale, the overwrite path replaces it, but only with
// explicit confirmation from the caller.
func (s *RequestService) Approve(ctx context.Context, id string, track repository.Track, actingUser string, confirmOverwrite bool) (*ApproveOutcome, error) {
	if !repository.ValidTrack(track) {
		return nil, errors.InvalidInput("track", fmt.Sprintf("unknown track %q", track))
	}

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.Get(ctx)
	if err != nil {
		return nil, err
	}

	decision := CanApprove(req, track, actingUser, roster)
	if !decision.Allowed {
		return &ApproveOutcome{Reason: decision.Reason}, nil
	}

	kind := "approved"
	details := fmt.Sprintf("%s track", track)
	if current := req.Approver(track); current != "" && current != actingUser {
		if IsApproverValid(roster, current, track, req.TotalCost()) {
			return &ApproveOutcome{
				Reason: fmt.Sprintf("%s's approval is still valid and cannot be overwritten", current),
			}, nil
		}
		if !confirmOverwrite {
			return &ApproveOutcome{
				Reason:               fmt.Sprintf("replacing stale approver %s requires confirmation", current),
				RequiresConfirmation: true,
			}, nil
		}
		kind = "approval_overwritten"
		details = fmt.Sprintf("%s track; replaced stale approver %s", track, current)
	}

	patch := map[string]string{repository.FieldForTrack(track): actingUser}
	if err := s.requests.UpdateFields(ctx, id, patch); err != nil {
		return nil, err
	}
	req.SetApprover(track, actingUser)

	s.recordEvent(ctx, req, kind, actingUser, details)

	s.log.Info().
		Str("request_id", id).
		Str("track", string(track)).
		Str("approver", actingUser).
		Msg("Approval recorded")

	return &ApproveOutcome{Approved: true, Request: newView(req)}, nil
}

// Withdraw clears actingUser's own approval on a track. Withdrawing an
// approval that is not theirs, or on a settled request, is a caller
// contract violation.
func (s *RequestService) Withdraw(ctx context.Context, id string, track repository.Track, actingUser string) (*RequestView, error) {
	if !repository.ValidTrack(track) {
		return nil, errors.InvalidInput("track", fmt.Sprintf("unknown track %q", track))
	}

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	current := req.Approver(track)
	if current == "" {
		return nil, errors.Precondition("no approval to withdraw on this track")
	}
	if current != actingUser {
		return nil, errors.Precondition("cannot withdraw an approval recorded for another user")
	}
	if InDisallowedState(req) {
		return nil, errors.Precondition("approvals are frozen once the request is settled")
	}

	patch := map[string]string{repository.FieldForTrack(track): ""}
	if err := s.requests.UpdateFields(ctx, id, patch); err != nil {
		return nil, err
	}
	req.SetApprover(track, "")

	s.recordEvent(ctx, req, "approval_withdrawn", actingUser, fmt.Sprintf("%s track", track))

	return newView(req), nil
}

// ChangeState moves the request to newState per the transition table and
// stamps the purchase/receipt dates on the corresponding transitions.
func (s *RequestService) ChangeState(ctx context.Context, id string, newState repository.State, actingUser string) (*RequestView, error) {
	if !repository.ValidState(newState) {
		return nil, errors.InvalidInput("state", fmt.Sprintf("unknown state %q", newState))
	}

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(req.State, newState) {
		return nil, errors.Precondition(fmt.Sprintf("cannot move from %q to %q", req.State, newState))
	}

	patch := map[string]string{repository.FieldState: string(newState)}
	today := s.now().Format(dateLayout)
	switch newState {
	case repository.StatePurchased:
		patch[repository.FieldDatePurchased] = today
	case repository.StateReceived:
		patch[repository.FieldDateReceived] = today
	}

	if err := s.requests.UpdateFields(ctx, id, patch); err != nil {
		return nil, err
	}

	prior := req.State
	req.State = newState
	if v, ok := patch[repository.FieldDatePurchased]; ok {
		req.DatePurchased = v
	}
	if v, ok := patch[repository.FieldDateReceived]; ok {
		req.DateReceived = v
	}

	s.recordEvent(ctx, req, "state_changed", actingUser, fmt.Sprintf("%s -> %s", prior, newState))

	return newView(req), nil
}

// BulkResult is the per-request outcome of a bulk state change.
type BulkResult struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
}

// BulkChangeState applies ChangeState to every request independently.
// A failed member never rolls back the others; if any member failed, an
// aggregate error is returned alongside the per-request results.
func (s *RequestService) BulkChangeState(ctx context.Context, ids []string, newState repository.State, actingUser string) ([]BulkResult, error) {
	results := make([]BulkResult, 0, len(ids))
	failed := 0

	for _, id := range ids {
		result := BulkResult{RequestID: id}
		if _, err := s.ChangeState(ctx, id, newState, actingUser); err != nil {
			result.Error = errors.MessageOf(err)
			failed++
		}
		results = append(results, result)
	}

	if failed > 0 {
		return results, errors.New(errors.ErrCodeConflict,
			fmt.Sprintf("%d of %d state changes failed", failed, len(ids)))
	}
	return results, nil
}

// EditRequestInput carries the editable fields of a request plus the
// tier-change confirmation. Requester, request ID and dateRequested are
// immutable and never patched.
type EditRequestInput struct {
	ItemDescription   string `json:"itemDescription"`
	ItemLink          string `json:"itemLink"`
	Category          string `json:"category"`
	GroupName         string `json:"groupName"`
	Quantity          string `json:"quantity"`
	UnitPrice         string `json:"unitPrice"`
	Shipping          string `json:"shipping"`
	PackageSize       string `json:"packageSize"`
	Comments          string `json:"comments"`
	OrderNumber       string `json:"orderNumber"`
	ConfirmTierChange bool   `json:"confirmTierChange"`
}

// EditOutcome is the result of an edit attempt.
type EditOutcome struct {
	Saved                bool         `json:"saved"`
	Reason               string       `json:"reason,omitempty"`
	RequiresConfirmation bool         `json:"requiresConfirmation,omitempty"`
	TierBefore           string       `json:"tierBefore,omitempty"`
	TierAfter            string       `json:"tierAfter,omitempty"`
	Request              *RequestView `json:"request,omitempty"`
}

// SaveEdit applies an edit. A cost change that crosses a tier boundary
// requires explicit confirmation and, once confirmed, clears both
// approver fields in the same patch: tier changes invalidate prior
// approvals unconditionally.
func (s *RequestService) SaveEdit(ctx context.Context, id, actingUser string, in *EditRequestInput) (*EditOutcome, error) {
	if !repository.ValidCategory(in.Category) {
		return nil, errors.InvalidInput("category", fmt.Sprintf("unknown category %q", in.Category))
	}

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.Get(ctx)
	if err != nil {
		return nil, err
	}

	if EditLocked(req) {
		return nil, errors.Precondition("request has both approvals; edits are locked")
	}
	if !CanEdit(req, actingUser, roster) {
		return &EditOutcome{Reason: fmt.Sprintf("%s may not edit this request", actingUser)}, nil
	}

	edited := req.Clone()
	edited.ItemDescription = in.ItemDescription
	edited.ItemLink = in.ItemLink
	edited.Category = in.Category
	edited.GroupName = in.GroupName
	edited.Quantity = in.Quantity
	edited.UnitPrice = in.UnitPrice
	edited.Shipping = in.Shipping
	edited.PackageSize = in.PackageSize
	edited.Comments = in.Comments
	edited.OrderNumber = in.OrderNumber

	tierBefore := req.Tier()
	tierAfter := edited.Tier()
	tierChanged := tierBefore != tierAfter

	if tierChanged && !in.ConfirmTierChange {
		return &EditOutcome{
			Reason:               "changing the cost tier clears existing approvals",
			RequiresConfirmation: true,
			TierBefore:           tierBefore.String(),
			TierAfter:            tierAfter.String(),
		}, nil
	}

	patch := editPatch(req, edited)
	if tierChanged {
		patch[repository.FieldStudentApprover] = ""
		patch[repository.FieldMentorApprover] = ""
		edited.StudentApprover = ""
		edited.MentorApprover = ""
	}

	if len(patch) == 0 {
		return &EditOutcome{Saved: true, Request: newView(req)}, nil
	}

	if err := s.requests.UpdateFields(ctx, id, patch); err != nil {
		return nil, err
	}

	details := fmt.Sprintf("%d fields", len(patch))
	if tierChanged {
		details = fmt.Sprintf("%s -> %s; approvals cleared", tierBefore, tierAfter)
	}
	s.recordEvent(ctx, edited, "edited", actingUser, details)

	return &EditOutcome{
		Saved:      true,
		TierBefore: tierBefore.String(),
		TierAfter:  tierAfter.String(),
		Request:    newView(edited),
	}, nil
}

// editPatch computes the changed editable fields between two versions.
func editPatch(original, edited *repository.PurchaseRequest) map[string]string {
	patch := make(map[string]string)
	diff := func(field, before, after string) {
		if before != after {
			patch[field] = after
		}
	}
	diff(repository.FieldItemDescription, original.ItemDescription, edited.ItemDescription)
	diff(repository.FieldItemLink, original.ItemLink, edited.ItemLink)
	diff(repository.FieldCategory, original.Category, edited.Category)
	diff(repository.FieldGroupName, original.GroupName, edited.GroupName)
	diff(repository.FieldQuantity, original.Quantity, edited.Quantity)
	diff(repository.FieldUnitPrice, original.UnitPrice, edited.UnitPrice)
	diff(repository.FieldShipping, original.Shipping, edited.Shipping)
	diff(repository.FieldPackageSize, original.PackageSize, edited.PackageSize)
	diff(repository.FieldComments, original.Comments, edited.Comments)
	diff(repository.FieldOrderNumber, original.OrderNumber, edited.OrderNumber)
	return patch
}

// Delete hard-removes a request when the rules allow it. The denial is a
// value result, not an error.
func (s *RequestService) Delete(ctx context.Context, id, actingUser string) (*Decision, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.Get(ctx)
	if err != nil {
		return nil, err
	}

	if !CanDelete(req, actingUser, roster) {
		reason := fmt.Sprintf("%s is not authorized to delete requests", actingUser)
		if req.Settled() {
			reason = "settled requests cannot be deleted"
		}
		d := deny(reason)
		return &d, nil
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, req, "deleted", actingUser, req.ItemDescription)

	s.log.Info().
		Str("request_id", id).
		Str("acting_user", actingUser).
		Msg("Purchase request deleted")

	d := allow()
	return &d, nil
}

// recordEvent writes an audit entry and notifies the chat thread. Both
// are non-fatal: failures are logged and never surfaced to the caller.
func (s *RequestService) recordEvent(ctx context.Context, req *repository.PurchaseRequest, kind, actingUser, details string) {
	entry := &repository.AuditEntry{
		Kind:       kind,
		RequestID:  req.RequestID,
		ActingUser: actingUser,
		Details:    details,
		At:         s.now(),
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("request_id", req.RequestID).
			Str("kind", kind).
			Msg("Failed to write audit entry")
	}

	s.notifier.LogEvent(ctx, req.SlackMessageID, entry)
}
