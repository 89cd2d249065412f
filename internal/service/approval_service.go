package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/team1306/purchase-tracker/internal/repository"
)

// ApprovalService exposes per-user approval capabilities to the API
// layer. The rules themselves are the pure functions in rules.go.
type ApprovalService struct {
	roster *RosterCache
	log    zerolog.Logger
}

// NewApprovalService creates a new approval service.
func NewApprovalService(roster *RosterCache, log zerolog.Logger) *ApprovalService {
	return &ApprovalService{roster: roster, log: log}
}

// UserPermissions is a per-user capability summary.
type UserPermissions struct {
	User    string     `json:"user"`
	Student Capability `json:"student"`
	Mentor  Capability `json:"mentor"`
}

// Permissions resolves both track capabilities for a user against the
// current roster snapshot.
func (s *ApprovalService) Permissions(ctx context.Context, user string) (*UserPermissions, error) {
	roster, err := s.roster.Get(ctx)
	if err != nil {
		return nil, err
	}

	return &UserPermissions{
		User:    user,
		Student: TrackCapability(roster, user, repository.TrackStudent),
		Mentor:  TrackCapability(roster, user, repository.TrackMentor),
	}, nil
}
