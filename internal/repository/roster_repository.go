package repository

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/team1306/purchase-tracker/internal/errors"
)

// RosterRepository loads the group-membership roster from its spreadsheet
// tab. Row 1 holds group names; each column below is that group's member
// display names. The roster is read-only to this service.
type RosterRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// NewRosterRepository creates a new roster repository.
func NewRosterRepository(svc *sheets.Service, spreadsheetID, tab string) *RosterRepository {
	return &RosterRepository{svc: svc, spreadsheetID: spreadsheetID, tab: tab}
}

// Load reads the full roster.
func (r *RosterRepository) Load(ctx context.Context) (*Roster, error) {
	readRange := fmt.Sprintf("'%s'!A1:Z", r.tab)
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, errors.Unavailable("failed to read roster", err)
	}
	if len(resp.Values) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "roster tab has no header row")
	}

	header := resp.Values[0]
	members := make(map[string][]string, len(header))
	for col, cell := range header {
		group, ok := cell.(string)
		if !ok || group == "" {
			continue
		}
		for _, row := range resp.Values[1:] {
			if col >= len(row) {
				continue
			}
			if name, ok := row[col].(string); ok && name != "" {
				members[group] = append(members[group], name)
			}
		}
	}

	return NewRoster(members), nil
}
