package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/sheets/v4"

	"github.com/team1306/purchase-tracker/internal/errors"
)

// AuditRepository appends immutable mutation records to the audit tab.
// Entries are never updated or deleted.
type AuditRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(svc *sheets.Service, spreadsheetID, tab string) *AuditRepository {
	return &AuditRepository{svc: svc, spreadsheetID: spreadsheetID, tab: tab}
}

// Append writes one audit entry. A missing ID is generated.
func (r *AuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	vr := &sheets.ValueRange{
		Values: [][]interface{}{{
			entry.ID,
			entry.At.Format(time.RFC3339),
			entry.Kind,
			entry.RequestID,
			entry.ActingUser,
			entry.Details,
		}},
	}

	_, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, fmt.Sprintf("'%s'!A1", r.tab), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return errors.Unavailable("failed to append audit entry", err)
	}
	return nil
}
