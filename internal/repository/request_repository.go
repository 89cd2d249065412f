package repository

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/api/sheets/v4"

	"github.com/team1306/purchase-tracker/internal/errors"
)

// RequestRepository persists purchase requests as rows on a spreadsheet
// tab. Rows are keyed by the request ID in the first column; the header
// row is row 1.
type RequestRepository struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string

	mu            sync.Mutex
	cachedSheetID int64
	sheetIDLoaded bool
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(svc *sheets.Service, spreadsheetID, tab string) *RequestRepository {
	return &RequestRepository{svc: svc, spreadsheetID: spreadsheetID, tab: tab}
}

// List reads the full request snapshot. Rows without a request ID are
// skipped.
func (r *RequestRepository) List(ctx context.Context) ([]*PurchaseRequest, error) {
	rows, err := r.readRows(ctx)
	if err != nil {
		return nil, err
	}

	requests := make([]*PurchaseRequest, 0, len(rows))
	for _, row := range rows {
		req := rowToRequest(row)
		if req.RequestID == "" {
			continue
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// Get returns a single request by ID.
func (r *RequestRepository) Get(ctx context.Context, id string) (*PurchaseRequest, error) {
	_, req, err := r.findRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Append persists a newly created request as a new row.
func (r *RequestRepository) Append(ctx context.Context, req *PurchaseRequest) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{requestToRow(req)},
	}

	_, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, fmt.Sprintf("'%s'!A1", r.tab), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return errors.Unavailable("failed to append request row", err)
	}
	return nil
}

// UpdateFields applies a partial-field patch to the request's row. Patch
// keys are data-model attribute names; an unknown key is a caller bug.
func (r *RequestRepository) UpdateFields(ctx context.Context, id string, patch map[string]string) error {
	if len(patch) == 0 {
		return nil
	}

	rowNum, _, err := r.findRow(ctx, id)
	if err != nil {
		return err
	}

	data := make([]*sheets.ValueRange, 0, len(patch))
	for field, value := range patch {
		col, ok := FieldColumn(field)
		if !ok {
			return errors.Precondition(fmt.Sprintf("unknown patch field %q", field))
		}
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("'%s'!%s%d", r.tab, colLetter(col), rowNum),
			Values: [][]interface{}{{value}},
		})
	}

	_, err = r.svc.Spreadsheets.Values.
		BatchUpdate(r.spreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return errors.Unavailable("failed to update request fields", err)
	}
	return nil
}

// Delete removes the request's row entirely.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	rowNum, _, err := r.findRow(ctx, id)
	if err != nil {
		return err
	}

	sheetID, err := r.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: int64(rowNum - 1),
						EndIndex:   int64(rowNum),
					},
				},
			},
		},
	}

	if _, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return errors.Unavailable("failed to delete request row", err)
	}
	return nil
}

// readRows fetches all data rows below the header.
func (r *RequestRepository) readRows(ctx context.Context) ([][]interface{}, error) {
	readRange := fmt.Sprintf("'%s'!A2:%s", r.tab, lastColumn())
	resp, err := r.svc.Spreadsheets.Values.Get(r.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, errors.Unavailable("failed to read request rows", err)
	}
	return resp.Values, nil
}

// findRow locates a request's sheet row. The returned row number is
// 1-based A1 notation (header is row 1, first data row is 2).
func (r *RequestRepository) findRow(ctx context.Context, id string) (int, *PurchaseRequest, error) {
	rows, err := r.readRows(ctx)
	if err != nil {
		return 0, nil, err
	}

	for i, row := range rows {
		req := rowToRequest(row)
		if req.RequestID == id {
			return i + 2, req, nil
		}
	}
	return 0, nil, errors.NotFound("purchase request", id)
}

// sheetID resolves and caches the numeric sheet ID for the requests tab.
func (r *RequestRepository) sheetID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sheetIDLoaded {
		return r.cachedSheetID, nil
	}

	spreadsheet, err := r.svc.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, errors.Unavailable("failed to retrieve spreadsheet", err)
	}

	for _, s := range spreadsheet.Sheets {
		if s.Properties.Title == r.tab {
			r.cachedSheetID = s.Properties.SheetId
			r.sheetIDLoaded = true
			return r.cachedSheetID, nil
		}
	}
	return 0, errors.NotFound("sheet", r.tab)
}
