package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team1306/purchase-tracker/internal/errors"
	"github.com/team1306/purchase-tracker/internal/repository"
	"github.com/team1306/purchase-tracker/internal/service"
)

type memStore struct {
	requests map[string]*repository.PurchaseRequest
}

func (s *memStore) List(ctx context.Context) ([]*repository.PurchaseRequest, error) {
	out := make([]*repository.PurchaseRequest, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req.Clone())
	}
	return out, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*repository.PurchaseRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, errors.NotFound("purchase request", id)
	}
	return req.Clone(), nil
}

func (s *memStore) Append(ctx context.Context, req *repository.PurchaseRequest) error {
	s.requests[req.RequestID] = req.Clone()
	return nil
}

func (s *memStore) UpdateFields(ctx context.Context, id string, patch map[string]string) error {
	req, ok := s.requests[id]
	if !ok {
		return errors.NotFound("purchase request", id)
	}
	for field, value := range patch {
		if _, found := repository.FieldColumn(field); !found {
			return errors.Precondition("unknown field " + field)
		}
		switch field {
		case repository.FieldState:
			req.State = repository.State(value)
		case repository.FieldStudentApprover:
			req.StudentApprover = value
		case repository.FieldMentorApprover:
			req.MentorApprover = value
		case repository.FieldDatePurchased:
			req.DatePurchased = value
		case repository.FieldDateReceived:
			req.DateReceived = value
		case repository.FieldSlackMessageID:
			req.SlackMessageID = value
		}
	}
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	delete(s.requests, id)
	return nil
}

type noopAudit struct{}

func (noopAudit) Append(ctx context.Context, entry *repository.AuditEntry) error { return nil }

type noopNotifier struct{}

func (noopNotifier) PostRequestThread(ctx context.Context, req *repository.PurchaseRequest) (string, error) {
	return "", nil
}

func (noopNotifier) LogEvent(ctx context.Context, threadID string, entry *repository.AuditEntry) {}

type staticLoader struct{ roster *repository.Roster }

func (l *staticLoader) Load(ctx context.Context) (*repository.Roster, error) {
	return l.roster, nil
}

func newTestRouter(t *testing.T, requests ...*repository.PurchaseRequest) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{requests: make(map[string]*repository.PurchaseRequest)}
	for _, req := range requests {
		store.requests[req.RequestID] = req.Clone()
	}

	roster := repository.NewRoster(map[string][]string{
		repository.GroupPresidents: {"Pat President"},
		repository.GroupLeadership: {"Lee Leader"},
		repository.GroupMentors:    {"Mia Mentor"},
		repository.GroupDirectors:  {"Dana Director"},
	})
	cache := service.NewRosterCache(&staticLoader{roster: roster}, time.Hour, zerolog.Nop())

	requestSvc := service.NewRequestService(store, noopAudit{}, cache, noopNotifier{}, zerolog.Nop())
	approvalSvc := service.NewApprovalService(cache, zerolog.Nop())

	r := gin.New()
	NewHTTPHandler(requestSvc, approvalSvc, cache, zerolog.Nop()).Register(r)
	return r
}

func pendingRequest(id string) *repository.PurchaseRequest {
	return &repository.PurchaseRequest{
		RequestID:       id,
		ItemDescription: "NEO brushless motor",
		Category:        "Motors",
		Quantity:        "3",
		UnitPrice:       "100",
		Shipping:        "20",
		Requester:       "Riley Requester",
		State:           repository.StatePendingApproval,
	}
}

func doRequest(r *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Name", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingUserHeader(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/v1/requests", "", gin.H{"itemDescription": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequestEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/requests", "Riley Requester", gin.H{
		"itemDescription": "Pneumatic cylinder",
		"category":        "Pneumatics",
		"quantity":        "2",
		"unitPrice":       "45.50",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var view struct {
		RequestID string `json:"requestId"`
		State     string `json:"state"`
		Requester string `json:"requester"`
		TotalCost string `json:"totalCost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.NotEmpty(t, view.RequestID)
	assert.Equal(t, "Pending Approval", view.State)
	assert.Equal(t, "Riley Requester", view.Requester)
	assert.Equal(t, "$91.00", view.TotalCost)
}

func TestCreateRequestValidationError(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/v1/requests", "Riley Requester", gin.H{
		"itemDescription": "Mystery item",
		"category":        "Snacks",
		"quantity":        "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRequestNotFound(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/api/v1/requests/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApproveEndpoint(t *testing.T) {
	r := newTestRouter(t, pendingRequest("42"))

	w := doRequest(r, http.MethodPost, "/api/v1/requests/42/approve", "Lee Leader", gin.H{"track": "student"})
	require.Equal(t, http.StatusOK, w.Code)

	var outcome struct {
		Approved bool `json:"approved"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.True(t, outcome.Approved)
}

func TestApproveRejectedEndpoint(t *testing.T) {
	r := newTestRouter(t, pendingRequest("42"))

	// self-approval is a rule rejection, not an error
	w := doRequest(r, http.MethodPost, "/api/v1/requests/42/approve", "Riley Requester", gin.H{"track": "student"})
	require.Equal(t, http.StatusConflict, w.Code)

	var outcome struct {
		Approved bool   `json:"approved"`
		Reason   string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.False(t, outcome.Approved)
	assert.NotEmpty(t, outcome.Reason)
}

func TestChangeStateIllegalTransition(t *testing.T) {
	r := newTestRouter(t, pendingRequest("42"))

	w := doRequest(r, http.MethodPost, "/api/v1/requests/42/state", "Lee Leader", gin.H{"state": "Purchased"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBulkChangeStatePartialFailure(t *testing.T) {
	approved := pendingRequest("1")
	approved.State = repository.StateApproved
	r := newTestRouter(t, approved, pendingRequest("2"))

	w := doRequest(r, http.MethodPost, "/api/v1/requests/bulk-state", "Lee Leader", gin.H{
		"requestIds": []string{"1", "2"},
		"state":      "Purchased",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Results []struct {
			RequestID string `json:"requestId"`
			Error     string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Empty(t, body.Results[0].Error)
	assert.NotEmpty(t, body.Results[1].Error)
}

func TestDeleteEndpointForbidden(t *testing.T) {
	r := newTestRouter(t, pendingRequest("42"))
	w := doRequest(r, http.MethodDelete, "/api/v1/requests/42", "Riley Requester", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserPermissionsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/api/v1/permissions", "Pat President", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var perms struct {
		User    string `json:"user"`
		Student struct {
			Capable bool `json:"capable"`
		} `json:"student"`
		Mentor struct {
			Capable bool `json:"capable"`
		} `json:"mentor"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &perms))
	assert.Equal(t, "Pat President", perms.User)
	assert.True(t, perms.Student.Capable)
	assert.False(t, perms.Mentor.Capable)
}

func TestRefreshRoster(t *testing.T) {
	r := newTestRouter(t)
	w := doRequest(r, http.MethodPost, "/api/v1/roster/refresh", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
