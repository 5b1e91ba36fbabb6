package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/metrics"
	"alcyxob/wellness-app/internal/planner"
	"alcyxob/wellness-app/internal/repository"
	"alcyxob/wellness-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

type assignmentServiceStub struct {
	service.AssignmentService
	applyFn     func(req service.ActionRequest) (*domain.Assignment, error)
	enrollFn    func(input service.EnrollInput) (*domain.Assignment, error)
	reconciled  []primitive.ObjectID
	lastUserID  primitive.ObjectID
	exportedURL string
}

func (s *assignmentServiceStub) Enroll(_ context.Context, userID primitive.ObjectID, input service.EnrollInput) (*domain.Assignment, error) {
	s.lastUserID = userID
	return s.enrollFn(input)
}

func (s *assignmentServiceStub) Apply(_ context.Context, userID, _ primitive.ObjectID, req service.ActionRequest) (*domain.Assignment, error) {
	s.lastUserID = userID
	return s.applyFn(req)
}

func (s *assignmentServiceStub) ListForUser(context.Context, primitive.ObjectID) ([]domain.Assignment, error) {
	return []domain.Assignment{}, nil
}

func (s *assignmentServiceStub) ExportPlan(context.Context, primitive.ObjectID, primitive.ObjectID) (string, error) {
	if s.exportedURL == "" {
		return "", service.ErrExportUnavailable
	}
	return s.exportedURL, nil
}

func (s *assignmentServiceStub) ReconcileHistory(_ context.Context, id primitive.ObjectID) (int, error) {
	s.reconciled = append(s.reconciled, id)
	return 2, nil
}

type checkInServiceStub struct {
	service.CheckInService
	input service.CheckInInput
}

func (s *checkInServiceStub) Create(_ context.Context, userID primitive.ObjectID, input service.CheckInInput) (*domain.CheckIn, error) {
	s.input = input
	return &domain.CheckIn{ID: primitive.NewObjectID(), UserID: userID, ReadinessScore: input.ReadinessScore}, nil
}

func tokenFor(t *testing.T, userID primitive.ObjectID, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := &jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestRouter(assignments *assignmentServiceStub, checkIns *checkInServiceStub, m *metrics.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, testSecret, Services{
		Assignment: assignments,
		CheckIns:   checkIns,
	}, m, nil)
	return router
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(&assignmentServiceStub{}, &checkInServiceStub{}, nil)
	userID := primitive.NewObjectID()

	rec := doRequest(router, http.MethodGet, "/api/v1/assignments", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/v1/assignments", tokenFor(t, userID, domain.RoleMember, -time.Minute), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has expired", decodeBody(t, rec)["error"])

	rec = doRequest(router, http.MethodGet, "/api/v1/assignments", tokenFor(t, userID, domain.RoleMember, time.Minute), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = doRequest(router, http.MethodGet, "/api/v1/me", tokenFor(t, userID, domain.RoleMember, time.Minute), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.Hex(), decodeBody(t, rec)["userId"])
}

func TestUpdateAssignment_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &planner.ValidationError{Field: "action", Reason: "missing"}, http.StatusBadRequest},
		{"session not found", &planner.NotFoundError{Kind: "session", ID: "x"}, http.StatusNotFound},
		{"archived", planner.ErrAssignmentArchived, http.StatusConflict},
		{"invalid transition", planner.ErrInvalidTransition, http.StatusConflict},
		{"conflict", errors.Join(service.ErrConcurrentUpdate, repository.ErrVersionConflict), http.StatusConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	userID := primitive.NewObjectID()
	token := tokenFor(t, userID, domain.RoleMember, time.Minute)
	path := "/api/v1/assignments/" + primitive.NewObjectID().Hex()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &assignmentServiceStub{applyFn: func(service.ActionRequest) (*domain.Assignment, error) {
				return nil, tc.err
			}}
			router := newTestRouter(stub, &checkInServiceStub{}, nil)

			rec := doRequest(router, http.MethodPatch, path, token, `{"action":"complete-session","sessionId":"s"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestUpdateAssignment_PartialCompletion(t *testing.T) {
	stub := &assignmentServiceStub{applyFn: func(service.ActionRequest) (*domain.Assignment, error) {
		return nil, &service.PartialCompletionError{HistoryRecordID: "a-s", Err: errors.New("down")}
	}}
	router := newTestRouter(stub, &checkInServiceStub{}, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleMember, time.Minute)

	rec := doRequest(router, http.MethodPatch, "/api/v1/assignments/"+primitive.NewObjectID().Hex(), token, `{"action":"complete-session","sessionId":"s"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "a-s", body["historyRecordId"])
	assert.Contains(t, body["error"], "needs history reconciliation")
	assert.NotContains(t, body["error"], "queued")
}

func TestUpdateAssignment_Success(t *testing.T) {
	var got service.ActionRequest
	stub := &assignmentServiceStub{applyFn: func(req service.ActionRequest) (*domain.Assignment, error) {
		got = req
		return &domain.Assignment{
			Status:   domain.AssignmentActive,
			Progress: domain.ProgressSummary{TotalSessions: 3, CompletedSessions: 1, CompletionRate: 1.0 / 3},
		}, nil
	}}
	m := metrics.NewTestManager()
	router := newTestRouter(stub, &checkInServiceStub{}, m)
	userID := primitive.NewObjectID()

	rec := doRequest(router, http.MethodPatch, "/api/v1/assignments/"+primitive.NewObjectID().Hex(),
		tokenFor(t, userID, domain.RoleMember, time.Minute),
		`{"action":"skip-session","sessionId":"base-w1-a-1","notes":"travel"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, planner.ActionSkipSession, got.Action)
	assert.Equal(t, "base-w1-a-1", got.SessionID)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "travel", *got.Notes)
	assert.Equal(t, userID, stub.lastUserID)

	summary := decodeBody(t, rec)["summary"].(map[string]any)
	assert.Equal(t, 3.0, summary["totalSessions"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues(http.MethodPatch, "200")))
}

func TestUpdateAssignment_BadPath(t *testing.T) {
	router := newTestRouter(&assignmentServiceStub{}, &checkInServiceStub{}, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleMember, time.Minute)

	rec := doRequest(router, http.MethodPatch, "/api/v1/assignments/not-an-id", token, `{"action":"skip-session"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnroll(t *testing.T) {
	protocolID := primitive.NewObjectID()
	var got service.EnrollInput
	stub := &assignmentServiceStub{enrollFn: func(input service.EnrollInput) (*domain.Assignment, error) {
		got = input
		return &domain.Assignment{ProtocolID: input.ProtocolID, Status: domain.AssignmentActive}, nil
	}}
	router := newTestRouter(stub, &checkInServiceStub{}, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleMember, time.Minute)

	rec := doRequest(router, http.MethodPost, "/api/v1/assignments", token,
		`{"protocolId":"`+protocolID.Hex()+`","startDate":"2024-01-01T00:00:00Z","personalization":{"sessionsPerWeek":2}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, protocolID, got.ProtocolID)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, 2024, got.StartDate.Year())
	require.NotNil(t, got.Personalization)
	assert.Equal(t, 2, *got.Personalization.SessionsPerWeek)

	rec = doRequest(router, http.MethodPost, "/api/v1/assignments", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/v1/assignments", token, `{"protocolId":"zzz"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportAssignment(t *testing.T) {
	stub := &assignmentServiceStub{}
	router := newTestRouter(stub, &checkInServiceStub{}, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleMember, time.Minute)
	path := "/api/v1/assignments/" + primitive.NewObjectID().Hex() + "/export"

	rec := doRequest(router, http.MethodGet, path, token, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	stub.exportedURL = "https://storage.test/export.json"
	rec = doRequest(router, http.MethodGet, path, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stub.exportedURL, decodeBody(t, rec)["downloadUrl"])
}

func TestReconcile_AdminOnly(t *testing.T) {
	stub := &assignmentServiceStub{}
	router := newTestRouter(stub, &checkInServiceStub{}, nil)
	assignmentID := primitive.NewObjectID()
	path := "/api/v1/admin/assignments/" + assignmentID.Hex() + "/reconcile"

	rec := doRequest(router, http.MethodPost, path, tokenFor(t, primitive.NewObjectID(), domain.RoleMember, time.Minute), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, stub.reconciled)

	rec = doRequest(router, http.MethodPost, path, tokenFor(t, primitive.NewObjectID(), domain.RoleAdmin, time.Minute), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, decodeBody(t, rec)["created"])
	assert.Equal(t, []primitive.ObjectID{assignmentID}, stub.reconciled)
}

func TestCreateCheckIn(t *testing.T) {
	checkIns := &checkInServiceStub{}
	router := newTestRouter(&assignmentServiceStub{}, checkIns, nil)
	token := tokenFor(t, primitive.NewObjectID(), domain.RoleMember, time.Minute)
	assignmentID := primitive.NewObjectID()

	rec := doRequest(router, http.MethodPost, "/api/v1/checkins", token,
		`{"assignmentId":"`+assignmentID.Hex()+`","readinessScore":8,"tags":["travel"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, checkIns.input.AssignmentID)
	assert.Equal(t, assignmentID, *checkIns.input.AssignmentID)
	assert.Equal(t, []string{"travel"}, checkIns.input.Tags)

	rec = doRequest(router, http.MethodPost, "/api/v1/checkins", token, `{"readinessScore":11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodPost, "/api/v1/checkins", token, `{"assignmentId":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
