package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recops/internal/apihandlers"
	"recops/internal/models"
	"recops/internal/services"
	"recops/internal/store"
	"recops/internal/store/sqlite"
	"recops/internal/tasks"
	mock_services "recops/internal/tests/mocks/services"
	mock_store "recops/internal/tests/mocks/store"
)

const bucketName = "training-data"

type fixture struct {
	router *gin.Engine
	jobs   *mock_store.JobClient
	store  *sqlite.Store
}

func setupRouter(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	st, err := sqlite.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, st.EnsureSchema(ctx))
	t.Cleanup(func() { st.Close() })

	provider := mock_services.NewStatusProvider(t)
	provider.On("Kinds").Return([]models.ResourceKind{models.KindBucket}).Once()
	provider.On("Name").Return("s3").Maybe()

	jobs := mock_store.NewJobClient(t)
	svc := services.NewWaitService(services.NewRegistry(provider), st, jobs, services.WaitDefaults{
		Interval: time.Second,
		Timeout:  time.Minute,
	})
	return fixture{
		router: apihandlers.NewRouter(apihandlers.NewAPIHandler(svc, st)),
		jobs:   jobs,
		store:  st,
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type waitEnvelope struct {
	Data models.Wait `json:"data"`
}

type errorEnvelope struct {
	Error apihandlers.APIError `json:"error"`
}

func TestCreateWaitHandler(t *testing.T) {
	f := setupRouter(t)

	f.jobs.On("EnqueueWait", mock.Anything, mock.MatchedBy(func(p tasks.WaitPayload) bool {
		return p.Kind == string(models.KindBucket) && p.ResourceID == bucketName &&
			p.Target == string(models.TargetDeleted) && p.Timeout == 10*time.Minute
	})).Return("task-7", nil).Once()

	w := doJSON(t, f.router, http.MethodPost, "/api/v1/waits", map[string]string{
		"kind":    "bucket",
		"id":      bucketName,
		"target":  "deleted",
		"timeout": "10m",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp waitEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "task-7", resp.Data.TaskID)
	assert.Equal(t, models.WaitEnqueued, resp.Data.Outcome)

	stored, err := f.store.GetWait(context.Background(), resp.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TargetDeleted, stored.Target)
}

func TestCreateWaitHandler_BadRequests(t *testing.T) {
	f := setupRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing id", map[string]string{"kind": "bucket"}},
		{"unknown kind", map[string]string{"kind": "widget", "id": "x"}},
		{"unknown target", map[string]string{"kind": "bucket", "id": "x", "target": "gone"}},
		{"bad interval", map[string]string{"kind": "bucket", "id": "x", "interval": "soon"}},
		{"no provider", map[string]string{"kind": "campaign", "id": "arn:x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, f.router, http.MethodPost, "/api/v1/waits", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp errorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "bad_request", resp.Error.Code)
		})
	}
	f.jobs.AssertNotCalled(t, "EnqueueWait", mock.Anything, mock.Anything)
}

func TestCreateWaitHandler_EnqueueFails(t *testing.T) {
	f := setupRouter(t)
	f.jobs.On("EnqueueWait", mock.Anything, mock.Anything).Return("", errors.New("redis down")).Once()

	w := doJSON(t, f.router, http.MethodPost, "/api/v1/waits", map[string]string{"kind": "bucket", "id": bucketName})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// duplicateWaits rejects every enqueue as an already recorded wait.
type duplicateWaits struct{ apihandlers.WaitAPI }

func (duplicateWaits) Enqueue(ctx context.Context, ref models.ResourceRef, target models.Target, interval, timeout time.Duration) (*models.Wait, error) {
	return nil, fmt.Errorf("record wait for %s: %w", ref, store.ErrDuplicate)
}

func TestCreateWaitHandler_Duplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := apihandlers.NewRouter(apihandlers.NewAPIHandler(duplicateWaits{}, nil))

	w := doJSON(t, r, http.MethodPost, "/api/v1/waits", map[string]string{"kind": "bucket", "id": bucketName})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"conflict"`)
}

func TestGetWaitHandler(t *testing.T) {
	f := setupRouter(t)
	ctx := context.Background()

	wait := &models.Wait{Kind: models.KindBucket, ResourceID: bucketName, Target: models.TargetActive, Outcome: models.WaitSucceeded, Polls: 2}
	require.NoError(t, f.store.CreateWait(ctx, wait))

	w := doJSON(t, f.router, http.MethodGet, "/api/v1/waits/"+wait.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp waitEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, wait.ID, resp.Data.ID)
	assert.Equal(t, 2, resp.Data.Polls)

	w = doJSON(t, f.router, http.MethodGet, "/api/v1/waits/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, f.router, http.MethodGet, "/api/v1/waits/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListWaitsHandler(t *testing.T) {
	f := setupRouter(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.store.CreateWait(ctx, &models.Wait{
			Kind: models.KindBucket, ResourceID: bucketName, Target: models.TargetActive, Outcome: models.WaitEnqueued,
		}))
	}

	w := doJSON(t, f.router, http.MethodGet, "/api/v1/waits?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data  []models.Wait `json:"data"`
		Limit int          `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 2, resp.Limit)

	w = doJSON(t, f.router, http.MethodGet, "/api/v1/waits?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := setupRouter(t)

	w := doJSON(t, f.router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doJSON(t, f.router, http.MethodGet, "/api/v1/kinds", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["bucket"]}`, w.Body.String())

	w = doJSON(t, f.router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recops_waits_in_flight")
}
