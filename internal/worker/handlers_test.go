package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/thebtf/namegroup/internal/config"
	gormdb "github.com/thebtf/namegroup/internal/db/gorm"
	"github.com/thebtf/namegroup/internal/profiles"
	"github.com/thebtf/namegroup/internal/worker/sse"
)

// testService creates a Service backed by a temporary SQLite database. The
// task processor is not started; tests that need async processing start it
// themselves.
func testService(t *testing.T) (*Service, func()) {
	t.Helper()

	store, err := gormdb.NewStore(gormdb.Config{
		Driver:   gormdb.DriverSQLite,
		Path:     filepath.Join(t.TempDir(), "test.db"),
		MaxConns: 2,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	cfg := config.Default()
	taskStore := gormdb.NewTaskStore(store)
	sseBroadcaster := sse.NewBroadcaster()
	stats := NewTaskStats()

	ctx, cancel := context.WithCancel(context.Background())

	svc := &Service{
		version:        "test-version",
		config:         cfg,
		store:          store,
		taskStore:      taskStore,
		profiles:       profiles.Defaults(),
		processor:      NewProcessor(taskStore, sseBroadcaster, stats, cfg.QueueSize, 1),
		sseBroadcaster: sseBroadcaster,
		stats:          stats,
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}

	svc.setupRoutes()

	// Mark service as ready for tests
	svc.ready.Store(true)

	cleanup := func() {
		cancel()
		store.Close()
	}

	return svc, cleanup
}

// postJSON sends a JSON request through the service router.
func postJSON(t *testing.T, svc *Service, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, svc *Service, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	svc.router.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestCreateTask_ReturnsIdentity(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names": []string{"foo_bar", "foo_baz"},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	id, ok := response["id"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, id)
	assert.Equal(t, "/api/grouping-tasks/"+id, response["url"])
	assert.Equal(t, "pending", response["status"])
}

func TestCreateTask_Validation(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{
			name:      "missing names",
			body:      map[string]interface{}{},
			wantField: "names",
		},
		{
			name:      "empty names",
			body:      map[string]interface{}{"names": []string{}},
			wantField: "names",
		},
		{
			name:      "blank name",
			body:      map[string]interface{}{"names": []string{"foo", ""}},
			wantField: "names",
		},
		{
			name:      "multi-character delimiter",
			body:      map[string]interface{}{"names": []string{"foo"}, "word_delimiter": "--"},
			wantField: "word_delimiter",
		},
		{
			name:      "unknown profile",
			body:      map[string]interface{}{"names": []string{"foo"}, "profile": "nonexistent"},
			wantField: "profile",
		},
		{
			name:      "profile and delimiter together",
			body:      map[string]interface{}{"names": []string{"foo"}, "profile": "kebab", "word_delimiter": "-"},
			wantField: "profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errs map[string][]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errs))
			assert.NotEmpty(t, errs[tt.wantField])
		})
	}
}

func TestCreateTask_ProfileSelectsDelimiter(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names":   []string{"foo-bar", "foo-baz"},
		"profile": "kebab",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	task, err := svc.taskStore.GetByPublicID(context.Background(), response["id"])
	require.NoError(t, err)
	assert.Equal(t, "-", task.WordDelimiter)
}

func TestListTasks_NewestFirst(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	var ids []string
	for _, names := range [][]string{{"a_b"}, {"c_d"}, {"e_f"}} {
		rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{"names": names})
		require.Equal(t, http.StatusCreated, rec.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		ids = append(ids, response["id"])
		time.Sleep(2 * time.Millisecond)
	}

	var list []map[string]interface{}
	rec := getJSON(t, svc, "/api/grouping-tasks", &list)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 3)

	// Newest first
	assert.Equal(t, ids[2], list[0]["id"])
	assert.Equal(t, ids[0], list[2]["id"])

	// List entries are identities, not full results
	_, hasResult := list[0]["result"]
	assert.False(t, hasResult)
}

func TestGetTask_NotFound(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	rec := getJSON(t, svc, "/api/grouping-tasks/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestWorkflow_CreateProcessRetrieveMove runs the full task lifecycle: create
// with a custom delimiter, wait for the processor, retrieve the result and
// move a name between groups.
func TestWorkflow_CreateProcessRetrieveMove(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	ctx, cancelProcessor := context.WithCancel(context.Background())
	defer cancelProcessor()
	go func() { _ = svc.processor.Run(ctx) }()

	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names":          []string{"foo", "foo-bar", "foo-baz", "xyz"},
		"word_delimiter": "-",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	taskURL := created["url"]

	var detail map[string]interface{}
	require.Eventually(t, func() bool {
		detail = nil
		r := getJSON(t, svc, taskURL, &detail)
		return r.Code == http.StatusOK && detail["status"] == "completed"
	}, 5*time.Second, 10*time.Millisecond, "task should complete")

	result, ok := detail["result"].(map[string]interface{})
	require.True(t, ok)

	foo, ok := result["foo"].([]interface{})
	require.True(t, ok)
	assert.ElementsMatch(t, []interface{}{"foo", "foo-bar", "foo-baz"}, foo)

	xyz, ok := result["xyz"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"xyz"}, xyz)

	// Move xyz into the foo group; the emptied xyz group must disappear.
	rec = postJSON(t, svc, http.MethodPatch, taskURL+"/move-name", map[string]interface{}{
		"name":         "xyz",
		"source_group": "xyz",
		"target_group": "foo",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var moved map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	movedResult := moved["result"].(map[string]interface{})

	_, stillThere := movedResult["xyz"]
	assert.False(t, stillThere, "emptied source group should be deleted")
	assert.Len(t, movedResult["foo"], 4)

	// The edit must be persisted, not just reflected in the response.
	var reloaded map[string]interface{}
	getJSON(t, svc, taskURL, &reloaded)
	reloadedResult := reloaded["result"].(map[string]interface{})
	_, stillThere = reloadedResult["xyz"]
	assert.False(t, stillThere)
}

func TestMoveName_FieldErrors(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	ctx, cancelProcessor := context.WithCancel(context.Background())
	defer cancelProcessor()
	go func() { _ = svc.processor.Run(ctx) }()

	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names": []string{"foo_bar", "foo_baz"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	taskURL := created["url"]

	require.Eventually(t, func() bool {
		var detail map[string]interface{}
		r := getJSON(t, svc, taskURL, &detail)
		return r.Code == http.StatusOK && detail["status"] == "completed"
	}, 5*time.Second, 10*time.Millisecond)

	tests := []struct {
		name      string
		body      map[string]string
		wantField string
		wantMsg   string
	}{
		{
			name:      "unknown source group",
			body:      map[string]string{"name": "foo_bar", "source_group": "nope", "target_group": "foo"},
			wantField: "source_group",
			wantMsg:   "Group not found: nope.",
		},
		{
			name:      "name not in group",
			body:      map[string]string{"name": "other", "source_group": "foo", "target_group": "bar"},
			wantField: "name",
			wantMsg:   "'other' not found in group 'foo'.",
		},
		{
			name:      "missing fields",
			body:      map[string]string{"name": "foo_bar"},
			wantField: "source_group",
			wantMsg:   "This field is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, svc, http.MethodPatch, taskURL+"/move-name", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errs map[string][]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errs))
			require.NotEmpty(t, errs[tt.wantField])
			assert.Equal(t, tt.wantMsg, errs[tt.wantField][0])
		})
	}
}

func TestMoveName_TaskNotFound(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	rec := postJSON(t, svc, http.MethodPatch, "/api/grouping-tasks/missing/move-name", map[string]string{
		"name": "x", "source_group": "a", "target_group": "b",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPendingRecovery_ReprocessesOnStartup(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	// Create a task while no processor is running.
	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names": []string{"a_b", "a_c"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// A fresh processor must pick the task up from the database.
	processor := NewProcessor(svc.taskStore, svc.sseBroadcaster, svc.stats, 8, 1)
	ctx, cancelProcessor := context.WithCancel(context.Background())
	defer cancelProcessor()
	go func() { _ = processor.Run(ctx) }()

	require.Eventually(t, func() bool {
		var detail map[string]interface{}
		r := getJSON(t, svc, created["url"], &detail)
		return r.Code == http.StatusOK && detail["status"] == "completed"
	}, 5*time.Second, 10*time.Millisecond, "recovered task should complete")
}

func TestHandleHealth_ReturnsVersion(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	svc.version = "test-version-1.2.3"
	svc.ready.Store(true)

	var response map[string]interface{}
	rec := getJSON(t, svc, "/api/health", &response)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", response["status"])
	assert.Equal(t, "test-version-1.2.3", response["version"])
}

func TestHandleVersion(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	svc.version = "v2.0.0-beta"

	var response map[string]string
	rec := getJSON(t, svc, "/api/version", &response)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v2.0.0-beta", response["version"])
}

func TestHandleReady_ServiceNotReady(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	svc.ready.Store(false)

	rec := getJSON(t, svc, "/api/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireReadyMiddleware_Blocks(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	svc.ready.Store(false)

	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names": []string{"foo_bar"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleListProfiles(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	var response []map[string]interface{}
	rec := getJSON(t, svc, "/api/profiles", &response)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, response, 3)
	assert.Equal(t, "snake", response[0]["name"])
}

func TestStats_TrackLifecycle(t *testing.T) {
	svc, cleanup := testService(t)
	defer cleanup()

	ctx, cancelProcessor := context.WithCancel(context.Background())
	defer cancelProcessor()
	go func() { _ = svc.processor.Run(ctx) }()

	rec := postJSON(t, svc, http.MethodPost, "/api/grouping-tasks", map[string]interface{}{
		"names": []string{"foo_bar", "foo_baz"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Eventually(t, func() bool {
		return svc.stats.GetSnapshot().TasksCompleted == 1
	}, 5*time.Second, 10*time.Millisecond)

	snapshot := svc.stats.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.TasksCreated)
	assert.Equal(t, int64(2), snapshot.NamesGrouped)
	assert.GreaterOrEqual(t, snapshot.TotalRequests, int64(1))
}
