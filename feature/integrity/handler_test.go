package integrity

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"party-ledger/core/storage/mocks"
	"party-ledger/feature/ledger/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

type fakeQueue struct {
	entries []store.PendingEntry
	err     error
}

func (q *fakeQueue) Pending() ([]store.PendingEntry, error) {
	return q.entries, q.err
}

func setupTestApp(t *testing.T, queue *fakeQueue) (*fiber.App, *mocks.Client, sqlmock.Sqlmock) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	db, sqlMock := setupMockDB(t)
	feature := NewFeature(mockClient, "ledger", []string{"snapshots"}, zap.NewNop(), db, queue)
	require.NoError(t, feature.Load(app))
	return app, mockClient, sqlMock
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestLoader(t *testing.T) {
	feature := NewFeature(nil, "ledger", nil, zap.NewNop(), nil, &fakeQueue{})
	assert.Equal(t, "integrity", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}

func TestHandleStructureCheck(t *testing.T) {
	app, mockClient, _ := setupTestApp(t, &fakeQueue{})

	mockClient.On("BucketExists", mock.Anything, "ledger").Return(true, nil)
	ch := make(chan minio.ObjectInfo)
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "ledger", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	status, body := getJSON(t, app, "/integrity/structure")
	assert.Equal(t, 200, status)
	assert.Equal(t, "checked", body["status"])
	assert.Equal(t, []any{"snapshots"}, body["missing"])
}

func TestHandleStructureCheck_Fix(t *testing.T) {
	app, mockClient, _ := setupTestApp(t, &fakeQueue{})

	mockClient.On("BucketExists", mock.Anything, "ledger").Return(true, nil)
	ch := make(chan minio.ObjectInfo)
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "ledger", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
	mockClient.On("PutObject", mock.Anything, "ledger", "snapshots/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	status, body := getJSON(t, app, "/integrity/structure?fix=true")
	assert.Equal(t, 200, status)
	assert.Equal(t, "fixed", body["status"])
	mockClient.AssertExpectations(t)
}

func TestHandleStructureCheck_NoStorage(t *testing.T) {
	app := fiber.New()
	require.NoError(t, NewFeature(nil, "ledger", []string{"snapshots"}, zap.NewNop(), nil, &fakeQueue{}).Load(app))

	status, body := getJSON(t, app, "/integrity/structure")
	assert.Equal(t, 500, status)
	assert.Contains(t, body["error"], "not configured")
}

func TestHandleSchemaCheck(t *testing.T) {
	app, _, sqlMock := setupTestApp(t, &fakeQueue{})

	cols := []string{"Field", "Type", "Null", "Key", "Default", "Extra"}
	sqlMock.ExpectQuery("SHOW COLUMNS FROM `games`").WillReturnRows(sqlmock.NewRows(cols).AddRow("id", "varchar(64)", "NO", "PRI", nil, ""))
	sqlMock.ExpectQuery("SHOW COLUMNS FROM `players`").WillReturnRows(sqlmock.NewRows(cols))
	sqlMock.ExpectQuery("SHOW COLUMNS FROM `transactions`").WillReturnRows(sqlmock.NewRows(cols))
	sqlMock.ExpectQuery("SHOW COLUMNS FROM `player_adjustments`").WillReturnRows(sqlmock.NewRows(cols))

	status, body := getJSON(t, app, "/integrity/schema")
	assert.Equal(t, 200, status)
	assert.Equal(t, false, body["matched"])
	assert.Equal(t, "mysql", body["driver"])
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestHandleQueueCheck(t *testing.T) {
	queue := &fakeQueue{entries: []store.PendingEntry{
		{ID: "e1", Entity: store.EntityGame, State: store.StateQueued, Attempts: 1, CreatedAt: 10},
	}}
	app, _, _ := setupTestApp(t, queue)

	status, body := getJSON(t, app, "/integrity/queue")
	assert.Equal(t, 200, status)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, float64(1), body["pending"])

	queue.err = errors.New("cache unreadable")
	status, body = getJSON(t, app, "/integrity/queue")
	assert.Equal(t, 500, status)
	assert.Equal(t, "cache unreadable", body["error"])
}

func TestHandleIntegrityCheck(t *testing.T) {
	app := fiber.New()
	require.NoError(t, NewFeature(nil, "ledger", nil, zap.NewNop(), nil, &fakeQueue{}).Load(app))

	status, body := getJSON(t, app, "/integrity")
	assert.Equal(t, 200, status)

	structure := body["structure"].(map[string]any)
	assert.Equal(t, "error", structure["status"])
	schema := body["schema"].(map[string]any)
	assert.Equal(t, "error", schema["status"])
	queue := body["queue"].(map[string]any)
	assert.Equal(t, "ok", queue["status"])
}
