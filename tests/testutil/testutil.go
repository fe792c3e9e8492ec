// Package testutil provides common test utilities for the reimbursement backend.
// It contains database doubles, Gin test contexts, fixtures and polling assertions.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a new mock database speaking the postgres dialect.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// sqliteSchema mirrors migrations/000001_init with SQLite column types.
// jsonb columns become TEXT; uuids are stored as their string form.
var sqliteSchema = []string{
	`CREATE TABLE users (
		uid TEXT PRIMARY KEY,
		email TEXT, name TEXT, display_name TEXT, phone TEXT, bank_name TEXT, bank_account TEXT,
		default_committee TEXT, signature TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		project_ids TEXT NOT NULL DEFAULT '[]',
		bank_book_url TEXT, bank_book_path TEXT, bank_book_image TEXT,
		schema_version INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1, schema_version INTEGER NOT NULL DEFAULT 2,
		name TEXT NOT NULL, description TEXT, document_no TEXT,
		budget_config TEXT NOT NULL DEFAULT '{}',
		director_approval_threshold INTEGER NOT NULL DEFAULT 600000,
		budget_warning_threshold INTEGER NOT NULL DEFAULT 85,
		member_uids TEXT NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE requests (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1, schema_version INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL, project_id TEXT,
		payee TEXT NOT NULL, phone TEXT NOT NULL, bank_name TEXT NOT NULL, bank_account TEXT NOT NULL,
		date TEXT NOT NULL, session TEXT, committee TEXT NOT NULL,
		items TEXT NOT NULL, total_amount INTEGER NOT NULL, receipts TEXT NOT NULL, comments TEXT,
		requested_by_uid TEXT NOT NULL, requested_by TEXT NOT NULL, approved_by TEXT,
		approval_signature TEXT, approved_at DATETIME, rejection_reason TEXT,
		settlement_id TEXT, original_request_id TEXT
	)`,
	`CREATE TABLE settlements (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
		version INTEGER NOT NULL DEFAULT 1, schema_version INTEGER NOT NULL DEFAULT 1,
		project_id TEXT, committee TEXT NOT NULL, session TEXT,
		payee TEXT NOT NULL, phone TEXT, bank_name TEXT, bank_account TEXT,
		items TEXT NOT NULL, total_amount INTEGER NOT NULL, request_ids TEXT NOT NULL, receipts TEXT NOT NULL,
		requested_by_signature TEXT, approval_signature TEXT, approved_by TEXT, created_by TEXT NOT NULL
	)`,
	`CREATE TABLE settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// NewSQLiteDB opens an in-memory SQLite database carrying the application schema
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error, "Failed to create schema")
	}
	return db
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{Context: c, Recorder: w, Engine: engine}
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// RequireEventually retries condition until it passes or fails the test on timeout.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
