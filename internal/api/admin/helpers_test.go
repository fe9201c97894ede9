package admin

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/middleware"
)

// ---------------------------------------------------------------------------
// Shared fixtures
// ---------------------------------------------------------------------------

const (
	testOrgID  = "11111111-0000-0000-0000-000000000001"
	testSlug   = "dar-tajine-fes-a1b2c3"
	testUserID = "22222222-0000-0000-0000-000000000002"
)

var errDB = errors.New("connection reset")

var orgCols = []string{
	"id", "slug", "name", "city", "whatsapp_phone", "currency", "published",
	"created_at", "updated_at",
}

var userCols = []string{
	"id", "email", "name", "password_hash", "oidc_sub", "is_admin", "created_at", "updated_at",
}

func sampleOrgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgCols).AddRow(
		testOrgID, testSlug, "Dar Tajine", "Fes", "212600000000", "MAD", false,
		time.Now(), time.Now(),
	)
}

func emptyOrgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgCols)
}

func testUser() *models.User {
	return &models.User{ID: testUserID, Email: "owner@example.com", Name: "Owner"}
}

// withUser stands in for AuthMiddleware.
func withUser(user *models.User, claims *auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.UserKey, user)
			c.Set(middleware.UserIDKey, user.ID)
		}
		if claims != nil {
			c.Set(middleware.ClaimsKey, claims)
		}
		c.Next()
	}
}

func newMockDB(t *testing.T) (*sql.DB, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, sqlx.NewDb(db, "postgres"), mock
}

func getJSON(w *httptest.ResponseRecorder) map[string]any {
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	return m
}

func jsonBody(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// serve sends body as JSON when it is non-nil.
func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, jsonBody(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
