package admin

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/cache"
	"github.com/menuhub/menuhub/internal/config"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Router helper
// ---------------------------------------------------------------------------

const userByEmailQuery = `SELECT .* FROM users WHERE email = \$1`

func newAuthRouter(t *testing.T, user *models.User, claims *auth.Claims) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, _, mock := newMockDB(t)

	cfg := &config.Config{}
	cfg.App.URL = "https://menuhub.example"
	cfg.Auth.AccessTokenTTL = time.Hour
	cfg.Auth.RefreshWindow = 24 * time.Hour

	h := NewAuthHandlers(cfg,
		repositories.NewUserRepository(db),
		repositories.NewOrganizationRepository(db),
		cache.NewMemory("test:"),
		nil,
	)

	r := gin.New()
	r.POST("/auth/login", h.LoginHandler())
	r.GET("/auth/oidc/login", h.OIDCLoginHandler())
	r.GET("/auth/oidc/callback", h.OIDCCallbackHandler())

	authed := r.Group("/auth", withUser(user, claims))
	authed.POST("/refresh", h.RefreshHandler())
	authed.GET("/me", h.MeHandler())
	return mock, r
}

func userRow(hash *string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		testUserID, "owner@example.com", "Owner", hash, nil, false, time.Now(), time.Now(),
	)
}

// ---------------------------------------------------------------------------
// LoginHandler
// ---------------------------------------------------------------------------

func TestLogin_Success(t *testing.T) {
	mock, r := newAuthRouter(t, nil, nil)
	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	mock.ExpectQuery(userByEmailQuery).
		WithArgs("owner@example.com").
		WillReturnRows(userRow(&hash))

	w := serve(r, http.MethodPost, "/auth/login", map[string]string{
		"email":    "  Owner@Example.com ",
		"password": "correct horse battery",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("response missing token")
	}
	claims, err := auth.ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != testUserID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, testUserID)
	}
	if resp["expires_in"] != float64(3600) {
		t.Errorf("expires_in = %v, want 3600", resp["expires_in"])
	}
	if strings.Contains(w.Body.String(), hash) {
		t.Error("response leaks the password hash")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	mock, r := newAuthRouter(t, nil, nil)
	hash, _ := auth.HashPassword("correct horse battery")

	mock.ExpectQuery(userByEmailQuery).WillReturnRows(userRow(&hash))

	w := serve(r, http.MethodPost, "/auth/login", map[string]string{
		"email": "owner@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	mock, r := newAuthRouter(t, nil, nil)

	mock.ExpectQuery(userByEmailQuery).WillReturnRows(sqlmock.NewRows(userCols))

	w := serve(r, http.MethodPost, "/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if getJSON(w)["error"] != "Invalid email or password" {
		t.Errorf("error = %v", getJSON(w)["error"])
	}
}

func TestLogin_OIDCOnlyAccount(t *testing.T) {
	mock, r := newAuthRouter(t, nil, nil)

	mock.ExpectQuery(userByEmailQuery).WillReturnRows(userRow(nil))

	w := serve(r, http.MethodPost, "/auth/login", map[string]string{
		"email": "owner@example.com", "password": "anything",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	_, r := newAuthRouter(t, nil, nil)

	w := serve(r, http.MethodPost, "/auth/login", map[string]string{"email": "owner@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLogin_DBError(t *testing.T) {
	mock, r := newAuthRouter(t, nil, nil)

	mock.ExpectQuery(userByEmailQuery).WillReturnError(errDB)

	w := serve(r, http.MethodPost, "/auth/login", map[string]string{
		"email": "owner@example.com", "password": "x",
	})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// RefreshHandler
// ---------------------------------------------------------------------------

func claimsIssuedAt(at time.Time) *auth.Claims {
	return &auth.Claims{
		UserID: testUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(at),
		},
	}
}

func TestRefresh_Success(t *testing.T) {
	_, r := newAuthRouter(t, testUser(), claimsIssuedAt(time.Now().Add(-time.Hour)))

	w := serve(r, http.MethodPost, "/auth/refresh", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
	if tok, _ := getJSON(w)["token"].(string); tok == "" {
		t.Error("response missing token")
	}
}

func TestRefresh_WindowExceeded(t *testing.T) {
	_, r := newAuthRouter(t, testUser(), claimsIssuedAt(time.Now().Add(-48*time.Hour)))

	w := serve(r, http.MethodPost, "/auth/refresh", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_NoClaims(t *testing.T) {
	_, r := newAuthRouter(t, testUser(), nil)

	w := serve(r, http.MethodPost, "/auth/refresh", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// MeHandler
// ---------------------------------------------------------------------------

func TestMe_Success(t *testing.T) {
	mock, r := newAuthRouter(t, testUser(), nil)

	cols := append(append([]string{}, orgCols...), "role")
	mock.ExpectQuery("SELECT .* FROM organizations o INNER JOIN organization_members m").
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			testOrgID, testSlug, "Dar Tajine", "Fes", "", "MAD", true, time.Now(), time.Now(), "owner",
		))

	w := serve(r, http.MethodGet, "/auth/me", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	orgs, _ := resp["organizations"].([]any)
	if len(orgs) != 1 {
		t.Fatalf("organizations = %v, want 1 entry", resp["organizations"])
	}
	if role := orgs[0].(map[string]any)["role"]; role != "owner" {
		t.Errorf("role = %v, want owner", role)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	_, r := newAuthRouter(t, nil, nil)

	w := serve(r, http.MethodGet, "/auth/me", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// OIDC handlers without a configured provider
// ---------------------------------------------------------------------------

func TestOIDCLogin_NotConfigured(t *testing.T) {
	_, r := newAuthRouter(t, nil, nil)

	w := serve(r, http.MethodGet, "/auth/oidc/login", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestOIDCCallback_NotConfiguredRedirects(t *testing.T) {
	_, r := newAuthRouter(t, nil, nil)

	w := serve(r, http.MethodGet, "/auth/oidc/callback?code=abc&state=xyz", nil)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Host != "menuhub.example" || loc.Path != "/auth/callback" {
		t.Errorf("Location = %s, want the web app callback page", loc)
	}
	if got := loc.Query().Get("error"); got != "provider_not_configured" {
		t.Errorf("error = %q, want provider_not_configured", got)
	}
}
