package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/basicblog/gateway/internal/middleware"
	"github.com/basicblog/gateway/internal/models"
	"github.com/basicblog/gateway/internal/routing"
	"github.com/basicblog/gateway/internal/services"
	"github.com/basicblog/gateway/internal/types"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Blog{},
		&models.Comment{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func parseTable(t *testing.T, src string) *routing.Table {
	table, err := routing.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Failed to parse route table: %v", err)
	}
	return table
}

// newApp builds a fiber app with the full middleware chain and a probe
// route that echoes the resolved principal's username.
func newApp(t *testing.T, db *gorm.DB, tableSrc string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if customErr, ok := err.(*types.CustomError); ok {
				return c.Status(customErr.Code).JSON(fiber.Map{"message": customErr.Message})
			}
			return c.Status(500).SendString(err.Error())
		},
	})
	app.Use(middleware.Principal(db, false))
	app.Use(middleware.Authorize(parseTable(t, tableSrc)))
	app.Get("/probe", func(c *fiber.Ctx) error {
		return c.SendString(middleware.PrincipalFromCtx(c).Username)
	})
	return app
}

func makeSession(t *testing.T, db *gorm.DB, username string, roles []string) string {
	user, err := services.RegisterUser(db, username, "pw", roles)
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}
	token, err := services.CreateSession(db, user.ID, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return token
}

const authedTable = `[{"match": "/probe", "destinationKind": "local", "auth": "authenticated"}]`
const roleTable = `[{"match": "/probe", "destinationKind": "local", "auth": "role:admin"}]`
const anonTable = `[{"match": "/probe", "destinationKind": "local", "auth": "anonymous"}]`

func TestAuthorizeNoCookieJSON(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, authedTable)

	req := httptest.NewRequest("GET", "/probe", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401 for anonymous API client, got %d", resp.StatusCode)
	}
}

// Browser clients asking for HTML get a redirect to the login page instead
// of a bare 401.
func TestAuthorizeNoCookieHTMLRedirect(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, authedTable)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Accept", "text/html")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Errorf("Expected 302 for anonymous browser client, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/auth/login" {
		t.Errorf("Expected redirect to /auth/login, got %q", loc)
	}
}

func TestAuthorizeValidSession(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, authedTable)
	token := makeSession(t, db, "alice", nil)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200 for authenticated request, got %d", resp.StatusCode)
	}
}

func TestAuthorizeRoleRule(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, roleTable)

	plainToken := makeSession(t, db, "alice", nil)
	adminToken := makeSession(t, db, "root", []string{"admin"})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: plainToken})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("Expected 403 without the role, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: adminToken})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200 with the role, got %d", resp.StatusCode)
	}
}

// A stale cookie downgrades the request to anonymous and clears the cookie
// on the response; it is not an error on anonymous routes.
func TestStaleCookieCleared(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, anonTable)

	req := httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "no-such-token"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200 on anonymous route, got %d", resp.StatusCode)
	}

	cleared := false
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookieName && cookie.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected stale session cookie to be cleared on the response")
	}
}

func TestRevokedSessionIsAnonymousImmediately(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, authedTable)
	token := makeSession(t, db, "alice", nil)

	if err := services.RevokeSession(db, token); err != nil {
		t.Fatalf("Failed to revoke session: %v", err)
	}

	req := httptest.NewRequest("GET", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401 right after revocation, got %d", resp.StatusCode)
	}
}

// Paths the table does not cover must 404 before any handler runs.
func TestAuthorizeUnmatchedPath(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, anonTable)

	req := httptest.NewRequest("GET", "/elsewhere", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404 for unrouted path, got %d", resp.StatusCode)
	}
}

func TestRequireRoleOnLocalRoute(t *testing.T) {
	db := setupTestDB(t)
	app := newApp(t, db, anonTable)
	app.Post("/probe", middleware.RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})

	token := makeSession(t, db, "alice", nil)

	// Anonymous POST on an anonymous table rule still meets the per-route guard
	req := httptest.NewRequest("POST", "/probe", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401 for anonymous caller, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/probe", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("Expected 403 for caller without role, got %d", resp.StatusCode)
	}
}
