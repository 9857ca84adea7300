package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/basicblog/gateway/internal/services"
)

func TestIndexRedirectsToBlog(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Errorf("Expected 302 from index, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/Blog" {
		t.Errorf("Expected redirect to /Blog, got %q", loc)
	}
}

func TestAboutPage(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)

	req := httptest.NewRequest("GET", "/About", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["message"] != "Your application description page." {
		t.Errorf("Unexpected about message: %v", body["message"])
	}
}

func TestCreateBlogRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)

	resp := postJSON(t, app, "/Blog", map[string]string{
		"title": "post", "blogText": "text",
	}, nil)
	if resp.StatusCode != 401 {
		t.Errorf("Expected 401 for anonymous create, got %d", resp.StatusCode)
	}
}

func TestCreateBlogOwnedByCaller(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)
	cookie := register(t, app, "alice", "pw")

	resp := postJSON(t, app, "/Blog", map[string]string{
		"title": "First Post", "blogText": "Hello",
	}, cookie)
	if resp.StatusCode != 201 {
		t.Fatalf("Expected 201 from create, got %d", resp.StatusCode)
	}

	var created map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if created["ownerId"] == "" || created["ownerId"] == nil {
		t.Fatal("Expected ownerId on the created blog")
	}

	// The owner is the session's user, not anything from the payload
	principal, err := services.Authenticate(db, "alice", "pw")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}
	if created["ownerId"] != principal.UserID {
		t.Errorf("Expected owner %s, got %v", principal.UserID, created["ownerId"])
	}
}

func TestCreateBlogEmptyTitle(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)
	cookie := register(t, app, "alice", "pw")

	resp := postJSON(t, app, "/Blog", map[string]string{
		"title": "  ", "blogText": "text",
	}, cookie)
	if resp.StatusCode != 409 {
		t.Errorf("Expected 409 for blank title, got %d", resp.StatusCode)
	}
}

func TestGetBlogMalformedID(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)

	req := httptest.NewRequest("GET", "/Blog/not-a-number", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404 for malformed id, got %d", resp.StatusCode)
	}
}

func TestListBlogsPublic(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)
	cookie := register(t, app, "alice", "pw")

	resp := postJSON(t, app, "/Blog", map[string]string{
		"title": "visible", "blogText": "text",
	}, cookie)
	if resp.StatusCode != 201 {
		t.Fatalf("Expected 201 from create, got %d", resp.StatusCode)
	}

	// Anonymous read
	req := httptest.NewRequest("GET", "/Blog", nil)
	resp2, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}
	if resp2.StatusCode != 200 {
		t.Fatalf("Expected 200 from list, got %d", resp2.StatusCode)
	}
	var blogs []map[string]interface{}
	if err := json.NewDecoder(resp2.Body).Decode(&blogs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(blogs) != 1 {
		t.Errorf("Expected 1 blog, got %d", len(blogs))
	}
}

// The legacy form-post shape carries the blog id in the body, as either a
// JSON number or a numeric string.
func TestAddCommentByBody(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)
	cookie := register(t, app, "alice", "pw")

	resp := postJSON(t, app, "/Blog", map[string]string{
		"title": "post", "blogText": "text",
	}, cookie)
	if resp.StatusCode != 201 {
		t.Fatalf("Expected 201 from create, got %d", resp.StatusCode)
	}
	var created map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	blogID := fmt.Sprintf("%v", created["id"])

	// Anonymous comment, id as a string
	resp = postJSON(t, app, "/comments", map[string]string{
		"blogId":      blogID,
		"username":    "drive-by reader",
		"commentText": "nice",
	}, nil)
	if resp.StatusCode != 201 {
		t.Fatalf("Expected 201 from comment, got %d", resp.StatusCode)
	}

	// Missing blogId is a validation error
	resp = postJSON(t, app, "/comments", map[string]string{
		"username": "reader", "commentText": "text",
	}, nil)
	if resp.StatusCode != 409 {
		t.Errorf("Expected 409 for missing blogId, got %d", resp.StatusCode)
	}

	// Unknown blog is a 404
	resp = postJSON(t, app, "/comments", map[string]interface{}{
		"blogId": 9999, "username": "reader", "commentText": "text",
	}, nil)
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404 for unknown blog, got %d", resp.StatusCode)
	}
}

// POST /Users requires the admin role; role lists accept a single string
// or an array.
func TestCreateUserRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	app := newTestApp(t, db)
	cookie := register(t, app, "alice", "pw")

	resp := postJSON(t, app, "/Users", map[string]interface{}{
		"username": "bob", "password": "pw", "roles": "editor",
	}, cookie)
	if resp.StatusCode != 403 {
		t.Fatalf("Expected 403 for non-admin, got %d", resp.StatusCode)
	}

	// Bootstrap an admin and retry
	if err := services.EnsureAdminUser(db, "root", "rootpw"); err != nil {
		t.Fatalf("Failed to bootstrap admin: %v", err)
	}
	adminCookie := login(t, app, "root", "rootpw")

	resp = postJSON(t, app, "/Users", map[string]interface{}{
		"username": "bob", "password": "pw", "roles": "editor",
	}, adminCookie)
	if resp.StatusCode != 201 {
		t.Fatalf("Expected 201 from admin create, got %d", resp.StatusCode)
	}
	var created map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	roles, ok := created["roles"].([]interface{})
	if !ok || len(roles) != 1 || roles[0] != "editor" {
		t.Errorf("Expected roles [editor], got %v", created["roles"])
	}
}
