package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/equezada327/pro-tasker-backend/internal/config"
)

const testSchema = `
CREATE TABLE users(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX users_email_lower_idx ON users (LOWER(email));

CREATE TABLE projects(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX projects_owner_name_idx ON projects (user_id, name);

CREATE TABLE tasks(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'todo',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

func newTestServer(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("create test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Port:      "0",
		JWTSecret: "test-secret",
		DBTimeout: 5 * time.Second,
	}
	return NewRouter(cfg, db), db
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerAndLogin(t *testing.T, h http.Handler, username, email, password string) string {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": username, "email": email, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("login returned no token")
	}
	return resp.Token
}

// The whole happy path of the API: register, login, project, nested task,
// status patch, cascade delete, dangling task read.
func TestEndToEnd_ProjectAndTaskLifecycle(t *testing.T) {
	h, _ := newTestServer(t)
	token := registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	rec := do(t, h, http.MethodPost, "/api/projects", token, map[string]string{"name": "P1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: %d %s", rec.Code, rec.Body)
	}
	var project struct {
		ID int64 `json:"id"`
	}
	decode(t, rec, &project)

	rec = do(t, h, http.MethodPost, "/api/projects/1/tasks", token, map[string]string{"title": "T1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", rec.Code, rec.Body)
	}
	var task struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	decode(t, rec, &task)
	if task.Status != "todo" {
		t.Fatalf("default status = %q, want todo", task.Status)
	}

	rec = do(t, h, http.MethodPatch, "/api/tasks/1/status", token, map[string]string{"status": "in_progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/tasks/1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get task: %d %s", rec.Code, rec.Body)
	}
	decode(t, rec, &task)
	if task.Status != "in_progress" {
		t.Fatalf("status = %q, want in_progress", task.Status)
	}

	rec = do(t, h, http.MethodDelete, "/api/projects/1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete project: %d %s", rec.Code, rec.Body)
	}
	var deleted struct {
		DeletedTasks int64 `json:"deleted_tasks"`
	}
	decode(t, rec, &deleted)
	if deleted.DeletedTasks != 1 {
		t.Fatalf("deleted_tasks = %d, want 1", deleted.DeletedTasks)
	}

	rec = do(t, h, http.MethodGet, "/api/tasks/1", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("task after cascade: %d, want 404", rec.Code)
	}
}

func TestEndToEnd_LoginFailuresIndistinguishable(t *testing.T) {
	h, _ := newTestServer(t)
	registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	wrongPass := do(t, h, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	noUser := do(t, h, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	})

	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses %d / %d, want 401 / 401", wrongPass.Code, noUser.Code)
	}
	if wrongPass.Body.String() != noUser.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", wrongPass.Body, noUser.Body)
	}
}

func TestCrossUserIsolation(t *testing.T) {
	h, _ := newTestServer(t)
	aliceToken := registerAndLogin(t, h, "alice", "alice@example.com", "password123")
	bobToken := registerAndLogin(t, h, "bob", "bob@example.com", "password123")

	rec := do(t, h, http.MethodPost, "/api/projects", aliceToken, map[string]string{"name": "Private"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPost, "/api/projects/1/tasks", aliceToken, map[string]string{"title": "secret"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", rec.Code, rec.Body)
	}

	// Bob sees nothing, and every direct probe answers 404, never 403.
	rec = do(t, h, http.MethodGet, "/api/projects", bobToken, nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("bob list = %d %q, want empty array", rec.Code, rec.Body)
	}
	for _, probe := range []struct{ method, path string }{
		{http.MethodGet, "/api/projects/1"},
		{http.MethodPut, "/api/projects/1"},
		{http.MethodDelete, "/api/projects/1"},
		{http.MethodGet, "/api/tasks/1"},
		{http.MethodPut, "/api/tasks/1"},
		{http.MethodDelete, "/api/tasks/1"},
		{http.MethodGet, "/api/projects/1/tasks"},
	} {
		var body any
		if probe.method == http.MethodPut {
			body = map[string]string{"name": "Hijack", "title": "Hijack"}
		}
		rec := do(t, h, probe.method, probe.path, bobToken, body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s as bob: %d, want 404", probe.method, probe.path, rec.Code)
		}
	}
}

func TestAuthRequired_OnEveryProtectedRoute(t *testing.T) {
	h, _ := newTestServer(t)

	for _, path := range []string{"/api/projects", "/api/tasks", "/api/tasks/stats", "/api/users/me", "/api/users"} {
		rec := do(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s unauthenticated: %d, want 401", path, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/projects", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: %d, want 401", rec.Code)
	}
}

func TestAuth_TokenForDeletedUserRefused(t *testing.T) {
	h, db := newTestServer(t)
	token := registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	if _, err := db.Exec("DELETE FROM users WHERE email = 'alice@example.com'"); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	rec := do(t, h, http.MethodGet, "/api/projects", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user token: %d, want 401", rec.Code)
	}
}

func TestAdminGate_OnUserListing(t *testing.T) {
	h, db := newTestServer(t)
	token := registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	rec := do(t, h, http.MethodGet, "/api/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin listing: %d, want 403", rec.Code)
	}

	if _, err := db.Exec("UPDATE users SET role = 'admin' WHERE email = 'alice@example.com'"); err != nil {
		t.Fatalf("promote: %v", err)
	}

	rec = do(t, h, http.MethodGet, "/api/users", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin listing: %d %s", rec.Code, rec.Body)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password_hash")) {
		t.Fatal("listing leaks password hashes")
	}
}

func TestStats_EmptyOwner(t *testing.T) {
	h, _ := newTestServer(t)
	token := registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	rec := do(t, h, http.MethodGet, "/api/tasks/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body)
	}
	var stats struct {
		Total          int64 `json:"total"`
		CompletionRate int64 `json:"completion_rate"`
	}
	decode(t, rec, &stats)
	if stats.Total != 0 || stats.CompletionRate != 0 {
		t.Fatalf("stats = %+v, want zeros", stats)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, _ := newTestServer(t)
	registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	rec := do(t, h, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice2", "email": "ALICE@example.com", "password": "password456",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d, want 409", rec.Code)
	}
}

func TestValidation_FieldMessages(t *testing.T) {
	h, _ := newTestServer(t)
	token := registerAndLogin(t, h, "alice", "alice@example.com", "password123")

	rec := do(t, h, http.MethodPost, "/api/projects", token, map[string]string{"name": "ab"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short name: %d, want 400", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &body)
	if body.Fields["name"] == "" {
		t.Fatalf("missing field message: %s", rec.Body)
	}
}
