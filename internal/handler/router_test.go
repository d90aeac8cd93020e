package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cipherstudio/internal/auth"
	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/domain/services"
)

const testSecret = "test-secret"

// stubProjectService records the last caller and serves canned data.
type stubProjectService struct {
	lastUserID string
	project    *models.Project
}

func (s *stubProjectService) CreateProject(ctx context.Context, req *services.CreateProjectRequest) (*services.ProjectWithNodes, error) {
	s.lastUserID = req.UserID
	if req.UserID == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}
	if req.Name == "" {
		return nil, &domain.ValidationError{Message: "project name is required"}
	}
	return &services.ProjectWithNodes{Project: s.project}, nil
}

func (s *stubProjectService) GetProjectBySlug(ctx context.Context, slug, userID string) (*services.ProjectWithNodes, error) {
	s.lastUserID = userID
	if slug != s.project.Slug {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("project %q not found", slug)}
	}
	return &services.ProjectWithNodes{Project: s.project}, nil
}

func (s *stubProjectService) ListProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	s.lastUserID = userID
	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "authentication required"}
	}
	return []*models.Project{s.project}, nil
}

func (s *stubProjectService) UpdateProject(ctx context.Context, id, userID string, req *services.UpdateProjectRequest) (*models.Project, error) {
	return s.project, nil
}

func (s *stubProjectService) DeleteProject(ctx context.Context, id, userID string) error {
	if userID != s.project.UserID {
		return &domain.ForbiddenError{Message: "you do not own this project"}
	}
	return nil
}

func (s *stubProjectService) ForkProject(ctx context.Context, id, userID string) (*services.ProjectWithNodes, error) {
	return &services.ProjectWithNodes{Project: s.project}, nil
}

type stubNodeService struct{}

func (stubNodeService) CreateNode(ctx context.Context, req *services.CreateNodeRequest) (*models.Node, error) {
	return &models.Node{ID: "n1", Name: req.Name, Type: req.Type, Path: "/" + req.Name}, nil
}

func (stubNodeService) GetNode(ctx context.Context, id, userID string) (*models.Node, error) {
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
}

func (stubNodeService) UpdateNode(ctx context.Context, id string, req *services.UpdateNodeRequest) (*models.Node, error) {
	return &models.Node{ID: id}, nil
}

func (stubNodeService) DeleteNode(ctx context.Context, id, userID string) error { return nil }

func (stubNodeService) MoveNode(ctx context.Context, id string, req *services.MoveNodeRequest) (*models.Node, error) {
	return &models.Node{ID: id, ParentID: req.NewParentID}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

func newTestServer(t *testing.T) (*httptest.Server, *stubProjectService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier, err := auth.NewVerifier(testSecret, logger)
	if err != nil {
		t.Fatal(err)
	}

	stub := &stubProjectService{
		project: &models.Project{ID: "p1", Slug: "demo-1", Name: "Demo", UserID: "user-1"},
	}
	srv := httptest.NewServer(NewRouter(stub, stubNodeService{}, verifier, logger))
	t.Cleanup(srv.Close)
	return srv, stub
}

func doRequest(t *testing.T, method, url, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, env
}

func signTestToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.SignToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, env := doRequest(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}
}

func TestAuthPropagation(t *testing.T) {
	srv, stub := newTestServer(t)
	token := signTestToken(t, "user-1")

	resp, env := doRequest(t, http.MethodPost, srv.URL+"/api/projects", token,
		map[string]string{"name": "Demo"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", resp.StatusCode, env.Message)
	}
	if stub.lastUserID != "user-1" {
		t.Errorf("service saw user %q", stub.lastUserID)
	}
}

func TestAnonymousRequestsPassThrough(t *testing.T) {
	srv, stub := newTestServer(t)

	// No token: the request reaches the service anonymously, which decides.
	resp, env := doRequest(t, http.MethodGet, srv.URL+"/api/projects", "", nil)
	if resp.StatusCode != http.StatusUnauthorized || env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}
	if stub.lastUserID != "" {
		t.Errorf("anonymous request carried user %q", stub.lastUserID)
	}

	// Public reads work without a token.
	resp, _ = doRequest(t, http.MethodGet, srv.URL+"/api/projects/demo-1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public read status = %d", resp.StatusCode)
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, env := doRequest(t, http.MethodGet, srv.URL+"/api/projects", "garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized || env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signTestToken(t, "someone-else")

	tests := []struct {
		name   string
		method string
		url    string
		body   any
		want   int
	}{
		{"missing node", http.MethodGet, srv.URL + "/api/files/ghost", nil, http.StatusNotFound},
		{"missing project", http.MethodGet, srv.URL + "/api/projects/nope", nil, http.StatusNotFound},
		{"forbidden delete", http.MethodDelete, srv.URL + "/api/projects/p1", nil, http.StatusForbidden},
		{"validation", http.MethodPost, srv.URL + "/api/projects", map[string]string{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := doRequest(t, tt.method, tt.url, token, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if env.Success {
				t.Error("error responses must not be marked successful")
			}
		})
	}
}

func TestMoveEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	token := signTestToken(t, "user-1")

	resp, env := doRequest(t, http.MethodPut, srv.URL+"/api/files/n1/move", token,
		map[string]*string{"new_parent_id": nil})
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", resp.StatusCode, env.Success)
	}

	var node models.Node
	if err := json.Unmarshal(env.Data, &node); err != nil {
		t.Fatal(err)
	}
	if node.ID != "n1" || node.ParentID != nil {
		t.Errorf("node = %+v", node)
	}
}
