package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/domain/services"
)

func testServices(t *testing.T) (services.ProjectService, services.NodeService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projectRepo := newMemProjectRepo()
	nodeRepo := newMemNodeRepo()
	tx := memTxManager{}
	return NewProjectService(projectRepo, nodeRepo, tx, logger),
		NewNodeService(nodeRepo, projectRepo, tx, logger)
}

func createTestProject(t *testing.T, svc services.ProjectService, userID string) *services.ProjectWithNodes {
	t.Helper()
	pw, err := svc.CreateProject(context.Background(), &services.CreateProjectRequest{
		UserID:    userID,
		Name:      "My App",
		Framework: models.FrameworkReact,
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return pw
}

func TestCreateProjectScaffolds(t *testing.T) {
	svc, _ := testServices(t)
	pw := createTestProject(t, svc, "user-1")

	if pw.Project.Slug == "" || pw.Project.ID == "" {
		t.Fatal("project missing id or slug")
	}
	if pw.Project.Visibility != models.VisibilityPrivate {
		t.Errorf("default visibility = %q, want private", pw.Project.Visibility)
	}
	if len(pw.Files) == 0 {
		t.Fatal("starter files missing")
	}

	byPath := make(map[string]*models.Node)
	for _, n := range pw.Files {
		byPath[n.Path] = n
	}
	for _, path := range []string{"/src", "/src/App.js", "/src/index.js", "/package.json"} {
		if byPath[path] == nil {
			t.Errorf("starter tree missing %s", path)
		}
	}
}

func TestCreateProjectValidation(t *testing.T) {
	svc, _ := testServices(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  services.CreateProjectRequest
		want error
	}{
		{"anonymous", services.CreateProjectRequest{Name: "X"}, domain.ErrUnauthorized},
		{"empty name", services.CreateProjectRequest{UserID: "u", Name: ""}, domain.ErrValidation},
		{"bad framework", services.CreateProjectRequest{UserID: "u", Name: "X", Framework: "angular"}, domain.ErrValidation},
		{"bad visibility", services.CreateProjectRequest{UserID: "u", Name: "X", Visibility: "secret"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateProject(ctx, &tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetProjectVisibility(t *testing.T) {
	svc, _ := testServices(t)
	ctx := context.Background()
	pw := createTestProject(t, svc, "owner")

	// Owner reads their private project.
	if _, err := svc.GetProjectBySlug(ctx, pw.Project.Slug, "owner"); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	// Strangers and anonymous readers are rejected.
	if _, err := svc.GetProjectBySlug(ctx, pw.Project.Slug, "stranger"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger read err = %v, want forbidden", err)
	}
	if _, err := svc.GetProjectBySlug(ctx, pw.Project.Slug, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous read err = %v, want unauthorized", err)
	}

	// Public projects are readable by anyone.
	public := models.VisibilityPublic
	if _, err := svc.UpdateProject(ctx, pw.Project.ID, "owner", &services.UpdateProjectRequest{Visibility: &public}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetProjectBySlug(ctx, pw.Project.Slug, ""); err != nil {
		t.Errorf("anonymous read of public project: %v", err)
	}
}

func TestUpdateProjectOwnership(t *testing.T) {
	svc, _ := testServices(t)
	ctx := context.Background()
	pw := createTestProject(t, svc, "owner")

	name := "Renamed"
	if _, err := svc.UpdateProject(ctx, pw.Project.ID, "stranger", &services.UpdateProjectRequest{Name: &name}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger update err = %v, want forbidden", err)
	}

	updated, err := svc.UpdateProject(ctx, pw.Project.ID, "owner", &services.UpdateProjectRequest{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	svc, nodes := testServices(t)
	ctx := context.Background()
	pw := createTestProject(t, svc, "owner")
	fileID := pw.Files[len(pw.Files)-1].ID

	if err := svc.DeleteProject(ctx, pw.Project.ID, "owner"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetProjectBySlug(ctx, pw.Project.Slug, "owner"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted project read err = %v, want not found", err)
	}
	if _, err := nodes.GetNode(ctx, fileID, "owner"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted node read err = %v, want not found", err)
	}
}

func TestForkProject(t *testing.T) {
	svc, _ := testServices(t)
	ctx := context.Background()
	pw := createTestProject(t, svc, "owner")

	// Private projects cannot be forked by strangers.
	if _, err := svc.ForkProject(ctx, pw.Project.ID, "stranger"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger fork err = %v, want forbidden", err)
	}

	public := models.VisibilityPublic
	if _, err := svc.UpdateProject(ctx, pw.Project.ID, "owner", &services.UpdateProjectRequest{Visibility: &public}); err != nil {
		t.Fatal(err)
	}

	fork, err := svc.ForkProject(ctx, pw.Project.ID, "stranger")
	if err != nil {
		t.Fatalf("ForkProject: %v", err)
	}

	if fork.Project.ID == pw.Project.ID || fork.Project.Slug == pw.Project.Slug {
		t.Error("fork must get a fresh identity")
	}
	if fork.Project.UserID != "stranger" {
		t.Errorf("fork owner = %q", fork.Project.UserID)
	}
	if fork.Project.Visibility != models.VisibilityPrivate {
		t.Error("forks start private")
	}
	if len(fork.Files) != len(pw.Files) {
		t.Fatalf("fork has %d files, source has %d", len(fork.Files), len(pw.Files))
	}

	// Same tree shape: paths carry over, ids are fresh and parent
	// references stay internally consistent.
	forkIDs := make(map[string]*models.Node)
	for _, n := range fork.Files {
		forkIDs[n.ID] = n
	}
	sourcePaths := make(map[string]bool)
	for _, n := range pw.Files {
		sourcePaths[n.Path] = true
	}
	for _, n := range fork.Files {
		if !sourcePaths[n.Path] {
			t.Errorf("fork has unexpected path %s", n.Path)
		}
		if n.ProjectID != fork.Project.ID {
			t.Errorf("node %s belongs to %s", n.Path, n.ProjectID)
		}
		if n.ParentID != nil {
			parent, ok := forkIDs[*n.ParentID]
			if !ok {
				t.Fatalf("node %s has dangling parent", n.Path)
			}
			if models.DerivePath(parent.Path, n.Name) != n.Path {
				t.Errorf("node %s path inconsistent with parent", n.Path)
			}
		}
	}
}

func TestListProjects(t *testing.T) {
	svc, _ := testServices(t)
	ctx := context.Background()
	createTestProject(t, svc, "owner")
	createTestProject(t, svc, "owner")
	createTestProject(t, svc, "other")

	projects, err := svc.ListProjects(ctx, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 {
		t.Errorf("listed %d projects, want 2", len(projects))
	}

	if _, err := svc.ListProjects(ctx, ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous list err = %v, want unauthorized", err)
	}
}
