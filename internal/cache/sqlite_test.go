package cache

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "cipherstudio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSnapshot(slug, name string) *models.Snapshot {
	folderID := "f1"
	return &models.Snapshot{
		Project: &models.Project{
			ID:         models.NewLocalID(),
			Slug:       slug,
			Name:       name,
			Framework:  models.FrameworkReact,
			Visibility: models.VisibilityPrivate,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		},
		Files: []*models.Node{
			{ID: folderID, Name: "src", Type: models.NodeTypeFolder, Path: "/src"},
			{ID: "f2", ParentID: &folderID, Name: "App.js", Type: models.NodeTypeFile, Path: "/src/App.js", Language: "javascript", Content: "export default null;"},
		},
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestSaveAndLoadProject(t *testing.T) {
	db := testDB(t)
	snap := testSnapshot("demo-abc123", "Demo")

	if err := db.SaveProject(snap.Project.Slug, snap); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	got, err := db.LoadProject(snap.Project.Slug)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if got == nil {
		t.Fatal("LoadProject returned nil snapshot")
	}
	if got.Project.Name != "Demo" {
		t.Errorf("project name = %q, want %q", got.Project.Name, "Demo")
	}
	if len(got.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(got.Files))
	}
	if got.Files[1].Path != "/src/App.js" {
		t.Errorf("file path = %q, want /src/App.js", got.Files[1].Path)
	}
	if got.Files[1].ParentID == nil || *got.Files[1].ParentID != "f1" {
		t.Error("parent id not preserved through round trip")
	}
}

func TestLoadMissingProject(t *testing.T) {
	db := testDB(t)
	got, err := db.LoadProject("never-saved")
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if got != nil {
		t.Error("expected nil snapshot for missing slug")
	}
}

func TestProjectIndexMaintained(t *testing.T) {
	db := testDB(t)

	a := testSnapshot("alpha-1", "Alpha")
	b := testSnapshot("beta-2", "Beta")
	if err := db.SaveProject(a.Project.Slug, a); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveProject(b.Project.Slug, b); err != nil {
		t.Fatal(err)
	}

	list, err := db.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("index has %d entries, want 2", len(list))
	}
	if list[0].Slug != "alpha-1" || list[1].Slug != "beta-2" {
		t.Errorf("index order = [%s %s], want [alpha-1 beta-2]", list[0].Slug, list[1].Slug)
	}

	// Re-saving replaces the index entry instead of appending.
	a.Project.Name = "Alpha v2"
	if err := db.SaveProject(a.Project.Slug, a); err != nil {
		t.Fatal(err)
	}
	list, _ = db.ListProjects()
	if len(list) != 2 {
		t.Fatalf("index has %d entries after re-save, want 2", len(list))
	}
	if list[0].Name != "Alpha v2" {
		t.Errorf("index entry not replaced: %q", list[0].Name)
	}

	if err := db.DeleteProject("alpha-1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if snap, _ := db.LoadProject("alpha-1"); snap != nil {
		t.Error("snapshot still present after delete")
	}
	list, _ = db.ListProjects()
	if len(list) != 1 || list[0].Slug != "beta-2" {
		t.Errorf("index after delete = %v, want only beta-2", list)
	}
}

func TestQuotaExceeded(t *testing.T) {
	db := testDB(t)
	db.MaxValueBytes = 128

	snap := testSnapshot("big-1", "Big")
	snap.Files[1].Content = strings.Repeat("x", 4096)

	err := db.SaveProject(snap.Project.Slug, snap)
	if !errors.Is(err, domain.ErrQuota) {
		t.Fatalf("err = %v, want ErrQuota", err)
	}

	// Nothing should have been committed.
	if got, _ := db.LoadProject("big-1"); got != nil {
		t.Error("oversized snapshot was persisted")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	db := testDB(t)

	if got := db.LoadSettings(); got != models.DefaultSettings() {
		t.Errorf("defaults = %+v, want %+v", got, models.DefaultSettings())
	}

	want := models.Settings{Theme: "dark", AutoSave: false, FontSize: 16}
	if err := db.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if got := db.LoadSettings(); got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestCorruptValuesAreReported(t *testing.T) {
	db := testDB(t)

	if _, err := db.conn.Exec(`INSERT INTO kv (key, value) VALUES ('project:bad', '{nope')`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.LoadProject("bad"); err == nil {
		t.Error("expected error for corrupt snapshot")
	}

	if _, err := db.conn.Exec(`INSERT INTO kv (key, value) VALUES ('settings', 'garbage')`); err != nil {
		t.Fatal(err)
	}
	if got := db.LoadSettings(); got != models.DefaultSettings() {
		t.Error("corrupt settings should fall back to defaults")
	}
}
