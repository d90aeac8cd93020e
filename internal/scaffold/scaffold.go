// Package scaffold builds the default file set a freshly created project
// starts with.
package scaffold

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"cipherstudio/internal/domain/models"
)

type fileSpec struct {
	folder  string // "" = root level
	name    string
	content string
}

// DefaultFiles returns the starter node list for a project. Folders come
// first so every file's parent exists by the time it appears in the list.
func DefaultFiles(project *models.Project) []*models.Node {
	specs, folders := frameworkLayout(project)
	now := time.Now()

	nodes := make([]*models.Node, 0, len(folders)+len(specs))
	folderIDs := make(map[string]string, len(folders))

	for _, name := range folders {
		n := &models.Node{
			ID:        uuid.NewString(),
			ProjectID: project.ID,
			Name:      name,
			Type:      models.NodeTypeFolder,
			Path:      models.DerivePath("", name),
			Sync:      models.SyncLocal,
			CreatedAt: now,
			UpdatedAt: now,
		}
		folderIDs[name] = n.ID
		nodes = append(nodes, n)
	}

	for _, s := range specs {
		var parentID *string
		parentPath := ""
		if s.folder != "" {
			id := folderIDs[s.folder]
			parentID = &id
			parentPath = models.DerivePath("", s.folder)
		}
		ext := models.Extension(s.name)
		n := &models.Node{
			ID:          uuid.NewString(),
			ProjectID:   project.ID,
			ParentID:    parentID,
			Name:        s.name,
			Type:        models.NodeTypeFile,
			Path:        models.DerivePath(parentPath, s.name),
			Extension:   ext,
			Language:    models.LanguageForExtension(ext),
			Content:     s.content,
			SizeInBytes: len(s.content),
			Sync:        models.SyncLocal,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		nodes = append(nodes, n)
	}

	return nodes
}

func frameworkLayout(project *models.Project) ([]fileSpec, []string) {
	pkg := packageJSON(project)

	switch project.Framework {
	case models.FrameworkVue:
		return []fileSpec{
			{folder: "src", name: "App.vue", content: vueAppVue},
			{folder: "src", name: "main.js", content: vueMainJS},
			{folder: "public", name: "index.html", content: baseIndexHTML},
			{folder: "", name: "package.json", content: pkg},
		}, []string{"src", "public"}
	case models.FrameworkVanilla:
		return []fileSpec{
			{folder: "src", name: "index.js", content: vanillaIndexJS},
			{folder: "src", name: "index.css", content: baseIndexCSS},
			{folder: "public", name: "index.html", content: baseIndexHTML},
			{folder: "", name: "package.json", content: pkg},
		}, []string{"src", "public"}
	default: // react
		return []fileSpec{
			{folder: "src", name: "App.js", content: reactAppJS},
			{folder: "src", name: "App.css", content: reactAppCSS},
			{folder: "src", name: "index.js", content: reactIndexJS},
			{folder: "src", name: "index.css", content: baseIndexCSS},
			{folder: "public", name: "index.html", content: baseIndexHTML},
			{folder: "", name: "package.json", content: pkg},
		}, []string{"src", "public"}
	}
}

func packageJSON(project *models.Project) string {
	deps := project.Dependencies
	if deps == nil {
		deps = models.DefaultDependencies(project.Framework)
	}
	manifest := map[string]any{
		"name":         models.Slugify(project.Name),
		"version":      "0.1.0",
		"private":      true,
		"dependencies": deps,
	}
	out, _ := json.MarshalIndent(manifest, "", "  ")
	return string(out) + "\n"
}
