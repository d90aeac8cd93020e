// Command studio is the local CipherStudio workbench: it keeps projects in
// an on-device cache, talks to a backend when one is configured, and keeps
// working offline when there is none.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"cipherstudio/internal/cache"
	"cipherstudio/internal/config"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/remote"
	"cipherstudio/internal/tree"
	pkgconfig "cipherstudio/pkg/config"
)

// StudioConfig is the CLI's YAML config, normally at
// ~/.cipherstudio/config.yaml. Flags override file values.
type StudioConfig struct {
	APIURL    string `yaml:"api_url"`
	Token     string `yaml:"token"`
	CachePath string `yaml:"cache_path"`
	LogDir    string `yaml:"log_dir"`
}

func studioDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cipherstudio")
}

func defaultConfig() *StudioConfig {
	base := studioDir()
	return &StudioConfig{
		CachePath: filepath.Join(base, "cache.db"),
		LogDir:    filepath.Join(base, "logs"),
	}
}

type env struct {
	cfg     *StudioConfig
	logger  *slog.Logger
	cache   *cache.DB
	client  *remote.Client
	manager *tree.Manager
	cleanup []func()
}

func (e *env) close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

func setup(cmd *cli.Command) (*env, error) {
	cfg := defaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, err
	}
	if v := cmd.String("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v := cmd.String("token"); v != "" {
		cfg.Token = v
	}
	if v := cmd.String("cache"); v != "" {
		cfg.CachePath = v
	}

	e := &env{cfg: cfg}

	logFile, err := config.SetupLogFile(cfg.LogDir, 10)
	if err != nil {
		return nil, err
	}
	e.cleanup = append(e.cleanup, func() { logFile.Close() })
	e.logger = slog.New(slog.NewJSONHandler(logFile, nil))

	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0755); err != nil {
		return nil, err
	}
	db, err := cache.Open(cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	e.cache = db
	e.cleanup = append(e.cleanup, func() { db.Close() })

	var store remote.Store
	if cfg.APIURL != "" {
		e.client = remote.NewClient(cfg.APIURL, cfg.Token)
		store = e.client
	}
	e.manager = tree.NewManager(db, store, e.logger)
	e.cleanup = append(e.cleanup, e.manager.Wait)
	return e, nil
}

func runCreate(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	project, err := e.manager.NewProject(ctx,
		cmd.String("name"),
		models.Framework(cmd.String("framework")),
		models.Visibility(cmd.String("visibility")),
	)
	if err != nil {
		return err
	}

	kind := "local"
	if !project.IsLocal() {
		kind = "remote"
	}
	fmt.Printf("created %s project %q (slug %s)\n", kind, project.Name, project.Slug)
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	var projects []*models.Project
	if e.client != nil {
		projects, err = e.client.ListProjects(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "backend unreachable, listing cached projects: %v\n", err)
			projects, err = e.cache.ListProjects()
		}
	} else {
		projects, err = e.cache.ListProjects()
	}
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("no projects")
		return nil
	}
	for _, p := range projects {
		marker := " "
		if p.IsLocal() {
			marker = "*"
		}
		fmt.Printf("%s %-30s %-10s %s\n", marker, p.Slug, p.Framework, p.Name)
	}
	return nil
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return fmt.Errorf("usage: studio show <slug>")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.manager.Load(ctx, slug); err != nil {
		return err
	}

	project := e.manager.Project()
	fmt.Printf("%s (%s, %s)\n", project.Name, project.Framework, project.Visibility)

	nodes := e.manager.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	for _, n := range nodes {
		depth := strings.Count(n.Path, "/") - 1
		indent := strings.Repeat("  ", depth)
		if n.IsFolder() {
			fmt.Printf("%s%s/\n", indent, n.Name)
		} else {
			fmt.Printf("%s%s (%d bytes)\n", indent, n.Name, n.SizeInBytes)
		}
	}
	return nil
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return fmt.Errorf("usage: studio delete <slug>")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	snap, err := e.cache.LoadProject(slug)
	if err != nil {
		return err
	}
	if e.client != nil && snap != nil && snap.Project != nil && !snap.Project.IsLocal() {
		if err := e.client.DeleteProject(ctx, snap.Project.ID); err != nil {
			return fmt.Errorf("delete on backend: %w", err)
		}
	}
	if err := e.cache.DeleteProject(slug); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", slug)
	return nil
}

func runPull(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return fmt.Errorf("usage: studio pull <slug>")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if e.client == nil {
		return fmt.Errorf("no backend configured; set api_url in the config file or pass --api-url")
	}

	if err := e.manager.Load(ctx, slug); err != nil {
		return err
	}
	if err := e.manager.Save(ctx); err != nil {
		return err
	}
	fmt.Printf("pulled %s (%d files)\n", slug, len(e.manager.Nodes()))
	return nil
}

// runPush uploads a cache-only project to the backend: the server creates
// the project shell, then every node is recreated parent-first so the
// server can derive paths itself.
func runPush(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return fmt.Errorf("usage: studio push <slug>")
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	if e.client == nil {
		return fmt.Errorf("no backend configured; set api_url in the config file or pass --api-url")
	}

	snap, err := e.cache.LoadProject(slug)
	if err != nil {
		return err
	}
	if snap == nil || snap.Project == nil {
		return fmt.Errorf("project %q not found in cache", slug)
	}
	if !snap.Project.IsLocal() {
		return fmt.Errorf("project %q already lives on the backend", slug)
	}

	created, err := e.client.CreateProject(ctx, &remote.CreateProjectRequest{
		Name:        snap.Project.Name,
		Description: snap.Project.Description,
		Framework:   snap.Project.Framework,
		Visibility:  snap.Project.Visibility,
	})
	if err != nil {
		return err
	}

	// The server scaffolds its own starter files; push the cached tree
	// instead, so delete the scaffold first.
	for _, n := range created.Files {
		if n.ParentID == nil {
			if err := e.client.DeleteNode(ctx, n.ID); err != nil {
				return fmt.Errorf("clear scaffold: %w", err)
			}
		}
	}

	// Parent-before-child order: folders first, then by path depth.
	nodes := append([]*models.Node(nil), snap.Files...)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsFolder() != nodes[j].IsFolder() {
			return nodes[i].IsFolder()
		}
		return nodes[i].Path < nodes[j].Path
	})

	idMap := make(map[string]string, len(nodes))
	for _, n := range nodes {
		req := &remote.CreateNodeRequest{
			ProjectID: created.Project.ID,
			Name:      n.Name,
			Type:      n.Type,
			Content:   n.Content,
		}
		if n.ParentID != nil {
			mapped, ok := idMap[*n.ParentID]
			if !ok {
				return fmt.Errorf("node %s has dangling parent", n.Path)
			}
			req.ParentID = &mapped
		}
		uploaded, err := e.client.CreateNode(ctx, req)
		if err != nil {
			return fmt.Errorf("push %s: %w", n.Path, err)
		}
		idMap[n.ID] = uploaded.ID
	}

	// Replace the local-only copy with the server-backed one.
	if err := e.manager.Load(ctx, created.Project.Slug); err != nil {
		return err
	}
	if err := e.manager.Save(ctx); err != nil {
		return err
	}
	if err := e.cache.DeleteProject(slug); err != nil {
		e.logger.Warn("failed to drop local-only copy", "slug", slug, "error", err)
	}

	fmt.Printf("pushed %s as %s (%d files)\n", slug, created.Project.Slug, len(nodes))
	return nil
}

func main() {
	sharedFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file",
			Value:   filepath.Join(studioDir(), "config.yaml"),
			Sources: cli.EnvVars("CIPHERSTUDIO_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "Backend base URL",
			Sources: cli.EnvVars("CIPHERSTUDIO_API_URL"),
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Bearer token for the backend",
			Sources: cli.EnvVars("CIPHERSTUDIO_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "cache",
			Usage:   "Path to the local cache database",
			Sources: cli.EnvVars("CIPHERSTUDIO_CACHE"),
		},
	}

	cmd := &cli.Command{
		Name:  "studio",
		Usage: "Browser-IDE project workbench with an offline-first local cache",
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Create a project with its starter files",
				Action: runCreate,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Project name", Required: true},
					&cli.StringFlag{Name: "framework", Usage: "react, vue or vanilla", Value: "react"},
					&cli.StringFlag{Name: "visibility", Usage: "public or private", Value: "private"},
				}, sharedFlags...),
			},
			{
				Name:   "list",
				Usage:  "List projects (backend when configured, cache otherwise)",
				Action: runList,
				Flags:  sharedFlags,
			},
			{
				Name:      "show",
				Usage:     "Print a project's file tree",
				ArgsUsage: "<slug>",
				Action:    runShow,
				Flags:     sharedFlags,
			},
			{
				Name:      "delete",
				Usage:     "Delete a project locally and, when backed, on the server",
				ArgsUsage: "<slug>",
				Action:    runDelete,
				Flags:     sharedFlags,
			},
			{
				Name:      "pull",
				Usage:     "Fetch a project from the backend into the local cache",
				ArgsUsage: "<slug>",
				Action:    runPull,
				Flags:     sharedFlags,
			},
			{
				Name:      "push",
				Usage:     "Upload a cache-only project to the backend",
				ArgsUsage: "<slug>",
				Action:    runPush,
				Flags:     sharedFlags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "studio: %v\n", err)
		os.Exit(1)
	}
}
