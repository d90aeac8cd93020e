// Package tree owns the canonical in-memory node list for the currently
// open project. Mutations apply optimistically and immediately; remote
// persistence is best-effort and reconciled by id lookup when
// acknowledgements arrive.
package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cipherstudio/internal/cache"
	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
	"cipherstudio/internal/remote"
	"cipherstudio/internal/scaffold"
	"cipherstudio/internal/session"
)

// Notification reports the outcome of an asynchronous remote sync so the UI
// can surface non-blocking toasts.
type Notification struct {
	Op      string
	NodeID  string
	Message string
	Err     error
}

// Manager is the tree manager. The in-memory node list is the source of
// truth for structural decisions while a project is open; the local cache
// and the remote backend are replicas it writes through to.
type Manager struct {
	logger *slog.Logger
	cache  cache.Store
	remote remote.Store // nil = no backend configured

	mu      sync.Mutex
	project *models.Project
	nodes   []*models.Node          // ordered, position-stable
	byID    map[string]*models.Node // id-keyed arena for graph walks
	sess    *session.Session

	wg     sync.WaitGroup
	notifs chan Notification
}

// NewManager creates a tree manager. remoteStore may be nil for fully local
// operation.
func NewManager(cacheStore cache.Store, remoteStore remote.Store, logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger,
		cache:  cacheStore,
		remote: remoteStore,
		byID:   make(map[string]*models.Node),
		sess:   session.New(),
		notifs: make(chan Notification, 64),
	}
}

// Notifications delivers async sync outcomes. The channel is buffered and
// never blocks a mutation; unconsumed notifications are dropped.
func (m *Manager) Notifications() <-chan Notification {
	return m.notifs
}

// Wait blocks until all in-flight remote calls have settled. Used by tests
// and by CLI shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Project returns the currently open project, or nil.
func (m *Manager) Project() *models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.project
}

// Nodes returns a copy of the active node list in order.
func (m *Manager) Nodes() []*models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// Node returns a node by id, or nil.
func (m *Manager) Node(id string) *models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

// NewProject creates a project with its default file set and opens it. With
// a backend configured the server owns slug allocation and scaffolding;
// otherwise the project lives only in the local cache.
func (m *Manager) NewProject(ctx context.Context, name string, fw models.Framework, vis models.Visibility) (*models.Project, error) {
	if err := models.ValidateProjectName(name); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if m.remote != nil {
		pf, err := m.remote.CreateProject(ctx, &remote.CreateProjectRequest{
			Name: name, Framework: fw, Visibility: vis,
		})
		if err == nil {
			m.install(pf.Project, pf.Files, models.SyncSynced)
			if saveErr := m.Save(ctx); saveErr != nil {
				m.logger.Warn("cache save after create failed", "error", saveErr)
			}
			return pf.Project, nil
		}
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		m.logger.Warn("remote create failed, creating local project", "error", err)
	}

	now := time.Now()
	project := &models.Project{
		ID:           models.NewLocalID(),
		Slug:         models.NewSlug(name),
		Name:         name,
		Framework:    fw,
		Visibility:   vis,
		Dependencies: models.DefaultDependencies(fw),
		AutoSave:     true,
		AutoRefresh:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.install(project, scaffold.DefaultFiles(project), models.SyncLocal)
	if err := m.Save(ctx); err != nil {
		return nil, err
	}
	return project, nil
}

// Load opens the project behind slug: remote first, local cache as
// fallback. Authorization failures are final and never fall back. When
// neither source has the project the result is a not-found error. Open-file
// state is cleared.
func (m *Manager) Load(ctx context.Context, slug string) error {
	if m.remote != nil {
		pf, err := m.remote.GetProject(ctx, slug)
		switch {
		case err == nil:
			m.install(pf.Project, pf.Files, models.SyncSynced)
			return nil
		case errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthorized):
			return err
		default:
			m.logger.Warn("remote load failed, trying local cache", "slug", slug, "error", err)
		}
	}

	snap, err := m.cache.LoadProject(slug)
	if err != nil {
		m.logger.Warn("cache load failed", "slug", slug, "error", err)
	}
	if snap == nil || snap.Project == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("project %q not found", slug)}
	}
	m.install(snap.Project, snap.Files, models.SyncLocal)
	return nil
}

func (m *Manager) install(project *models.Project, nodes []*models.Node, state models.SyncState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.project = project
	m.nodes = make([]*models.Node, 0, len(nodes))
	m.byID = make(map[string]*models.Node, len(nodes))
	for _, n := range nodes {
		if n.IsDeleted {
			continue
		}
		n.Sync = state
		m.nodes = append(m.nodes, n)
		m.byID[n.ID] = n
	}
	m.sess.Reset()
}

// CreateNodeSpec describes a node to create.
type CreateNodeSpec struct {
	ParentID *string
	Name     string
	Type     models.NodeType
	Content  string
}

// CreateNode validates the spec, applies the node optimistically and, when
// the project is remote-backed, requests remote creation in the background.
// A failed acknowledgement rolls the node back out of the tree.
func (m *Manager) CreateNode(spec CreateNodeSpec) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.project == nil {
		return nil, &domain.ValidationError{Message: "no project loaded"}
	}
	if err := models.ValidateNodeName(spec.Name); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}
	if spec.Type != models.NodeTypeFile && spec.Type != models.NodeTypeFolder {
		return nil, &domain.ValidationError{Message: "type must be file or folder"}
	}

	parentPath := ""
	if spec.ParentID != nil {
		parent := m.byID[*spec.ParentID]
		if parent == nil || !parent.IsFolder() {
			return nil, &domain.ValidationError{Message: "parent must be an existing folder"}
		}
		parentPath = parent.Path
	}

	path := models.DerivePath(parentPath, spec.Name)
	if other := m.nodeAtPathLocked(path, ""); other != nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("%q already exists", path),
			ResourceType: string(other.Type),
			ResourceID:   other.ID,
		}
	}

	now := time.Now()
	n := &models.Node{
		ID:        uuid.NewString(), // temporary until the backend acks
		ProjectID: m.project.ID,
		ParentID:  spec.ParentID,
		Name:      spec.Name,
		Type:      spec.Type,
		Path:      path,
		Sync:      models.SyncLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if spec.Type == models.NodeTypeFile {
		n.Extension = models.Extension(spec.Name)
		n.Language = models.LanguageForExtension(n.Extension)
		n.Content = spec.Content
		n.SizeInBytes = len(spec.Content)
	}

	m.nodes = append(m.nodes, n)
	m.byID[n.ID] = n

	if m.remoteBackedLocked() {
		n.Sync = models.SyncPendingCreate
		req := &remote.CreateNodeRequest{
			ProjectID: m.project.ID,
			ParentID:  spec.ParentID,
			Name:      spec.Name,
			Type:      spec.Type,
			Content:   spec.Content,
		}
		m.wg.Add(1)
		go m.syncCreate(n.ID, req)
	}

	return n, nil
}

// syncCreate applies the create acknowledgement against the current node
// list by id. A node deleted while the request was in flight makes the
// acknowledgement a no-op.
func (m *Manager) syncCreate(tempID string, req *remote.CreateNodeRequest) {
	defer m.wg.Done()
	created, err := m.remote.CreateNode(context.Background(), req)

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.byID[tempID]
	if cur == nil {
		return // deleted meanwhile; stale response discarded
	}

	if err != nil {
		// Rollback: the tree must never retain a node the backend rejected.
		m.removeLocked(map[string]struct{}{tempID: {}})
		m.logger.Warn("remote create rejected, rolled back", "name", req.Name, "error", err)
		m.notify(Notification{Op: "create", NodeID: tempID, Message: fmt.Sprintf("failed to create %q on server", req.Name), Err: err})
		return
	}

	// Replace the temporary id in place: same *Node, same list position.
	// Children created under the temp id are re-pointed so no node ends up
	// orphaned.
	delete(m.byID, tempID)
	cur.ID = created.ID
	cur.CreatedAt = created.CreatedAt
	cur.Sync = models.SyncSynced
	m.byID[cur.ID] = cur
	for _, child := range m.nodes {
		if child.ParentID != nil && *child.ParentID == tempID {
			id := created.ID
			child.ParentID = &id
		}
	}
	m.notify(Notification{Op: "create", NodeID: cur.ID, Message: fmt.Sprintf("%q synced", cur.Name)})
}

// RenameNode renames a node and re-derives path, extension and language,
// plus the path of every descendant. Sibling path conflicts are rejected
// before any state changes.
func (m *Manager) RenameNode(id, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.byID[id]
	if n == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	if err := models.ValidateNodeName(newName); err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}

	newPath := models.DerivePath(m.parentPathLocked(n), newName)
	if other := m.nodeAtPathLocked(newPath, id); other != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%q already exists", newPath),
			ResourceType: string(other.Type),
			ResourceID:   other.ID,
		}
	}

	n.Name = newName
	n.Path = newPath
	if n.Type == models.NodeTypeFile {
		n.Extension = models.Extension(newName)
		n.Language = models.LanguageForExtension(n.Extension)
	}
	n.UpdatedAt = time.Now()
	m.rederiveDescendantsLocked(n)

	// Pushed even while an earlier update is still in flight; acks
	// reconcile by id. Only pending creates hold back, their server id is
	// not known yet.
	if m.remoteBackedLocked() && n.Sync != models.SyncPendingCreate {
		n.Sync = models.SyncPendingUpdate
		name := newName
		m.wg.Add(1)
		go m.syncUpdate(n.ID, &remote.UpdateNodeRequest{Name: &name})
	}
	return nil
}

// MoveNode re-parents a node. Moves onto itself or under one of its own
// descendants are rejected with no partial path updates.
func (m *Manager) MoveNode(id string, newParentID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.byID[id]
	if n == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	parentPath := ""
	if newParentID != nil {
		if *newParentID == id {
			return &domain.ValidationError{Message: "cannot move a folder into itself"}
		}
		parent := m.byID[*newParentID]
		if parent == nil || !parent.IsFolder() {
			return &domain.ValidationError{Message: "destination must be an existing folder"}
		}
		if models.IsDescendant(m.byID, id, *newParentID) {
			return &domain.ValidationError{Message: "cannot move a folder into one of its descendants"}
		}
		parentPath = parent.Path
	}

	newPath := models.DerivePath(parentPath, n.Name)
	if other := m.nodeAtPathLocked(newPath, id); other != nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%q already exists", newPath),
			ResourceType: string(other.Type),
			ResourceID:   other.ID,
		}
	}

	n.ParentID = newParentID
	n.Path = newPath
	n.UpdatedAt = time.Now()
	m.rederiveDescendantsLocked(n)

	if m.remoteBackedLocked() && n.Sync != models.SyncPendingCreate {
		n.Sync = models.SyncPendingUpdate
		m.wg.Add(1)
		go m.syncMove(n.ID, newParentID)
	}
	return nil
}

// DeleteNode removes a node and every transitive descendant as one atomic
// in-memory update. The full descendant set is collected up front over a
// worklist, so nothing is orphaned mid-removal. Remote-backed projects
// delete server-side as a soft (tombstone) cascade.
func (m *Manager) DeleteNode(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.byID[id]
	if n == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}

	doomed := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range m.nodes {
			if child.ParentID == nil || *child.ParentID != cur {
				continue
			}
			if _, seen := doomed[child.ID]; !seen {
				doomed[child.ID] = struct{}{}
				queue = append(queue, child.ID)
			}
		}
	}

	wasSynced := n.Sync == models.SyncSynced || n.Sync == models.SyncPendingUpdate
	m.removeLocked(doomed)

	if m.remoteBackedLocked() && wasSynced {
		m.wg.Add(1)
		go m.syncDelete(id, n.Name)
	}
	return nil
}

// UpdateContent replaces a file's content in memory. Persistence happens on
// the next save.
func (m *Manager) UpdateContent(id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.byID[id]
	if n == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
	}
	if n.Type != models.NodeTypeFile {
		return &domain.ValidationError{Message: "folders have no content"}
	}
	n.SetContent(content)
	return nil
}

// Save writes the full project snapshot to the local cache unconditionally
// and, for remote-backed projects, pushes the active file's content to the
// backend best-effort. A remote failure never undoes the local save.
func (m *Manager) Save(ctx context.Context) error {
	m.mu.Lock()
	if m.project == nil {
		m.mu.Unlock()
		return nil
	}
	m.project.UpdatedAt = time.Now()
	// The snapshot is a deep copy taken under the lock: acknowledgement
	// goroutines keep mutating the live nodes while the cache marshals.
	files := make([]*models.Node, len(m.nodes))
	for i, n := range m.nodes {
		files[i] = n.Clone()
	}
	snap := &models.Snapshot{
		Project:   m.project.Clone(),
		Files:     files,
		Timestamp: time.Now().UnixMilli(),
	}
	slug := m.project.Slug
	remoteBacked := m.remoteBackedLocked()
	var activeID, activeContent string
	if active := m.sess.ActiveFile(); active != nil {
		activeID = active.ID
		activeContent = active.Content
	}
	m.mu.Unlock()

	if err := m.cache.SaveProject(slug, snap); err != nil {
		m.notify(Notification{Op: "save", Message: "failed to save project locally", Err: err})
		return err
	}

	if remoteBacked && activeID != "" {
		if _, err := m.remote.UpdateNode(ctx, activeID, &remote.UpdateNodeRequest{Content: &activeContent}); err != nil {
			// Reported, not fatal: local cache remains the durable record.
			m.logger.Warn("failed to push active file", "node_id", activeID, "error", err)
			m.notify(Notification{Op: "save", NodeID: activeID, Message: "failed to save file changes to server", Err: err})
		}
	}
	return nil
}

// OpenFile opens a file in the editor session and makes it active. Folders
// are ignored.
func (m *Manager) OpenFile(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.OpenFile(m.byID[id])
}

// CloseFile closes a file in the editor session.
func (m *Manager) CloseFile(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.CloseFile(id)
}

// ActiveFile returns the active file, or nil.
func (m *Manager) ActiveFile() *models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.ActiveFile()
}

// OpenFiles returns the open files in insertion order.
func (m *Manager) OpenFiles() []*models.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.OpenFiles()
}

func (m *Manager) syncUpdate(id string, req *remote.UpdateNodeRequest) {
	defer m.wg.Done()
	_, err := m.remote.UpdateNode(context.Background(), id, req)
	m.applySyncResult("rename", id, err)
}

func (m *Manager) syncMove(id string, newParentID *string) {
	defer m.wg.Done()
	_, err := m.remote.MoveNode(context.Background(), id, newParentID)
	m.applySyncResult("move", id, err)
}

func (m *Manager) syncDelete(id, name string) {
	defer m.wg.Done()
	if err := m.remote.DeleteNode(context.Background(), id); err != nil {
		m.logger.Warn("remote delete failed", "node_id", id, "error", err)
		m.notify(Notification{Op: "delete", NodeID: id, Message: fmt.Sprintf("failed to delete %q on server", name), Err: err})
	}
}

// applySyncResult reconciles an update/move acknowledgement. Updates keep
// last-known-good local state on failure; only creates roll back.
func (m *Manager) applySyncResult(op, id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.byID[id]
	if n == nil {
		return // deleted meanwhile
	}
	if err != nil {
		n.Sync = models.SyncLocal // diverged; the cache is the durable record
		m.logger.Warn("remote sync failed", "op", op, "node_id", id, "error", err)
		m.notify(Notification{Op: op, NodeID: id, Message: fmt.Sprintf("failed to %s %q on server", op, n.Name), Err: err})
		return
	}
	if n.Sync == models.SyncPendingUpdate {
		n.Sync = models.SyncSynced
	}
}

// removeLocked drops the given ids from the node list, the arena and the
// editor session in one pass.
func (m *Manager) removeLocked(ids map[string]struct{}) {
	kept := m.nodes[:0]
	for _, n := range m.nodes {
		if _, gone := ids[n.ID]; gone {
			delete(m.byID, n.ID)
			m.sess.CloseFile(n.ID)
			continue
		}
		kept = append(kept, n)
	}
	m.nodes = kept
}

// rederiveDescendantsLocked propagates the path prefix of root to every
// descendant iteratively over a worklist.
func (m *Manager) rederiveDescendantsLocked(root *models.Node) {
	now := time.Now()
	queue := []*models.Node{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range m.nodes {
			if child.ParentID != nil && *child.ParentID == cur.ID {
				child.Path = models.DerivePath(cur.Path, child.Name)
				child.UpdatedAt = now
				queue = append(queue, child)
			}
		}
	}
}

func (m *Manager) parentPathLocked(n *models.Node) string {
	if n.ParentID == nil {
		return ""
	}
	if parent := m.byID[*n.ParentID]; parent != nil {
		return parent.Path
	}
	return ""
}

func (m *Manager) nodeAtPathLocked(path, excludeID string) *models.Node {
	for _, n := range m.nodes {
		if n.ID != excludeID && n.Path == path {
			return n
		}
	}
	return nil
}

func (m *Manager) remoteBackedLocked() bool {
	return m.remote != nil && m.project != nil && !m.project.IsLocal()
}

func (m *Manager) notify(n Notification) {
	select {
	case m.notifs <- n:
	default: // never block a mutation on a slow consumer
	}
}
