package models

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NodeType distinguishes files from folders.
type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

// SyncState tracks where a node stands relative to the remote backend.
// Reconciliation after a remote acknowledgement is a total function over
// this enum rather than a pile of booleans.
type SyncState string

const (
	SyncLocal         SyncState = "local"          // never sent to the backend
	SyncPendingCreate SyncState = "pending-create" // create request in flight
	SyncPendingUpdate SyncState = "pending-update" // content/structure update in flight
	SyncPendingDelete SyncState = "pending-delete" // delete request in flight
	SyncSynced        SyncState = "synced"         // backend acknowledged
)

// Node is a file or folder entry in a project's tree.
type Node struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	ParentID    *string   `json:"parent_id"` // nil = root level
	Name        string    `json:"name"`
	Type        NodeType  `json:"type"`
	Path        string    `json:"path"` // always consistent with the parentId/name chain
	Extension   string    `json:"extension,omitempty"`
	Language    string    `json:"language,omitempty"`
	Content     string    `json:"content,omitempty"`
	SizeInBytes int       `json:"size_in_bytes"`
	IsDeleted   bool      `json:"is_deleted"`
	Sync        SyncState `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Type == NodeTypeFolder
}

// Clone returns a copy sharing no pointers with the receiver.
func (n *Node) Clone() *Node {
	c := *n
	if n.ParentID != nil {
		pid := *n.ParentID
		c.ParentID = &pid
	}
	return &c
}

// SetContent replaces a file node's content and keeps the byte size current.
func (n *Node) SetContent(content string) {
	n.Content = content
	n.SizeInBytes = len(content)
	n.UpdatedAt = time.Now()
}

// DerivePath builds the materialized slash-separated path for a child of the
// folder at parentPath. Root children (parentPath empty or "/") get "/name".
func DerivePath(parentPath, name string) string {
	if parentPath == "" || parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// Extension returns the substring after the last "." in name, or "" if the
// name carries no dot.
func Extension(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}

// IsDescendant reports whether node id sits somewhere below ancestorID.
// The walk follows parentId edges through the id-keyed table iteratively;
// the seen set guards against malformed (cyclic) input.
func IsDescendant(nodes map[string]*Node, ancestorID, id string) bool {
	seen := make(map[string]struct{})
	cur := nodes[id]
	for cur != nil && cur.ParentID != nil {
		pid := *cur.ParentID
		if pid == ancestorID {
			return true
		}
		if _, ok := seen[pid]; ok {
			return false
		}
		seen[pid] = struct{}{}
		cur = nodes[pid]
	}
	return false
}

// MaxNodeNameLength bounds file and folder names.
const MaxNodeNameLength = 255

var nodeNameRe = regexp.MustCompile(`^[^<>:"/\\|?*]+$`)

// ValidateNodeName rejects empty names and names containing path separators
// or reserved filesystem characters.
func ValidateNodeName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.Length(1, MaxNodeNameLength),
		validation.Match(nodeNameRe).Error(`name cannot contain <>:"/\|?* characters`),
	)
}
