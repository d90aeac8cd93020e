package models

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Framework tags the project's starter template.
type Framework string

const (
	FrameworkReact   Framework = "react"
	FrameworkVue     Framework = "vue"
	FrameworkVanilla Framework = "vanilla"
)

// Visibility controls who may load a project.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// LocalIDPrefix marks projects that exist only in the local cache and have
// no server-side identity.
const LocalIDPrefix = "local_"

// Project groups a tree of nodes under a routable slug.
type Project struct {
	ID           string            `json:"id"`
	Slug         string            `json:"slug"`
	UserID       string            `json:"user_id,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Framework    Framework         `json:"framework"`
	Visibility   Visibility        `json:"visibility"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	AutoSave     bool              `json:"auto_save"`
	AutoRefresh  bool              `json:"auto_refresh"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    *time.Time        `json:"deleted_at,omitempty"`
}

// IsLocal reports whether the project has no server-side identity.
func (p *Project) IsLocal() bool {
	return p.ID == "" || strings.HasPrefix(p.ID, LocalIDPrefix)
}

// Clone returns a copy sharing no pointers with the receiver.
func (p *Project) Clone() *Project {
	c := *p
	if p.Dependencies != nil {
		c.Dependencies = make(map[string]string, len(p.Dependencies))
		for k, v := range p.Dependencies {
			c.Dependencies[k] = v
		}
	}
	if p.DeletedAt != nil {
		ts := *p.DeletedAt
		c.DeletedAt = &ts
	}
	return &c
}

// NewLocalID mints an identifier for a cache-only project.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name and collapses everything outside [a-z0-9] into
// single dashes.
func Slugify(name string) string {
	base := slugStripRe.ReplaceAllString(strings.ToLower(name), "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "project"
	}
	return base
}

// NewSlug derives a URL-safe, globally unique slug from a project name.
func NewSlug(name string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Slugify(name) + "-" + suffix
}

// MaxProjectNameLength bounds project names.
const MaxProjectNameLength = 50

// ValidateProjectName rejects empty or oversized project names.
func ValidateProjectName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("project name is required"),
		validation.Length(1, MaxProjectNameLength),
	)
}

// DefaultDependencies returns the starter dependency set for a framework.
func DefaultDependencies(fw Framework) map[string]string {
	switch fw {
	case FrameworkVue:
		return map[string]string{"vue": "^3.4.0"}
	case FrameworkVanilla:
		return map[string]string{}
	default:
		return map[string]string{
			"react":     "^18.2.0",
			"react-dom": "^18.2.0",
		}
	}
}
