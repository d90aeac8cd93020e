// Package remote is the HTTP client for the authoritative project backend.
// Every call can fail with a domain error; callers must never block local
// mutation on the result.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cipherstudio/internal/domain"
	"cipherstudio/internal/domain/models"
)

// Client talks to the project API. The zero value is not usable; construct
// with NewClient.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a project API client. token may be empty for anonymous
// access to public projects.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// ProjectWithFiles is the payload of project fetch/create responses.
type ProjectWithFiles struct {
	Project *models.Project `json:"project"`
	Files   []*models.Node  `json:"files"`
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Framework   models.Framework  `json:"framework,omitempty"`
	Visibility  models.Visibility `json:"visibility,omitempty"`
}

// CreateNodeRequest is the body of POST /api/files. The client id is
// advisory; the server assigns the authoritative identifier and re-derives
// path, extension and language.
type CreateNodeRequest struct {
	ProjectID string          `json:"project_id"`
	ParentID  *string         `json:"parent_id,omitempty"`
	Name      string          `json:"name"`
	Type      models.NodeType `json:"type"`
	Content   string          `json:"content,omitempty"`
}

// UpdateNodeRequest is the body of PUT /api/files/{id}. Nil fields are left
// untouched.
type UpdateNodeRequest struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

// UpdateProjectRequest is the body of PUT /api/projects/{id}.
type UpdateProjectRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Visibility  *models.Visibility `json:"visibility,omitempty"`
}

// CreateProject creates a project with its default file set.
func (c *Client) CreateProject(ctx context.Context, req *CreateProjectRequest) (*ProjectWithFiles, error) {
	var out ProjectWithFiles
	if err := c.do(ctx, http.MethodPost, "/api/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProject fetches a project and its full node list by slug.
func (c *Client) GetProject(ctx context.Context, slug string) (*ProjectWithFiles, error) {
	var out ProjectWithFiles
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+slug, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns the caller's projects.
func (c *Client) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var out []*models.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProject updates project metadata.
func (c *Client) UpdateProject(ctx context.Context, id string, req *UpdateProjectRequest) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPut, "/api/projects/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject deletes a project and all of its nodes.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/projects/"+id, nil, nil)
}

// ForkProject clones a project, its tree included, under the caller's
// account.
func (c *Client) ForkProject(ctx context.Context, id string) (*ProjectWithFiles, error) {
	var out ProjectWithFiles
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+id+"/fork", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNode creates a file or folder. The server assigns the id.
func (c *Client) CreateNode(ctx context.Context, req *CreateNodeRequest) (*models.Node, error) {
	var out models.Node
	if err := c.do(ctx, http.MethodPost, "/api/files", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNode renames a node and/or replaces file content.
func (c *Client) UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*models.Node, error) {
	var out models.Node
	if err := c.do(ctx, http.MethodPut, "/api/files/"+id, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNode soft-deletes a node; folders cascade server-side.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/files/"+id, nil, nil)
}

// MoveNode re-parents a node; descendant paths cascade server-side.
func (c *Client) MoveNode(ctx context.Context, id string, newParentID *string) (*models.Node, error) {
	body := map[string]*string{"new_parent_id": newParentID}
	var out models.Node
	if err := c.do(ctx, http.MethodPut, "/api/files/"+id+"/move", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.UnavailableError{Message: fmt.Sprintf("remote: %s %s: %v", method, path, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return &domain.UnavailableError{Message: fmt.Sprintf("remote: read response: %v", err)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 500 {
		return fmt.Errorf("remote: decode envelope: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return mapStatus(resp.StatusCode, msg)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("remote: decode data: %w", err)
		}
	}
	return nil
}

// mapStatus translates HTTP status semantics into the domain error taxonomy.
func mapStatus(status int, msg string) error {
	switch {
	case status == http.StatusNotFound:
		return &domain.NotFoundError{Message: msg}
	case status == http.StatusUnauthorized:
		return &domain.UnauthorizedError{Message: msg}
	case status == http.StatusForbidden:
		return &domain.ForbiddenError{Message: msg}
	case status == http.StatusConflict:
		return &domain.ConflictError{Message: msg}
	case status >= 400 && status < 500:
		return &domain.ValidationError{Message: msg}
	default:
		return &domain.UnavailableError{Message: msg}
	}
}
