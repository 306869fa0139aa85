// Package store persists projects and chat transcripts. The editing core
// treats it purely as load-on-open / save-on-demand keyed by project id.
package store

import (
	"context"
	"errors"
	"time"

	"archboard/diagram"
)

// ErrNotFound is returned when a project id has no stored row.
var ErrNotFound = errors.New("project not found")

// ProjectInfo is a listing entry.
type ProjectInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one chat transcript entry.
type Message struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"projectId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store defines the persistence collaborator.
type Store interface {
	// LoadProject returns the stored project or ErrNotFound.
	LoadProject(ctx context.Context, id string) (*diagram.Project, error)

	// SaveProject upserts a project. An empty id creates a new row; the
	// stored id is returned either way.
	SaveProject(ctx context.Context, id string, project *diagram.Project) (string, error)

	// ListProjects returns all projects, most recently updated first.
	ListProjects(ctx context.Context) ([]ProjectInfo, error)

	// DeleteProject removes a project and its chat transcript.
	DeleteProject(ctx context.Context, id string) error

	// AppendMessage records one chat transcript entry.
	AppendMessage(ctx context.Context, projectID, role, content string) error

	// RecentMessages returns up to limit transcript entries, oldest first.
	RecentMessages(ctx context.Context, projectID string, limit int) ([]Message, error)

	// Close releases resources.
	Close() error
}
