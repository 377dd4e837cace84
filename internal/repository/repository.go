// Package repository contains data access layer abstractions for redaction jobs.
// Implementations live in subpackages (postgres, firestore) inside this directory.
package repository

import (
	"context"
	"errors"

	"pdfblur/internal/model"
)

// ErrNotFound is returned when no job matches the requested ID.
var ErrNotFound = errors.New("job not found")

// JobRepository defines data access for jobs. Persistence operations only.
type JobRepository interface {
	// Create inserts a new job record and returns the stored job.
	Create(ctx context.Context, job *model.Job) (*model.Job, error)

	// FindByID returns a job by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// List returns a page of jobs, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Job], error)

	// Update overwrites the mutable fields of an existing job or returns ErrNotFound.
	Update(ctx context.Context, job *model.Job) error

	// Delete removes a job by ID. It returns nil if the job did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
