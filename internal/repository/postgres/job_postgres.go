package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pdfblur/internal/model"
	"pdfblur/internal/repository"
)

const jobColumns = `id, original_filename, source_key, page_count, page_width, page_height, status, output_key, error_details, created_at, updated_at`

// JobPostgres is a PostgreSQL implementation of repository.JobRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type JobPostgres struct {
	db *sql.DB
}

// NewJobPostgres creates a new JobPostgres repository.
func NewJobPostgres(db *sql.DB) *JobPostgres {
	return &JobPostgres{db: db}
}

var _ repository.JobRepository = (*JobPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*model.Job, error) {
	var j model.Job
	if err := s.Scan(
		&j.ID,
		&j.OriginalFilename,
		&j.SourceKey,
		&j.PageCount,
		&j.PageWidth,
		&j.PageHeight,
		&j.Status,
		&j.OutputKey,
		&j.ErrorDetails,
		&j.CreatedAt,
		&j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &j, nil
}

// Create inserts a new job row and returns the stored record.
func (r *JobPostgres) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	q := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + jobColumns
	row := r.db.QueryRowContext(ctx, q,
		job.ID,
		job.OriginalFilename,
		job.SourceKey,
		job.PageCount,
		job.PageWidth,
		job.PageHeight,
		job.Status,
		job.OutputKey,
		job.ErrorDetails,
		job.CreatedAt,
		job.UpdatedAt,
	)
	out, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return out, nil
}

// FindByID fetches a single job by its ID.
func (r *JobPostgres) FindByID(ctx context.Context, id string) (*model.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	j, err := scanJob(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

// List returns jobs using LIMIT/OFFSET pagination and a total count.
func (r *JobPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Job], error) {
	const qCount = `SELECT COUNT(*) FROM jobs`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	qList := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Job]{
		Items: items,
		Total: total,
	}, nil
}

// Update writes the status, output and error fields of a job.
func (r *JobPostgres) Update(ctx context.Context, job *model.Job) error {
	const q = `
		UPDATE jobs
		SET status = $2, output_key = $3, error_details = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, job.ID, job.Status, job.OutputKey, job.ErrorDetails, job.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a job by ID. It does not return an error if the row does not exist.
func (r *JobPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM jobs WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
