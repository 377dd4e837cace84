package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pdfblur/internal/config"
	"pdfblur/internal/model"
	"pdfblur/internal/repository"
)

// jobDoc is the Firestore document shape of a job.
type jobDoc struct {
	ID               string    `firestore:"id"`
	OriginalFilename string    `firestore:"originalFilename"`
	SourceKey        string    `firestore:"sourceKey"`
	PageCount        int       `firestore:"pageCount"`
	PageWidth        int       `firestore:"pageWidth"`
	PageHeight       int       `firestore:"pageHeight"`
	Status           string    `firestore:"status"`
	OutputKey        string    `firestore:"outputKey,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

func toDoc(j *model.Job) jobDoc {
	return jobDoc{
		ID:               j.ID,
		OriginalFilename: j.OriginalFilename,
		SourceKey:        j.SourceKey,
		PageCount:        j.PageCount,
		PageWidth:        j.PageWidth,
		PageHeight:       j.PageHeight,
		Status:           j.Status,
		OutputKey:        j.OutputKey,
		ErrorDetails:     j.ErrorDetails,
		CreatedAt:        j.CreatedAt.UTC(),
		UpdatedAt:        j.UpdatedAt.UTC(),
	}
}

func (d jobDoc) toModel() *model.Job {
	return &model.Job{
		ID:               d.ID,
		OriginalFilename: d.OriginalFilename,
		SourceKey:        d.SourceKey,
		PageCount:        d.PageCount,
		PageWidth:        d.PageWidth,
		PageHeight:       d.PageHeight,
		Status:           d.Status,
		OutputKey:        d.OutputKey,
		ErrorDetails:     d.ErrorDetails,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// JobFirestore is a Firestore implementation of repository.JobRepository.
// Each job is one document keyed by the job ID.
type JobFirestore struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
}

var _ repository.JobRepository = (*JobFirestore)(nil)

// NewClient creates a Firestore client for the configured project.
func NewClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// NewJobFirestore creates a repository storing jobs in the named collection.
func NewJobFirestore(client *firestore.Client, collection string) *JobFirestore {
	return &JobFirestore{client: client, coll: client.Collection(collection)}
}

// Create stores a new job document. It fails if the ID is already taken.
func (r *JobFirestore) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	doc := toDoc(job)
	if _, err := r.coll.Doc(job.ID).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return doc.toModel(), nil
}

// FindByID loads a job document.
func (r *JobFirestore) FindByID(ctx context.Context, id string) (*model.Job, error) {
	snap, err := r.coll.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var d jobDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return d.toModel(), nil
}

// List returns jobs ordered by creation time, newest first.
func (r *JobFirestore) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Job], error) {
	total, err := r.count(ctx)
	if err != nil {
		return nil, err
	}

	q := r.coll.OrderBy("createdAt", firestore.Desc).OrderBy("id", firestore.Desc).Offset(pq.Offset)
	if pq.Limit > 0 {
		q = q.Limit(pq.Limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	items := make([]model.Job, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		var d jobDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode job %s: %w", snap.Ref.ID, err)
		}
		items = append(items, *d.toModel())
	}
	return &repository.PageResult[model.Job]{Items: items, Total: total}, nil
}

func (r *JobFirestore) count(ctx context.Context) (int, error) {
	res, err := r.coll.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count jobs: unexpected aggregation result %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}

// Update writes the status, output and error fields of an existing job.
func (r *JobFirestore) Update(ctx context.Context, job *model.Job) error {
	_, err := r.coll.Doc(job.ID).Update(ctx, []firestore.Update{
		{Path: "status", Value: job.Status},
		{Path: "outputKey", Value: job.OutputKey},
		{Path: "errorDetails", Value: job.ErrorDetails},
		{Path: "updatedAt", Value: job.UpdatedAt.UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return repository.ErrNotFound
	}
	return err
}

// Delete removes a job document. Deleting a missing document succeeds.
func (r *JobFirestore) Delete(ctx context.Context, id string) error {
	_, err := r.coll.Doc(id).Delete(ctx)
	return err
}
