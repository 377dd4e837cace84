package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pdfblur/internal/metrics"
	"pdfblur/internal/model"
	"pdfblur/internal/page"
	"pdfblur/internal/pipeline"
	"pdfblur/internal/repository"
	"pdfblur/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("job not found")
	ErrReaderNil      = errors.New("reader is nil")
	ErrTooLarge       = errors.New("document exceeds the upload limit")
	ErrInvalidRequest = errors.New("invalid redaction request")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrNoOutput       = errors.New("job has no redacted output")
)

var tracer = otel.Tracer("pdfblur/internal/service")

// JobListResult is the service-level DTO for paginated jobs.
type JobListResult struct {
	Items []model.Job `json:"data"`
	Total int         `json:"total"`
}

// JobService defines the redaction job use cases.
type JobService interface {
	// Create rasterizes the uploaded document, stores the source and every page
	// image, and saves the job. Stored objects are rolled back on failure.
	Create(ctx context.Context, r io.Reader, originalFilename string, size int64) (*model.Job, error)

	// List returns jobs using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*JobListResult, error)

	// Get returns a single job by its ID.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Page streams the stored image of a page given by index or identifier.
	Page(ctx context.Context, id, ref string) (io.ReadCloser, storage.ObjectInfo, error)

	// PageURL returns a presigned download URL for a page image.
	PageURL(ctx context.Context, id, ref string) (string, error)

	// Redact blurs the requested zones on the stored pages and stores the
	// reassembled document as the job output.
	Redact(ctx context.Context, id string, req *model.RedactionRequest) (*model.Job, page.OutputDocument, error)

	// Output streams the last redacted document of a job.
	Output(ctx context.Context, id string) (*model.Job, io.ReadCloser, error)

	// Delete removes every object of a job, then its record.
	Delete(ctx context.Context, id string) error
}

// Options tune a JobService. Zero values select defaults.
type Options struct {
	MaxUploadBytes int64
	PresignExpiry  time.Duration
	Workers        int
	Logger         *slog.Logger
	Metrics        *metrics.Pipeline
	Now            func() time.Time
}

type jobService struct {
	store   storage.Storage
	repo    repository.JobRepository
	pipe    *pipeline.Pipeline
	opts    Options
	log     *slog.Logger
	metrics *metrics.Pipeline
}

// NewJobService constructs a JobService over the given collaborators.
func NewJobService(store storage.Storage, repo repository.JobRepository, pipe *pipeline.Pipeline, opts Options) JobService {
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = 15 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNopPipeline()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &jobService{
		store:   store,
		repo:    repo,
		pipe:    pipe,
		opts:    opts,
		log:     opts.Logger.With("component", "job_service"),
		metrics: opts.Metrics,
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *jobService) Create(ctx context.Context, r io.Reader, originalFilename string, size int64) (job *model.Job, err error) {
	ctx, span := tracer.Start(ctx, "JobService.Create")
	defer func() { endSpan(span, err) }()

	if r == nil {
		return nil, ErrReaderNil
	}
	limit := s.opts.MaxUploadBytes
	if limit > 0 && size > limit {
		return nil, ErrTooLarge
	}

	var src io.Reader = r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrTooLarge
	}

	start := time.Now()
	pages, err := s.pipe.Rasterize(page.SourceDocument{Name: originalFilename, Data: data})
	s.metrics.ObserveStage(metrics.StageRasterize, start)
	if err != nil {
		s.metrics.JobFailed(metrics.StageRasterize)
		return nil, err
	}
	s.metrics.PagesRasterized(len(pages))

	now := s.opts.Now().UTC()
	w, h := s.pipe.PageSize()
	job = &model.Job{
		ID:               uuid.NewString(),
		OriginalFilename: originalFilename,
		PageCount:        len(pages),
		PageWidth:        w,
		PageHeight:       h,
		Status:           model.StatusRasterized,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = ".pdf"
	}
	job.SourceKey = job.SourceObjectKey(ext)
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.Int("job.page_count", job.PageCount))
	log := s.log.With("job_id", job.ID)

	uploaded, err := s.uploadJobObjects(ctx, job, data, pages)
	if err != nil {
		return nil, s.rollback(ctx, uploaded, fmt.Errorf("upload to storage: %w", err))
	}

	stored, err := s.repo.Create(ctx, job)
	if err != nil {
		return nil, s.rollback(ctx, uploaded, fmt.Errorf("db save failed: %w", err))
	}
	log.InfoContext(ctx, "job created", "page_count", stored.PageCount, "original_filename", originalFilename)
	return stored, nil
}

// uploadJobObjects stores the source and the PNG of every page concurrently.
// It returns the keys written so far, even on error.
func (s *jobService) uploadJobObjects(ctx context.Context, job *model.Job, source []byte, pages []page.Image) ([]string, error) {
	var (
		mu       sync.Mutex
		uploaded []string
	)
	put := func(ctx context.Context, key, contentType string, data []byte) error {
		if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
			Size:        int64(len(data)),
			ContentType: contentType,
			Metadata:    map[string]string{"job-id": job.ID},
		}); err != nil {
			return err
		}
		mu.Lock()
		uploaded = append(uploaded, key)
		mu.Unlock()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	g.Go(func() error {
		return put(gctx, job.SourceKey, storage.ContentTypePDF, source)
	})
	for _, p := range pages {
		g.Go(func() error {
			data, err := page.PNGBytes(p)
			if err != nil {
				return err
			}
			return put(gctx, job.PageKey(p.Index), storage.ContentTypePNG, data)
		})
	}
	err := g.Wait()
	return uploaded, err
}

// rollback deletes uploaded objects and returns cause, annotated if the
// cleanup itself failed.
func (s *jobService) rollback(ctx context.Context, keys []string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		s.log.ErrorContext(ctx, "rollback failed", "error", errors.Join(errs...), "keys", len(keys))
		return fmt.Errorf("%w; rollback delete failed: %v", cause, errors.Join(errs...))
	}
	return cause
}

// List returns paginated jobs without exposing repository types.
func (s *jobService) List(ctx context.Context, limit, offset int) (*JobListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &JobListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a job by ID.
func (s *jobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// ResolvePage maps a page reference, either a 1-based index or a page
// identifier of the job, to a page index.
func ResolvePage(job *model.Job, ref string) (int, error) {
	n, err := strconv.Atoi(ref)
	if err != nil {
		var ok bool
		if n, ok = job.ParsePageName(ref); !ok {
			return 0, fmt.Errorf("%w: %q is not a page of job %s", ErrPageOutOfRange, ref, job.ID)
		}
	}
	if n < 1 || n > job.PageCount {
		return 0, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, n, job.PageCount)
	}
	return n, nil
}

func (s *jobService) Page(ctx context.Context, id, ref string) (io.ReadCloser, storage.ObjectInfo, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	n, err := ResolvePage(job, ref)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Get(ctx, job.PageKey(n))
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("get page %d: %w", n, err)
	}
	return rc, info, nil
}

func (s *jobService) PageURL(ctx context.Context, id, ref string) (string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	n, err := ResolvePage(job, ref)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, job.PageKey(n), s.opts.PresignExpiry)
}

func (s *jobService) Redact(ctx context.Context, id string, req *model.RedactionRequest) (job *model.Job, out page.OutputDocument, err error) {
	ctx, span := tracer.Start(ctx, "JobService.Redact", trace.WithAttributes(attribute.String("job.id", id)))
	defer func() { endSpan(span, err) }()

	job, err = s.Get(ctx, id)
	if err != nil {
		return nil, page.OutputDocument{}, err
	}
	zones, err := ZonesFromRequest(job, req)
	if err != nil {
		return nil, page.OutputDocument{}, err
	}
	zoneCount := 0
	for _, zs := range zones {
		zoneCount += len(zs)
	}
	span.SetAttributes(attribute.Int("job.zone_count", zoneCount))
	log := s.log.With("job_id", job.ID)

	pages, err := s.loadPages(ctx, job)
	if err != nil {
		return nil, page.OutputDocument{}, s.fail(ctx, job, metrics.StageBlur, fmt.Errorf("load pages: %w", err))
	}

	start := time.Now()
	final, err := s.pipe.Blur(pages, zones)
	s.metrics.ObserveStage(metrics.StageBlur, start)
	if errors.Is(err, page.ErrInvalidZone) {
		return nil, page.OutputDocument{}, err
	}
	if err != nil {
		return nil, page.OutputDocument{}, s.fail(ctx, job, metrics.StageBlur, err)
	}
	s.metrics.ZonesBlurred(zoneCount)

	start = time.Now()
	out, err = s.pipe.Assemble(final)
	s.metrics.ObserveStage(metrics.StageAssemble, start)
	if err != nil {
		return nil, page.OutputDocument{}, s.fail(ctx, job, metrics.StageAssemble, err)
	}

	key := job.OutputObjectKey()
	if _, err := s.store.Put(ctx, key, bytes.NewReader(out.Data), storage.PutObjectOptions{
		Size:        int64(len(out.Data)),
		ContentType: storage.ContentTypePDF,
		Metadata:    map[string]string{"job-id": job.ID},
	}); err != nil {
		return nil, page.OutputDocument{}, s.fail(ctx, job, metrics.StageAssemble, fmt.Errorf("upload output: %w", err))
	}

	job.Status = model.StatusRedacted
	job.OutputKey = key
	job.ErrorDetails = ""
	job.UpdatedAt = s.opts.Now().UTC()
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, page.OutputDocument{}, fmt.Errorf("update job: %w", err)
	}
	log.InfoContext(ctx, "job redacted", "zones", zoneCount, "pages", out.PageCount, "output_bytes", len(out.Data))
	return job, out, nil
}

// loadPages fetches and decodes every stored page concurrently.
func (s *jobService) loadPages(ctx context.Context, job *model.Job) ([]page.Image, error) {
	pages := make([]page.Image, job.PageCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range pages {
		g.Go(func() error {
			rc, _, err := s.store.Get(gctx, job.PageKey(i+1))
			if err != nil {
				return fmt.Errorf("get page %d: %w", i+1, err)
			}
			defer rc.Close()
			img, err := page.DecodePNG(rc, i+1)
			if err != nil {
				return err
			}
			pages[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// fail records the job as FAILED and returns cause.
func (s *jobService) fail(ctx context.Context, job *model.Job, stage string, cause error) error {
	s.metrics.JobFailed(stage)
	s.log.ErrorContext(ctx, "job failed", "job_id", job.ID, "stage", stage, "error", cause)

	job.Status = model.StatusFailed
	job.OutputKey = ""
	job.ErrorDetails = cause.Error()
	job.UpdatedAt = s.opts.Now().UTC()
	if err := s.repo.Update(context.WithoutCancel(ctx), job); err != nil {
		s.log.ErrorContext(ctx, "failed to record job failure", "job_id", job.ID, "error", err)
	}
	return cause
}

func (s *jobService) Output(ctx context.Context, id string) (*model.Job, io.ReadCloser, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if job.OutputKey == "" {
		return nil, nil, ErrNoOutput
	}
	rc, _, err := s.store.Get(ctx, job.OutputKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrNoOutput
		}
		return nil, nil, err
	}
	return job, rc, nil
}

// Delete removes the job objects first; if this fails the record is kept so
// the objects stay discoverable.
func (s *jobService) Delete(ctx context.Context, id string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	keys := make([]string, 0, job.PageCount+2)
	keys = append(keys, job.SourceKey)
	for n := 1; n <= job.PageCount; n++ {
		keys = append(keys, job.PageKey(n))
	}
	keys = append(keys, job.OutputObjectKey())

	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "job deleted", "job_id", id)
	return nil
}
