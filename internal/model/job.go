package model

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Job status values.
const (
	StatusRasterized = "RASTERIZED"
	StatusRedacted   = "REDACTED"
	StatusFailed     = "FAILED"
)

// Job is the stored record of one redaction job: the uploaded source, its
// rasterized pages and the last produced output.
// It is a pure domain model; persistence tags live with the repositories.
type Job struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	SourceKey        string    `json:"source_key"`
	PageCount        int       `json:"page_count"`
	PageWidth        int       `json:"page_width"`
	PageHeight       int       `json:"page_height"`
	Status           string    `json:"status"`
	OutputKey        string    `json:"output_key,omitempty"`
	ErrorDetails     string    `json:"error_details,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Prefix is the object storage prefix owning every object of the job.
func (j *Job) Prefix() string { return path.Join("jobs", j.ID) }

// PageName is the stable identifier of page n (1-based).
func (j *Job) PageName(n int) string { return fmt.Sprintf("%s_page_%d.png", j.ID, n) }

// PageKey is the storage key of page n.
func (j *Job) PageKey(n int) string { return path.Join(j.Prefix(), "pages", j.PageName(n)) }

// PageNames lists the identifiers of all pages in order.
func (j *Job) PageNames() []string {
	names := make([]string, j.PageCount)
	for i := range names {
		names[i] = j.PageName(i + 1)
	}
	return names
}

// OutputName is the download filename of the redacted document.
func (j *Job) OutputName() string { return j.ID + "_blurred.pdf" }

// OutputObjectKey is where the redacted document is stored.
func (j *Job) OutputObjectKey() string { return path.Join(j.Prefix(), j.OutputName()) }

// SourceObjectKey is where the uploaded document is stored.
func (j *Job) SourceObjectKey(ext string) string { return path.Join(j.Prefix(), "source"+ext) }

// ParsePageName extracts the page number from an identifier produced by PageName.
func (j *Job) ParsePageName(name string) (int, bool) {
	num, ok := strings.CutPrefix(name, j.ID+"_page_")
	if !ok {
		return 0, false
	}
	num, ok = strings.CutSuffix(num, ".png")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || name != j.PageName(n) {
		return 0, false
	}
	return n, true
}
