package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pdfblur/internal/model"
	"pdfblur/internal/service"
)

// jobResponse is a job with the identifiers of its page images.
type jobResponse struct {
	model.Job
	Pages []string `json:"pages"`
}

func newJobResponse(j *model.Job) jobResponse {
	return jobResponse{Job: *j, Pages: j.PageNames()}
}

// jobID reads and validates the :id route parameter.
func jobID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListJobs returns jobs, newest first.
//
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Param limit query int false "page size" default(10)
// @Param offset query int false "rows to skip" default(0)
// @Success 200 {object} service.JobListResult
// @Failure 400 {object} errorPayload
// @Router /jobs [get]
func ListJobs(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateJob uploads a PDF and rasterizes it into page images.
//
// @Summary Create a redaction job
// @Tags jobs
// @Accept mpfd
// @Produce json
// @Param file formData file true "PDF document"
// @Success 201 {object} jobResponse
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /jobs [post]
func CreateJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		job, err := svc.Create(c.UserContext(), f, fh.Filename, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newJobResponse(job))
	}
}

// GetJob returns a job by ID.
//
// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param id path string true "job id"
// @Success 200 {object} jobResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /jobs/{id} [get]
func GetJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newJobResponse(job))
	}
}

// GetPage streams a page image.
//
// @Summary Download a page image
// @Tags pages
// @Produce png
// @Param id path string true "job id"
// @Param page path string true "page index or page identifier"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /jobs/{id}/pages/{page} [get]
func GetPage(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, err := svc.Page(c.UserContext(), id, c.Params("page"))
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Type("png")
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

// GetPageURL returns a presigned download URL for a page image.
//
// @Summary Presign a page image URL
// @Tags pages
// @Produce json
// @Param id path string true "job id"
// @Param page path string true "page index or page identifier"
// @Success 200 {object} map[string]string
// @Failure 404 {object} errorPayload
// @Router /jobs/{id}/pages/{page}/url [get]
func GetPageURL(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := svc.PageURL(c.UserContext(), id, c.Params("page"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// RedactJob blurs the requested zones and returns the reassembled PDF.
//
// @Summary Blur zones and download the redacted PDF
// @Tags jobs
// @Accept json
// @Produce application/pdf
// @Param id path string true "job id"
// @Param request body model.RedactionRequest true "zones per page"
// @Success 200 {file} binary
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /jobs/{id}/redactions [post]
func RedactJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req model.RedactionRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "request body must be a JSON redaction request")
		}

		job, out, err := svc.Redact(c.UserContext(), id, &req)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(job.OutputName())
		c.Type("pdf")
		return c.Send(out.Data)
	}
}

// GetOutput streams the last redacted PDF of a job.
//
// @Summary Download the last redacted PDF
// @Tags jobs
// @Produce application/pdf
// @Param id path string true "job id"
// @Success 200 {file} binary
// @Failure 404 {object} errorPayload
// @Router /jobs/{id}/output [get]
func GetOutput(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		job, rc, err := svc.Output(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(job.OutputName())
		c.Type("pdf")
		return c.SendStream(rc)
	}
}

// DeleteJob removes a job and all of its stored objects.
//
// @Summary Delete a job
// @Tags jobs
// @Param id path string true "job id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /jobs/{id} [delete]
func DeleteJob(svc service.JobService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := jobID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
