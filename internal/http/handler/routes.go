package handler

import (
	"github.com/gofiber/fiber/v2"

	"pdfblur/internal/service"
)

// RegisterRoutes attaches the probe and job routes to app. db may be nil
// when no SQL dependency is configured.
func RegisterRoutes(app *fiber.App, db Pinger, jobSvc service.JobService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	jobs := app.Group("/jobs")
	jobs.Get("/", ListJobs(jobSvc))
	jobs.Post("/", CreateJob(jobSvc))
	jobs.Get("/:id", GetJob(jobSvc))
	jobs.Delete("/:id", DeleteJob(jobSvc))
	jobs.Get("/:id/pages/:page", GetPage(jobSvc))
	jobs.Get("/:id/pages/:page/url", GetPageURL(jobSvc))
	jobs.Post("/:id/redactions", RedactJob(jobSvc))
	jobs.Get("/:id/output", GetOutput(jobSvc))
}
