package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"pdfblur/internal/config"
	"pdfblur/internal/http/middleware"
	"pdfblur/internal/model"
	"pdfblur/internal/page"
	"pdfblur/internal/pipeline"
	"pdfblur/internal/rasterizer"
	"pdfblur/internal/service"
)

func main() {
	cfg := config.Load().Pipeline

	zonesPath := flag.String("zones", "", "JSON redaction request ({\"blur_data\": [...]}); empty keeps pages unchanged")
	outPath := flag.String("out", "", "output PDF path (default: <input>_blurred.pdf)")
	pagesDir := flag.String("pages", "", "also write the rasterized page images to this directory")
	flag.IntVar(&cfg.PageWidth, "width", cfg.PageWidth, "canonical page width in pixels")
	flag.IntVar(&cfg.PageHeight, "height", cfg.PageHeight, "canonical page height in pixels")
	flag.Float64Var(&cfg.BlurSigma, "sigma", cfg.BlurSigma, "Gaussian blur sigma")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of worker goroutines (0 = NumCPU)")
	flag.Parse()

	logger := middleware.NewJSONLogger(os.Stderr, time.Local)

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: redact [--zones zones.json] [--out out.pdf] [--pages dir] [--sigma S] <input.pdf>")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *zonesPath, *outPath, *pagesDir, cfg, logger); err != nil {
		logger.Error("redaction failed", "error", err)
		os.Exit(1)
	}
}

func run(input, zonesPath, outPath, pagesDir string, cfg config.PipelineConfig, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	pipe := pipeline.New(rasterizer.NewMuPDF(), pipeline.Config{
		Width:            cfg.PageWidth,
		Height:           cfg.PageHeight,
		RenderDPI:        cfg.RenderDPI,
		OutputDPI:        cfg.OutputDPI,
		BlurSigma:        cfg.BlurSigma,
		Workers:          cfg.Workers,
		CompressionLevel: cfg.CompressionLevel,
	})

	start := time.Now()
	pages, err := pipe.Rasterize(page.SourceDocument{Name: filepath.Base(input), Data: data})
	if err != nil {
		return err
	}
	logger.Info("rasterized", "input", input, "pages", len(pages), "duration_ms", time.Since(start).Milliseconds())

	// Page identifiers in the zones file use the input's base name as job id.
	job := &model.Job{
		ID:         strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)),
		PageCount:  len(pages),
		PageWidth:  cfg.PageWidth,
		PageHeight: cfg.PageHeight,
	}

	if pagesDir != "" {
		if err := writePages(pagesDir, job, pages); err != nil {
			return err
		}
	}

	req := &model.RedactionRequest{}
	if zonesPath != "" {
		raw, err := os.ReadFile(zonesPath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, req); err != nil {
			return fmt.Errorf("parse %s: %w", zonesPath, err)
		}
	}
	zones, err := service.ZonesFromRequest(job, req)
	if err != nil {
		return err
	}

	start = time.Now()
	out, err := pipe.Redact(pages, zones)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(input), job.OutputName())
	}
	if err := os.WriteFile(outPath, out.Data, 0o644); err != nil {
		return err
	}
	logger.Info("redacted", "output", outPath, "pages", out.PageCount, "zones_pages", len(zones), "bytes", len(out.Data), "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func writePages(dir string, job *model.Job, pages []page.Image) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, p := range pages {
		b, err := page.PNGBytes(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, job.PageName(p.Index)), b, 0o644); err != nil {
			return err
		}
	}
	return nil
}
