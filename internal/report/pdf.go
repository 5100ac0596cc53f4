package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// ════════════════════════════════════════════════════════════════════
// PDF export: HTML → PDF through headless Chrome (go-rod)
// ════════════════════════════════════════════════════════════════════

// ErrNoBrowser is returned when no Chrome is available for PDF export.
var ErrNoBrowser = errors.New("no headless browser available for PDF export")

// PDFConfig holds configuration for PDF generation.
type PDFConfig struct {
	OutputPath   string // required: output PDF file path
	Landscape    bool
	RemoteURL    string // existing DevTools endpoint; empty launches a local Chrome
	FallbackHTML bool   // write the HTML next to OutputPath when no browser is available
}

// IsPDFSupported reports whether a local Chrome can be found.
func IsPDFSupported() bool {
	_, ok := launcher.LookPath()
	return ok
}

// GeneratePDF prints html to cfg.OutputPath. Without a browser it either
// writes the HTML instead (FallbackHTML) or returns ErrNoBrowser.
func GeneratePDF(ctx context.Context, html string, cfg PDFConfig) (string, error) {
	if cfg.OutputPath == "" {
		return "", errors.New("output path is required")
	}
	if cfg.RemoteURL == "" && !IsPDFSupported() {
		if cfg.FallbackHTML {
			return writeHTMLFallback(html, cfg.OutputPath)
		}
		return "", ErrNoBrowser
	}

	controlURL := cfg.RemoteURL
	var lnch *launcher.Launcher
	if controlURL == "" {
		lnch = launcher.New().Context(ctx).Headless(true)
		u, err := lnch.Launch()
		if err != nil {
			return "", fmt.Errorf("launching chrome: %w", err)
		}
		defer lnch.Kill()
		controlURL = u
	}

	b := rod.New().Context(ctx).ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return "", fmt.Errorf("connecting to chrome: %w", err)
	}
	defer func() {
		if lnch != nil {
			_ = b.Close()
		}
	}()

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return "", fmt.Errorf("loading report HTML: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for report: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:         cfg.Landscape,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return "", fmt.Errorf("printing PDF: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", cfg.OutputPath, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, stream); err != nil {
		return "", fmt.Errorf("writing %s: %w", cfg.OutputPath, err)
	}
	log.Info().Str("path", cfg.OutputPath).Msg("PDF report written")
	return cfg.OutputPath, nil
}

// WriteHTML writes the report HTML to path.
func WriteHTML(html, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("HTML report written")
	return nil
}

func writeHTMLFallback(html, outputPath string) (string, error) {
	if strings.HasSuffix(strings.ToLower(outputPath), ".pdf") {
		outputPath = outputPath[:len(outputPath)-4] + ".html"
	}
	log.Warn().Str("path", outputPath).Msg("no browser for PDF export; writing HTML instead")
	return outputPath, WriteHTML(html, outputPath)
}
