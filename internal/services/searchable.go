// Package services wires the document preparer and the analyze client into
// the end-to-end flow that produces a searchable PDF next to the input.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/searchabledocflow/internal/docintel"
	"github.com/Lllllllleong/searchabledocflow/internal/preparer"
)

// SearchableConfig holds the per-run settings of the searchable service.
type SearchableConfig struct {
	// MaxPages bounds the sample submitted for analysis. Zero selects the
	// preparer default.
	MaxPages int
	// OutputPath overrides the derived destination when non-empty.
	OutputPath string
}

// SearchableService runs the prepare, submit, poll, fetch lifecycle for one
// document per invocation. No state is shared between invocations.
type SearchableService struct {
	client *docintel.Client
	config SearchableConfig
}

// NewSearchableService creates a service around an analyze client.
func NewSearchableService(client *docintel.Client, config SearchableConfig) *SearchableService {
	if config.MaxPages <= 0 {
		config.MaxPages = preparer.DefaultMaxPages
	}
	return &SearchableService{client: client, config: config}
}

// Process handles a single document end to end and returns the path of the
// searchable PDF it wrote. Any failure aborts the run immediately; there is
// no local recovery at any step.
func (s *SearchableService) Process(ctx context.Context, inputPath string) (string, error) {
	logCtx := slog.With("input", inputPath)
	logCtx.Info("Preparing document sample.", "maxPages", s.config.MaxPages)

	payload, err := preparer.EncodeFirstPages(inputPath, s.config.MaxPages)
	if err != nil {
		logCtx.Error("Failed to prepare document", "error", err)
		return "", err
	}

	resultID, err := s.client.Submit(ctx, payload)
	if err != nil {
		logCtx.Error("Failed to submit analyze request", "error", err)
		return "", err
	}
	logCtx = logCtx.With("resultId", resultID)
	logCtx.Info("Analyze operation accepted. Waiting for completion.")

	if err := s.client.WaitForCompletion(ctx, resultID); err != nil {
		logCtx.Error("Analyze operation did not complete", "error", err)
		return "", err
	}
	logCtx.Info("Analyze operation complete.")

	pdf, err := s.client.FetchSearchablePDF(ctx, resultID)
	if err != nil {
		logCtx.Error("Failed to retrieve searchable PDF", "error", err)
		return "", err
	}

	outputPath := s.config.OutputPath
	if outputPath == "" {
		outputPath = OutputPathFor(inputPath)
	}
	if err := os.WriteFile(outputPath, pdf, 0644); err != nil {
		logCtx.Error("Failed to write searchable PDF", "error", err)
		return "", fmt.Errorf("failed to write searchable PDF to %s: %w", outputPath, err)
	}

	logCtx.Info("Searchable PDF saved.", "output", outputPath, "bytes", len(pdf))
	return outputPath, nil
}

// OutputPathFor derives the destination for a searchable rendition: the
// input path with its extension replaced by "_searchable.pdf".
func OutputPathFor(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "_searchable.pdf"
}
