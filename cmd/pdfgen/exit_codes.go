package main

import (
	"errors"
	"os"

	"pdfgen/internal/content"
	"pdfgen/internal/credentials"
	"pdfgen/internal/doppio"
)

// Exit codes for the pdfgen CLI.
const (
	ExitSuccess    = 0 // Successful run
	ExitGeneral    = 1 // General/unexpected error
	ExitUsage      = 2 // Invalid flags, arguments or configuration
	ExitIO         = 3 // Input not found, output not writable
	ExitService    = 4 // Rendering service failure
	ExitCredential = 5 // API key not configured
)

var (
	ErrUsage     = errors.New("invalid usage")
	ErrConfig    = errors.New("invalid configuration")
	ErrReadInput = errors.New("failed to read input")
)

// exitCodeFor maps an error to an exit code. Callers must wrap with %w.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, credentials.ErrMissingCredential):
		return ExitCredential
	case doppio.IsServiceFailure(err):
		return ExitService
	case errors.Is(err, content.ErrTemplateNotFound),
		errors.Is(err, ErrReadInput),
		errors.Is(err, doppio.ErrWriteOutput),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, os.ErrPermission):
		return ExitIO
	case errors.Is(err, ErrUsage),
		errors.Is(err, ErrConfig),
		errors.Is(err, doppio.ErrInvalidRequest),
		errors.Is(err, doppio.ErrInvalidOutputName),
		errors.Is(err, content.ErrInvalidTemplateName),
		errors.Is(err, credentials.ErrKeyExists):
		return ExitUsage
	}
	return ExitGeneral
}
