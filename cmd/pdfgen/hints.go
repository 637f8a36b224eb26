package main

import (
	"errors"
	"fmt"

	"pdfgen/internal/content"
	"pdfgen/internal/credentials"
	"pdfgen/internal/doppio"
)

// hintFor returns a remediation line for err, or "".
func hintFor(err error) string {
	var remote *doppio.RemoteError
	switch {
	case errors.Is(err, credentials.ErrMissingCredential):
		return "Run 'pdfgen set-key' to store your API key, then check the setup with 'pdfgen doctor'."
	case errors.As(err, &remote) && remote.Unauthorized():
		return "The API key was rejected. Check it with 'pdfgen doctor' or replace it with 'pdfgen set-key --force'."
	case errors.As(err, &remote):
		return "The rendering service refused the request. Check the HTML and try again."
	case errors.Is(err, doppio.ErrTimeout):
		return "The rendering service did not answer in time. Try again or raise doppio.timeout."
	case errors.Is(err, doppio.ErrConnection):
		return "Could not reach the rendering service. Check your internet connection."
	case errors.Is(err, doppio.ErrEmptyResponse):
		return "The rendering service returned no PDF. Try again later."
	case errors.Is(err, content.ErrTemplateNotFound):
		return "Check the file name and paths.template_dir in the configuration."
	case errors.Is(err, credentials.ErrKeyExists):
		return "Use --force to replace the stored key."
	case errors.Is(err, ErrConfig):
		return "Fix the configuration file or unset CONFIG_PATH to use the defaults."
	case errors.Is(err, ErrUsage):
		return "Run 'pdfgen help' for usage."
	}
	return ""
}

// fail reports err with its hint and returns the matching exit code.
func fail(env *Environment, err error) int {
	fmt.Fprintf(env.Stderr, "Error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(env.Stderr, "Hint: %s\n", hint)
	}
	return exitCodeFor(err)
}
