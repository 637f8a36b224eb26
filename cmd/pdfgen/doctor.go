package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"pdfgen/internal/content"
	"pdfgen/internal/credentials"
	u "pdfgen/internal/utils"
)

// minKeyLength is the shortest value accepted as a plausible API key.
const minKeyLength = 10

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"` // "ready", "warnings", "errors"
	Structure structureInfo `json:"structure"`
	EnvFile   envFileInfo   `json:"env_file"`
	EnvVar    envVarInfo    `json:"env_var"`
	Endpoint  endpointInfo  `json:"endpoint"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

type structureInfo struct {
	TemplateDir       string `json:"template_dir"`
	TemplateDirExists bool   `json:"template_dir_exists"`
	OutputDir         string `json:"output_dir"`
	OutputDirCreated  bool   `json:"output_dir_created,omitempty"`
	DefaultTemplate   bool   `json:"default_template"`
}

type envFileInfo struct {
	Path      string `json:"path"`
	Exists    bool   `json:"exists"`
	HasKey    bool   `json:"has_key"`
	MaskedKey string `json:"masked_key,omitempty"`
}

type envVarInfo struct {
	Name      string `json:"name"`
	Set       bool   `json:"set"`
	MaskedKey string `json:"masked_key,omitempty"`
}

type endpointInfo struct {
	URL   string `json:"url"`
	Valid bool   `json:"valid"`
}

func (r *doctorResult) credentialConfigured() bool {
	return r.EnvFile.MaskedKey != "" || r.EnvVar.MaskedKey != ""
}

func runDoctorCmd(args []string, env *Environment) int {
	var common commonFlags
	var jsonOutput bool
	fs := newFlagSet("doctor", env, func() { printDoctorUsage(env.Stderr) })
	fs.BoolVar(&jsonOutput, "json", false, "machine-readable output")
	addCommonFlags(fs, &common)
	if err := parseArgs(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return fail(env, err)
	}

	cfg, err := loadConfig(common.config)
	if err != nil {
		return fail(env, err)
	}
	setupLogging(env, common.verbose)

	result := runDoctor(cfg, env.Getenv)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg u.Config, getenv func(string) string) *doctorResult {
	result := &doctorResult{Status: "ready"}

	checkStructure(result, cfg)
	checkEnvFile(result, cfg)
	checkEnvVar(result, cfg, getenv)
	checkEndpoint(result, cfg)

	if !result.credentialConfigured() {
		result.Errors = append(result.Errors,
			fmt.Sprintf("API key not configured: set %s or run 'pdfgen set-key'", cfg.Doppio.APIKeyEnv))
	}

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func checkStructure(result *doctorResult, cfg u.Config) {
	s := &result.Structure
	s.TemplateDir = cfg.Paths.TemplateDir
	s.OutputDir = cfg.Paths.OutputDir

	s.TemplateDirExists = isDir(s.TemplateDir)
	if !s.TemplateDirExists {
		result.Errors = append(result.Errors, fmt.Sprintf("Template directory missing: %s", s.TemplateDir))
	}

	if !isDir(s.OutputDir) {
		if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot create output directory %s: %v", s.OutputDir, err))
		} else {
			s.OutputDirCreated = true
		}
	}

	if _, err := os.Stat(filepath.Join(s.TemplateDir, content.DefaultTemplate)); err == nil {
		s.DefaultTemplate = true
	} else if s.TemplateDirExists {
		result.Warnings = append(result.Warnings, fmt.Sprintf("No %s found in %s", content.DefaultTemplate, s.TemplateDir))
	}
}

func checkEnvFile(result *doctorResult, cfg u.Config) {
	e := &result.EnvFile
	e.Path = cfg.Doppio.EnvFile

	st := credentials.InspectFile(e.Path, cfg.Doppio.APIKeyEnv)
	e.Exists = st.Exists
	e.HasKey = st.HasKey
	switch {
	case !st.Exists:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s file not found", e.Path))
	case st.ReadErr != nil:
		result.Errors = append(result.Errors, fmt.Sprintf("Error reading %s: %v", e.Path, st.ReadErr))
	case !st.HasKey:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s does not define %s", e.Path, cfg.Doppio.APIKeyEnv))
	case st.Placeholder:
		result.Errors = append(result.Errors, fmt.Sprintf("%s still holds the placeholder value", e.Path))
	case len(st.Key) <= minKeyLength:
		result.Errors = append(result.Errors, fmt.Sprintf("API key in %s looks invalid", e.Path))
	default:
		e.MaskedKey = credentials.Mask(st.Key)
	}
}

func checkEnvVar(result *doctorResult, cfg u.Config, getenv func(string) string) {
	v := &result.EnvVar
	v.Name = cfg.Doppio.APIKeyEnv

	key := getenv(v.Name)
	v.Set = key != ""
	switch {
	case !v.Set:
		// Not an error on its own: the env file may hold the key.
	case key == credentials.Placeholder:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s holds the placeholder value and is ignored", v.Name))
	case len(key) <= minKeyLength:
		result.Errors = append(result.Errors, fmt.Sprintf("%s looks invalid", v.Name))
	default:
		v.MaskedKey = credentials.Mask(key)
	}
}

func checkEndpoint(result *doctorResult, cfg u.Config) {
	result.Endpoint.URL = cfg.Doppio.APIURL
	parsed, err := url.Parse(cfg.Doppio.APIURL)
	result.Endpoint.Valid = err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") && parsed.Host != ""
	if !result.Endpoint.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid rendering endpoint: %s", cfg.Doppio.APIURL))
	} else if parsed.Scheme == "http" {
		result.Warnings = append(result.Warnings, "Rendering endpoint does not use HTTPS")
	}
}

func okOr(w io.Writer, ok bool, label, detail string) {
	tag := "[OK]"
	if !ok {
		tag = "[--]"
	}
	fmt.Fprintf(w, "  %s %s: %s\n", tag, label, detail)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "pdfgen doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Project structure")
	okOr(w, r.Structure.TemplateDirExists, "Template directory", r.Structure.TemplateDir)
	outDetail := r.Structure.OutputDir
	if r.Structure.OutputDirCreated {
		outDetail += " (created)"
	}
	okOr(w, true, "Output directory", outDetail)
	okOr(w, r.Structure.DefaultTemplate, "Default template", content.DefaultTemplate)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "API key")
	switch {
	case !r.EnvFile.Exists:
		okOr(w, false, "Env file", r.EnvFile.Path+" not found")
	case r.EnvFile.MaskedKey != "":
		okOr(w, true, "Env file", r.EnvFile.Path+" (key: "+r.EnvFile.MaskedKey+")")
	default:
		okOr(w, false, "Env file", r.EnvFile.Path+" has no usable key")
	}
	if r.EnvVar.MaskedKey != "" {
		okOr(w, true, "Environment", r.EnvVar.Name+" set: "+r.EnvVar.MaskedKey)
	} else {
		okOr(w, false, "Environment", r.EnvVar.Name+" not set")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Rendering service")
	okOr(w, r.Endpoint.Valid, "Endpoint", r.Endpoint.URL)
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	if !r.credentialConfigured() {
		printSolutions(w, r.EnvVar.Name)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: ready")
	case "warnings":
		fmt.Fprintln(w, "Status: ready (with warnings)")
	case "errors":
		fmt.Fprintln(w, "Status: not ready")
	}
}

func printSolutions(w io.Writer, envVar string) {
	fmt.Fprintln(w, "How to configure the API key:")
	fmt.Fprintln(w, "  1. Get a key at https://doppio.sh (keys start with 'dp_')")
	fmt.Fprintln(w, "  2. Run: pdfgen set-key <KEY>")
	fmt.Fprintf(w, "     or export %s=<KEY>\n", envVar)
	fmt.Fprintln(w, "  3. Run: pdfgen doctor")
	fmt.Fprintln(w)
}
