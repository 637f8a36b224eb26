// Package credentials resolves the rendering service API key from the process
// environment or a local dotenv file, without mutating the environment.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Placeholder is the value shipped in example env files.
const Placeholder = "your_api_key_here"

var (
	// ErrMissingCredential means no usable API key was found.
	ErrMissingCredential = errors.New("API key is not set")
	// ErrKeyExists means the env file already holds a key and overwrite was not requested.
	ErrKeyExists = errors.New("env file already contains an API key")
)

// Source tells where a key was found.
type Source string

const (
	SourceNone Source = ""
	SourceEnv  Source = "environment"
	SourceFile Source = "env file"
)

// Resolver looks up EnvVar in the environment first, then in EnvFile.
type Resolver struct {
	EnvVar  string
	EnvFile string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// NewResolver returns a Resolver reading the real process environment.
func NewResolver(envVar, envFile string) Resolver {
	return Resolver{EnvVar: envVar, EnvFile: envFile, Getenv: os.Getenv}
}

// Resolve returns the API key or ErrMissingCredential.
func (r Resolver) Resolve() (string, error) {
	key, _, err := r.lookup()
	if err != nil {
		return "", err
	}
	return key, nil
}

// ResolveWithSource is Resolve plus the location the key came from.
func (r Resolver) ResolveWithSource() (string, Source, error) {
	return r.lookup()
}

func (r Resolver) lookup() (string, Source, error) {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(r.EnvVar)); usable(v) {
		return v, SourceEnv, nil
	}
	if r.EnvFile != "" {
		vars, err := godotenv.Read(r.EnvFile)
		if err == nil {
			if v := strings.TrimSpace(vars[r.EnvVar]); usable(v) {
				return v, SourceFile, nil
			}
		}
	}
	return "", SourceNone, fmt.Errorf("%w: %s", ErrMissingCredential, r.EnvVar)
}

func usable(v string) bool {
	return v != "" && v != Placeholder
}

// Mask hides all but the first 7 and last 4 characters of a key.
func Mask(key string) string {
	if len(key) <= 11 {
		return "***"
	}
	return key[:7] + "..." + key[len(key)-4:]
}

// FileStatus describes the key as stored in an env file.
type FileStatus struct {
	Exists      bool
	HasKey      bool
	Placeholder bool
	Key         string
	ReadErr     error
}

// InspectFile reports what the env file holds for envVar.
func InspectFile(path, envVar string) FileStatus {
	var st FileStatus
	if _, err := os.Stat(path); err != nil {
		return st
	}
	st.Exists = true
	vars, err := godotenv.Read(path)
	if err != nil {
		st.ReadErr = err
		return st
	}
	v, ok := vars[envVar]
	st.HasKey = ok
	st.Key = strings.TrimSpace(v)
	st.Placeholder = st.Key == Placeholder
	return st
}

// SaveKey stores key under envVar in the env file at path. Other variables
// already in the file are kept. An existing key is replaced only with force.
func SaveKey(path, envVar, key string, force bool) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrMissingCredential
	}
	vars := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if old := strings.TrimSpace(existing[envVar]); usable(old) && !force {
			return ErrKeyExists
		}
		vars = existing
	}
	vars[envVar] = key
	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
