// Package credentials provides the login secrets for a DEGIRO session.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrIncomplete is returned when a username or password is missing
var ErrIncomplete = errors.New("credentials: username and password are required")

// Credentials holds what the login endpoint needs.
// OneTimePassword is only set in two-factor mode and never read from files.
type Credentials struct {
	Username        string `toml:"username" json:"username"`
	Password        string `toml:"password" json:"password"`
	OneTimePassword string `toml:"-" json:"-"`
}

// Validate checks username and password are present
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return ErrIncomplete
	}
	return nil
}

// Source produces credentials
type Source interface {
	Load(ctx context.Context) (Credentials, error)
}

// SourceFunc adapts a function to a Source
type SourceFunc func(ctx context.Context) (Credentials, error)

// Load calls f
func (f SourceFunc) Load(ctx context.Context) (Credentials, error) {
	return f(ctx)
}

// Static returns a Source that always yields the given username and password
func Static(username, password string) Source {
	return SourceFunc(func(ctx context.Context) (Credentials, error) {
		return Credentials{Username: username, Password: password}, nil
	})
}

// FileSource reads credentials from a TOML or JSON file.
// The format follows the extension; files without a known extension are
// parsed as JSON when they start with '{' and as TOML otherwise.
type FileSource struct {
	Path string
}

// Load reads and parses the file
func (s FileSource) Load(ctx context.Context) (Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := parse(s.Path, data)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials file %s: %w", s.Path, err)
	}
	return creds, nil
}

func parse(path string, data []byte) (Credentials, error) {
	var creds Credentials

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err := json.Unmarshal(data, &creds)
		return creds, err
	case ".toml":
		err := toml.Unmarshal(data, &creds)
		return creds, err
	}

	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		err := json.Unmarshal(data, &creds)
		return creds, err
	}
	err := toml.Unmarshal(data, &creds)
	return creds, err
}

// WithOneTimePassword wraps a Source so every load also asks the prompter
// for a one-time password.
func WithOneTimePassword(src Source, p *Prompter) Source {
	return SourceFunc(func(ctx context.Context) (Credentials, error) {
		creds, err := src.Load(ctx)
		if err != nil {
			return Credentials{}, err
		}

		otp, err := p.Secret("One-time password: ")
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read one-time password: %w", err)
		}
		creds.OneTimePassword = strings.TrimSpace(otp)
		return creds, nil
	})
}

// Resolve picks the credential source: a credentials file when one is
// configured, the given username/password when both are set, and the
// interactive prompt otherwise. In two-factor mode the one-time password is
// always prompted for.
func Resolve(file, username, password string, twoFactor bool, p *Prompter) Source {
	var src Source
	switch {
	case file != "":
		src = FileSource{Path: file}
	case username != "" && password != "":
		src = Static(username, password)
	default:
		src = PromptSource{Prompter: p, Username: username}
	}

	if twoFactor {
		src = WithOneTimePassword(src, p)
	}
	return src
}

// Load reads credentials from src and validates them
func Load(ctx context.Context, src Source) (Credentials, error) {
	creds, err := src.Load(ctx)
	if err != nil {
		return Credentials{}, err
	}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
