// Package logic loads the rule files of a run from the logic directory.
package logic

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/okian/rosterfix/internal/domain/eligibility"
	"github.com/okian/rosterfix/internal/domain/equipment"
	"github.com/okian/rosterfix/pkg/logger"
)

// Rule file names inside the logic directory.
const (
	JerseyFile    = "jersey_numbers.json"
	TemplatesFile = "equipment_templates.json"
)

// Bundle holds every rule set a run needs.
type Bundle struct {
	Eligibility *eligibility.Table
	Templates   []equipment.Template
}

// Loader reads rule files from one directory.
type Loader struct {
	dir    string
	logger logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets a custom logger for the loader.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader returns a loader over dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get()
	}
	l.logger = l.logger.Named("logic")
	return l
}

// Load reads the eligibility table and the equipment templates.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	table, err := l.LoadEligibility(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := l.LoadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return &Bundle{Eligibility: table, Templates: templates}, nil
}

// LoadEligibility reads and validates the jersey number rules. The file is
// required.
func (l *Loader) LoadEligibility(ctx context.Context) (*eligibility.Table, error) {
	path := filepath.Join(l.dir, JerseyFile)

	// JSON is valid YAML, so koanf's YAML parser reads the file as is and keeps
	// integer bounds as integers.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	table, err := eligibility.Parse(k.Raw())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, pos := range table.Positions() {
		rule, _ := table.Rule(pos)
		if stray := rule.StrayImpacts(); len(stray) > 0 {
			l.logger.Warn(ctx, "impact numbers outside the allowed ranges",
				logger.Int("position", pos),
				logger.Ints("numbers", stray),
			)
		}
	}
	l.logger.Debug(ctx, "eligibility loaded", logger.Int("positions", table.Len()))
	return table, nil
}

// LoadTemplates reads the equipment templates. A missing file yields no
// templates.
func (l *Loader) LoadTemplates(ctx context.Context) ([]equipment.Template, error) {
	path := filepath.Join(l.dir, TemplatesFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info(ctx, "no equipment templates", logger.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	// The file is a top-level list, which koanf cannot hold.
	var raw []any
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	templates, err := equipment.ParseTemplates(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Debug(ctx, "equipment templates loaded", logger.Int("templates", len(templates)))
	return templates, nil
}
