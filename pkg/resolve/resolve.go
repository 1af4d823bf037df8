package resolve

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/leadscore/pkg/config"
	"github.com/mchmarny/leadscore/pkg/model"
	"github.com/pkg/errors"
)

// ErrNoModel is returned when no candidate artifact could be loaded.
var ErrNoModel = errors.New("no model available")

// LoadFunc deserializes the artifact at path.
type LoadFunc func(path string) (*model.Artifact, error)

// strategy yields a loaded artifact, or ok=false to move on to the next
// one. A non-nil err stops the cascade.
type strategy func() (a *model.Artifact, ok bool, err error)

// Resolver locates and loads a model artifact.
type Resolver struct {
	Dir        string
	Primary    string
	Alternates []string
	Extension  string
	Load       LoadFunc
	Logger     *slog.Logger
}

// New creates a resolver from cfg. An empty cfg.ModelDir falls back to
// DefaultDir.
func New(cfg *config.Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.ModelDir
	if dir == "" {
		dir = DefaultDir()
	}
	return &Resolver{
		Dir:        dir,
		Primary:    cfg.Primary,
		Alternates: cfg.Alternates,
		Extension:  cfg.Extension,
		Load:       model.Load,
		Logger:     logger.WithGroup("resolve"),
	}
}

// DefaultDir is the pkl directory two levels above the executable's
// directory, or relative to the working directory if the executable path
// is unknown.
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		slog.Debug("error getting executable path, using working dir", "error", err)
		return filepath.Join("..", "..", config.ModelDirName)
	}
	if p, err := filepath.EvalSymlinks(exe); err == nil {
		exe = p
	}
	root := filepath.Dir(filepath.Dir(filepath.Dir(exe)))
	return filepath.Join(root, config.ModelDirName)
}

// PrimaryPath is the artifact tried first when no explicit path is given.
func (r *Resolver) PrimaryPath() string {
	return r.path(r.Primary)
}

// AlternatePaths lists the fallback artifacts in the order they are tried.
func (r *Resolver) AlternatePaths() []string {
	paths := make([]string, 0, len(r.Alternates))
	for _, name := range r.Alternates {
		paths = append(paths, r.path(name))
	}
	return paths
}

func (r *Resolver) path(name string) string {
	return filepath.Join(r.Dir, name+r.Extension)
}

// Locate selects the candidate to load: the explicit path if set,
// otherwise the primary if it exists, otherwise the first existing
// alternate.
func (r *Resolver) Locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	primary := r.PrimaryPath()
	if exists(primary) {
		return primary, nil
	}

	for _, p := range r.AlternatePaths() {
		if exists(p) {
			r.Logger.Info("using alternative model", "path", p)
			return p, nil
		}
	}

	r.Logger.Warn("no model files found", "dir", r.Dir)
	return "", ErrNoModel
}

// Resolve returns the first artifact that loads. A located candidate that
// fails to load triggers a sweep over the alternates before giving up.
func (r *Resolver) Resolve(explicit string) (*model.Artifact, error) {
	var located string

	strategies := []strategy{
		func() (*model.Artifact, bool, error) {
			p, err := r.Locate(explicit)
			if err != nil {
				return nil, false, err
			}
			located = p
			return nil, false, nil
		},
		func() (*model.Artifact, bool, error) {
			a, ok := r.try(located)
			return a, ok, nil
		},
	}
	for _, p := range r.AlternatePaths() {
		strategies = append(strategies, func() (*model.Artifact, bool, error) {
			if !exists(p) {
				return nil, false, nil
			}
			a, ok := r.try(p)
			return a, ok, nil
		})
	}

	return run(strategies)
}

func run(strategies []strategy) (*model.Artifact, error) {
	for _, s := range strategies {
		a, ok, err := s()
		if err != nil {
			return nil, err
		}
		if ok {
			return a, nil
		}
	}
	return nil, ErrNoModel
}

func (r *Resolver) try(path string) (a *model.Artifact, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("error loading model", "path", path, "error", rec)
			a, ok = nil, false
		}
	}()

	a, err := r.Load(path)
	if err != nil {
		r.Logger.Error("error loading model", "path", path, "error", err)
		return nil, false
	}
	r.Logger.Debug("model loaded", "path", path, "kind", a.Kind, "capability", a.Capability)
	return a, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
