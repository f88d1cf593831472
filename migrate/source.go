package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/james-darko/sqlmig"
	"github.com/james-darko/sqlmig/schema"
)

// Definition is one discovered migration. Build yields the table it creates.
type Definition struct {
	// Name is the file name the definition came from, with the migration
	// suffix and extension stripped (e.g. "create_users_table").
	Name  string
	Build func() *schema.Table
}

// Source discovers migration definitions.
type Source interface {
	Definitions() ([]Definition, error)
}

// Registry holds migrations defined in Go code. Packages usually register
// their tables from init functions.
type Registry struct {
	mu   sync.Mutex
	defs map[string]func() *schema.Table
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]func() *schema.Table)}
}

// Register adds fn under name. It panics if name is registered twice or fn
// is nil.
func (r *Registry) Register(name string, fn func() *schema.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn == nil {
		panic("migrate: Register migration is nil")
	}
	if _, dup := r.defs[name]; dup {
		panic("migrate: Register called twice for migration " + name)
	}
	r.defs[name] = fn
}

// Definitions returns the registered migrations ordered by name.
func (r *Registry) Definitions() ([]Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Definition, 0, len(r.defs))
	for name, fn := range r.defs {
		out = append(out, Definition{Name: name, Build: fn})
	}
	slices.SortFunc(out, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// DefaultRegistry is the registry used by Register.
var DefaultRegistry = NewRegistry()

// Register adds a migration to DefaultRegistry.
func Register(name string, fn func() *schema.Table) {
	DefaultRegistry.Register(name, fn)
}

// Infix marks migration files: only files named <name>.mg.yaml or
// <name>.mg.yml are picked up by a DirSource.
const Infix = ".mg."

var extensions = []string{"yaml", "yml"}

// DirSource discovers YAML table definitions in a set of directories.
type DirSource struct {
	dirs []string
}

// Dirs returns a DirSource for dirs. Every dir must exist.
func Dirs(dirs ...string) (*DirSource, error) {
	for _, dir := range dirs {
		if err := sqlmig.CheckDir(dir); err != nil {
			return nil, err
		}
	}
	return &DirSource{dirs: slices.Clone(dirs)}, nil
}

// MigrationName returns the definition name for a file, or false when the
// file does not follow the migration naming convention.
func MigrationName(file string) (string, bool) {
	base := filepath.Base(file)
	for _, ext := range extensions {
		if name, ok := strings.CutSuffix(base, Infix+ext); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

func (d *DirSource) Definitions() ([]Definition, error) {
	seen := make(map[string]string)
	var out []Definition
	for _, dir := range d.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("could not read migration directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name, ok := MigrationName(entry.Name())
			if !ok {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if prev, dup := seen[name]; dup {
				return nil, fmt.Errorf("migration %s defined twice: %s and %s", name, prev, path)
			}
			seen[name] = path
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("could not read migration %s: %w", path, err)
			}
			spec, err := schema.ParseSpec(data)
			if err != nil {
				return nil, fmt.Errorf("migration %s: %w", path, err)
			}
			table, err := spec.Build()
			if err != nil {
				return nil, fmt.Errorf("migration %s: %w", path, err)
			}
			out = append(out, Definition{Name: name, Build: func() *schema.Table { return table }})
		}
	}
	slices.SortFunc(out, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}
