// Package boards holds the board descriptors known to the tool: the
// compiled-in boards plus any .board files loaded at run time.
package boards

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/OpenTraceLab/pinmap/pkg/bdl"
	"github.com/OpenTraceLab/pinmap/pkg/board"
	"github.com/OpenTraceLab/pinmap/pkg/feature"
)

//go:embed data/*.board
var builtinFS embed.FS

// Repository is an in-memory set of board descriptors keyed by name.
type Repository struct {
	mu     sync.RWMutex
	boards map[string]*board.Descriptor
	source map[string]string
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		boards: make(map[string]*board.Descriptor),
		source: make(map[string]string),
	}
}

var (
	builtinOnce sync.Once
	builtinRepo *Repository
	builtinErr  error
)

// Builtin returns a fresh repository preloaded with the compiled-in boards.
// Callers may add to it without affecting other callers.
func Builtin() (*Repository, error) {
	builtinOnce.Do(func() {
		builtinRepo = NewRepository()
		builtinErr = builtinRepo.loadFS(builtinFS, "data")
	})
	if builtinErr != nil {
		return nil, builtinErr
	}
	return builtinRepo.Clone(), nil
}

// Clone returns an independent copy of the repository.
func (r *Repository) Clone() *Repository {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRepository()
	for name, d := range r.boards {
		out.boards[name] = d
		out.source[name] = r.source[name]
	}
	return out
}

// Add registers a descriptor. Names must be unique.
func (r *Repository) Add(d *board.Descriptor, source string) error {
	if d == nil {
		return fmt.Errorf("boards: nil descriptor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.boards[d.Name()]; dup {
		return fmt.Errorf("boards: board %s from %s already loaded from %s", d.Name(), source, r.source[d.Name()])
	}
	r.boards[d.Name()] = d
	r.source[d.Name()] = source
	return nil
}

// Lookup returns the descriptor for a board name.
func (r *Repository) Lookup(name string) (*board.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.boards[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("boards: unknown board %q", name)
}

// Source returns where a board was loaded from.
func (r *Repository) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.source[name]
}

// Names returns the board names sorted.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog extends base with one selector feature per loaded board.
func (r *Repository) Catalog(base *feature.Catalog) (*feature.Catalog, error) {
	if base == nil {
		base = feature.Standard()
	}
	var decls []feature.Declaration
	for _, name := range r.Names() {
		d, _ := r.Lookup(name)
		decls = append(decls, feature.Declaration{
			Name:  feature.SelectorName(name),
			Kind:  feature.Selector,
			Board: name,
			Doc:   d.Doc(),
		})
	}
	return base.With(decls...)
}

// LoadFiles parses the provided board description files and adds every
// board they declare.
func (r *Repository) LoadFiles(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	parser, err := bdl.NewParser()
	if err != nil {
		return err
	}
	for _, p := range paths {
		file, err := parser.ParseFile(p)
		if err != nil {
			return fmt.Errorf("boards: parse %s: %w", p, err)
		}
		if err := r.addFile(file, p); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir recursively loads all .board/.bdl files from the provided
// directory.
func (r *Repository) LoadDir(root string) error {
	parser, err := bdl.NewParser()
	if err != nil {
		return err
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isBoardFile(p) {
			return nil
		}
		file, err := parser.ParseFile(p)
		if err != nil {
			return fmt.Errorf("boards: parse %s: %w", p, err)
		}
		return r.addFile(file, p)
	})
}

func (r *Repository) loadFS(fsys fs.FS, dir string) error {
	parser, err := bdl.NewParser()
	if err != nil {
		return err
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("boards: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isBoardFile(e.Name()) {
			continue
		}
		p := path.Join(dir, e.Name())
		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("boards: %w", err)
		}
		file, err := parser.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("boards: parse builtin %s: %w", e.Name(), err)
		}
		if err := r.addFile(file, "builtin:"+e.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) addFile(file *bdl.File, source string) error {
	ds, err := file.Descriptors()
	if err != nil {
		return fmt.Errorf("boards: %s: %w", source, err)
	}
	for _, d := range ds {
		if err := r.Add(d, source); err != nil {
			return err
		}
	}
	return nil
}

func isBoardFile(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".board" || ext == ".bdl"
}
