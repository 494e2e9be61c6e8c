// Package render provides a TemplateRenderer backed by html/template files
// in a views directory.
package render

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTemplateNotFound indicates the template ref does not exist in the
	// views directory.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidTemplateRef indicates a ref that is empty or escapes the
	// views directory.
	ErrInvalidTemplateRef = errors.New("invalid template ref")
)

// Views loads and caches templates from a file system. A Views value is
// safe for concurrent use.
type Views struct {
	fsys   fs.FS
	mu     sync.RWMutex
	cache  map[string]*template.Template
	logger zerolog.Logger
}

// NewViews creates Views rooted at dir.
func NewViews(dir string) *Views {
	return NewViewsFS(os.DirFS(dir))
}

// NewViewsFS creates Views reading templates from fsys.
func NewViewsFS(fsys fs.FS) *Views {
	return &Views{
		fsys:   fsys,
		cache:  make(map[string]*template.Template),
		logger: log.With().Str("component", "views").Logger(),
	}
}

// Lookup returns the parsed template for ref, parsing it on first use.
func (v *Views) Lookup(ref string) (*template.Template, error) {
	if ref == "" || !fs.ValidPath(ref) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplateRef, ref)
	}

	v.mu.RLock()
	tmpl, ok := v.cache[ref]
	v.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	data, err := fs.ReadFile(v.fsys, ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, ref)
		}
		return nil, fmt.Errorf("read template %s: %w", ref, err)
	}

	tmpl, err = template.New(ref).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", ref, err)
	}

	v.mu.Lock()
	v.cache[ref] = tmpl
	v.mu.Unlock()

	v.logger.Debug().Str("template", ref).Msg("Template parsed")
	return tmpl, nil
}

// Writer returns a renderer that writes into w.
func (v *Views) Writer(w io.Writer) *Renderer {
	return &Renderer{views: v, w: w}
}

// Renderer writes items into one output. It implements
// scheduler.TemplateRenderer and is meant for a single render.
type Renderer struct {
	views *Views
	w     io.Writer
}

// Render executes the template ref with item as data.
func (r *Renderer) Render(ctx context.Context, templateRef string, item scheduler.Item) error {
	tmpl, err := r.views.Lookup(templateRef)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(r.w, item); err != nil {
		return fmt.Errorf("execute template %s: %w", templateRef, err)
	}
	return nil
}
