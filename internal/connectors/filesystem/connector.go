// Package filesystem provides a corpus source backed by a local directory of
// HTML files, with change notification through fsnotify.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
	"github.com/KKaradi/syfhack10year/internal/logger"
)

// Verify interface compliance.
var _ driven.CorpusSource = (*Connector)(nil)

// DefaultExtensions are the file extensions treated as corpus documents.
var DefaultExtensions = []string{".html", ".htm"}

// Connector reads HTML documents from a local directory tree.
type Connector struct {
	root       string
	extensions map[string]struct{}

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithExtensions replaces the accepted file extensions.
func WithExtensions(exts ...string) Option {
	return func(c *Connector) {
		c.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			c.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// New creates a connector rooted at root. file:// URIs are accepted.
func New(root string, opts ...Option) *Connector {
	c := &Connector{root: ResolvePath(root)}
	WithExtensions(DefaultExtensions...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the corpus directory.
func (c *Connector) Root() string {
	return c.root
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate() error {
	info, err := os.Stat(c.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", c.root)
	}
	return nil
}

// List walks the root and returns every accepted document ordered by its
// path relative to the root. Hidden files and directories are skipped.
func (c *Connector) List(ctx context.Context) ([]domain.RawDocument, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var docs []domain.RawDocument
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != c.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !c.accepts(path) {
			return nil
		}

		doc, err := c.readDocument(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].SourceID < docs[j].SourceID })
	logger.Debug("filesystem: listed %d documents under %s", len(docs), c.root)
	return docs, nil
}

// Watch emits corpus changes until ctx is cancelled. Directories present
// when Watch is called are watched recursively; directories created later
// are added as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.CorpusChange, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := c.addTree(watcher, c.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.CorpusChange, 64)
	go c.run(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) run(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.CorpusChange) {
	defer close(changes)
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !c.hiddenPath(event.Name) {
					if err := c.addTree(watcher, event.Name); err != nil {
						logger.Warn("filesystem: watch %s: %v", event.Name, err)
					}
				}
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("filesystem: watcher error: %v", err)
		}
	}
}

// Close stops the active watcher, if any.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent maps an fsnotify event to a corpus change. Events for
// directories, hidden paths, chmod-only changes and unaccepted extensions
// yield nil.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.CorpusChange {
	if c.hiddenPath(event.Name) || !c.accepts(event.Name) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		changeType = domain.ChangeDeleted
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	default:
		return nil
	}

	if changeType != domain.ChangeDeleted {
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
	}

	return &domain.CorpusChange{Type: changeType, URI: event.Name}
}

func (c *Connector) readDocument(path string) (domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read %s: %w", path, err)
	}
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("relative path %s: %w", path, err)
	}
	return domain.RawDocument{
		SourceID: filepath.ToSlash(rel),
		URI:      path,
		MIMEType: detectMIMEType(path),
		Content:  content,
	}, nil
}

// hiddenPath checks the part of path below the root, so a root inside a
// dot directory still works.
func (c *Connector) hiddenPath(path string) bool {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return true
	}
	return isHidden(rel)
}

func (c *Connector) accepts(path string) bool {
	_, ok := c.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case "":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	case ".xhtml":
		return "application/xhtml+xml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return "application/octet-stream"
}
