// Package filesystem reads documents from a local directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// maxFileSize caps what a sync will read into memory.
const maxFileSize = 10 * 1024 * 1024

// mimeByExtension maps supported text extensions to their MIME types.
// Anything absent is skipped during sync; binary formats are out of
// scope for this connector.
var mimeByExtension = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".csv":      "text/csv",
	".json":     "application/json",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/plain",
	".html":     "text/html",
	".htm":      "text/html",
	".xml":      "text/xml",
}

// Connector reads documents from a directory tree.
type Connector struct {
	rootPath string
	watcher  *fsnotify.Watcher
}

// New creates a filesystem connector rooted at the given path.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Capabilities returns what this connector supports.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsWatch:  true,
		SupportsBinary: false,
	}
}

// Validate checks the root path exists and is a readable directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("accessing %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.rootPath)
	}
	return nil
}

// FullSync walks the tree and emits every supported text file. Hidden
// files and directories are skipped. Both channels close when the walk
// finishes or ctx is cancelled.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isHidden(path) && path != c.rootPath {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			doc, ok := c.readFile(path)
			if !ok {
				return nil
			}

			select {
			case docs <- doc:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch emits a change event per file create, write, or remove under
// the tree. New directories are added to the watch as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	c.watcher = watcher

	// Watch the root and every existing subdirectory.
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(path) && path != c.rootPath {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.rootPath, err)
	}

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if change, ok := c.handleFsEvent(event); ok {
					select {
					case changes <- change:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem watch error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close releases the watcher, if one was started.
func (c *Connector) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// handleFsEvent converts an fsnotify event into a change, or reports
// that it should be ignored.
func (c *Connector) handleFsEvent(event fsnotify.Event) (domain.RawDocumentChange, bool) {
	if isHidden(event.Name) {
		return domain.RawDocumentChange{}, false
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		// The file is gone; there is nothing to read, so emit by URI.
		if detectMIMEType(event.Name) == "" {
			return domain.RawDocumentChange{}, false
		}
		return domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: event.Name},
		}, true

	case event.Op.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Start watching new directories; a directory itself is not
			// a document.
			if c.watcher != nil {
				if err := c.watcher.Add(event.Name); err != nil {
					logger.Warn("watching new directory %s: %v", event.Name, err)
				}
			}
			return domain.RawDocumentChange{}, false
		}
		doc, ok := c.readFile(event.Name)
		if !ok {
			return domain.RawDocumentChange{}, false
		}
		return domain.RawDocumentChange{Type: domain.ChangeCreated, Document: doc}, true

	case event.Op.Has(fsnotify.Write):
		doc, ok := c.readFile(event.Name)
		if !ok {
			return domain.RawDocumentChange{}, false
		}
		return domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc}, true
	}

	return domain.RawDocumentChange{}, false
}

// readFile loads a supported file into a RawDocument. Unsupported
// extensions, oversized files, and read failures are skipped with a
// log line rather than failing the sync.
func (c *Connector) readFile(path string) (domain.RawDocument, bool) {
	mimeType := detectMIMEType(path)
	if mimeType == "" {
		return domain.RawDocument{}, false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.RawDocument{}, false
	}
	if info.Size() > maxFileSize {
		logger.Debug("skipping %s: %d bytes exceeds limit", path, info.Size())
		return domain.RawDocument{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("reading %s: %v", path, err)
		return domain.RawDocument{}, false
	}

	return domain.RawDocument{
		URI:      path,
		MIMEType: mimeType,
		Content:  content,
		Metadata: map[string]any{
			"size":     info.Size(),
			"modified": info.ModTime(),
		},
	}, true
}

// detectMIMEType returns the MIME type for a supported extension, or
// empty for anything this connector does not handle.
func detectMIMEType(path string) string {
	return mimeByExtension[strings.ToLower(filepath.Ext(path))]
}

// isHidden reports whether any element of the path starts with a dot.
// "." and ".." are not considered hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
