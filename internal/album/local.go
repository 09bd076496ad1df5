package album

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"album-slideshow/internal/logging"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".bmp":  true,
	".gif":  true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
	".3gp":  true,
	".mts":  true,
	".m2ts": true,
}

// Directories whose names start with these prefixes are skipped
// (hidden dirs, NAS metadata like @eaDir, synced trash like #recycle).
var skipDirPrefixes = []string{".", "@", "#"}

// LocalProvider enumerates photos from a folder tree on disk.
type LocalProvider struct {
	root      string
	recursive bool
}

// NewLocalProvider creates a provider rooted at dir.
func NewLocalProvider(dir string, recursive bool) *LocalProvider {
	return &LocalProvider{root: dir, recursive: recursive}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local_folder" }

// Refresh walks the folder tree and returns the photos found, newest first.
func (p *LocalProvider) Refresh(ctx context.Context) (*View, error) {
	info, err := os.Stat(p.root)
	if err != nil {
		return nil, fmt.Errorf("local path not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local path is not a directory: %s", p.root)
	}

	type found struct {
		path    string
		name    string
		modTime time.Time
	}
	var files []found
	seen := make(map[string]bool)

	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Scan error at %s: %v", path, err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path == p.root {
				return nil
			}
			if !p.recursive {
				return fs.SkipDir
			}
			if hasSkipPrefix(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if videoExtensions[ext] || !imageExtensions[ext] {
			return nil
		}

		// Deduplicate by resolved path so symlinked copies appear once
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			resolved = path
		}
		if seen[resolved] {
			return nil
		}
		seen[resolved] = true

		fi, err := d.Info()
		if err != nil {
			logging.Warn("Failed to stat %s: %v", path, err)
			return nil
		}
		files = append(files, found{path: path, name: name, modTime: fi.ModTime()})
		return nil
	}

	if err := filepath.WalkDir(p.root, walk); err != nil {
		return nil, fmt.Errorf("error scanning local folder: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	items := make([]MediaItem, 0, len(files))
	for _, f := range files {
		items = append(items, MediaItem{
			Reference: "file://" + filepath.ToSlash(f.path),
			Filename:  f.name,
		})
	}

	logging.Debug("Local folder scan of %s found %d photos", p.root, len(items))

	return &View{
		Title: filepath.Base(p.root),
		Items: items,
	}, nil
}

func hasSkipPrefix(name string) bool {
	for _, prefix := range skipDirPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Watch reports folder changes through onChange until ctx is cancelled.
// Events are debounced so a burst of writes (e.g. a sync job) triggers a
// single rescan.
func (p *LocalProvider) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(p.root); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logging.Warn("Failed to close watcher: %v", closeErr)
		}
		return fmt.Errorf("failed to watch %s: %w", p.root, err)
	}

	if p.recursive {
		err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || path == p.root {
				return nil
			}
			if hasSkipPrefix(d.Name()) {
				return fs.SkipDir
			}
			if err := watcher.Add(path); err != nil {
				logging.Debug("Failed to watch subdirectory %s: %v", path, err)
			}
			return nil
		})
		if err != nil {
			logging.Warn("Error setting up recursive watches: %v", err)
		}
	}

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				logging.Warn("Failed to close watcher: %v", err)
			}
		}()

		const debounce = 2 * time.Second
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
					continue
				}
				// New directories join the watch set immediately
				if p.recursive && event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !hasSkipPrefix(filepath.Base(event.Name)) {
						if err := watcher.Add(event.Name); err != nil {
							logging.Debug("Failed to watch new directory %s: %v", event.Name, err)
						}
					}
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					timerC = timer.C
				} else {
					timer.Reset(debounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Watcher error: %v", err)
			case <-timerC:
				timer = nil
				timerC = nil
				logging.Debug("Local folder changed, requesting rescan")
				onChange()
			}
		}
	}()

	return nil
}
