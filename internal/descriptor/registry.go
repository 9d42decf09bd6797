package descriptor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Registry caches loaded market descriptors by code. Entries are immutable
// Descriptor values swapped atomically under the lock, so any number of
// concurrent fetch passes can hold a descriptor while a reload installs a new
// one; readers never observe a half-updated market.
//
// A failed reload keeps the previous descriptor active: a market with bad
// config stays usable at its last known good state.
type Registry struct {
	root string

	mu      sync.RWMutex
	entries map[string]*registryEntry
	order   []string
}

type registryEntry struct {
	desc *Descriptor
	gen  uint64
}

// NewRegistry loads every named market from root and returns a registry over
// them. Loading stops at the first invalid market so the application surfaces
// bad config at startup rather than mid-run.
func NewRegistry(root string, codes []string) (*Registry, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("no markets configured")
	}

	r := &Registry{
		root:    root,
		entries: make(map[string]*registryEntry, len(codes)),
	}

	for _, code := range codes {
		d, err := Load(root, code)
		if err != nil {
			return nil, err
		}
		r.install(d)
	}

	return r, nil
}

// install stores d as the current descriptor for its code, bumping the
// generation counter. Caller must not hold r.mu.
func (r *Registry) install(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[d.Code]; ok {
		r.entries[d.Code] = &registryEntry{desc: d, gen: e.gen + 1}
		return
	}
	r.entries[d.Code] = &registryEntry{desc: d, gen: 1}
	r.order = append(r.order, d.Code)
}

// Get returns the current descriptor for code.
func (r *Registry) Get(code string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[strings.ToLower(code)]
	if !ok {
		return nil, fmt.Errorf("unknown market %q", code)
	}
	return e.desc, nil
}

// List returns the known market codes in the order they were first loaded.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Generation returns the reload generation for code, or zero when the market
// is unknown. Callers can compare generations to detect staleness.
func (r *Registry) Generation(code string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[strings.ToLower(code)]; ok {
		return e.gen
	}
	return 0
}

// Reload re-reads the market's configuration from disk. On success the new
// descriptor replaces the cached one and is returned; on failure the error is
// returned and the previous descriptor remains active.
func (r *Registry) Reload(code string) (*Descriptor, error) {
	d, err := Load(r.root, code)
	if err != nil {
		return nil, err
	}
	r.install(d)
	return d, nil
}

// Watch observes the markets directory until ctx is cancelled, reloading a
// market whenever its config file is written. Reload failures are logged and
// leave the previous descriptor in place.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}

	dir := filepath.Join(r.root, "markets")
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				code := marketCodeFromPath(event.Name)
				if code == "" {
					continue
				}
				r.mu.RLock()
				_, known := r.entries[code]
				r.mu.RUnlock()
				if !known {
					continue
				}
				if _, err := r.Reload(code); err != nil {
					slog.Warn("config reload failed, keeping previous descriptor",
						"market", code, "error", err)
					continue
				}
				slog.Info("market config reloaded", "market", code, "generation", r.Generation(code))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watch error", "error", err)
			}
		}
	}()

	return nil
}

func marketCodeFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(base, ".json"))
}
