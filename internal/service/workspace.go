// Package service holds the console's operations: content management on top
// of the CRUD engine, bookings, the dashboard and the audit trail.
package service

import (
	"sync"
	"time"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
)

// Workspace is one session's set of content screens. It behaves like a
// single-pane UI: mounting a kind unmounts whichever kind was active.
type Workspace struct {
	cat *catalog.Catalog

	mu      sync.Mutex
	screens map[string]*crud.Screen
	active  string

	// guarded by the owning Workspaces' mutex
	lastUsed time.Time
}

// Screen returns the screen for kind k, creating it idle on first use.
func (w *Workspace) Screen(k catalog.Kind) *crud.Screen {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.screens[k.Name]
	if !ok {
		s = crud.NewScreen(w.cat, k)
		w.screens[k.Name] = s
	}
	return s
}

// activate makes k the active kind and unmounts the previous one.
func (w *Workspace) activate(k catalog.Kind) {
	w.mu.Lock()
	prev := w.active
	w.active = k.Name
	old := w.screens[prev]
	w.mu.Unlock()
	if prev != "" && prev != k.Name && old != nil {
		old.Unmount()
	}
}

// Active returns the name of the kind mounted last.
func (w *Workspace) Active() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

func (w *Workspace) unmountAll() {
	w.mu.Lock()
	screens := make([]*crud.Screen, 0, len(w.screens))
	for _, s := range w.screens {
		screens = append(screens, s)
	}
	w.active = ""
	w.mu.Unlock()
	for _, s := range screens {
		s.Unmount()
	}
}

// Workspaces maps session tokens to their workspace.
type Workspaces struct {
	cat *catalog.Catalog

	mu      sync.Mutex
	byToken map[string]*Workspace
	now     func() time.Time
}

// NewWorkspaces returns an empty registry.
func NewWorkspaces(cat *catalog.Catalog) *Workspaces {
	return &Workspaces{cat: cat, byToken: map[string]*Workspace{}, now: time.Now}
}

// For returns token's workspace, creating it on first use. Every call counts
// as use for Sweep.
func (r *Workspaces) For(token string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byToken[token]
	if !ok {
		w = &Workspace{cat: r.cat, screens: map[string]*crud.Screen{}}
		r.byToken[token] = w
	}
	w.lastUsed = r.now()
	return w
}

// Sweep drops every workspace last used before cutoff and returns how many
// went.
func (r *Workspaces) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	var idle []*Workspace
	for token, w := range r.byToken {
		if w.lastUsed.Before(cutoff) {
			idle = append(idle, w)
			delete(r.byToken, token)
		}
	}
	r.mu.Unlock()
	for _, w := range idle {
		w.unmountAll()
	}
	return len(idle)
}

// Drop unmounts and forgets token's workspace. In-flight loads for it are
// discarded when they complete.
func (r *Workspaces) Drop(token string) {
	r.mu.Lock()
	w, ok := r.byToken[token]
	delete(r.byToken, token)
	r.mu.Unlock()
	if ok {
		w.unmountAll()
	}
}

// Len reports how many workspaces are live.
func (r *Workspaces) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byToken)
}
