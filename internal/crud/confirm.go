package crud

import (
	"context"
	"errors"
	"sync"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// ErrConfirmNotOpen is returned when Confirm is called with nothing targeted.
var ErrConfirmNotOpen = errors.New("delete confirmation is not open")

// Deleter removes a record by id.
type Deleter interface {
	Delete(ctx context.Context, id domain.ID) error
}

// ConfirmState is the lifecycle state of a delete confirmation.
type ConfirmState int

const (
	ConfirmClosed ConfirmState = iota
	ConfirmOpen
	ConfirmDeleting
)

// DeleteConfirm requires an explicit confirmation before a hard delete.
//
//	Closed → Open(target) → Deleting → Closed
//
// A failed delete leaves it Open with the error and the target untouched.
type DeleteConfirm struct {
	mu     sync.Mutex
	state  ConfirmState
	target domain.Record
	err    error
}

// Open targets r for deletion.
func (c *DeleteConfirm) Open(r domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ConfirmDeleting {
		return
	}
	c.state = ConfirmOpen
	c.target = r
	c.err = nil
}

// Close cancels the confirmation. Nothing is deleted.
func (c *DeleteConfirm) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ConfirmDeleting {
		return
	}
	c.state = ConfirmClosed
	c.target = domain.Record{}
	c.err = nil
}

// Confirm deletes the target through d. Only after d succeeds is the local
// copy removed via hooks.
func (c *DeleteConfirm) Confirm(ctx context.Context, d Deleter, hooks Hooks) error {
	c.mu.Lock()
	if c.state != ConfirmOpen {
		c.mu.Unlock()
		return ErrConfirmNotOpen
	}
	c.state = ConfirmDeleting
	id := c.target.ID
	c.mu.Unlock()

	err := d.Delete(ctx, id)

	c.mu.Lock()
	if err != nil {
		c.state = ConfirmOpen
		c.err = err
		c.mu.Unlock()
		return err
	}
	c.state = ConfirmClosed
	c.target = domain.Record{}
	c.err = nil
	c.mu.Unlock()

	if hooks != nil {
		hooks.OnDeleted(id)
	}
	return nil
}

// Snapshot returns the state, target and last error.
func (c *DeleteConfirm) Snapshot() (ConfirmState, domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.target, c.err
}
