package ogam

import (
	"context"
	"database/sql"
	"reflect"
	"sync"

	"github.com/forbearing/ogam/ogamerrs"
)

// Cursor is a forward-only, lazy row iterator (spec §5 "selectCursor"):
// rows are fetched and hydrated one at a time as Next is called, and the
// underlying statement/rows stay open until Close or exhaustion.
// Restarting iteration after the first element has been consumed is a
// usage error.
type Cursor struct {
	mu       sync.Mutex
	rows     *sql.Rows
	stmt     *sql.Stmt
	release  func()
	hydrator *Hydrator
	rm       *ResultMap
	target   reflect.Type
	mode     HydrationMode
	cols     []string

	started   bool
	consumed  int
	closed    bool
	exhausted bool
	cur       any
}

func newCursor(stmt *sql.Stmt, release func(), rows *sql.Rows, cols []string, h *Hydrator, mode HydrationMode, rm *ResultMap, target reflect.Type) *Cursor {
	return &Cursor{stmt: stmt, release: release, rows: rows, cols: cols, hydrator: h, mode: mode, rm: rm, target: target}
}

// Next advances the cursor and reports whether a new element is
// available. Once the rows are exhausted the cursor closes itself and
// every further Next returns (false, nil); Next after an explicit Close
// returns an Executor-kind error.
func (c *Cursor) Next(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exhausted {
		return false, nil
	}
	if c.closed {
		return false, ogamerrs.New(ogamerrs.Executor, "cursor: Next called after Close")
	}
	c.started = true
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return false, err
		}
		c.exhausted = true
		_ = c.closeLocked()
		return false, nil
	}
	vals := make([]any, len(c.cols))
	ptrs := make([]any, len(c.cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return false, err
	}
	row := make(map[string]any, len(c.cols))
	for i, col := range c.cols {
		row[col] = vals[i]
	}
	items, err := hydrateOne(c.hydrator, []map[string]any{row}, c.mode, c.rm, c.target)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		c.cur = nil
	} else {
		c.cur = items[0]
	}
	c.consumed++
	return true, nil
}

// Current returns the element produced by the most recent successful
// Next call.
func (c *Cursor) Current() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Close releases the underlying rows and statement. Safe to call more
// than once.
func (c *Cursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Cursor) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.rows.Close()
	if c.release != nil {
		c.release()
	}
	return err
}

func hydrateOne(h *Hydrator, rows []map[string]any, mode HydrationMode, rm *ResultMap, target reflect.Type) ([]any, error) {
	switch mode {
	case HydrateScalarMode:
		return h.HydrateScalar(rows)
	case HydrateArrayMode:
		return h.HydrateArray(rows)
	default:
		if target == nil {
			return nil, ogamerrs.New(ogamerrs.Binding, "object hydration requires a target type")
		}
		if rm == nil {
			rm = &ResultMap{ID: "$auto$", TargetType: target.String(), AutoMapping: true}
		}
		return h.HydrateObjects(rows, rm, target)
	}
}
