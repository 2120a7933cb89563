// Package memtree is an in-memory discussion.Adapter used by tests and
// the offline replay harness.
package memtree

import (
	"context"
	"strconv"
	"sync"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/internalerr"
)

// Reply records one posted reply.
type Reply struct {
	ParentID string
	Body     string
}

// Tree holds discussion roots and nodes keyed by id. Child edges are kept
// as id lists, so tests can wire duplicate or dangling edges to simulate
// a faulty platform adapter.
type Tree struct {
	mu        sync.RWMutex
	roots     map[string]discussion.Root
	nodes     map[string]discussion.Node
	children  map[string][]string
	childErr  map[string]error
	forbidden map[string]bool
	deleted   map[string]bool
	replies   []Reply
	pageSize  int
}

// New creates an empty tree with the given child page size.
func New(pageSize int) *Tree {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Tree{
		roots:     make(map[string]discussion.Root),
		nodes:     make(map[string]discussion.Node),
		children:  make(map[string][]string),
		childErr:  make(map[string]error),
		forbidden: make(map[string]bool),
		deleted:   make(map[string]bool),
		pageSize:  pageSize,
	}
}

// AddRoot registers a thread root.
func (t *Tree) AddRoot(r discussion.Root) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots[r.ID] = r
}

// AddNode registers a node and links it under the given parent id.
func (t *Tree) AddNode(parentID string, n discussion.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes[n.ID] = n
	t.children[parentID] = append(t.children[parentID], n.ID)
}

// LinkChild adds a bare child edge without registering a node, so an
// existing id can be re-linked under a second parent.
func (t *Tree) LinkChild(parentID, childID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children[parentID] = append(t.children[parentID], childID)
}

// FailChildren makes child fetches under the given id return err.
func (t *Tree) FailChildren(id string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.childErr[id] = err
}

// ForbidReplies makes replies under the given id fail with ErrForbidden.
func (t *Tree) ForbidReplies(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forbidden[id] = true
}

// Replies returns every reply posted so far.
func (t *Tree) Replies() []Reply {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Reply, len(t.replies))
	copy(out, t.replies)
	return out
}

// Deleted reports whether the node was deleted.
func (t *Tree) Deleted(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deleted[id]
}

// Node returns a registered node by id.
func (t *Tree) Node(id string) (discussion.Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	return n, ok
}

// Root implements discussion.Adapter.
func (t *Tree) Root(ctx context.Context, id string) (discussion.Root, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.roots[id]; ok {
		return r, nil
	}
	return discussion.Root{}, internalerr.ErrNotFound
}

// Children implements discussion.Adapter with offset-cursor paging.
func (t *Tree) Children(ctx context.Context, id, cursor string) ([]discussion.Node, string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := t.childErr[id]; err != nil {
		return nil, "", err
	}

	ids := t.children[id]
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", internalerr.ErrInvalidInput
		}
		offset = n
	}
	if offset >= len(ids) {
		return nil, "", nil
	}

	end := offset + t.pageSize
	if end > len(ids) {
		end = len(ids)
	}

	var page []discussion.Node
	for _, childID := range ids[offset:end] {
		if n, ok := t.nodes[childID]; ok && !t.deleted[childID] {
			page = append(page, n)
		}
	}

	next := ""
	if end < len(ids) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

// Reply implements discussion.Adapter.
func (t *Tree) Reply(ctx context.Context, parentID, body string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.forbidden[parentID] {
		return discussion.ErrForbidden
	}
	t.replies = append(t.replies, Reply{ParentID: parentID, Body: body})
	return nil
}

// Delete implements discussion.Adapter.
func (t *Tree) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.forbidden[id] {
		return discussion.ErrForbidden
	}
	t.deleted[id] = true
	return nil
}
