// Package route is the small routing DSL the API modules register with.
//
// Modules attach handlers to nodes of a Tree. Group descends to a mount path
// and each registration returns the node it was called on, so related
// endpoints chain into a hub of siblings under one path. The
// tree is mounted onto Echo once at startup and is immutable afterwards.
// Handlers receive a plain Request and return a Response or an error; the
// dispatch boundary turns errors and panics into JSON error responses so a
// misbehaving handler never takes the listener down.
package route

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

// Handler serves one (method, path).
type Handler func(*Request) (*Response, error)

type Tree struct {
	*Node

	mu       sync.Mutex
	sealed   bool
	fallback Handler
}

// Node is a path in the tree. The root's path is "".
type Node struct {
	tree     *Tree
	path     string
	handlers map[string]Handler
	children []*Node
}

func New() *Tree {
	t := &Tree{}
	t.Node = &Node{tree: t, handlers: make(map[string]Handler)}
	return t
}

func (n *Node) Path() string {
	if n.path == "" {
		return "/"
	}
	return n.path
}

func (n *Node) Get(path string, h Handler) *Node    { return n.handle(http.MethodGet, path, h) }
func (n *Node) Post(path string, h Handler) *Node   { return n.handle(http.MethodPost, path, h) }
func (n *Node) Put(path string, h Handler) *Node    { return n.handle(http.MethodPut, path, h) }
func (n *Node) Delete(path string, h Handler) *Node { return n.handle(http.MethodDelete, path, h) }

// Group returns the node at path, passing it to fn first when fn is set.
func (n *Node) Group(path string, fn func(*Node)) *Node {
	child := n.child(path)
	if fn != nil {
		fn(child)
	}
	return child
}

// handle registers h at path below n and returns n.
func (n *Node) handle(method, path string, h Handler) *Node {
	if h == nil {
		panic(fmt.Sprintf("route: nil handler for %s %s", method, join(n.path, path)))
	}
	child := n.child(path)

	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if _, exists := child.handlers[method]; exists {
		panic(fmt.Sprintf("route: duplicate handler for %s %s", method, child.Path()))
	}
	child.handlers[method] = h
	return n
}

// child returns the node at path below n, creating it if needed. Nodes are
// shared, so two modules registering under the same path build one hub.
func (n *Node) child(path string) *Node {
	n.tree.mu.Lock()
	defer n.tree.mu.Unlock()
	if n.tree.sealed {
		panic(fmt.Sprintf("route: tree is sealed, cannot register %s", join(n.path, path)))
	}

	full := join(n.path, path)
	if full == n.path {
		return n
	}
	for _, c := range n.children {
		if c.path == full {
			return c
		}
	}
	c := &Node{tree: n.tree, path: full, handlers: make(map[string]Handler)}
	n.children = append(n.children, c)
	return c
}

func join(base, path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// Fallback serves every GET that no registered route matches.
func (t *Tree) Fallback(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		panic("route: tree is sealed, cannot set fallback")
	}
	t.fallback = h
}

// Routes lists every registered "METHOD /path" in registration order.
func (t *Tree) Routes() []string {
	var out []string
	t.walk(t.Node, func(n *Node, method string, _ Handler) {
		out = append(out, method+" "+n.Path())
	})
	return out
}

// Mount seals the tree and registers every route with e.
func (t *Tree) Mount(e *echo.Echo) {
	t.mu.Lock()
	if t.sealed {
		t.mu.Unlock()
		panic("route: tree already mounted")
	}
	t.sealed = true
	fallback := t.fallback
	t.mu.Unlock()

	t.walk(t.Node, func(n *Node, method string, h Handler) {
		e.Add(method, n.Path(), dispatch(h))
	})

	if fallback != nil {
		e.GET("/*", dispatch(fallback))
	}
}

func (t *Tree) walk(n *Node, fn func(*Node, string, Handler)) {
	methods := make([]string, 0, len(n.handlers))
	for m := range n.handlers {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	for _, m := range methods {
		fn(n, m, n.handlers[m])
	}
	for _, c := range n.children {
		t.walk(c, fn)
	}
}
