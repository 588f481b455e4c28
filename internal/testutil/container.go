package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tleonardi/pycoQC/pkg/seqsummary/container"
)

// FakeContainer is an in-memory container.Container. Groups are keyed by their full
// path; intermediate groups exist implicitly.
type FakeContainer struct {
	Groups   map[string]map[string]any
	AttrErr  error // returned by every Attr call when set
	PanicMsg string
	closed   bool
}

// NewFakeContainer returns an empty container.
func NewFakeContainer() *FakeContainer {
	return &FakeContainer{Groups: make(map[string]map[string]any)}
}

// SetAttr stores value under group/name, creating the group if needed.
func (c *FakeContainer) SetAttr(group, name string, value any) *FakeContainer {
	group = container.JoinPath(group)
	if c.Groups[group] == nil {
		c.Groups[group] = make(map[string]any)
	}
	c.Groups[group][name] = value
	return c
}

// AddGroup creates an empty group.
func (c *FakeContainer) AddGroup(group string) *FakeContainer {
	group = container.JoinPath(group)
	if c.Groups[group] == nil {
		c.Groups[group] = make(map[string]any)
	}
	return c
}

// Children implements container.Container. Children are returned sorted by name.
func (c *FakeContainer) Children(group string) ([]string, bool, error) {
	if c.closed {
		return nil, false, container.ErrClosed
	}
	group = container.JoinPath(group)
	prefix := group + "/"
	found := false
	seen := make(map[string]struct{})
	for path := range c.Groups {
		if path == group {
			found = true
			continue
		}
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		found = true
		child, _, _ := strings.Cut(strings.TrimPrefix(path, prefix), "/")
		seen[child] = struct{}{}
	}
	if !found {
		return nil, false, nil
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, true, nil
}

// Attr implements container.Container.
func (c *FakeContainer) Attr(group, name string) (any, bool, error) {
	if c.closed {
		return nil, false, container.ErrClosed
	}
	if c.PanicMsg != "" {
		panic(c.PanicMsg)
	}
	if c.AttrErr != nil {
		return nil, false, c.AttrErr
	}
	attrs, ok := c.Groups[container.JoinPath(group)]
	if !ok {
		return nil, false, nil
	}
	v, ok := attrs[name]
	if !ok {
		return nil, false, nil
	}
	return container.Normalize(v), true, nil
}

// Close implements container.Container.
func (c *FakeContainer) Close() error {
	c.closed = true
	return nil
}

// MemoryOpener is a container.Opener serving FakeContainers keyed by file base
// name. Each Open returns a fresh copy so concurrent extractors never share state.
type MemoryOpener struct {
	mu         sync.Mutex
	containers map[string]*FakeContainer
	openErrs   map[string]error
	opened     []string
}

// NewMemoryOpener returns an opener with no registered files.
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{
		containers: make(map[string]*FakeContainer),
		openErrs:   make(map[string]error),
	}
}

// Add registers c under the base name of path.
func (o *MemoryOpener) Add(path string, c *FakeContainer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.containers[filepath.Base(path)] = c
}

// FailOpen makes opening the file named by the base name of path return err.
func (o *MemoryOpener) FailOpen(path string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.openErrs[filepath.Base(path)] = err
}

// Open implements container.Opener.
func (o *MemoryOpener) Open(path string) (container.Container, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := filepath.Base(path)
	o.opened = append(o.opened, path)
	if err, ok := o.openErrs[key]; ok {
		return nil, err
	}
	c, ok := o.containers[key]
	if !ok {
		return nil, fmt.Errorf("unable to open file %s: not a registered container", path)
	}
	cp := &FakeContainer{
		Groups:   make(map[string]map[string]any, len(c.Groups)),
		AttrErr:  c.AttrErr,
		PanicMsg: c.PanicMsg,
	}
	for g, attrs := range c.Groups {
		m := make(map[string]any, len(attrs))
		for k, v := range attrs {
			m[k] = v
		}
		cp.Groups[g] = m
	}
	return cp, nil
}

// Opened returns every path passed to Open, in call order.
func (o *MemoryOpener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}
