// Package hdf5 implements container.Opener on top of the HDF5 C library through
// gonum.org/v1/hdf5. It requires cgo and libhdf5 at build time.
//
// Distribution builds of libhdf5 are usually compiled without thread safety, so
// every call into the library goes through one package-level lock. Extractor
// workers still overlap on everything else they do.
package hdf5

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tleonardi/pycoQC/pkg/seqsummary/container"
	"gonum.org/v1/hdf5"
)

// libMu serialises all libhdf5 calls made by this package.
var libMu sync.Mutex

// Opener opens fast5 files read-only.
type Opener struct{}

// NewOpener returns an Opener backed by libhdf5.
func NewOpener() *Opener { return &Opener{} }

// Open implements container.Opener.
func (o *Opener) Open(path string) (container.Container, error) {
	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open hdf5 file %s: %w", path, err)
	}
	return &file{path: path, f: f}, nil
}

// file is a container.Container over one open HDF5 file. closed is guarded by
// libMu.
type file struct {
	path   string
	f      *hdf5.File
	closed bool
}

// openGroup walks the path one segment at a time so that a missing intermediate
// group is reported as "not found" rather than an HDF5 error. libMu must be held.
func (c *file) openGroup(group string) (*hdf5.Group, bool, error) {
	if c.closed {
		return nil, false, container.ErrClosed
	}
	group = container.JoinPath(group)
	if group == "" {
		return nil, false, fmt.Errorf("empty group path in %s", c.path)
	}
	prefix := ""
	for _, seg := range strings.Split(group, "/") {
		prefix = container.JoinPath(prefix, seg)
		if !c.f.LinkExists(prefix) {
			return nil, false, nil
		}
	}
	g, err := c.f.OpenGroup(group)
	if err != nil {
		return nil, false, fmt.Errorf("open group %s in %s: %w", group, c.path, err)
	}
	return g, true, nil
}

// Children implements container.Container.
func (c *file) Children(group string) ([]string, bool, error) {
	libMu.Lock()
	defer libMu.Unlock()

	g, found, err := c.openGroup(group)
	if err != nil || !found {
		return nil, found, err
	}
	defer g.Close()

	n, err := g.NumObjects()
	if err != nil {
		return nil, true, fmt.Errorf("count children of %s in %s: %w", group, c.path, err)
	}
	names := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return nil, true, fmt.Errorf("child %d of %s in %s: %w", i, group, c.path, err)
		}
		names = append(names, name)
	}
	return names, true, nil
}

// Attr implements container.Container. A group or attribute that cannot be opened
// is treated as absent; only failures reading an attribute that does exist are
// returned as errors.
func (c *file) Attr(group, name string) (any, bool, error) {
	libMu.Lock()
	defer libMu.Unlock()

	g, found, err := c.openGroup(group)
	if err != nil || !found {
		return nil, false, err
	}
	defer g.Close()

	attr, err := g.OpenAttribute(name)
	if err != nil {
		return nil, false, nil
	}
	defer attr.Close()

	v, err := readScalar(attr)
	if err != nil {
		return nil, false, fmt.Errorf("read attribute %s/%s in %s: %w", group, name, c.path, err)
	}
	return container.Normalize(v), true, nil
}

// readScalar reads a scalar attribute into int64, float64, string or []byte
// according to its stored type class.
func readScalar(attr *hdf5.Attribute) (any, error) {
	dtype := &hdf5.Datatype{Identifier: attr.GetType()}
	defer dtype.Close()

	switch dtype.Class() {
	case hdf5.T_INTEGER:
		var v int64
		if err := attr.Read(&v, hdf5.T_NATIVE_INT64); err != nil {
			return nil, err
		}
		return v, nil
	case hdf5.T_FLOAT:
		var v float64
		if err := attr.Read(&v, hdf5.T_NATIVE_DOUBLE); err != nil {
			return nil, err
		}
		return v, nil
	case hdf5.T_STRING:
		if isVariableStr(dtype) {
			var s string
			if err := attr.Read(&s, dtype); err != nil {
				return nil, err
			}
			return s, nil
		}
		// Fixed-length strings may fill their size with no terminator, so they are
		// read into a buffer of exactly that size.
		size := dtype.Size()
		if size == 0 {
			return []byte{}, nil
		}
		buf := make([]byte, size)
		if err := attr.Read(&buf[0], dtype); err != nil {
			return nil, err
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type class %v", dtype.Class())
	}
}

// isVariableStr reports whether a T_STRING datatype is variable-length. gonum only
// exposes the check on VarLenType.
func isVariableStr(dtype *hdf5.Datatype) bool {
	vl := hdf5.VarLenType{Datatype: *dtype}
	return vl.IsVariableStr()
}

// Close implements container.Container.
func (c *file) Close() error {
	libMu.Lock()
	defer libMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}
