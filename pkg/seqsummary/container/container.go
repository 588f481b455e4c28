// Package container abstracts read access to per-read fast5 container files.
//
// A container is a tree of named groups, each holding scalar attributes. The
// extractor only ever needs two operations: listing the children of a group and
// looking up a single attribute. Missing groups or attributes are reported through
// the found flag, never as errors; an error always means the file itself could not
// be read.
package container

import (
	"errors"
	"strings"
)

// ErrClosed is returned by operations on a container that was already closed.
var ErrClosed = errors.New("container is closed")

// Container is an opened fast5 file.
type Container interface {
	// Children returns the names of the direct children of group, in storage order.
	// found is false when the group does not exist.
	Children(group string) (names []string, found bool, err error)

	// Attr looks up attribute name on group. found is false when either the group or
	// the attribute does not exist. Values are normalised with Normalize.
	Attr(group, name string) (value any, found bool, err error)

	// Close releases the underlying file.
	Close() error
}

// Opener opens container files by path.
type Opener interface {
	Open(path string) (Container, error)
}

// OpenerFunc adapts a plain function to the Opener interface.
type OpenerFunc func(path string) (Container, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Container, error) { return f(path) }

// JoinPath joins group path segments with '/' and strips redundant separators.
func JoinPath(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, "/")
}
