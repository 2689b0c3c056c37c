package pathtree

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Root is the path of the top-level node.
const Root = "/"

// Validate checks that p is "/" or a slash-delimited sequence of non-empty
// segments such as "/a/b".
func Validate(p string) error {
	switch {
	case p == Root:
		return nil
	case p == "":
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	case !utf8.ValidString(p):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidPath, p)
	case p[0] != '/':
		return fmt.Errorf("%w: %q does not start with /", ErrInvalidPath, p)
	case strings.HasSuffix(p, "/"):
		return fmt.Errorf("%w: %q has a trailing /", ErrInvalidPath, p)
	case strings.Contains(p, "//"):
		return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, p)
	}
	return nil
}

// Join appends segment to parent.
func Join(parent, segment string) string {
	if parent == Root {
		return Root + segment
	}
	return parent + "/" + segment
}

// Split returns the parent path and the last segment of p.
// Split("/") returns ("", "").
func Split(p string) (parent, segment string) {
	if p == Root {
		return "", ""
	}
	i := strings.LastIndexByte(p, '/')
	if i == 0 {
		return Root, p[1:]
	}
	return p[:i], p[i+1:]
}

// Segments returns the segments of p, nil for the root.
func Segments(p string) []string {
	if p == Root {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// IsWithin reports whether p equals ancestor or lies in its subtree.
func IsWithin(p, ancestor string) bool {
	if ancestor == Root || p == ancestor {
		return true
	}
	return strings.HasPrefix(p, ancestor+"/")
}
