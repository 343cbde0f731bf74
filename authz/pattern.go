package authz

import (
	"fmt"
	"strings"
)

type segment struct {
	literal string
	param   bool
}

// pattern is a segment-wise path template. Segments starting with ':' match
// any single non-empty segment; everything else must match exactly.
type pattern struct {
	raw  string
	segs []segment
}

func parsePattern(raw string) (pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return pattern{}, fmt.Errorf("path pattern %q must start with '/'", raw)
	}
	parts := splitPath(raw)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		switch {
		case p == "":
			return pattern{}, fmt.Errorf("path pattern %q has an empty segment", raw)
		case strings.HasPrefix(p, "*"):
			return pattern{}, fmt.Errorf("path pattern %q: wildcard segments are not supported", raw)
		case p[0] == ':':
			if len(p) == 1 {
				return pattern{}, fmt.Errorf("path pattern %q has an unnamed parameter", raw)
			}
			segs[i] = segment{param: true}
		default:
			segs[i] = segment{literal: p}
		}
	}
	return pattern{raw: raw, segs: segs}, nil
}

// splitPath splits a path into segments. "/" yields no segments and a single
// trailing slash is ignored.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (p pattern) match(parts []string) bool {
	if len(parts) != len(p.segs) {
		return false
	}
	for i, s := range p.segs {
		if s.param {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if parts[i] != s.literal {
			return false
		}
	}
	return true
}

// moreSpecific reports whether p should win over q when both match a path:
// scanning left to right, the first literal where the other has a parameter wins.
func (p pattern) moreSpecific(q pattern) bool {
	for i := range p.segs {
		if i >= len(q.segs) {
			return false
		}
		if p.segs[i].param != q.segs[i].param {
			return !p.segs[i].param
		}
	}
	return false
}

// shape is a key that is equal for two patterns matching exactly the same paths.
func (p pattern) shape() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		if s.param {
			b.WriteByte(':')
		} else {
			b.WriteString(s.literal)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}
