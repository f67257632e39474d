package memberpath

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMultipleCalls is returned when a path contains more than one
// method-call segment.
var ErrMultipleCalls = errors.New("memberpath: multiple method calls not allowed")

// PathError reports a path segment that does not resolve against the type
// index. Position is the 0-based segment position.
type PathError struct {
	Path     string
	Segment  string
	Position int
	Method   bool
}

func (e *PathError) Error() string {
	what := "member"
	if e.Method {
		what = "method"
	}
	return fmt.Sprintf("memberpath: %s %q not found at position %d in path %q", what, e.Segment, e.Position, e.Path)
}

// Resolve reads the value addressed by a dotted path from v. Segments are
// matched case-insensitively against the member index; a "name()" segment
// invokes an accessor method, at most one per path. Resolution short-circuits
// to nil the moment an intermediate value is nil: remaining segments are not
// evaluated and need not exist.
func Resolve(v any, path string) (any, error) {
	if v == nil {
		return nil, nil
	}
	return Index(reflect.TypeOf(v)).Resolve(v, path)
}

// Resolve reads a dotted path against this index. See the package-level
// Resolve for the path grammar.
func (ti *TypeIndex) Resolve(v any, path string) (any, error) {
	segments := strings.Split(path, ".")

	calls := 0
	for _, seg := range segments {
		if strings.HasSuffix(seg, "()") {
			calls++
		}
	}
	if calls > 1 {
		return nil, ErrMultipleCalls
	}

	cur := reflect.ValueOf(v)
	members := ti.Members

	for i, seg := range segments {
		if isNil(cur) {
			return nil, nil
		}

		isCall := strings.HasSuffix(seg, "()")
		name := seg
		if isCall {
			name = seg[:len(seg)-2]
		}

		m := match(members, name, isCall)
		if m == nil {
			return nil, &PathError{Path: path, Segment: seg, Position: i, Method: isCall}
		}

		next, ok := m.Read(cur)
		if !ok {
			return nil, nil
		}
		cur = next
		members = m.Children
	}

	if isNil(cur) {
		return nil, nil
	}
	return cur.Interface(), nil
}

func match(members []*Member, name string, method bool) *Member {
	for _, m := range members {
		wantMethod := m.Kind == KindMethod
		if wantMethod == method && strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
