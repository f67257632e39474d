// Package memberpath builds cached per-type indexes of readable members
// (exported struct fields and zero-argument accessor methods) and resolves
// dotted paths such as "User.Profile.Id" or "Checksum()" against them.
//
// Indexes are built once per reflect.Type and published through a
// package-level sync.Map; a losing concurrent builder's result is discarded,
// the first successful publish wins.
package memberpath

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates how a member is read.
type Kind int

const (
	// KindField is a plain struct field.
	KindField Kind = iota
	// KindMethod is a zero-argument, single-result accessor method,
	// addressed in paths as "name()".
	KindMethod
)

// Member describes one readable member of a type, together with the
// serialization rules parsed from its struct tags.
type Member struct {
	Name string
	Kind Kind
	Type reflect.Type

	// Children is populated only for fields whose type is neither
	// primitive-like nor a collection. Read-only after construction.
	Children []*Member

	// Tag-derived rules. QueryName is the custom query key ("" means use
	// Name), QueryArg marks members explicitly tagged for the strict query
	// mode, QueryIgnore excludes a member from the query surface, PathOnly
	// restricts a member to path templates, FormName is the multipart/form
	// field name override.
	QueryName   string
	QueryArg    bool
	QueryIgnore bool
	PathOnly    bool
	FormName    string

	fieldIndex  int
	methodIndex int
}

// TypeIndex is the root member set for one concrete type.
type TypeIndex struct {
	Type    reflect.Type
	Members []*Member
}

var indexCache sync.Map // reflect.Type -> *TypeIndex

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	uuidType     = reflect.TypeOf(uuid.UUID{})
)

// Index returns the cached TypeIndex for v's type, building it on first use.
// Pointer types are normalized to their element type.
func Index(t reflect.Type) *TypeIndex {
	t = indirect(t)
	if v, ok := indexCache.Load(t); ok {
		return v.(*TypeIndex)
	}
	idx := &TypeIndex{Type: t}
	if t.Kind() == reflect.Struct && !Primitive(t) {
		idx.Members = buildMembers(t, map[reflect.Type]bool{t: true})
	}
	actual, _ := indexCache.LoadOrStore(t, idx)
	return actual.(*TypeIndex)
}

// IndexOf is a convenience wrapper resolving the index for a value.
func IndexOf(v any) *TypeIndex {
	return Index(reflect.TypeOf(v))
}

// Primitive reports whether t is treated as a primitive-like leaf: booleans,
// strings, numeric kinds (which covers enums and time.Duration), time.Time,
// uuid.UUID, and pointers to any of those.
func Primitive(t reflect.Type) bool {
	if t == nil {
		return false
	}
	t = indirect(t)
	if t == timeType || t == durationType || t == uuidType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Collection reports whether t is a collection leaf (slice, array or map).
func Collection(t reflect.Type) bool {
	if t == nil {
		return false
	}
	t = indirect(t)
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		// uuid.UUID is an array kind but formats as a scalar.
		return t != uuidType
	}
	return false
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// buildMembers assembles the member list for a struct type. ancestors guards
// against re-entering a type already on the build chain: such fields become
// childless leaves.
func buildMembers(t reflect.Type, ancestors map[reflect.Type]bool) []*Member {
	members := make([]*Member, 0, t.NumField()+4)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		m := &Member{
			Name:       f.Name,
			Kind:       KindField,
			Type:       f.Type,
			fieldIndex: i,
		}
		parseTags(m, f.Tag)
		if m.QueryName == "-" {
			// `janus:"-"` is spelled like encoding/json's exclusion.
			m.QueryName = ""
			m.QueryIgnore = true
		}

		ft := indirect(f.Type)
		if !Primitive(ft) && !Collection(ft) && ft.Kind() == reflect.Struct && !ancestors[ft] {
			ancestors[ft] = true
			m.Children = buildMembers(ft, ancestors)
			delete(ancestors, ft)
		}
		members = append(members, m)
	}

	// Accessor methods become callable leaves named "name()". The pointer
	// method set is used so both value and pointer receivers are reachable.
	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		method := pt.Method(i)
		if !accessorMethod(method) {
			continue
		}
		members = append(members, &Member{
			Name:        method.Name,
			Kind:        KindMethod,
			Type:        method.Type.Out(0),
			methodIndex: i,
		})
	}

	return members
}

// accessorMethod filters the pointer method set down to zero-argument,
// single-result accessors. Error and GoString are universal plumbing and are
// excluded; String is kept as the string-conversion override.
func accessorMethod(m reflect.Method) bool {
	if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return false
	}
	switch m.Name {
	case "Error", "GoString":
		return false
	}
	return true
}

func parseTags(m *Member, tag reflect.StructTag) {
	if v, ok := tag.Lookup("janus"); ok {
		parts := strings.Split(v, ",")
		m.QueryName = parts[0]
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "arg":
				m.QueryArg = true
			case "pathonly":
				m.PathOnly = true
			case "ignore":
				m.QueryIgnore = true
			}
		}
		if m.QueryName != "" && m.QueryName != "-" {
			m.QueryArg = true
		}
	}
	if v, ok := tag.Lookup("form"); ok && v != "" && v != "-" {
		m.FormName = v
	}
}

// KeyName returns the query key for the member: the tag-provided name when
// present, the member name otherwise.
func (m *Member) KeyName() string {
	if m.QueryName != "" {
		return m.QueryName
	}
	return m.Name
}

// FormFieldName returns the multipart/form field name for the member.
func (m *Member) FormFieldName() string {
	if m.FormName != "" {
		return m.FormName
	}
	return m.Name
}

// Leaf reports whether the member has no descendable children.
func (m *Member) Leaf() bool {
	return len(m.Children) == 0
}

// Read extracts the member's value from parent. The boolean is false when the
// value could not be read (nil parent pointer on the way down). Pointer
// results are not dereferenced so callers can distinguish nil.
func (m *Member) Read(parent reflect.Value) (reflect.Value, bool) {
	for parent.Kind() == reflect.Pointer {
		if parent.IsNil() {
			return reflect.Value{}, false
		}
		parent = parent.Elem()
	}
	switch m.Kind {
	case KindField:
		if parent.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		return parent.Field(m.fieldIndex), true
	case KindMethod:
		// Bind against a pointer copy so pointer-receiver methods work on
		// non-addressable values.
		pv := reflect.New(parent.Type())
		pv.Elem().Set(parent)
		return pv.Method(m.methodIndex).Call(nil)[0], true
	}
	return reflect.Value{}, false
}
