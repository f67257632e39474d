package janus

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/gustavorviana/JanusRequest/internal/memberpath"
)

// QueryMode selects which members participate in query flattening.
type QueryMode int

const (
	// QueryModeDefault accepts every member except those tagged as
	// query-ignored or path-only.
	QueryModeDefault QueryMode = iota
	// QueryModeTagged accepts only members explicitly tagged as query
	// arguments.
	QueryModeTagged
)

type queryEntry struct {
	key   string
	value string
}

// Values is an ordered string multimap with last-write-wins semantics:
// setting an existing key overwrites its value in place, keeping the
// original insertion position. Unlike url.Values, encoding never sorts.
type Values struct {
	entries []queryEntry
	index   map[string]int
}

// NewValues creates an empty ordered value set.
func NewValues() *Values {
	return &Values{index: make(map[string]int)}
}

// Set stores a key/value pair. An existing key keeps its position and takes
// the new value.
func (v *Values) Set(key, value string) {
	if i, ok := v.index[key]; ok {
		v.entries[i].value = value
		return
	}
	v.index[key] = len(v.entries)
	v.entries = append(v.entries, queryEntry{key: key, value: value})
}

// Get returns the value for key, "" when absent.
func (v *Values) Get(key string) string {
	if i, ok := v.index[key]; ok {
		return v.entries[i].value
	}
	return ""
}

// Has reports whether key is present.
func (v *Values) Has(key string) bool {
	_, ok := v.index[key]
	return ok
}

// Len returns the number of entries.
func (v *Values) Len() int { return len(v.entries) }

// Keys returns the keys in insertion order.
func (v *Values) Keys() []string {
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.key
	}
	return keys
}

// Merge returns a new value set holding the left entries overwritten in
// declared order by the right ones; duplicate keys keep the right value.
func (v *Values) Merge(other *Values) *Values {
	out := NewValues()
	for _, e := range v.entries {
		out.Set(e.key, e.value)
	}
	if other != nil {
		for _, e := range other.entries {
			out.Set(e.key, e.value)
		}
	}
	return out
}

// Encode renders "k=v&k2=v2" percent-encoded, preserving insertion order.
// Deterministic per run, deliberately not canonical across call sequences.
func (v *Values) Encode() string {
	if v == nil || len(v.entries) == 0 {
		return ""
	}
	var b strings.Builder
	for i, e := range v.entries {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(e.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(e.value))
	}
	return b.String()
}

// FlattenQuery flattens an object graph into ordered query entries by
// walking its member index. Keys are the tag-provided (or member) names
// prefixed by the dotted path of ancestor member names. Collection leaves
// are rendered as one comma-joined string, skipping elements that format to
// empty. Values formatting to empty are included at this level.
func FlattenQuery(v any, mode QueryMode) (*Values, error) {
	return flattenValues(v, mode, true, DefaultFormats())
}

func flattenValues(v any, mode QueryMode, allowEmpty bool, f Formats) (*Values, error) {
	out := NewValues()
	if v == nil {
		return out, nil
	}
	idx := memberpath.IndexOf(v)
	flattenInto(out, idx.Members, reflect.ValueOf(v), "", mode, allowEmpty, f)
	return out, nil
}

func flattenInto(out *Values, members []*memberpath.Member, parent reflect.Value, prefix string, mode QueryMode, allowEmpty bool, f Formats) {
	for _, m := range members {
		if m.Kind != memberpath.KindField {
			continue
		}
		if !includeMember(m, mode) {
			continue
		}

		mv, ok := m.Read(parent)
		if !ok {
			continue
		}

		if !m.Leaf() {
			// Descent into a subtree is itself gated by the policy.
			flattenInto(out, m.Children, mv, joinKey(prefix, m.Name), mode, allowEmpty, f)
			continue
		}

		key := joinKey(prefix, m.KeyName())
		value := leafValue(mv, f)
		if value == "" && !allowEmpty {
			continue
		}
		out.Set(key, value)
	}
}

// includeMember applies the inclusion policy to a member, both for leaf
// emission and for descent into subtrees.
func includeMember(m *memberpath.Member, mode QueryMode) bool {
	if m.QueryIgnore || m.PathOnly {
		return false
	}
	if mode == QueryModeTagged {
		return m.QueryArg
	}
	return true
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// leafValue formats a leaf member. Collections become a comma-joined list of
// each element's formatted value, skipping empties.
func leafValue(mv reflect.Value, f Formats) string {
	for mv.Kind() == reflect.Pointer {
		if mv.IsNil() {
			return ""
		}
		mv = mv.Elem()
	}
	if !mv.IsValid() {
		return ""
	}
	if memberpath.Collection(mv.Type()) && mv.Kind() != reflect.Map {
		parts := make([]string, 0, mv.Len())
		for i := 0; i < mv.Len(); i++ {
			s := FormatValue(mv.Index(i).Interface(), f)
			if s == "" {
				continue
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ",")
	}
	return FormatValue(mv.Interface(), f)
}

// buildURL assembles the final URL: the "/"-joined, slash-trimmed
// concatenation of non-empty path parts followed by the encoded query, which
// is omitted entirely when empty. Absolute paths bypass the base address.
func buildURL(base, path string, query *Values) string {
	var full string
	if isAbsoluteURL(path) {
		full = path
	} else {
		parts := make([]string, 0, 2)
		for _, p := range []string{base, path} {
			p = strings.Trim(p, "/")
			if p != "" {
				parts = append(parts, p)
			}
		}
		full = strings.Join(parts, "/")
		if !isAbsoluteURL(full) && base == "" {
			full = "/" + full
		}
	}
	if q := query.Encode(); q != "" {
		full += "?" + q
	}
	return full
}

// isAbsoluteURL reports whether path carries its own scheme and host.
func isAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
