package janus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryFilter struct {
	Page int    `janus:"page"`
	Size int    `janus:"size"`
	Sort string `janus:"sort"`
}

type queryRequest struct {
	Name   string   `janus:"name"`
	Age    *int     `janus:"age"`
	Tags   []string `janus:"tags"`
	Filter *queryFilter
	Token  string `janus:",pathonly"`
	Secret string `janus:"-"`
	Plain  string
}

func TestValuesOrderAndOverwrite(t *testing.T) {
	v := NewValues()
	v.Set("b", "1")
	v.Set("a", "2")
	v.Set("b", "3")
	v.Set("c", "4")

	assert.Equal(t, []string{"b", "a", "c"}, v.Keys())
	assert.Equal(t, "3", v.Get("b"))
	assert.Equal(t, "b=3&a=2&c=4", v.Encode())
	assert.True(t, v.Has("a"))
	assert.False(t, v.Has("z"))
	assert.Equal(t, 3, v.Len())
}

func TestValuesMerge(t *testing.T) {
	left := NewValues()
	left.Set("a", "1")
	left.Set("b", "2")

	right := NewValues()
	right.Set("b", "x")
	right.Set("c", "3")

	merged := left.Merge(right)
	assert.Equal(t, "a=1&b=x&c=3", merged.Encode())

	// Merge does not mutate either side.
	assert.Equal(t, "a=1&b=2", left.Encode())
	assert.Equal(t, "b=x&c=3", right.Encode())

	assert.Equal(t, "a=1&b=2", left.Merge(nil).Encode())
}

func TestValuesEncodeEscaping(t *testing.T) {
	v := NewValues()
	v.Set("q", "a b&c")
	v.Set("x y", "1")
	assert.Equal(t, "q=a+b%26c&x+y=1", v.Encode())

	var nilValues *Values
	assert.Equal(t, "", nilValues.Encode())
	assert.Equal(t, "", NewValues().Encode())
}

func TestFlattenQueryDefaults(t *testing.T) {
	req := queryRequest{
		Name:   "John",
		Tags:   []string{"a", "", "b"},
		Token:  "t",
		Secret: "s",
		Plain:  "p",
	}

	vals, err := FlattenQuery(req, QueryModeDefault)
	require.NoError(t, err)

	// Null and empty leaves are included; path-only and ignored members
	// are not. Collection leaves comma-join, skipping empty elements.
	assert.Equal(t, "name=John&age=&tags=a%2Cb&Plain=p", vals.Encode())
	assert.False(t, vals.Has("Token"))
	assert.False(t, vals.Has("Secret"))
}

func TestFlattenQueryNestedPrefix(t *testing.T) {
	req := queryRequest{
		Name:   "x",
		Filter: &queryFilter{Page: 2, Size: 50, Sort: "asc"},
	}

	vals, err := FlattenQuery(req, QueryModeDefault)
	require.NoError(t, err)

	assert.Equal(t, "2", vals.Get("Filter.page"))
	assert.Equal(t, "50", vals.Get("Filter.size"))
	assert.Equal(t, "asc", vals.Get("Filter.sort"))
}

func TestFlattenQueryTaggedMode(t *testing.T) {
	age := 9
	req := queryRequest{Name: "x", Age: &age, Plain: "p"}

	vals, err := FlattenQuery(req, QueryModeTagged)
	require.NoError(t, err)

	// Only members carrying an explicit query tag participate.
	assert.True(t, vals.Has("name"))
	assert.True(t, vals.Has("age"))
	assert.False(t, vals.Has("Plain"))
}

func TestFlattenQueryNil(t *testing.T) {
	vals, err := FlattenQuery(nil, QueryModeDefault)
	require.NoError(t, err)
	assert.Equal(t, 0, vals.Len())
}

func TestFlattenValuesSkipEmpty(t *testing.T) {
	req := queryRequest{Name: "John"}

	vals, err := flattenValues(req, QueryModeDefault, false, DefaultFormats())
	require.NoError(t, err)

	assert.Equal(t, "name=John", vals.Encode())
	assert.False(t, vals.Has("age"))
}

func TestBuildURL(t *testing.T) {
	q := NewValues()
	q.Set("a", "1")

	tests := []struct {
		base  string
		path  string
		query *Values
		want  string
	}{
		{"https://api.example.com", "/users", nil, "https://api.example.com/users"},
		{"https://api.example.com/", "users/", nil, "https://api.example.com/users"},
		{"https://api.example.com", "", nil, "https://api.example.com"},
		{"https://api.example.com", "/users", q, "https://api.example.com/users?a=1"},
		{"", "/users", nil, "/users"},
		{"", "users", q, "/users?a=1"},
		{"https://api.example.com", "https://other.example.com/x", nil, "https://other.example.com/x"},
		{"https://api.example.com", "http://other.example.com/x", q, "http://other.example.com/x?a=1"},
	}
	for _, tt := range tests {
		got := buildURL(tt.base, tt.path, tt.query)
		assert.Equal(t, tt.want, got, "base %q path %q", tt.base, tt.path)
	}
}
