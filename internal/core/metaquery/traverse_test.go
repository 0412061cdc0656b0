package metaquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, s string) Value {
	t.Helper()
	doc, err := ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestResolve_NestedObject(t *testing.T) {
	doc := mustDoc(t, `{"curl_metadata":{"Server":"shakti-prod"}}`)

	vals := Resolve(doc, KeyPath{"curl_metadata", "Server"})
	require.Len(t, vals, 1)
	s, _ := vals[0].AsString()
	assert.Equal(t, "shakti-prod", s)
}

func TestResolve_EmptyPathReturnsDocument(t *testing.T) {
	doc := mustDoc(t, `{"a":1}`)

	vals := Resolve(doc, nil)
	require.Len(t, vals, 1)
	assert.True(t, Equal(doc, vals[0]))
}

func TestResolve_MissingKey(t *testing.T) {
	doc := mustDoc(t, `{"a":{"b":1}}`)

	assert.Empty(t, Resolve(doc, KeyPath{"a", "c"}))
	assert.Empty(t, Resolve(doc, KeyPath{"x"}))
	assert.Empty(t, Resolve(doc, KeyPath{"a", "b", "c"}))
}

func TestResolve_CaseSensitive(t *testing.T) {
	doc := mustDoc(t, `{"Server":"x"}`)
	assert.Empty(t, Resolve(doc, KeyPath{"server"}))
}

func TestResolve_FansOutOverArrayOfObjects(t *testing.T) {
	doc := mustDoc(t, `{"findings":[{"severity":"high"},"skip",{"other":1},{"severity":"low"}]}`)

	vals := Resolve(doc, KeyPath{"findings", "severity"})
	require.Len(t, vals, 2)
	assert.True(t, Equal(String("high"), vals[0]))
	assert.True(t, Equal(String("low"), vals[1]))
}

func TestResolve_ArrayValueIsReturnedWhole(t *testing.T) {
	doc := mustDoc(t, `{"array_test":["1","2"]}`)

	vals := Resolve(doc, KeyPath{"array_test"})
	require.Len(t, vals, 1)
	assert.True(t, Equal(Strings("1", "2"), vals[0]))
}

func TestWalk_RecordsRoute(t *testing.T) {
	doc := mustDoc(t, `{"a":[{"b":1},{"b":2}]}`)

	matches := Walk(doc, KeyPath{"a", "b"})
	require.Len(t, matches, 2)
	assert.Equal(t, []string{"a", "0", "b"}, matches[0].Route)
	assert.Equal(t, []string{"a", "1", "b"}, matches[1].Route)
}

func TestTraverse_KeyedByLastSegment(t *testing.T) {
	doc := mustDoc(t, `{"array_test":["1","2"]}`)

	got := Traverse(doc, KeyPath{"array_test"})
	require.Contains(t, got, "array_test")
	assert.Equal(t, []any{"1", "2"}, got["array_test"].Interface())
}

func TestTraverse_MultipleMatchesCollected(t *testing.T) {
	doc := mustDoc(t, `{"hosts":[{"ip":"10.0.0.1"},{"ip":"10.0.0.2"}]}`)

	got := Traverse(doc, KeyPath{"hosts", "ip"})
	assert.True(t, Equal(Strings("10.0.0.1", "10.0.0.2"), got["ip"]))
}

func TestTraverse_NoMatch(t *testing.T) {
	doc := mustDoc(t, `{"a":1}`)
	assert.Empty(t, Traverse(doc, KeyPath{"b"}))
	assert.Empty(t, Traverse(doc, nil))
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("curl_metadata:Server")
	require.NoError(t, err)
	assert.Equal(t, KeyPath{"curl_metadata", "Server"}, p)
	assert.Equal(t, "curl_metadata:Server", p.String())

	p, err = ParsePath(" a : b ")
	require.NoError(t, err)
	assert.Equal(t, KeyPath{"a", "b"}, p)

	p, err = ParsePath("my key:x")
	require.NoError(t, err)
	assert.Equal(t, KeyPath{"my key", "x"}, p)

	for _, bad := range []string{"", "  ", ":", "a:", ":a", "a::b", "a: :b"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrSyntax, "path %q", bad)
	}
}
