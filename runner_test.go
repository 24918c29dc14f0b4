package datatables

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nealshail/datatables-query/descriptor"
	"github.com/nealshail/datatables-query/driver"
	"github.com/nealshail/datatables-query/query"
	"github.com/nealshail/datatables-query/store"
)

func decodeRequest(t *testing.T, raw string) *descriptor.Request {
	t.Helper()
	var req descriptor.Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	return &req
}

func namesOf(docs []store.Document) []string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d["name"].(string)
	}
	return names
}

func TestRun_EndToEnd(t *testing.T) {
	src := driver.NewMemory([]store.Document{
		{"name": "John"},
		{"name": "Jane"},
		{"name": "Bob"},
	})
	req := decodeRequest(t, `{
		"draw": 1, "start": 0, "length": 10,
		"columns": [{"data": "name", "searchable": "true", "orderable": "true"}],
		"order": [{"column": "0", "dir": "asc"}],
		"search": {"value": "j", "smart": false}
	}`)

	resp, err := New(src).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Draw)
	assert.Equal(t, int64(3), resp.RecordsTotal)
	assert.Equal(t, int64(2), resp.RecordsFiltered)
	assert.Equal(t, []string{"Jane", "John"}, namesOf(resp.Data))
}

func TestRun_SmartSearch(t *testing.T) {
	src := driver.NewMemory([]store.Document{
		{"name": "john doe welcomes JANE"},
		{"name": "John Doe"},
		{"name": "Jane and John"},
	})
	req := decodeRequest(t, `{
		"draw": 2, "start": 0, "length": 10,
		"columns": [{"data": "name", "searchable": true, "orderable": false}],
		"search": {"value": "\"John Doe\" Jane", "smart": true}
	}`)

	resp, err := New(src).Run(context.Background(), req)
	require.NoError(t, err)

	// both the exact phrase and the lone token, case-insensitive
	assert.Equal(t, int64(3), resp.RecordsTotal)
	assert.Equal(t, int64(1), resp.RecordsFiltered)
	assert.Equal(t, []string{"john doe welcomes JANE"}, namesOf(resp.Data))
}

func TestRun_BaseFilterCounts(t *testing.T) {
	src := driver.NewMemory([]store.Document{
		{"name": "John", "status": "active"},
		{"name": "Johanna", "status": "inactive"},
		{"name": "Bob", "status": "active"},
	})
	req := decodeRequest(t, `{
		"draw": 1, "start": 0, "length": 10,
		"columns": [{"data": "name", "searchable": true, "orderable": true}],
		"search": {"value": "jo", "smart": false},
		"find": {"status": "active"}
	}`)

	resp, err := New(src).Run(context.Background(), req)
	require.NoError(t, err)

	// total counts the base filter alone, filtered adds the search term
	assert.Equal(t, int64(2), resp.RecordsTotal)
	assert.Equal(t, int64(1), resp.RecordsFiltered)
	assert.Equal(t, []string{"John"}, namesOf(resp.Data))
}

func TestRun_MalformedPagination(t *testing.T) {
	src := driver.NewMemory(nil)
	req := decodeRequest(t, `{
		"draw": 1, "start": "abc",
		"columns": [],
		"search": {"value": ""}
	}`)

	_, err := New(src).Run(context.Background(), req)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindInvalidParams, derr.Kind)
	assert.Contains(t, derr.Message, "start")
	assert.Contains(t, derr.Message, "length")
	assert.NotContains(t, derr.Message, "draw")
}

func TestRun_MalformedQuery(t *testing.T) {
	src := driver.NewMemory(nil)

	// search object missing entirely
	req := decodeRequest(t, `{"draw": 1, "start": 0, "length": 10, "columns": []}`)
	_, err := New(src).Run(context.Background(), req)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindInvalidQuery, derr.Kind)

	// absent sort is not an error: order references a missing column
	req = decodeRequest(t, `{
		"draw": 1, "start": 0, "length": 10,
		"columns": [{"data": "name", "searchable": true, "orderable": true}],
		"order": [{"column": "9", "dir": "asc"}],
		"search": {"value": ""}
	}`)
	_, err = New(src).Run(context.Background(), req)
	assert.NoError(t, err)
}

type failingSource struct {
	failCount int // fail the n-th Count call (1-based), 0 = never
	failFind  bool
	calls     int
}

var errBroken = errors.New("connection reset")

func (f *failingSource) Count(context.Context, query.Filter) (int64, error) {
	f.calls++
	if f.calls == f.failCount {
		return 0, errBroken
	}
	return 0, nil
}

func (f *failingSource) Find(context.Context, query.Filter, store.FindOptions) ([]store.Document, error) {
	if f.failFind {
		return nil, errBroken
	}
	return nil, nil
}

func TestRun_StoreErrorsWrapped(t *testing.T) {
	req := decodeRequest(t, `{
		"draw": 1, "start": 0, "length": 10,
		"columns": [{"data": "name", "searchable": true, "orderable": true}],
		"search": {"value": ""}
	}`)

	tests := []struct {
		name string
		src  *failingSource
	}{
		{name: "total count fails", src: &failingSource{failCount: 1}},
		{name: "filtered count fails", src: &failingSource{failCount: 2}},
		{name: "fetch fails", src: &failingSource{failFind: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.src).Run(context.Background(), req)
			var derr *Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, KindStore, derr.Kind)
			assert.ErrorIs(t, err, errBroken)
		})
	}
}

func TestRun_ConcurrentCounts(t *testing.T) {
	src := driver.NewMemory([]store.Document{
		{"name": "John"}, {"name": "Jane"}, {"name": "Bob"},
	})
	req := decodeRequest(t, `{
		"draw": 7, "start": 0, "length": 10,
		"columns": [{"data": "name", "searchable": true, "orderable": true}],
		"order": [{"column": 0, "dir": "asc"}],
		"search": {"value": "j", "smart": false}
	}`)

	resp, err := New(src, WithConcurrentCounts()).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.Draw)
	assert.Equal(t, int64(3), resp.RecordsTotal)
	assert.Equal(t, int64(2), resp.RecordsFiltered)
	assert.Equal(t, []string{"Jane", "John"}, namesOf(resp.Data))
}

func TestRun_MaxLengthClamp(t *testing.T) {
	src := driver.NewMemory([]store.Document{
		{"name": "a"}, {"name": "b"}, {"name": "c"}, {"name": "d"},
	})
	req := decodeRequest(t, `{
		"draw": 1, "start": 0, "length": -1,
		"columns": [{"data": "name", "searchable": false, "orderable": true}],
		"order": [{"column": 0, "dir": "asc"}],
		"search": {"value": ""}
	}`)

	resp, err := New(src, WithMaxLength(2)).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)

	// without the cap, a negative length fetches to the end
	resp, err = New(src).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, resp.Data, 4)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid-params", KindInvalidParams.String())
	assert.Equal(t, "invalid-query", KindInvalidQuery.String())
	assert.Equal(t, "store", KindStore.String())
}
