package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/go_outdoor/internal/models"
)

type fakeTransport struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	status   int
	response string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, body)

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(f.response)),
		Request:    req,
	}, nil
}

func newTestElastic(t *testing.T, ft *fakeTransport) *Elastic {
	t.Helper()
	e, err := NewElastic(Config{URL: "http://es:9200", Index: "products", Transport: ft})
	require.NoError(t, err)
	return e
}

func TestSearch_ParsesHits(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{response: `{"hits":{"total":{"value":2},"hits":[{"_source":{"id":3}},{"_source":{"id":7}}]}}`}
	e := newTestElastic(t, ft)

	total, ids, err := e.Search(context.Background(), "tenda", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{3, 7}, ids)

	last := len(ft.requests) - 1
	require.GreaterOrEqual(t, last, 0)
	assert.Equal(t, "/products/_search", ft.requests[last].URL.Path)
	assert.Contains(t, ft.bodies[last], `"multi_match"`)
	assert.Contains(t, ft.bodies[last], `"tenda"`)
}

func TestSearch_ErrorStatus(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{status: http.StatusInternalServerError, response: `{"error":"boom"}`}
	e := newTestElastic(t, ft)

	_, _, err := e.Search(context.Background(), "tenda", 0, 10)
	assert.Error(t, err)
}

func TestIndexProducts(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{response: `{"result":"created"}`}
	e := newTestElastic(t, ft)

	err := e.IndexProducts(context.Background(), []models.Product{
		{ID: 1, Name: "Tenda", Price: decimal.NewFromInt(100000), Stock: 3},
		{ID: 2, Name: "Kompor", Price: decimal.NewFromInt(25000), Stock: 1},
	})
	require.NoError(t, err)

	var paths, bodies []string
	for i, r := range ft.requests {
		if strings.Contains(r.URL.Path, "/_doc/") {
			paths = append(paths, r.URL.Path)
			bodies = append(bodies, ft.bodies[i])
		}
	}
	assert.Equal(t, []string{"/products/_doc/1", "/products/_doc/2"}, paths)
	require.Len(t, bodies, 2)
	assert.Contains(t, bodies[1], `"price":"25000"`)
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size    int
		offset, limit int
	}{
		{0, 0, 0, DefaultPageSize},
		{2, 20, 20, 20},
		{3, 500, 20, DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := Paginate(tt.page, tt.size)
		assert.Equal(t, tt.offset, offset)
		assert.Equal(t, tt.limit, limit)
	}
}
