package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/pkg/httputil"
	"github.com/wonny/aegis-value/pkg/logger"
)

func indexPage(more bool, codes ...string) string {
	rows := ""
	for _, code := range codes {
		rows += fmt.Sprintf(`<tr><td class="ctg"><a href="/item/main.naver?code=%s" target="_parent">종목%s</a></td><td class="number">1,000</td></tr>`, code, code)
	}
	pager := ""
	if more {
		pager = `<td class="pgRR"><a href="?page=next">맨뒤</a></td>`
	}
	return `<html><body><table class="type_1"><tr><th>종목별</th></tr>` + rows +
		`</table><table class="Nnavi"><tr>` + pager + `</tr></table></body></html>`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(httputil.New(logger.NewNop()).DisableRetry(), srv.URL, logger.NewNop())
}

func TestFetchIndexMembers(t *testing.T) {
	pages := map[string]string{
		"1": indexPage(true, "005930", "000660"),
		"2": indexPage(true, "035420", "005930"),
		"3": indexPage(false, "051910"),
	}
	var requested []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sise/entryJongmok.naver", r.URL.Path)
		assert.Equal(t, "KPI200", r.URL.Query().Get("code"))
		page := r.URL.Query().Get("page")
		requested = append(requested, page)
		fmt.Fprint(w, pages[page])
	})

	codes, err := c.FetchIndexMembers(context.Background(), "KPI200")
	require.NoError(t, err)
	assert.Equal(t, []string{"005930", "000660", "035420", "051910"}, codes)
	assert.Equal(t, []string{"1", "2", "3"}, requested)
}

func TestFetchIndexMembers_StopsOnRepeatedPage(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, indexPage(true, "005930"))
	})

	codes, err := c.FetchIndexMembers(context.Background(), "KPI200")
	require.NoError(t, err)
	assert.Equal(t, []string{"005930"}, codes)
	assert.Equal(t, 2, calls)
}

func TestFetchIndexMembers_Errors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.FetchIndexMembers(context.Background(), "KPI200")
	assert.Error(t, err)

	_, err = c.FetchIndexMembers(context.Background(), "")
	assert.Error(t, err)

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexPage(false))
	})
	_, err = empty.FetchIndexMembers(context.Background(), "KPI200")
	assert.Error(t, err)
}

func TestParseIndexPage(t *testing.T) {
	codes, more, err := parseIndexPage(indexPage(false, "005930", "000660"))
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, []string{"005930", "000660"}, codes)
}
