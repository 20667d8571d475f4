package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/trackstats/internal/tracker"
	"github.com/gyaneshwarpardhi/trackstats/internal/transport"
)

func TestSearchIssues_StopsOnShortPage(t *testing.T) {
	const total, perPage = 5, 2
	var pages []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, Accept, r.Header.Get("Accept"))
		assert.Equal(t, "repo:thunderbird/thunderbird-android is:issue author:VladLucaci", q.Get("q"))
		page, _ := strconv.Atoi(q.Get("page"))
		pages = append(pages, page)

		var items []string
		for i := (page - 1) * perPage; i < page*perPage && i < total; i++ {
			items = append(items, fmt.Sprintf(`{"number":%d,"state":"open"}`, i+1))
		}
		fmt.Fprintf(w, `{"total_count":%d,"items":[%s]}`, total, strings.Join(items, ","))
	}))
	defer srv.Close()

	c := New(transport.New(srv.URL, Accept, time.Second))
	issues, err := c.SearchIssues(context.Background(), Query{
		Repo:    "thunderbird/thunderbird-android",
		Author:  "VladLucaci",
		PerPage: perPage,
	})
	require.NoError(t, err)
	assert.Len(t, issues, total)
	assert.Equal(t, []int{1, 2, 3}, pages)
	assert.Equal(t, 5, issues[4].Number)
}

func TestSearchIssues_DecodesLabelsAndReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"number":3,"state":"closed","state_reason":"not_planned",` +
			`"labels":[{"name":"WontFix"}]},{"number":4,"state":"closed","state_reason":null}]}`))
	}))
	defer srv.Close()

	c := New(transport.New(srv.URL, Accept, time.Second))
	issues, err := c.SearchIssues(context.Background(), Query{Repo: "o/r", Author: "a"})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "not_planned", issues[0].StateReason)
	assert.Equal(t, []tracker.Label{{Name: "WontFix"}}, issues[0].Labels)
	assert.Empty(t, issues[1].StateReason)
}

func TestSearchIssues_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(transport.New(srv.URL, Accept, time.Second))
	_, err := c.SearchIssues(context.Background(), Query{Repo: "o/r", Author: "a"})
	var se *tracker.StatusError
	require.ErrorAs(t, err, &se)
}
