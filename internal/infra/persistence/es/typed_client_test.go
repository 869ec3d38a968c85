package es

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
	exists   bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies[r.Method+" "+r.URL.Path] = body
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/"+model.ReportIndex:
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/"+model.ReportIndex:
		io.WriteString(w, `{"acknowledged":true,"shards_acknowledged":true,"index":"feedharvest-runs"}`)
	case r.Method == http.MethodGet && r.URL.Path == "/"+model.ReportIndex+"/_doc/run-1":
		io.WriteString(w, `{"_index":"feedharvest-runs","_id":"run-1","_version":1,"_seq_no":0,"_primary_term":1,"found":true,
"_source":{"run_id":"run-1","url":"https://www.linkedin.com/in/someone/recent-activity/all/","outcome":"target","highest_index_seen":10,"started_at":"2026-01-01T00:00:00Z"}}`)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/"+model.ReportIndex+"/_doc/"):
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"_index":"feedharvest-runs","_id":"missing","found":false}`)
	case r.URL.Path == "/"+model.ReportIndex+"/_doc/run-1":
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"_index":"feedharvest-runs","_id":"run-1","_version":1,"result":"created","_shards":{"total":1,"successful":1,"failed":0},"_seq_no":0,"_primary_term":1}`)
	case r.URL.Path == "/"+model.ReportIndex+"/_count":
		io.WriteString(w, `{"count":3,"_shards":{"total":1,"successful":1,"skipped":0,"failed":0}}`)
	case r.URL.Path == "/"+model.ReportIndex+"/_search":
		io.WriteString(w, `{"took":1,"timed_out":false,"_shards":{"total":1,"successful":1,"skipped":0,"failed":0},
"hits":{"total":{"value":2,"relation":"eq"},"max_score":1.0,"hits":[
{"_index":"feedharvest-runs","_id":"new","_score":null,"_source":{"run_id":"new","outcome":"stale","started_at":"2026-01-02T10:00:00Z"},"sort":[1767348000000]},
{"_index":"feedharvest-runs","_id":"old","_score":null,"_source":{"run_id":"old","outcome":"stale","started_at":"2026-01-01T10:00:00Z"},"sort":[1767261600000]}]}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"type":"not_found","reason":"unexpected request"},"status":404}`)
	}
}

func newClient(t *testing.T, fake *fakeES) TypedEsClient[*model.Report] {
	t.Helper()
	fake.bodies = map[string][]byte{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Elasticsearch.Address = srv.URL
	client, err := InitTypedEsClient[*model.Report](cfg, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestCreateIndexWithMapping(t *testing.T) {
	fake := &fakeES{}
	client := newClient(t, fake)

	require.NoError(t, client.CreateIndexWithMapping(t.Context()))

	assert.Equal(t, []string{"HEAD /feedharvest-runs", "PUT /feedharvest-runs"}, fake.requests)
	assert.Contains(t, string(fake.bodies["PUT /feedharvest-runs"]), `"highest_index_seen"`)
}

func TestCreateIndexSkipsExisting(t *testing.T) {
	fake := &fakeES{exists: true}
	client := newClient(t, fake)

	require.NoError(t, client.CreateIndexWithMapping(t.Context()))
	assert.Equal(t, []string{"HEAD /feedharvest-runs"}, fake.requests)
}

func TestIndexReport(t *testing.T) {
	fake := &fakeES{}
	client := newClient(t, fake)
	report := &model.Report{
		RunID:            "run-1",
		URL:              "https://www.linkedin.com/in/someone/recent-activity/all/",
		Outcome:          model.OutcomeTarget,
		HighestIndexSeen: 10,
		StartedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, client.IndexDocWithID(t.Context(), report))

	var got model.Report
	require.NoError(t, json.Unmarshal(fake.bodies["PUT /feedharvest-runs/_doc/run-1"], &got))
	assert.Equal(t, report.URL, got.URL)
	assert.Equal(t, model.ItemIndex(10), got.HighestIndexSeen)
}

func TestCountDocs(t *testing.T) {
	client := newClient(t, &fakeES{})

	n, err := client.CountDocs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRecentReportsNewestFirst(t *testing.T) {
	fake := &fakeES{}
	client := newClient(t, fake)

	reports, total, err := RecentReports(t.Context(), client, model.OutcomeStale, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, reports, 2)
	assert.Equal(t, "new", reports[0].RunID)
	assert.Equal(t, "old", reports[1].RunID)

	var body struct {
		Query map[string]json.RawMessage     `json:"query"`
		Sort  []map[string]map[string]string `json:"sort"`
		Size  int                            `json:"size"`
	}
	require.NoError(t, json.Unmarshal(fake.bodies["POST /feedharvest-runs/_search"], &body))
	assert.Contains(t, body.Query, "term")
	assert.Equal(t, []map[string]map[string]string{{"started_at": {"order": "desc"}}}, body.Sort)
	assert.Equal(t, 10, body.Size)
}

func TestRecentReportsAllOutcomes(t *testing.T) {
	fake := &fakeES{}
	client := newClient(t, fake)

	_, _, err := RecentReports(t.Context(), client, "", 5)
	require.NoError(t, err)

	raw := string(fake.bodies["POST /feedharvest-runs/_search"])
	assert.Contains(t, raw, `"match_all"`)
	assert.Contains(t, raw, `"sort"`)
}

func TestGetDoc(t *testing.T) {
	client := newClient(t, &fakeES{})

	report, err := client.GetDoc(t.Context(), "run-1")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, model.OutcomeTarget, report.Outcome)
	assert.Equal(t, model.ItemIndex(10), report.HighestIndexSeen)
	assert.True(t, report.StartedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGetDocMissing(t *testing.T) {
	client := newClient(t, &fakeES{})

	report, err := client.GetDoc(t.Context(), "missing")
	require.NoError(t, err)
	assert.Nil(t, report)
}
