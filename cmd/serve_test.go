package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juraprus2018-boop/jvw-trading-shop/internal/model"
	shopsync "github.com/juraprus2018-boop/jvw-trading-shop/internal/sync"
)

// fakeRunner returns a canned result and records what it was asked to run.
type fakeRunner struct {
	result *shopsync.RunResult
	err    error

	profileURL string
	autoSync   bool
	calls      int
}

func (f *fakeRunner) Run(_ context.Context, profileURL string, autoSync bool) (*shopsync.RunResult, error) {
	f.calls++
	f.profileURL = profileURL
	f.autoSync = autoSync
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func postSync(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/marktplaats-sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSyncHandler_ManualMode(t *testing.T) {
	runner := &fakeRunner{result: &shopsync.RunResult{
		Listings: []model.Listing{
			{Title: "Makita Zaag", Price: "€ 150,00", URL: "https://www.marktplaats.nl/v/a/m1/x"},
		},
	}}

	rec := postSync(t, newRouter(runner), `{"profileUrl":"https://www.marktplaats.nl/u/jvw/1/"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://www.marktplaats.nl/u/jvw/1/", runner.profileURL)
	assert.False(t, runner.autoSync)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Listings, 1)
	assert.Equal(t, "Makita Zaag", resp.Listings[0].Title)
	// Counts are absent in manual mode, not zero.
	assert.Nil(t, resp.Imported)
	assert.NotContains(t, rec.Body.String(), `"imported"`)
}

func TestSyncHandler_AutoSyncCounts(t *testing.T) {
	runner := &fakeRunner{result: &shopsync.RunResult{
		Listings: []model.Listing{{Title: "Makita Zaag", URL: "https://www.marktplaats.nl/v/a/m1/x"}},
		Sync:     &model.SyncResult{Imported: 1, Updated: 2, Deactivated: 3},
	}}

	rec := postSync(t, newRouter(runner), `{"profileUrl":"https://www.marktplaats.nl/u/jvw/1/","autoSync":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, runner.autoSync)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Imported)
	assert.Equal(t, 1, *resp.Imported)
	assert.Equal(t, 2, *resp.Updated)
	assert.Equal(t, 3, *resp.Deactivated)
}

func TestSyncHandler_DegradedRunKeepsError(t *testing.T) {
	runner := &fakeRunner{result: &shopsync.RunResult{
		Sync: &model.SyncResult{Imported: 2, Error: "postgres: insert product x: duplicate"},
	}}

	rec := postSync(t, newRouter(runner), `{"profileUrl":"https://www.marktplaats.nl/u/jvw/1/","autoSync":true}`)

	require.Equal(t, http.StatusOK, rec.Code, "a degraded run is still a 200")

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Error, "duplicate")
}

func TestSyncHandler_MissingProfileURL(t *testing.T) {
	runner := &fakeRunner{}

	rec := postSync(t, newRouter(runner), `{"autoSync":true}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "profileUrl is required")
	assert.Zero(t, runner.calls)
}

func TestSyncHandler_BadJSON(t *testing.T) {
	rec := postSync(t, newRouter(&fakeRunner{}), `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncHandler_RunFailure(t *testing.T) {
	runner := &fakeRunner{err: eris.New("pipeline: fetch profile page: status 403")}

	rec := postSync(t, newRouter(runner), `{"profileUrl":"https://www.marktplaats.nl/u/jvw/1/"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp syncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "403")
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/marktplaats-sync", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()

	newRouter(&fakeRunner{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
