package capacity

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehub/scheduler/pkg/cerr"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	NewServer(NewLedger(newMemRepository())).Routes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestAPIUpsertListRemove(t *testing.T) {
	ts := newTestAPI(t)

	body, _ := json.Marshal(map[string]any{
		"account_id": "acc-1",
		"user_id":    "user-1",
		"week_start": "2026-03-05",
		"hours":      30,
	})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/capacities", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	resp.Body.Close()
	assert.Equal(t, "2026-03-02", entry.WeekStart.String())

	resp, err = http.Get(ts.URL + "/capacities?account_id=acc-1&week_start=2026-03-03")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result ListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 30, result.TotalHours)

	resp, err = http.Get(ts.URL + "/capacities/" + entry.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, entry.ID, got.ID)

	resp, err = http.Get(ts.URL + "/capacities/no-such-entry")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/capacities/"+entry.ID, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPIValidationErrors(t *testing.T) {
	ts := newTestAPI(t)

	resp, err := http.Get(ts.URL + "/capacities")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/capacities?account_id=acc-1&week_start=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
