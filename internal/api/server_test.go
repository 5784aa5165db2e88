package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"workq/internal/app"
	"workq/internal/config"
	"workq/internal/domain"
	"workq/internal/infra/memory"
	"workq/internal/makers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.App) {
	t.Helper()
	a := app.NewWithStore(&config.Config{Backend: config.BackendMemory}, memory.New())
	srv := httptest.NewServer(NewServer(a).Handler())
	t.Cleanup(srv.Close)
	return srv, a
}

func do(t *testing.T, method, url, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, _ := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScheduleCreatesOnceThenReturnsExisting(t *testing.T) {
	srv, _ := newTestServer(t)
	url := srv.URL + "/queues/job/owners/account/7/schedule"

	resp, body := do(t, http.MethodPost, url, `{"handler_id":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var first makeResp
	require.NoError(t, json.Unmarshal(body, &first))
	assert.True(t, first.Created)
	assert.Equal(t, domain.StatusScheduled, first.Item.Status)
	assert.Equal(t, "SEND WELCOME EMAIL", first.Item.HandlerName)

	resp, body = do(t, http.MethodPost, url, `{"handler_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second makeResp
	require.NoError(t, json.Unmarshal(body, &second))
	assert.False(t, second.Created)
	assert.Equal(t, first.Item.ID, second.Item.ID)
}

func TestMakeRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown kind", "/queues/chore/owners/account/1/create", `{"handler_id":1}`, http.StatusNotFound},
		{"unknown owner type", "/queues/job/owners/invoice/1/create", `{"handler_id":1}`, http.StatusNotFound},
		{"missing owner", "/queues/job/owners/account/0/create", `{"handler_id":1}`, http.StatusNotFound},
		{"bad owner id", "/queues/job/owners/account/abc/create", `{"handler_id":1}`, http.StatusBadRequest},
		{"missing handler id", "/queues/job/owners/account/1/create", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, http.MethodPost, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSweepEndpointRunsDueItems(t *testing.T) {
	srv, a := newTestServer(t)
	q, err := a.Queue(domain.KindJob)
	require.NoError(t, err)
	it, _, err := q.Schedule(context.Background(), domain.OwnerRef{Type: makers.AccountType, ID: 3}, domain.HandlerIDOf(makers.AccountSendWelcome))
	require.NoError(t, err)

	resp, body := do(t, http.MethodPost, srv.URL+"/queues/job/sweep", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res domain.SweepResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.Selected)
	assert.Equal(t, 1, res.Done)

	resp, body = do(t, http.MethodGet, srv.URL+"/queues/job/items/"+it.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got itemView
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, domain.StatusDone, got.Status)
}

func TestListItemsFiltersByQuery(t *testing.T) {
	srv, a := newTestServer(t)
	jobs, _ := a.Queue(domain.KindJob)
	tasks, _ := a.Queue(domain.KindTask)
	owner := domain.OwnerRef{Type: makers.AccountType, ID: 1}

	_, _, err := jobs.Create(context.Background(), owner, domain.HandlerIDOf(makers.AccountSendWelcome))
	require.NoError(t, err)
	_, _, err = jobs.Schedule(context.Background(), owner, domain.HandlerIDOf(makers.AccountRecalculate))
	require.NoError(t, err)
	_, _, err = tasks.Schedule(context.Background(), owner, domain.HandlerIDOf(makers.AccountRecalculate))
	require.NoError(t, err)

	resp, body := do(t, http.MethodGet, srv.URL+"/queues/job/items?status=SCHEDULED&owner_type=account&owner_id=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []itemView
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, domain.KindJob, items[0].Kind)
	assert.Equal(t, "RECALCULATE BALANCE", items[0].HandlerName)

	resp, _ = do(t, http.MethodGet, srv.URL+"/queues/job/items?owner_type=account", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPatchItem(t *testing.T) {
	srv, a := newTestServer(t)
	q, _ := a.Queue(domain.KindJob)
	it, _, err := q.Schedule(context.Background(), domain.OwnerRef{Type: makers.AccountType, ID: 2}, domain.HandlerIDOf(makers.AccountSendWelcome))
	require.NoError(t, err)
	url := srv.URL + "/queues/job/items/" + it.ID

	resp, body := do(t, http.MethodPatch, url, `{"is_enabled":false,"extra_status":"TO_CANCEL"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	stored, err := a.Store.FindOne(context.Background(), domain.Filter{ID: it.ID})
	require.NoError(t, err)
	assert.False(t, stored.IsEnabled)
	require.NotNil(t, stored.ExtraStatus)
	assert.Equal(t, domain.ExtraStatusToCancel, *stored.ExtraStatus)
	assert.Equal(t, domain.StatusScheduled, stored.Status)

	resp, _ = do(t, http.MethodPatch, url, `{"extra_status":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored, err = a.Store.FindOne(context.Background(), domain.Filter{ID: it.ID})
	require.NoError(t, err)
	assert.Nil(t, stored.ExtraStatus)

	resp, _ = do(t, http.MethodPatch, url, `{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodPatch, srv.URL+"/queues/task/items/"+it.ID, `{"is_enabled":true}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListHandlers(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/queues/task/handlers/account", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hs []handlerView
	require.NoError(t, json.Unmarshal(body, &hs))
	require.Len(t, hs, 1)
	assert.Equal(t, handlerView{ID: makers.AccountRecalculate, Name: "RECALCULATE BALANCE"}, hs[0])
}
