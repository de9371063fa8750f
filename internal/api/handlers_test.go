package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinsuchenak/connprops/internal/connman"
	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/martinsuchenak/connprops/internal/storage"
)

type setCall struct {
	serviceID string
	key       string
	value     any
}

// fakeService stands in for connman
type fakeService struct {
	props map[string]model.PropertyBag
	fail  map[string]error
	sets  []setCall
}

func (f *fakeService) GetProperties(ctx context.Context, serviceID string) (model.PropertyBag, error) {
	props, ok := f.props[serviceID]
	if !ok {
		return nil, fmt.Errorf("GetProperties: %w", connman.ErrServiceNotFound)
	}
	return props, nil
}

func (f *fakeService) SetProperty(ctx context.Context, serviceID, key string, value any) error {
	f.sets = append(f.sets, setCall{serviceID: serviceID, key: key, value: value})
	return f.fail[key]
}

func newTestServer(t *testing.T, withStorage bool) (*httptest.Server, *fakeService) {
	t.Helper()
	log.SetOutput("error", io.Discard)

	svc := &fakeService{
		props: map[string]model.PropertyBag{
			"ethernet_cable": {
				model.KeyAutoConnect: false,
				model.KeyNameservers: []string{"8.8.8.8"},
				model.KeyIPv4: model.PropertyBag{
					"Method":  "manual",
					"Address": "10.0.0.2",
					"Netmask": "255.255.255.0",
					"Gateway": "10.0.0.1",
				},
			},
		},
		fail: map[string]error{},
	}

	var s storage.Storage
	if withStorage {
		ss, err := storage.NewStorage(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { ss.Close() })
		s = ss
	}

	mux := http.NewServeMux()
	NewHandler(svc, s).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetService(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/api/services/ethernet_cable")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fields model.Fields
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	assert.Equal(t, "8.8.8.8", fields.Nameservers)
	assert.Equal(t, "10.0.0.2", fields.IPv4.Address)
}

func TestGetServiceNotFound(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/api/services/wifi_missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSection(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/api/services/ethernet_cable/sections/IPv4")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ipv4 model.IPv4
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ipv4))
	assert.Equal(t, "10.0.0.1", ipv4.Gateway)

	bad, err := http.Get(srv.URL + "/api/services/ethernet_cable/sections/routes")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestCommitDispatchesChangedSections(t *testing.T) {
	srv, svc := newTestServer(t, true)

	resp := postJSON(t, srv.URL+"/api/services/ethernet_cable/commit",
		`{"general":{"auto_connect":true},"ipv4":{"method":"manual","address":"10.0.0.2","netmask":"255.255.255.0","gateway":"10.0.0.1"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.CommitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Requests, 1)
	assert.Equal(t, model.KeyAutoConnect, out.Requests[0].Key)
	require.Len(t, out.Results, 1)
	assert.True(t, out.Results[0].OK)
	assert.NotEmpty(t, out.CommitID)

	require.Len(t, svc.sets, 1)
	assert.Equal(t, setCall{serviceID: "ethernet_cable", key: model.KeyAutoConnect, value: true}, svc.sets[0])

	hist, err := http.Get(srv.URL + "/api/history?service=ethernet_cable")
	require.NoError(t, err)
	defer hist.Body.Close()
	var records []model.UpdateRecord
	require.NoError(t, json.NewDecoder(hist.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, out.CommitID, records[0].CommitID)
	assert.Equal(t, "true", records[0].Payload)
}

func TestCommitReportsFailuresPerSection(t *testing.T) {
	srv, svc := newTestServer(t, false)
	svc.fail[model.KeyAutoConnect] = fmt.Errorf("permission denied")

	resp := postJSON(t, srv.URL+"/api/services/ethernet_cable/commit",
		`{"general":{"auto_connect":true},"domains":"example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.CommitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 2)
	assert.False(t, out.Results[0].OK)
	assert.Equal(t, "permission denied", out.Results[0].Error)
	assert.True(t, out.Results[1].OK)
	assert.Len(t, svc.sets, 2)
}

func TestCommitDryRun(t *testing.T) {
	srv, svc := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/api/services/ethernet_cable/commit?dry_run=true", `{"ipv4":{"method":"DHCP"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.CommitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.DryRun)
	require.Len(t, out.Requests, 1)
	payload := out.Requests[0].Value.(map[string]any)
	assert.Equal(t, "dhcp", payload["Method"])
	assert.Empty(t, out.Results)
	assert.Empty(t, svc.sets)
}

func TestCommitRejectsInvalidAddresses(t *testing.T) {
	srv, svc := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/api/services/ethernet_cable/commit", `{"nameservers":"not-an-ip"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/services/ethernet_cable/commit", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.sets)
}

func TestCommitKeepsDaemonValuesUnchecked(t *testing.T) {
	srv, svc := newTestServer(t, false)
	svc.props["wifi_home"] = model.PropertyBag{
		model.KeyAutoConnect: false,
		model.KeyTimeservers: []string{"pool.ntp.org"},
		model.KeyIPv6: model.PropertyBag{
			"Method":       "manual",
			"PrefixLength": uint8(64),
			"Address":      "2001:db8::2",
			"Privacy":      "disabled",
		},
	}

	get, err := http.Get(srv.URL + "/api/services/wifi_home")
	require.NoError(t, err)
	defer get.Body.Close()
	var fields model.Fields
	require.NoError(t, json.NewDecoder(get.Body).Decode(&fields))

	fields.General.AutoConnect = true
	body, err := json.Marshal(fields.Edits())
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/api/services/wifi_home/commit", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.CommitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Requests, 1)
	assert.Equal(t, model.KeyAutoConnect, out.Requests[0].Key)
	require.Len(t, svc.sets, 1)

	fields.IPv6.Address = "2001:db8::3"
	body, err = json.Marshal(fields.Edits())
	require.NoError(t, err)
	bad := postJSON(t, srv.URL+"/api/services/wifi_home/commit", string(body))
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Len(t, svc.sets, 1)
}

func TestCommitNothingChanged(t *testing.T) {
	srv, svc := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/api/services/ethernet_cable/commit", `{"nameservers":"8.8.8.8"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.CommitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.Requests)
	assert.Empty(t, out.CommitID)
	assert.Empty(t, svc.sets)
}

func TestHistoryDisabled(t *testing.T) {
	srv, _ := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHistoryInvalidLimit(t *testing.T) {
	srv, _ := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/api/history?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
