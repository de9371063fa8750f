package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
)

type fakeService struct {
	props model.PropertyBag
	keys  []string
}

func (f *fakeService) GetProperties(ctx context.Context, serviceID string) (model.PropertyBag, error) {
	if serviceID != "ethernet_cable" {
		return nil, errors.New("no such service")
	}
	return f.props, nil
}

func (f *fakeService) SetProperty(ctx context.Context, serviceID, key string, value any) error {
	f.keys = append(f.keys, key)
	return nil
}

func newTestServer(token string) (*Server, *fakeService) {
	log.SetOutput("error", io.Discard)
	svc := &fakeService{props: model.PropertyBag{
		model.KeyIPv6: model.PropertyBag{"Method": "auto", "PrefixLength": uint8(64), "Privacy": "disabled"},
	}}
	return NewServer(svc, nil, token), svc
}

func TestGetConfig(t *testing.T) {
	s, _ := newTestServer("")

	text, err := s.getConfig(context.Background(), "ethernet_cable")
	require.NoError(t, err)

	var fields model.Fields
	require.NoError(t, json.Unmarshal([]byte(text), &fields))
	assert.Equal(t, uint8(64), fields.IPv6.PrefixLength)

	_, err = s.getConfig(context.Background(), "wifi_missing")
	assert.Error(t, err)
}

func TestGetSection(t *testing.T) {
	s, _ := newTestServer("")

	text, err := s.getSection(context.Background(), "ethernet_cable", "ipv6")
	require.NoError(t, err)
	assert.Contains(t, text, `"privacy": "disabled"`)

	_, err = s.getSection(context.Background(), "ethernet_cable", "vlan")
	assert.Error(t, err)
}

func TestCommit(t *testing.T) {
	s, svc := newTestServer("")

	text, err := s.commit(context.Background(), "ethernet_cable",
		`{"ipv6":{"method":"auto","prefix_length":48,"privacy":"disabled"}}`, true)
	require.NoError(t, err)
	var dry model.CommitResponse
	require.NoError(t, json.Unmarshal([]byte(text), &dry))
	assert.True(t, dry.DryRun)
	assert.Len(t, dry.Requests, 1)
	assert.Empty(t, svc.keys)

	_, err = s.commit(context.Background(), "ethernet_cable",
		`{"ipv6":{"method":"auto","prefix_length":48,"privacy":"disabled"}}`, false)
	require.NoError(t, err)
	assert.Equal(t, []string{model.KeyIPv6}, svc.keys)
}

func TestCommitRejectsBadInput(t *testing.T) {
	s, svc := newTestServer("")

	_, err := s.commit(context.Background(), "ethernet_cable", `{`, false)
	assert.Error(t, err)

	_, err = s.commit(context.Background(), "ethernet_cable", `{"ipv4":{"address":"999.1.1.1"}}`, false)
	assert.ErrorContains(t, err, "ipv4.address")
	assert.Empty(t, svc.keys)
}

func TestCommitAcceptsUnchangedHostnames(t *testing.T) {
	s, svc := newTestServer("")
	svc.props[model.KeyTimeservers] = []string{"pool.ntp.org"}

	text, err := s.commit(context.Background(), "ethernet_cable",
		`{"general":{"auto_connect":true},"timeservers":"pool.ntp.org"}`, false)
	require.NoError(t, err)
	var out model.CommitResponse
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	require.Len(t, out.Requests, 1)
	assert.Equal(t, []string{model.KeyAutoConnect}, svc.keys)

	_, err = s.commit(context.Background(), "ethernet_cable", `{"timeservers":"time.example.com"}`, false)
	assert.ErrorContains(t, err, "timeservers")
}

func TestCommitToolDryRunFlag(t *testing.T) {
	s, svc := newTestServer("")
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"commit_service_config","arguments":{"service_id":"ethernet_cable","edits":"{\"ipv6\":{\"method\":\"auto\",\"prefix_length\":48,\"privacy\":\"disabled\"}}","dry_run":true}}}`

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.GetHTTPHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `\"dry_run\": true`)
	assert.Empty(t, svc.keys)
}

func TestHTTPHandlerRequiresToken(t *testing.T) {
	s, _ := newTestServer("tok")

	rec := httptest.NewRecorder()
	s.GetHTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer tok")
	assert.True(t, s.authorized(req))
}
