package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSection(t *testing.T) {
	tests := []struct {
		in      string
		want    Section
		wantErr bool
	}{
		{in: "ipv4", want: SectionIPv4},
		{in: "IPv6", want: SectionIPv6},
		{in: " Proxy ", want: SectionProxy},
		{in: "general", want: SectionGeneral},
		{in: "routes", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSectionKeys(t *testing.T) {
	assert.Len(t, CommitOrder, 7)
	for _, s := range CommitOrder {
		assert.NotEmpty(t, s.Key(), s)
	}
	assert.Equal(t, KeyAutoConnect, SectionGeneral.Key())
	assert.Equal(t, "IPv6.Configuration", SectionIPv6.Key())
}

func TestFieldsEditsCoversEverySection(t *testing.T) {
	f := Fields{Nameservers: "8.8.8.8", IPv4: IPv4{Method: "dhcp"}}
	e := f.Edits()

	require.NotNil(t, e.General)
	require.NotNil(t, e.Nameservers)
	require.NotNil(t, e.Timeservers)
	require.NotNil(t, e.Domains)
	require.NotNil(t, e.IPv4)
	require.NotNil(t, e.IPv6)
	require.NotNil(t, e.Proxy)
	assert.Equal(t, "8.8.8.8", *e.Nameservers)
	assert.Equal(t, "dhcp", e.IPv4.Method)
}
