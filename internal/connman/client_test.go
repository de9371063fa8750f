package connman

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestWrapCallError(t *testing.T) {
	path := ServicePath("wifi_x")

	err := wrapCallError("GetProperties", path, dbus.Error{Name: errUnknownObject})
	assert.True(t, errors.Is(err, ErrServiceNotFound))
	assert.Contains(t, err.Error(), "/net/connman/service/wifi_x")

	err = wrapCallError("SetProperty AutoConnect", path, &dbus.Error{Name: errUnknownMethod})
	assert.True(t, errors.Is(err, ErrServiceNotFound))

	err = wrapCallError("SetProperty IPv4.Configuration", path, dbus.Error{Name: "net.connman.Error.InvalidArguments"})
	assert.False(t, errors.Is(err, ErrServiceNotFound))
	assert.Contains(t, err.Error(), "SetProperty IPv4.Configuration")
}

func TestDialUnknownBus(t *testing.T) {
	_, err := Dial("starbus", 0)
	assert.ErrorContains(t, err, "starbus")
}
