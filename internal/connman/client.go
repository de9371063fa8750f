// Package connman talks to the connman daemon's service objects over D-Bus.
package connman

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/martinsuchenak/connprops/internal/log"
	"github.com/martinsuchenak/connprops/internal/model"
)

const (
	BusName          = "net.connman"
	ServiceInterface = "net.connman.Service"
	servicePrefix    = "/net/connman/service/"

	errUnknownObject = "org.freedesktop.DBus.Error.UnknownObject"
	errUnknownMethod = "org.freedesktop.DBus.Error.UnknownMethod"
)

var ErrServiceNotFound = errors.New("service not found")

// Client reads and writes connman service properties
type Client struct {
	conn    *dbus.Conn
	timeout time.Duration
}

// Dial connects to connman on the system or session bus.
func Dial(bus string, timeout time.Duration) (*Client, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	switch bus {
	case "", "system":
		conn, err = dbus.ConnectSystemBus()
	case "session":
		conn, err = dbus.ConnectSessionBus()
	default:
		return nil, fmt.Errorf("unknown bus %q", bus)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s bus: %w", bus, err)
	}
	log.Debug("Connected to D-Bus", "bus", bus)
	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// ServicePath maps a service ID such as ethernet_0800272e5c0d_cable to its
// object path. Full object paths are returned unchanged.
func ServicePath(serviceID string) dbus.ObjectPath {
	if strings.HasPrefix(serviceID, "/") {
		return dbus.ObjectPath(serviceID)
	}
	return dbus.ObjectPath(servicePrefix + serviceID)
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetProperties returns a service's full property snapshot
func (c *Client) GetProperties(ctx context.Context, serviceID string) (model.PropertyBag, error) {
	path := ServicePath(serviceID)
	if !path.IsValid() {
		return nil, fmt.Errorf("invalid service path %q", path)
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	var props map[string]dbus.Variant
	obj := c.conn.Object(BusName, path)
	if err := obj.CallWithContext(ctx, ServiceInterface+".GetProperties", 0).Store(&props); err != nil {
		return nil, wrapCallError("GetProperties", path, err)
	}

	log.Debug("Loaded service properties", "path", path, "count", len(props))
	return FromVariants(props), nil
}

// SetProperty writes one top-level service property
func (c *Client) SetProperty(ctx context.Context, serviceID, key string, value any) error {
	path := ServicePath(serviceID)
	if !path.IsValid() {
		return fmt.Errorf("invalid service path %q", path)
	}

	v, err := ToVariant(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	obj := c.conn.Object(BusName, path)
	if err := obj.CallWithContext(ctx, ServiceInterface+".SetProperty", 0, key, v).Err; err != nil {
		return wrapCallError("SetProperty "+key, path, err)
	}
	return nil
}

func wrapCallError(method string, path dbus.ObjectPath, err error) error {
	switch errorName(err) {
	case errUnknownObject, errUnknownMethod:
		return fmt.Errorf("%s on %s: %w", method, path, ErrServiceNotFound)
	}
	return fmt.Errorf("%s on %s: %w", method, path, err)
}

// errorName returns the D-Bus error name carried by err, if any
func errorName(err error) string {
	var byValue dbus.Error
	if errors.As(err, &byValue) {
		return byValue.Name
	}
	var byPointer *dbus.Error
	if errors.As(err, &byPointer) {
		return byPointer.Name
	}
	return ""
}
