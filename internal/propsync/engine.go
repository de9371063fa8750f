// Package propsync diffs edited connman service settings against the
// snapshot they were loaded from and builds the SetProperty calls needed to
// bring the daemon in line with the edits.
package propsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/martinsuchenak/connprops/internal/model"
)

var ErrUnknownSection = errors.New("unknown section")

// maxPrefixLength bounds IPv6 prefix lengths read from a baseline
const maxPrefixLength = 128

// Getter loads a service's properties
type Getter interface {
	GetProperties(ctx context.Context, serviceID string) (model.PropertyBag, error)
}

// PropertyService is the remote side of a commit: read once, write per section
type PropertyService interface {
	Getter
	Setter
}

type Option func(*Engine)

// WithLegacyCompare detects changes in text fields the way older editors
// did: a field counts as unchanged when its edited text contains the
// baseline text, ignoring case. It misses edits such as 10.0.0.1 -> 10.0.0.10.
func WithLegacyCompare() Option {
	return func(e *Engine) {
		e.legacy = true
	}
}

// Engine holds an immutable baseline and turns edits into update requests.
type Engine struct {
	baseline model.PropertyBag
	fields   model.Fields
	legacy   bool
}

// New builds an engine over a copy of baseline.
func New(baseline model.PropertyBag, opts ...Option) *Engine {
	e := &Engine{baseline: baseline.Clone()}
	for _, opt := range opts {
		opt(e)
	}
	e.fields = populate(e.baseline)
	return e
}

// Open loads the baseline for serviceID from svc and builds an engine over it.
func Open(ctx context.Context, svc Getter, serviceID string, opts ...Option) (*Engine, error) {
	props, err := svc.GetProperties(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("loading properties for %s: %w", serviceID, err)
	}
	return New(props, opts...), nil
}

// Baseline returns a copy of the snapshot the engine diffs against
func (e *Engine) Baseline() model.PropertyBag {
	return e.baseline.Clone()
}

// Fields returns the baseline split into editable sections
func (e *Engine) Fields() model.Fields {
	return e.fields
}

// ResetAll returns baseline values for every section
func (e *Engine) ResetAll() model.Fields {
	return e.fields
}

// ResetSection returns current with section s restored to its baseline values.
func (e *Engine) ResetSection(current model.Fields, s model.Section) (model.Fields, error) {
	switch s {
	case model.SectionGeneral:
		current.General = e.fields.General
	case model.SectionNameservers:
		current.Nameservers = e.fields.Nameservers
	case model.SectionTimeservers:
		current.Timeservers = e.fields.Timeservers
	case model.SectionDomains:
		current.Domains = e.fields.Domains
	case model.SectionIPv4:
		current.IPv4 = e.fields.IPv4
	case model.SectionIPv6:
		current.IPv6 = e.fields.IPv6
	case model.SectionProxy:
		current.Proxy = e.fields.Proxy
	default:
		return current, fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
	return current, nil
}

// Commit compares each supplied section with the baseline and returns one
// request per changed section, in model.CommitOrder. It never dispatches.
func (e *Engine) Commit(edits model.Edits) []model.UpdateRequest {
	var requests []model.UpdateRequest
	for _, s := range model.CommitOrder {
		if req, ok := e.diff(s, edits); ok {
			requests = append(requests, req)
		}
	}
	return requests
}

func (e *Engine) diff(s model.Section, edits model.Edits) (model.UpdateRequest, bool) {
	switch s {
	case model.SectionGeneral:
		if edits.General != nil {
			return e.diffGeneral(*edits.General)
		}
	case model.SectionNameservers:
		if edits.Nameservers != nil {
			return e.diffList(s, *edits.Nameservers)
		}
	case model.SectionTimeservers:
		if edits.Timeservers != nil {
			return e.diffList(s, *edits.Timeservers)
		}
	case model.SectionDomains:
		if edits.Domains != nil {
			return e.diffList(s, *edits.Domains)
		}
	case model.SectionIPv4:
		if edits.IPv4 != nil {
			return e.diffIPv4(*edits.IPv4)
		}
	case model.SectionIPv6:
		if edits.IPv6 != nil {
			return e.diffIPv6(*edits.IPv6)
		}
	case model.SectionProxy:
		if edits.Proxy != nil {
			return e.diffProxy(*edits.Proxy)
		}
	}
	return model.UpdateRequest{}, false
}

func (e *Engine) diffGeneral(g model.General) (model.UpdateRequest, bool) {
	if g.AutoConnect == e.baseline.Bool(model.KeyAutoConnect) {
		return model.UpdateRequest{}, false
	}
	return model.UpdateRequest{
		Section: model.SectionGeneral,
		Key:     model.KeyAutoConnect,
		Value:   g.AutoConnect,
	}, true
}

func (e *Engine) diffList(s model.Section, text string) (model.UpdateRequest, bool) {
	list := NormalizeList(text)
	if slices.Equal(list, e.baseline.Strings(s.Key())) {
		return model.UpdateRequest{}, false
	}
	return model.UpdateRequest{Section: s, Key: s.Key(), Value: list}, true
}

func (e *Engine) diffIPv4(v model.IPv4) (model.UpdateRequest, bool) {
	base := e.baseline.Bag(model.KeyIPv4)
	changed := e.enumChanged(v.Method, base.String("Method")) ||
		e.textChanged(v.Address, base.String("Address")) ||
		e.textChanged(v.Netmask, base.String("Netmask")) ||
		e.textChanged(v.Gateway, base.String("Gateway"))
	if !changed {
		return model.UpdateRequest{}, false
	}
	return model.UpdateRequest{
		Section: model.SectionIPv4,
		Key:     model.KeyIPv4,
		Value: model.PropertyBag{
			"Method":  lowerEnum(v.Method),
			"Address": Simplify(v.Address),
			"Netmask": Simplify(v.Netmask),
			"Gateway": Simplify(v.Gateway),
		},
	}, true
}

func (e *Engine) diffIPv6(v model.IPv6) (model.UpdateRequest, bool) {
	base := e.baseline.Bag(model.KeyIPv6)
	changed := e.enumChanged(v.Method, base.String("Method")) ||
		v.PrefixLength != e.fields.IPv6.PrefixLength ||
		e.textChanged(v.Address, base.String("Address")) ||
		e.textChanged(v.Gateway, base.String("Gateway")) ||
		e.enumChanged(v.Privacy, base.String("Privacy"))
	if !changed {
		return model.UpdateRequest{}, false
	}
	return model.UpdateRequest{
		Section: model.SectionIPv6,
		Key:     model.KeyIPv6,
		Value: model.PropertyBag{
			"Method":       lowerEnum(v.Method),
			"PrefixLength": v.PrefixLength,
			"Privacy":      lowerEnum(v.Privacy),
			"Address":      Simplify(v.Address),
			"Gateway":      Simplify(v.Gateway),
		},
	}, true
}

func (e *Engine) diffProxy(v model.Proxy) (model.UpdateRequest, bool) {
	base := e.baseline.Bag(model.KeyProxy)
	servers := NormalizeList(v.Servers)
	excludes := NormalizeList(v.Excludes)

	changed := e.enumChanged(v.Method, base.String("Method")) ||
		e.textChanged(v.URL, base.String("URL"))
	if e.legacy {
		changed = changed ||
			!containsFold(v.Servers, strings.Join(base.Strings("Servers"), "\n")) ||
			!containsFold(v.Excludes, strings.Join(base.Strings("Excludes"), "\n"))
	} else {
		changed = changed ||
			!slices.Equal(servers, base.Strings("Servers")) ||
			!slices.Equal(excludes, base.Strings("Excludes"))
	}
	if !changed {
		return model.UpdateRequest{}, false
	}
	return model.UpdateRequest{
		Section: model.SectionProxy,
		Key:     model.KeyProxy,
		Value: model.PropertyBag{
			"Method":   lowerEnum(v.Method),
			"URL":      Simplify(v.URL),
			"Servers":  servers,
			"Excludes": excludes,
		},
	}, true
}

// Enum values are sent lower-case, so display casing is not a change.
func (e *Engine) enumChanged(edited, base string) bool {
	if e.legacy {
		return !containsFold(edited, base)
	}
	return !strings.EqualFold(Simplify(edited), Simplify(base))
}

func (e *Engine) textChanged(edited, base string) bool {
	if e.legacy {
		return !containsFold(edited, base)
	}
	return Simplify(edited) != Simplify(base)
}

func populate(b model.PropertyBag) model.Fields {
	ipv4 := b.Bag(model.KeyIPv4)
	ipv6 := b.Bag(model.KeyIPv6)
	proxy := b.Bag(model.KeyProxy)

	prefix := ipv6.Uint("PrefixLength")
	if prefix > maxPrefixLength {
		prefix = maxPrefixLength
	}

	return model.Fields{
		General:     model.General{AutoConnect: b.Bool(model.KeyAutoConnect)},
		Nameservers: strings.Join(b.Strings(model.KeyNameservers), "\n"),
		Timeservers: strings.Join(b.Strings(model.KeyTimeservers), "\n"),
		Domains:     strings.Join(b.Strings(model.KeyDomains), "\n"),
		IPv4: model.IPv4{
			Method:  ipv4.String("Method"),
			Address: ipv4.String("Address"),
			Netmask: ipv4.String("Netmask"),
			Gateway: ipv4.String("Gateway"),
		},
		IPv6: model.IPv6{
			Method:       ipv6.String("Method"),
			PrefixLength: uint8(prefix),
			Address:      ipv6.String("Address"),
			Gateway:      ipv6.String("Gateway"),
			Privacy:      ipv6.String("Privacy"),
		},
		Proxy: model.Proxy{
			Method:   proxy.String("Method"),
			URL:      proxy.String("URL"),
			Servers:  strings.Join(proxy.Strings("Servers"), "\n"),
			Excludes: strings.Join(proxy.Strings("Excludes"), "\n"),
		},
	}
}
