// Package validate holds the address checks applied to edited values before
// they are committed.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/martinsuchenak/connprops/internal/model"
	"github.com/martinsuchenak/connprops/internal/propsync"
)

const (
	octet    = `(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])`
	hexGroup = `(?:[0-9a-fA-F]{1,4})`
	ipv4     = octet + `(?:\.` + octet + `){3}`
	ipv6     = hexGroup + `(?::` + hexGroup + `){7}`
)

// A blank value or a single whitespace character is accepted everywhere so a
// field can be cleared.
var (
	ipv4Pattern = regexp.MustCompile(`^(?:\s?|` + ipv4 + `)$`)
	ipv6Pattern = regexp.MustCompile(`^(?:\s?|` + ipv6 + `)$`)
	listPattern = regexp.MustCompile(`^(?:\s*|\s*(?:` + ipv4 + `|` + ipv6 + `)(?:\s*[,;\s]\s*(?:` + ipv4 + `|` + ipv6 + `))*\s*[,;]?\s*)$`)
)

// Validator checks one field value
type Validator interface {
	Validate(value string) error
}

// Pattern validates a value against a regular expression
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

func (p Pattern) Validate(value string) error {
	if !p.Expr.MatchString(value) {
		return fmt.Errorf("%q is not a valid %s", value, p.Name)
	}
	return nil
}

var (
	IPv4        Validator = Pattern{Name: "IPv4 address", Expr: ipv4Pattern}
	IPv6        Validator = Pattern{Name: "IPv6 address", Expr: ipv6Pattern}
	AddressList Validator = Pattern{Name: "address list", Expr: listPattern}
)

// FieldError names the field a validation failure belongs to
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Edits validates every address field present in edits. Domains and proxy
// settings are free text and are not checked. All failures are returned
// joined together.
func Edits(edits model.Edits) error {
	var errs []error
	check := func(field string, v Validator, value string) {
		if err := v.Validate(value); err != nil {
			errs = append(errs, &FieldError{Field: field, Err: err})
		}
	}

	if edits.Nameservers != nil {
		check("nameservers", AddressList, *edits.Nameservers)
	}
	if edits.Timeservers != nil {
		check("timeservers", AddressList, *edits.Timeservers)
	}
	if v := edits.IPv4; v != nil {
		check("ipv4.address", IPv4, v.Address)
		check("ipv4.netmask", IPv4, v.Netmask)
		check("ipv4.gateway", IPv4, v.Gateway)
	}
	if v := edits.IPv6; v != nil {
		check("ipv6.address", IPv6, v.Address)
		check("ipv6.gateway", IPv6, v.Gateway)
		if v.PrefixLength > 128 {
			errs = append(errs, &FieldError{Field: "ipv6.prefix_length", Err: fmt.Errorf("%d exceeds 128", v.PrefixLength)})
		}
	}

	return errors.Join(errs...)
}

// Changes validates only the fields of edits that differ from current, the
// values loaded from the daemon. Values the daemon already holds, such as
// hostname timeservers or compressed IPv6 addresses, are never rejected.
func Changes(edits model.Edits, current model.Fields) error {
	return Edits(changedOnly(edits, current))
}

// changedOnly blanks every field that matches current. Blank values always
// pass validation.
func changedOnly(edits model.Edits, current model.Fields) model.Edits {
	out := model.Edits{}
	if edits.Nameservers != nil && !sameList(*edits.Nameservers, current.Nameservers) {
		out.Nameservers = edits.Nameservers
	}
	if edits.Timeservers != nil && !sameList(*edits.Timeservers, current.Timeservers) {
		out.Timeservers = edits.Timeservers
	}
	if v := edits.IPv4; v != nil {
		out.IPv4 = &model.IPv4{
			Method:  v.Method,
			Address: changedText(v.Address, current.IPv4.Address),
			Netmask: changedText(v.Netmask, current.IPv4.Netmask),
			Gateway: changedText(v.Gateway, current.IPv4.Gateway),
		}
	}
	if v := edits.IPv6; v != nil {
		out.IPv6 = &model.IPv6{
			Method:       v.Method,
			PrefixLength: v.PrefixLength,
			Address:      changedText(v.Address, current.IPv6.Address),
			Gateway:      changedText(v.Gateway, current.IPv6.Gateway),
			Privacy:      v.Privacy,
		}
		if v.PrefixLength == current.IPv6.PrefixLength {
			out.IPv6.PrefixLength = 0
		}
	}
	return out
}

func changedText(edited, current string) string {
	if propsync.Simplify(edited) == propsync.Simplify(current) {
		return ""
	}
	return edited
}

func sameList(edited, current string) bool {
	return slices.Equal(propsync.NormalizeList(edited), propsync.NormalizeList(current))
}
