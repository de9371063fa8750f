package connman

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/martinsuchenak/connprops/internal/model"
)

// FromVariants converts a D-Bus property dictionary into a PropertyBag.
// Nested dictionaries become nested bags and object paths become strings.
func FromVariants(props map[string]dbus.Variant) model.PropertyBag {
	bag := make(model.PropertyBag, len(props))
	for k, v := range props {
		bag[k] = fromValue(v.Value())
	}
	return bag
}

func fromValue(v any) any {
	switch t := v.(type) {
	case dbus.Variant:
		return fromValue(t.Value())
	case map[string]dbus.Variant:
		return FromVariants(t)
	case dbus.ObjectPath:
		return string(t)
	case []dbus.ObjectPath:
		out := make([]string, len(t))
		for i, p := range t {
			out[i] = string(p)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = fromValue(item)
		}
		return out
	}
	return v
}

// ToVariant encodes a property value for SetProperty. Nested bags become
// a{sv} dictionaries; a nil string list is sent as an empty array.
func ToVariant(value any) (dbus.Variant, error) {
	switch t := value.(type) {
	case bool, string, uint8, uint16, uint32, uint64, int32, int64:
		return dbus.MakeVariant(t), nil
	case []string:
		if t == nil {
			t = []string{}
		}
		return dbus.MakeVariant(t), nil
	case model.PropertyBag:
		dict, err := toDict(t)
		if err != nil {
			return dbus.Variant{}, err
		}
		return dbus.MakeVariant(dict), nil
	case map[string]any:
		return ToVariant(model.PropertyBag(t))
	}
	return dbus.Variant{}, fmt.Errorf("unsupported property type %T", value)
}

func toDict(bag model.PropertyBag) (map[string]dbus.Variant, error) {
	dict := make(map[string]dbus.Variant, len(bag))
	for _, k := range bag.Keys() {
		v, err := ToVariant(bag[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		dict[k] = v
	}
	return dict, nil
}
