package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Ordering is the parsed order_by clause: a primary key and a tie breaker.
type Ordering struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// ParseOrderBy parses "key [asc|desc][, key [asc|desc]]" against schema.
func ParseOrderBy(raw string, schema OrderSchema) (Ordering, error) {
	return parseOrderBy(raw, schema)
}

func parseOrderBy(raw string, schema OrderSchema) (Ordering, error) {
	if schema.DefaultPrimary == "" || schema.FallbackKey == "" {
		return Ordering{}, errors.New("order schema needs a default primary and a fallback key")
	}
	for _, key := range []string{schema.DefaultPrimary, schema.FallbackKey} {
		if _, ok := schema.Fields[key]; !ok {
			return Ordering{}, fmt.Errorf("order key %q missing from schema fields", key)
		}
	}

	ord := Ordering{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	var keys []string
	var desc []bool
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		if len(parts) > 2 {
			return Ordering{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		key := parts[0]
		if _, ok := schema.Fields[key]; !ok {
			return Ordering{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}
		for _, seen := range keys {
			if seen == key {
				return Ordering{}, fmt.Errorf("duplicate order key %q", key)
			}
		}

		d := false
		if len(parts) == 2 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				d = true
			default:
				return Ordering{}, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		}
		keys = append(keys, key)
		desc = append(desc, d)
	}

	switch len(keys) {
	case 0:
	case 1:
		ord.PrimaryKey, ord.PrimaryDesc = keys[0], desc[0]
	case 2:
		ord.PrimaryKey, ord.PrimaryDesc = keys[0], desc[0]
		ord.SecondaryKey, ord.SecondaryDesc = keys[1], desc[1]
	default:
		return Ordering{}, errors.New("order_by supports at most two keys")
	}

	if ord.SecondaryKey == ord.PrimaryKey {
		// ties need a second, different key
		other := schema.FallbackKey
		if other == ord.PrimaryKey {
			other = schema.DefaultPrimary
		}
		if other == ord.PrimaryKey {
			return Ordering{}, errors.New("order schema needs two distinct keys")
		}
		ord.SecondaryKey, ord.SecondaryDesc = other, false
	}
	return ord, nil
}

func setOrderParams(dest reflect.Value, ord Ordering) error {
	values := map[string]any{
		"PrimaryKey":    ord.PrimaryKey,
		"PrimaryDesc":   ord.PrimaryDesc,
		"SecondaryKey":  ord.SecondaryKey,
		"SecondaryDesc": ord.SecondaryDesc,
	}
	for name, value := range values {
		field := dest.FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("params struct %s has no settable field %q", dest.Type(), name)
		}
		if err := assign(field, value); err != nil {
			return fmt.Errorf("set %q: %w", name, err)
		}
	}
	return nil
}
