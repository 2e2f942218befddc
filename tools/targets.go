package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Targets is a JSON value that is either a single string or an array of
// strings. Which shape was sent decides between a single download and a
// batch.
type Targets struct {
	values []string
	list   bool
	set    bool
}

// One returns a scalar Targets.
func One(v string) Targets {
	return Targets{values: []string{v}, set: true}
}

// Many returns an array Targets.
func Many(v ...string) Targets {
	return Targets{values: v, list: true, set: true}
}

// IsList reports whether the value was an array.
func (t Targets) IsList() bool { return t.list }

// IsSet reports whether a value was provided at all.
func (t Targets) IsSet() bool { return t.set }

// Values returns the strings, one element for a scalar.
func (t Targets) Values() []string { return t.values }

// Len returns the number of strings.
func (t Targets) Len() int { return len(t.values) }

func (t *Targets) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case bytes.Equal(b, []byte("null")):
		*t = Targets{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = One(s)
		return nil
	case len(b) > 0 && b[0] == '[':
		var ss []string
		if err := json.Unmarshal(b, &ss); err != nil {
			return fmt.Errorf("expected an array of strings: %w", err)
		}
		*t = Many(ss...)
		return nil
	}

	return errors.New("expected a string or an array of strings")
}

func (t Targets) MarshalJSON() ([]byte, error) {
	switch {
	case !t.set:
		return []byte("null"), nil
	case t.list:
		if t.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(t.values)
	default:
		return json.Marshal(t.values[0])
	}
}
