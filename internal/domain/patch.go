package domain

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch field that is either absent or carries a value.
// JSON null is rejected for Optional fields; use Nullable when null has meaning.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only invoked when the key is present
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return ValidationError("field may not be null")
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// Apply overwrites dst when the field is set
func (o Optional[T]) Apply(dst *T) {
	if o.Set {
		*dst = o.Value
	}
}

// Nullable is a patch field with three states: absent, present-and-null, present-with-value.
// Absent leaves the target untouched; null clears it.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Null returns a Nullable that clears its target
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true, Null: true}
}

// Value returns a Nullable that sets its target
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: v}
}

// UnmarshalJSON is only invoked when the key is present
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// Apply updates dst according to the three-state rule
func (n Nullable[T]) Apply(dst **T) {
	if !n.Set {
		return
	}
	if n.Null {
		*dst = nil
		return
	}
	v := n.Value
	*dst = &v
}
