package patient

import (
	"bytes"
	"encoding/json"
)

// Nullable is a tri-state JSON field for partial updates: absent (Set is
// false), explicit null (Set, not Valid) or a value (Set and Valid).
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Of returns a Nullable holding v.
func Of[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Null returns an explicit null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		var zero T
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the value as a pointer, nil for null.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// IsNull reports an explicit null.
func (n Nullable[T]) IsNull() bool {
	return n.Set && !n.Valid
}
