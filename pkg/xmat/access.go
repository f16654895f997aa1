package xmat

import "fmt"

// GetScalar decodes a scalar block of type T.
func GetScalar[T Element](r *Reader, name string) (T, error) {
	var zero T
	v, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	return ScalarOf[T](v)
}

// GetArray decodes a block of type T and returns its elements and shape.
// Scalars are returned as a single element with an empty shape.
func GetArray[T Element](r *Reader, name string) ([]T, []uint64, error) {
	v, err := r.Get(name)
	if err != nil {
		return nil, nil, err
	}
	data, err := As[T](v)
	if err != nil {
		return nil, nil, fmt.Errorf("%q: %w", name, err)
	}
	return data, v.Shape(), nil
}

// GetString returns a byte block as a string regardless of the text mode.
func (r *Reader) GetString(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.Text()
	if !ok {
		return "", fmt.Errorf("%w: %q is %s, not bytes", ErrTypeMismatch, name, v.Type())
	}
	return s, nil
}

// GetBytes returns a byte block's payload.
func (r *Reader) GetBytes(name string) ([]byte, error) {
	v, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	b, ok := v.Raw()
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, not bytes", ErrTypeMismatch, name, v.Type())
	}
	return b, nil
}

// SetScalar stores a single element under name.
func SetScalar[T Element](w *Writer, name string, x T) error {
	return w.SetItem(name, Scalar(x))
}

// SetArray stores a row-major array under name.
func SetArray[T Element](w *Writer, name string, data []T, shape ...uint64) error {
	v, err := Array(data, shape...)
	if err != nil {
		return err
	}
	return w.SetItem(name, v)
}

// SetString stores text under name.
func (w *Writer) SetString(name, s string) error { return w.SetItem(name, String(s)) }

// SetBytes stores raw bytes under name.
func (w *Writer) SetBytes(name string, b []byte) error { return w.SetItem(name, Bytes(b)) }
