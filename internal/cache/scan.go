package cache

import "reflect"

// newScanTarget allocates a pointer of the column's scan type.
func newScanTarget(t reflect.Type) any {
	if t == nil {
		var v any
		return &v
	}
	return reflect.New(t).Interface()
}

// deref strips the pointer added by newScanTarget.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return v
	}
	return rv.Elem().Interface()
}
