// Package backend is a placeholder for shared helpers used by the
// concrete cache.Cache backend adapters in its sibling packages; each
// backend lives in its own subpackage so importing one driver never pulls
// in the rest.
package backend

import (
	"bytes"
	"encoding/gob"
)

// Encode gob-encodes v for storage in a byte-oriented backend (bigcache,
// freecache, fastcache, memcache). Callers storing custom struct types
// must gob.Register them once at init time, same as any other gob user.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(b []byte) (any, error) {
	var v any
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
