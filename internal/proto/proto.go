// Package proto locates the nonce insertion point inside a protocol blob.
//
// A protocol blob is a concatenation of source files, mostly text but with
// some binary framing, so it is searched as raw bytes and never decoded.
package proto

import (
	"bytes"
	"errors"

	"github.com/screa/proto-vanity-miner/internal/nonce"
)

// ErrMarkerNotFound is returned when a blob has no nonce comment line.
var ErrMarkerNotFound = errors.New("vanity comment line start '" + nonce.Marker + "' is not found")

// FindNonceOffset returns the byte offset of the last nonce marker in data.
// Bytes before the marker may be arbitrary binary; the offset is a plain
// byte index into data.
func FindNonceOffset(data []byte) (int, error) {
	i := bytes.LastIndex(data, []byte(nonce.Marker))
	if i < 0 {
		return 0, ErrMarkerNotFound
	}
	return i, nil
}
