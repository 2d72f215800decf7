package crypto

import (
	"crypto/sha256"
	"encoding"
	"errors"
	"fmt"
	"hash"
	"io"

	btcbase58 "github.com/btcsuite/btcd/btcutil/base58"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	// HeaderLen is the length of the blob header that is excluded from hashing.
	HeaderLen = 4

	// DigestLen is the Blake2b-256 digest size.
	DigestLen = blake2b.Size256

	// ChecksumLen is the Base58Check checksum size.
	ChecksumLen = 4

	// Protocol hash layout: version (2) + digest (32) + checksum (4) = 38
	PayloadLen = len(ProtocolPrefix) + DigestLen
	EncodedLen = PayloadLen + ChecksumLen
)

// ProtocolPrefix is prepended to every digest before encoding. It makes
// every identifier start with "P".
var ProtocolPrefix = [2]byte{0x02, 0xaa}

// Errors
var (
	ErrOffsetOutOfRange = errors.New("insertion offset out of range")
	ErrShortBlob        = errors.New("blob shorter than header")
	ErrChecksum         = errors.New("identifier checksum mismatch")
	ErrNotProtocolHash  = errors.New("identifier is not a protocol hash")
)

// PrefixDigest is the Blake2b-256 state over the immutable bytes preceding
// the nonce insertion point, captured once in serialized form. It is never
// mutated after construction and may be shared by any number of Hashers.
type PrefixDigest struct {
	state []byte
}

// NewPrefixDigest hashes data[HeaderLen:offset] and captures the state.
func NewPrefixDigest(data []byte, offset int) (*PrefixDigest, error) {
	if offset < HeaderLen || offset > len(data) {
		return nil, fmt.Errorf("%w: offset %d, blob length %d", ErrOffsetOutOfRange, offset, len(data))
	}

	h := newBlake2b()
	h.Write(data[HeaderLen:offset])

	state, err := h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("capture digest state: %w", err)
	}
	return &PrefixDigest{state: state}, nil
}

// NewHasher returns a Hasher for a single worker.
func (p *PrefixDigest) NewHasher() *Hasher {
	h := newBlake2b()
	return &Hasher{
		h:     h,
		u:     h.(encoding.BinaryUnmarshaler),
		state: p.state,
	}
}

// Hasher completes the prefix digest with a nonce. Each worker owns one; it
// is not safe for concurrent use.
type Hasher struct {
	h     hash.Hash
	u     encoding.BinaryUnmarshaler
	state []byte

	// Pre-allocated buffer: version + digest + checksum
	buf [EncodedLen]byte
}

// Identifier restores the prefix state, feeds nonceText and returns the
// encoded protocol hash. Every call starts from the same captured state, so
// the result depends only on nonceText.
func (h *Hasher) Identifier(nonceText string) string {
	if err := h.u.UnmarshalBinary(h.state); err != nil {
		// state was produced by MarshalBinary of the same digest type
		panic("crypto: restore digest state: " + err.Error())
	}
	io.WriteString(h.h, nonceText)

	payload := append(h.buf[:0], ProtocolPrefix[:]...)
	payload = h.h.Sum(payload)
	return base58CheckEncode(payload)
}

// EncodeProtocolHash encodes a raw 32-byte digest as a protocol hash.
func EncodeProtocolHash(digest []byte) string {
	payload := make([]byte, 0, EncodedLen)
	payload = append(payload, ProtocolPrefix[:]...)
	payload = append(payload, digest...)
	return base58CheckEncode(payload)
}

// DecodeProtocolHash verifies the checksum and version bytes of id and
// returns the 32-byte digest.
func DecodeProtocolHash(id string) ([]byte, error) {
	body, version, err := btcbase58.CheckDecode(id)
	switch {
	case errors.Is(err, btcbase58.ErrChecksum):
		return nil, fmt.Errorf("%w: %s", ErrChecksum, id)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrNotProtocolHash, err)
	}

	// CheckDecode splits off the first byte as the version
	if version != ProtocolPrefix[0] || len(body) != PayloadLen-1 || body[0] != ProtocolPrefix[1] {
		return nil, fmt.Errorf("%w: %s", ErrNotProtocolHash, id)
	}
	return body[1:], nil
}

// HashBlob returns the protocol hash of the whole blob, header excluded.
func HashBlob(data []byte) (string, error) {
	if len(data) < HeaderLen {
		return "", fmt.Errorf("%w: %d bytes", ErrShortBlob, len(data))
	}
	sum := blake2b.Sum256(data[HeaderLen:])
	return EncodeProtocolHash(sum[:]), nil
}

// base58CheckEncode appends the double-SHA256 checksum and encodes.
// payload must have room for ChecksumLen more bytes to avoid a copy.
func base58CheckEncode(payload []byte) string {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(payload, second[:ChecksumLen]...))
}

func newBlake2b() hash.Hash {
	// New256 only fails for keys longer than 64 bytes
	h, _ := blake2b.New256(nil)
	return h
}
