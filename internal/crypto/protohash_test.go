package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/blake2b"
)

func testBlob() []byte {
	var b []byte
	b = append(b, 0, 0, 0, 0)
	b = append(b, "let protocol = ()\n"...)
	b = append(b, "(* Vanity nonce: 0000000000000000 *)\n"...)
	b = append(b, "rest"...)
	return b
}

func TestHasherMatchesDirectDigest(t *testing.T) {
	data := testBlob()
	offset := bytes.LastIndex(data, []byte("(* Vanity nonce:"))

	prefix, err := NewPrefixDigest(data, offset)
	if err != nil {
		t.Fatalf("NewPrefixDigest: %v", err)
	}

	nonceText := "(* Vanity nonce: 1234567890123456 *)\n"
	id := prefix.NewHasher().Identifier(nonceText)

	var full []byte
	full = append(full, data[HeaderLen:offset]...)
	full = append(full, nonceText...)
	want := blake2b.Sum256(full)

	digest, err := DecodeProtocolHash(id)
	if err != nil {
		t.Fatalf("DecodeProtocolHash(%q): %v", id, err)
	}
	if !bytes.Equal(digest, want[:]) {
		t.Errorf("digest = %x, want %x", digest, want)
	}
	if id != EncodeProtocolHash(want[:]) {
		t.Errorf("Identifier() = %s, EncodeProtocolHash() = %s", id, EncodeProtocolHash(want[:]))
	}
}

func TestIdentifierShape(t *testing.T) {
	prefix, err := NewPrefixDigest(testBlob(), HeaderLen)
	if err != nil {
		t.Fatalf("NewPrefixDigest: %v", err)
	}
	id := prefix.NewHasher().Identifier("(* Vanity nonce: 0000000000000000 *)\n")
	if len(id) != 51 {
		t.Errorf("len(%q) = %d, want 51", id, len(id))
	}
	if !strings.HasPrefix(id, "P") {
		t.Errorf("identifier %q does not start with P", id)
	}
}

func TestIdentifierIsDeterministic(t *testing.T) {
	data := testBlob()
	prefix, err := NewPrefixDigest(data, 20)
	if err != nil {
		t.Fatalf("NewPrefixDigest: %v", err)
	}

	h1 := prefix.NewHasher()
	h2 := prefix.NewHasher()
	a := "(* Vanity nonce: 0000000000000001 *)\n"
	b := "(* Vanity nonce: 0000000000000002 *)\n"

	first := h1.Identifier(a)
	// Interleave other attempts; each call must start from the captured state.
	h1.Identifier(b)
	h1.Identifier(b)
	if again := h1.Identifier(a); again != first {
		t.Errorf("repeated Identifier() = %s, want %s", again, first)
	}
	if other := h2.Identifier(a); other != first {
		t.Errorf("second hasher Identifier() = %s, want %s", other, first)
	}
	if h2.Identifier(b) == first {
		t.Error("different nonces produced the same identifier")
	}
}

func TestNewPrefixDigestOffsetRange(t *testing.T) {
	data := testBlob()
	tests := []struct {
		name    string
		offset  int
		wantErr bool
	}{
		{"header end", HeaderLen, false},
		{"blob end", len(data), false},
		{"inside header", 3, true},
		{"negative", -1, true},
		{"past end", len(data) + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrefixDigest(data, tt.offset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPrefixDigest(offset=%d) error = %v, wantErr %v", tt.offset, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOffsetOutOfRange) {
				t.Errorf("error = %v, want ErrOffsetOutOfRange", err)
			}
		})
	}
}

func TestDecodeProtocolHashRejects(t *testing.T) {
	good := EncodeProtocolHash(make([]byte, DigestLen))

	// Flip one character in the middle to break the checksum.
	broken := []byte(good)
	if broken[20] == 'a' {
		broken[20] = 'b'
	} else {
		broken[20] = 'a'
	}

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"checksum", string(broken), ErrChecksum},
		{"garbage", "0OIl", ErrNotProtocolHash},
		{"other prefix", base58CheckEncode(append([]byte{0x01, 0x34}, make([]byte, DigestLen)...)), ErrNotProtocolHash},
		{"short digest", base58CheckEncode(append([]byte{0x02, 0xaa}, make([]byte, 20)...)), ErrNotProtocolHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProtocolHash(tt.id)
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeProtocolHash(%q) error = %v, want %v", tt.id, err, tt.want)
			}
		})
	}

	if _, err := DecodeProtocolHash(good); err != nil {
		t.Errorf("DecodeProtocolHash(%q) = %v", good, err)
	}
}

func TestHashBlob(t *testing.T) {
	data := testBlob()
	id, err := HashBlob(data)
	if err != nil {
		t.Fatalf("HashBlob: %v", err)
	}
	want := blake2b.Sum256(data[HeaderLen:])
	if id != EncodeProtocolHash(want[:]) {
		t.Errorf("HashBlob() = %s", id)
	}

	if _, err := HashBlob([]byte{1, 2}); !errors.Is(err, ErrShortBlob) {
		t.Errorf("HashBlob(short) error = %v, want ErrShortBlob", err)
	}
}
