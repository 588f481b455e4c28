package container

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Normalize converts raw attribute values into the representation written to the
// summary table. Byte strings are decoded as UTF-8 (invalid sequences become
// U+FFFD) with fixed-length NUL padding removed. All other values pass through.
func Normalize(v any) any {
	switch b := v.(type) {
	case []byte:
		return DecodeBytes(b)
	case [][]byte:
		// Scalar attributes are occasionally stored as one-element arrays.
		if len(b) == 1 {
			return DecodeBytes(b[0])
		}
		return v
	default:
		return v
	}
}

// DecodeBytes decodes a byte string attribute as UTF-8.
func DecodeBytes(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	decoded, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), b)
	if err != nil {
		// The UTF-8 decoder replaces invalid input rather than failing; keep the raw
		// bytes for anything else.
		return string(b)
	}
	return string(decoded)
}
