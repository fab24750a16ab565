// Package charset resolves text encoding names into their decoder/encoder
// pairs and holds the constants shared by the character read paths.
package charset

import (
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// MaxBytesPerChar is the upper bound for the encoded length of a single
// character that the chunked character reads calculate their byte budget with.
// It covers the encoding families supported here (UTF-8 and the single byte
// charmaps); it is deliberately a single constant rather than a per-encoding
// value.
const MaxBytesPerChar = 3

// ReplacementChar is substituted for malformed or unmappable input when decoding.
const ReplacementChar = '�'

// ErrUnsupportedEncoding is returned when an encoding name cannot be resolved.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Lookup resolves an encoding name (e.g. "UTF-8", "ISO-8859-1") into its
// Encoding. Unresolvable names fail with ErrUnsupportedEncoding.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(name) {
	case "UTF-8", "UTF8":
		return unicode.UTF8, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Wrapf(ErrUnsupportedEncoding, "cannot resolve %q", name)
	}

	return enc, nil
}
