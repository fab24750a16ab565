package charset_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/chanio/chanio/charset"
)

func TestLookup(t *testing.T) {
	enc, err := charset.Lookup("UTF-8")
	require.NoError(t, err)
	require.Equal(t, unicode.UTF8, enc)

	enc, err = charset.Lookup("utf8")
	require.NoError(t, err)
	require.Equal(t, unicode.UTF8, enc)

	enc, err = charset.Lookup("ISO-8859-1")
	require.NoError(t, err)
	require.Equal(t, charmap.ISO8859_1, enc)
}

func TestLookupUnsupported(t *testing.T) {
	_, err := charset.Lookup("no-such-encoding")
	require.ErrorIs(t, err, charset.ErrUnsupportedEncoding)
}
