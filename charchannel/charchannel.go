// Package charchannel implements buffered character reads and writes on top
// of a byte channel, decoding with a configured text encoding and correctly
// handling multi byte sequences that are split across fetch boundaries.
package charchannel

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
	"golang.org/x/text/encoding"

	"github.com/chanio/chanio/channel"
	"github.com/chanio/chanio/charset"
	"github.com/chanio/chanio/configuration"
)

// ConfigurationKeyEncoding is the config key holding the default encoding name.
const ConfigurationKeyEncoding = "charchannel.encoding"

// CharacterChannel produces a requested count of characters from a byte
// channel. Characters that were decoded but not yet delivered are carried in a
// pending buffer across calls, bytes that belong to an incomplete trailing
// character are pushed back into the byte accumulator for the next read.
// Instances must not be used concurrently; a read must fully complete before
// the next one begins.
type CharacterChannel struct {
	channel      channel.Channel
	accumulator  *channel.Buffer
	decoder      *encoding.Decoder
	encoder      *encoding.Encoder
	byteCounter  *encoding.Encoder
	pending      []rune
	encodingName string
	closed       atomic.Bool
}

// New creates a CharacterChannel wrapping the given byte channel. The encoding
// name is resolved once into an immutable decoder/encoder pair; an
// unresolvable name is a construction time error.
func New(ch channel.Channel, encodingName string) (*CharacterChannel, error) {
	enc, err := charset.Lookup(encodingName)
	if err != nil {
		return nil, err
	}

	return &CharacterChannel{
		channel:     ch,
		accumulator: channel.NewBuffer(),
		decoder:     enc.NewDecoder(),
		encoder:     enc.NewEncoder(),
		// the byte accounting of the boundary correction must never fail on
		// a replacement character, so it uses a lenient encoder
		byteCounter:  encoding.ReplaceUnsupported(enc.NewEncoder()),
		encodingName: encodingName,
	}, nil
}

// NewFromConfiguration creates a CharacterChannel with the encoding name taken
// from the "charchannel.encoding" config key, defaulting to UTF-8.
func NewFromConfiguration(ch channel.Channel, config *configuration.Configuration) (*CharacterChannel, error) {
	encodingName := config.String(ConfigurationKeyEncoding)
	if encodingName == "" {
		encodingName = "UTF-8"
	}

	return New(ch, encodingName)
}

// Encoding returns the configured encoding name.
func (c *CharacterChannel) Encoding() string {
	return c.encodingName
}

// ID returns the identifier of the wrapped channel.
func (c *CharacterChannel) ID() string {
	return c.channel.ID()
}

// Remaining reports whether decoded but undelivered characters exist.
func (c *CharacterChannel) Remaining() bool {
	return len(c.pending) > 0
}

// HasReachedEnd reports whether all characters were delivered. It stays false
// while decoded but undelivered characters exist, even if the underlying
// channel already reached its end.
func (c *CharacterChannel) HasReachedEnd() bool {
	return len(c.pending) == 0 &&
		c.accumulator.Buffered() == 0 &&
		c.channel.HasReachedEnd()
}

// Read returns up to charCount characters. Pending characters from a previous
// call are drained first; only if they do not satisfy the request are more
// bytes fetched and decoded. A short result means the stream ended.
func (c *CharacterChannel) Read(charCount int) (string, error) {
	if c.closed.Load() {
		return "", channel.ErrChannelClosed
	}
	if charCount < 0 {
		return "", errors.Errorf("invalid character count %d", charCount)
	}

	content := c.drainPending(charCount)
	required := charCount - len(content)
	if required == 0 {
		return string(content), nil
	}

	decoded, err := c.decodeChunk(required)
	if err != nil {
		return "", err
	}

	handedOut := required
	if handedOut > len(decoded) {
		handedOut = len(decoded)
	}
	content = append(content, decoded[:handedOut]...)
	c.pending = append(c.pending, decoded[handedOut:]...)

	return string(content), nil
}

// drainPending moves up to charCount characters out of the pending buffer.
func (c *CharacterChannel) drainPending(charCount int) []rune {
	drained := len(c.pending)
	if drained > charCount {
		drained = charCount
	}

	content := make([]rune, 0, charCount)
	content = append(content, c.pending[:drained]...)
	c.pending = c.pending[drained:]

	return content
}

// decodeChunk fetches the byte budget for the still required character count
// and decodes it, correcting a boundary malformed trailing character.
func (c *CharacterChannel) decodeChunk(required int) ([]rune, error) {
	byteBudget := required * charset.MaxBytesPerChar

	window, err := c.accumulator.Fetch(byteBudget, c.channel)
	if err != nil {
		return nil, err
	}

	decodedBytes, err := c.decoder.Bytes(window)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode characters with %s", c.encodingName)
	}
	decoded := []rune(string(decodedBytes))

	return c.correctBoundary(decoded, required, len(window))
}

// correctBoundary disambiguates a trailing replacement character. Because more
// bytes are requested than strictly needed, a decode that yields more
// characters than required AND ends in the replacement character may have cut
// a multi byte sequence at the window edge. The accepted characters are
// re-encoded to learn how many bytes they consumed; the trailing remainder is
// pushed back into the accumulator so the next read can complete the
// character. A genuinely malformed final sequence is emitted once the channel
// cannot deliver the missing bytes anymore.
func (c *CharacterChannel) correctBoundary(decoded []rune, required int, windowSize int) ([]rune, error) {
	if len(decoded) <= required || len(decoded) == 0 {
		return decoded, nil
	}
	if decoded[len(decoded)-1] != charset.ReplacementChar {
		return decoded, nil
	}

	accepted := decoded[:len(decoded)-1]
	acceptedBytes, err := c.byteCounter.Bytes([]byte(string(accepted)))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to size accepted characters with %s", c.encodingName)
	}

	trailing := windowSize - len(acceptedBytes)
	if trailing <= 0 {
		return decoded, nil
	}
	if err := c.accumulator.PushBack(trailing); err != nil {
		return nil, err
	}

	return accepted, nil
}

// ReadAll decodes all characters contained in the next nBytes of the stream.
// This is a one shot decode without boundary correction, the byte count is
// assumed to hold complete character sequences.
func (c *CharacterChannel) ReadAll(nBytes int) (string, error) {
	if c.closed.Load() {
		return "", channel.ErrChannelClosed
	}

	window, err := c.accumulator.Fetch(nBytes, c.channel)
	if err != nil {
		return "", err
	}

	decodedBytes, err := c.decoder.Bytes(window)
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode characters with %s", c.encodingName)
	}

	return string(decodedBytes), nil
}

// Write encodes the characters of content starting at the given character
// offset and writes them to the channel, looping until all bytes are flushed.
// It returns the number of bytes written.
func (c *CharacterChannel) Write(content string, offset int) (int, error) {
	if c.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	characters := []rune(content)
	if offset < 0 || offset > len(characters) {
		return 0, errors.Errorf("write offset %d out of range [0, %d]", offset, len(characters))
	}

	encoded, err := c.encoder.Bytes([]byte(string(characters[offset:])))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to encode characters with %s", c.encodingName)
	}

	return channel.WriteFull(c.channel, encoded)
}

// Close closes the wrapped channel and releases the internal buffers. Any
// subsequent call on the CharacterChannel fails with ErrChannelClosed.
func (c *CharacterChannel) Close() error {
	if c.closed.Swap(true) {
		return channel.ErrChannelClosed
	}
	c.pending = nil

	return c.channel.Close()
}
