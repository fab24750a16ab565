package channel

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Buffer accumulates bytes fetched ahead of decoding. Besides the usual
// "serve buffered bytes first, refill from the channel" behavior it supports
// pushing back a suffix of the most recent fetch, so that bytes belonging to
// an incomplete trailing character can be re-delivered on the next fetch.
//
// A Buffer is exclusively owned by a single decoder instance and is not safe
// for concurrent use.
type Buffer struct {
	bytes     []byte
	position  int
	lastFetch int
}

// NewBuffer creates a new empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Buffered returns the number of bytes that are buffered but not yet consumed.
func (b *Buffer) Buffered() int {
	return len(b.bytes) - b.position
}

// Fetch returns a window of up to n bytes. Previously pushed back bytes are
// served as the prefix of the window; if they do not satisfy n, the buffer
// refills from the channel until n bytes are available or the channel reaches
// its end. A short window is a valid result, callers must not assume exactly
// n bytes. The returned window is only valid until the next Fetch.
func (b *Buffer) Fetch(n int, ch Channel) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("invalid fetch size %d", n)
	}

	b.compact()

	for len(b.bytes) < n {
		chunk := make([]byte, n-len(b.bytes))
		read, err := ch.Read(chunk)
		b.bytes = append(b.bytes, chunk[:read]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, errors.Wrapf(err, "failed to fetch bytes from channel %s", ch.ID())
		}
	}

	windowSize := n
	if windowSize > len(b.bytes) {
		windowSize = len(b.bytes)
	}
	b.position = windowSize
	b.lastFetch = windowSize

	return b.bytes[:windowSize], nil
}

// PushBack un-consumes the last k bytes delivered by the most recent Fetch.
// They will be re-delivered as the prefix of the next Fetch. k must not exceed
// the size of the most recent fetch.
func (b *Buffer) PushBack(k int) error {
	if k < 0 || k > b.lastFetch {
		return errors.Errorf("cannot push back %d bytes, last fetch delivered %d", k, b.lastFetch)
	}

	b.position -= k
	b.lastFetch -= k

	return nil
}

// compact drops the consumed prefix so the backing slice only holds unread bytes.
func (b *Buffer) compact() {
	if b.position == 0 {
		return
	}

	remaining := copy(b.bytes, b.bytes[b.position:])
	b.bytes = b.bytes[:remaining]
	b.position = 0
}
