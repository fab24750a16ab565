package channel

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrChannelClosed is returned when an operation is invoked on an already closed instance.
	ErrChannelClosed = errors.New("channel already closed")
	// ErrEndOfStream is returned when a bounded read is requested on a channel that already reached its end.
	ErrEndOfStream = errors.New("end of stream reached")
	// ErrNotReadable is returned when a read is invoked on a write-only channel.
	ErrNotReadable = errors.New("channel is not readable")
	// ErrNotWritable is returned when a write is invoked on a read-only channel.
	ErrNotWritable = errors.New("channel is not writable")
)
