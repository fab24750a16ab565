package channel

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"

	"github.com/chanio/chanio/logger"
)

// Channel is the abstraction of an already open byte stream that the data and
// character channels operate on. Reads may return fewer bytes than requested,
// callers must never assume exact-length reads.
type Channel interface {
	io.Reader
	io.Writer
	io.Closer

	// HasReachedEnd reports whether the channel has no more bytes to deliver.
	HasReachedEnd() bool

	// ID returns the identifier of the channel.
	ID() string
}

// instanceCounter is used to generate ids for channels without an explicit one.
var instanceCounter atomic.Uint64

var _ Channel = (*StreamChannel)(nil)

// StreamChannel wraps an io.Reader and/or io.Writer into a Channel.
// It tracks the end-of-stream state of the reader and guards all operations
// with a closed flag. Instances must not be used concurrently.
type StreamChannel struct {
	logger.WrappedLogger

	reader      io.Reader
	writer      io.Writer
	id          string
	endOfStream atomic.Bool
	closed      atomic.Bool
}

// Option configures a StreamChannel.
type Option func(*options)

type options struct {
	id  string
	log *logger.Logger
}

// WithID sets an explicit identifier for the channel.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithLogger enables debug tracing of the channel's operations.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a channel that is both readable and writable.
func New(stream io.ReadWriter, opts ...Option) *StreamChannel {
	return newStreamChannel(stream, stream, opts)
}

// NewReadable creates a read-only channel.
func NewReadable(reader io.Reader, opts ...Option) *StreamChannel {
	return newStreamChannel(reader, nil, opts)
}

// NewWritable creates a write-only channel.
func NewWritable(writer io.Writer, opts ...Option) *StreamChannel {
	return newStreamChannel(nil, writer, opts)
}

func newStreamChannel(reader io.Reader, writer io.Writer, opts []Option) *StreamChannel {
	channelOptions := &options{}
	for _, opt := range opts {
		opt(channelOptions)
	}

	if channelOptions.id == "" {
		channelOptions.id = fmt.Sprintf("stream-%d", instanceCounter.Inc())
	}

	return &StreamChannel{
		WrappedLogger: logger.NewWrappedLogger(channelOptions.log),
		reader:        reader,
		writer:        writer,
		id:            channelOptions.id,
	}
}

// Read reads up to len(p) bytes from the underlying reader.
// It returns io.EOF once the underlying stream is exhausted.
func (s *StreamChannel) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrChannelClosed
	}
	if s.reader == nil {
		return 0, ErrNotReadable
	}

	n, err := s.reader.Read(p)
	if errors.Is(err, io.EOF) {
		s.endOfStream.Store(true)
	}
	s.LogDebugf("channel %s: read %d bytes", s.id, n)

	return n, err
}

// Write writes p to the underlying writer.
func (s *StreamChannel) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrChannelClosed
	}
	if s.writer == nil {
		return 0, ErrNotWritable
	}

	n, err := s.writer.Write(p)
	s.LogDebugf("channel %s: wrote %d bytes", s.id, n)

	return n, err
}

// HasReachedEnd reports whether the underlying reader already signaled io.EOF.
func (s *StreamChannel) HasReachedEnd() bool {
	return s.endOfStream.Load()
}

// ID returns the identifier of the channel.
func (s *StreamChannel) ID() string {
	return s.id
}

// Close closes the wrapped reader and writer if they implement io.Closer.
// Any subsequent operation on the channel fails with ErrChannelClosed.
func (s *StreamChannel) Close() error {
	if s.closed.Swap(true) {
		return ErrChannelClosed
	}
	s.LogDebugf("channel %s: closed", s.id)

	var closeErr error
	if closer, ok := s.reader.(io.Closer); ok {
		closeErr = closer.Close()
	}
	if closer, ok := s.writer.(io.Closer); ok && any(s.writer) != any(s.reader) {
		if err := closer.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}

	if closeErr != nil {
		return errors.Wrapf(closeErr, "failed to close channel %s", s.id)
	}

	return nil
}

// WriteFull writes p to the channel, looping until all bytes were accepted or
// the channel reports an error. It never silently drops undelivered bytes.
func WriteFull(ch Channel, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := ch.Write(p[written:])
		written += n
		if err != nil {
			return written, errors.Wrapf(err, "failed to write to channel %s", ch.ID())
		}
		if n == 0 {
			return written, errors.Errorf("channel %s did not accept any bytes", ch.ID())
		}
	}

	return written, nil
}
