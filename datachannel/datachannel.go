// Package datachannel implements an endianness aware codec for fixed and
// variable width binary values on top of a byte channel.
package datachannel

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"

	"github.com/chanio/chanio/channel"
	"github.com/chanio/chanio/charset"
	"github.com/chanio/chanio/configuration"
)

// Sizes of the fixed width representations in bytes.
const (
	Int16Size   = 2
	Int32Size   = 4
	Int64Size   = 8
	Float32Size = 4
	Float64Size = 8
	BoolSize    = 1

	// maxVarIntLen is the maximum number of groups a variable length int64 occupies.
	maxVarIntLen = 10
)

// ConfigurationKeyByteOrder is the config key holding the default byte order token.
const ConfigurationKeyByteOrder = "datachannel.byteorder"

// DataChannel translates between a byte channel and typed binary values in a
// fixed byte order. It holds no buffering state of its own; aside from the
// closed flag it only forwards to the wrapped channel. Instances must not be
// used concurrently.
type DataChannel struct {
	channel channel.Channel
	order   binary.ByteOrder
	closed  atomic.Bool
}

// New creates a DataChannel wrapping the given byte channel. The byte order is
// fixed for the lifetime of the instance.
func New(ch channel.Channel, order binary.ByteOrder) *DataChannel {
	return &DataChannel{
		channel: ch,
		order:   order,
	}
}

// NewFromToken creates a DataChannel with the byte order selected by the given
// token ("BE", "LE" or anything else for the host's native order).
func NewFromToken(ch channel.Channel, token string) *DataChannel {
	return New(ch, ParseByteOrder(token))
}

// NewFromConfiguration creates a DataChannel with the byte order token taken
// from the "datachannel.byteorder" config key.
func NewFromConfiguration(ch channel.Channel, config *configuration.Configuration) *DataChannel {
	return NewFromToken(ch, config.String(ConfigurationKeyByteOrder))
}

// Order returns the byte order of the channel.
func (d *DataChannel) Order() binary.ByteOrder {
	return d.order
}

// ID returns the identifier of the wrapped channel.
func (d *DataChannel) ID() string {
	return d.channel.ID()
}

// HasReachedEnd reports whether the wrapped channel has reached its end.
func (d *DataChannel) HasReachedEnd() bool {
	return d.channel.HasReachedEnd()
}

// readFull reads exactly n bytes from the wrapped channel, looping over short
// reads. It never returns a partial result together with a nil error.
func (d *DataChannel) readFull(n int) ([]byte, error) {
	readBytes := make([]byte, n)
	if _, err := io.ReadFull(d.channel, readBytes); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d bytes from channel %s", n, d.channel.ID())
	}

	return readBytes, nil
}

// ReadInt16 reads a 16 bit signed integer and sign-extends it to int64.
func (d *DataChannel) ReadInt16() (int64, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	readBytes, err := d.readFull(Int16Size)
	if err != nil {
		return 0, err
	}

	return int64(int16(d.order.Uint16(readBytes))), nil
}

// ReadInt32 reads a 32 bit signed integer and sign-extends it to int64.
func (d *DataChannel) ReadInt32() (int64, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	readBytes, err := d.readFull(Int32Size)
	if err != nil {
		return 0, err
	}

	return int64(int32(d.order.Uint32(readBytes))), nil
}

// ReadInt64 reads a 64 bit signed integer.
func (d *DataChannel) ReadInt64() (int64, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	readBytes, err := d.readFull(Int64Size)
	if err != nil {
		return 0, err
	}

	return int64(d.order.Uint64(readBytes)), nil
}

// ReadFloat32 reads an IEEE-754 single precision value.
func (d *DataChannel) ReadFloat32() (float64, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	readBytes, err := d.readFull(Float32Size)
	if err != nil {
		return 0, err
	}

	return float64(math.Float32frombits(d.order.Uint32(readBytes))), nil
}

// ReadFloat64 reads an IEEE-754 double precision value.
func (d *DataChannel) ReadFloat64() (float64, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	readBytes, err := d.readFull(Float64Size)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(d.order.Uint64(readBytes)), nil
}

// ReadBool reads a single byte, mapping zero to false and anything else to true.
func (d *DataChannel) ReadBool() (bool, error) {
	if d.closed.Load() {
		return false, channel.ErrChannelClosed
	}

	readBytes, err := d.readFull(BoolSize)
	if err != nil {
		return false, err
	}

	return readBytes[0] != 0, nil
}

// ReadVarInt reads a variable length integer. Each byte contributes 7 bits in
// its low order bits, least significant group first; the high order bit
// signals that more bytes follow. Fails if the stream ends before a
// terminating byte is read.
func (d *DataChannel) ReadVarInt() (int64, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	var result uint64
	var shift uint
	for i := 0; i < maxVarIntLen; i++ {
		readBytes, err := d.readFull(1)
		if err != nil {
			return 0, errors.Wrap(err, "failed to read variable length integer")
		}

		group := readBytes[0]
		result |= uint64(group&0x7f) << shift
		if group&0x80 == 0 {
			return int64(result), nil
		}
		shift += 7
	}

	return 0, errors.Errorf("variable length integer exceeds %d bytes", maxVarIntLen)
}

// ReadString fails with ErrEndOfStream if the channel is already at its end;
// otherwise it reads exactly nBytes and decodes them with the named encoding.
// The bytes are assumed to be a complete encoding of the text, split multi
// byte sequences are not corrected here.
func (d *DataChannel) ReadString(nBytes int, encodingName string) (string, error) {
	if d.closed.Load() {
		return "", channel.ErrChannelClosed
	}
	if d.channel.HasReachedEnd() {
		return "", channel.ErrEndOfStream
	}

	enc, err := charset.Lookup(encodingName)
	if err != nil {
		return "", err
	}

	readBytes, err := d.readFull(nBytes)
	if err != nil {
		return "", err
	}

	decoded, err := enc.NewDecoder().Bytes(readBytes)
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode string with %s", encodingName)
	}

	return string(decoded), nil
}

// WriteInt16 writes the low 16 bits of the given value.
func (d *DataChannel) WriteInt16(value int64) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := make([]byte, Int16Size)
	d.order.PutUint16(encoded, uint16(value))

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteInt32 writes the low 32 bits of the given value.
func (d *DataChannel) WriteInt32(value int64) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := make([]byte, Int32Size)
	d.order.PutUint32(encoded, uint32(value))

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteInt64 writes a 64 bit signed integer.
func (d *DataChannel) WriteInt64(value int64) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := make([]byte, Int64Size)
	d.order.PutUint64(encoded, uint64(value))

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteFloat32 writes an IEEE-754 single precision value.
func (d *DataChannel) WriteFloat32(value float64) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := make([]byte, Float32Size)
	d.order.PutUint32(encoded, math.Float32bits(float32(value)))

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteFloat64 writes an IEEE-754 double precision value.
func (d *DataChannel) WriteFloat64(value float64) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := make([]byte, Float64Size)
	d.order.PutUint64(encoded, math.Float64bits(value))

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteBool writes a single byte, 1 for true and 0 for false.
func (d *DataChannel) WriteBool(value bool) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := []byte{0}
	if value {
		encoded[0] = 1
	}

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteVarInt writes a variable length integer. The value is reinterpreted as
// uint64 and emitted in 7 bit groups, least significant group first, so that
// negative values round-trip through their two's complement representation.
func (d *DataChannel) WriteVarInt(value int64) error {
	if d.closed.Load() {
		return channel.ErrChannelClosed
	}

	encoded := make([]byte, 0, maxVarIntLen)
	remaining := uint64(value)
	for {
		group := byte(remaining & 0x7f)
		remaining >>= 7
		if remaining == 0 {
			encoded = append(encoded, group)
			break
		}
		encoded = append(encoded, group|0x80)
	}

	_, err := channel.WriteFull(d.channel, encoded)

	return err
}

// WriteString encodes the given text with the named encoding and writes it to
// the channel. It returns the number of bytes written.
func (d *DataChannel) WriteString(value string, encodingName string) (int, error) {
	if d.closed.Load() {
		return 0, channel.ErrChannelClosed
	}

	enc, err := charset.Lookup(encodingName)
	if err != nil {
		return 0, err
	}

	encoded, err := enc.NewEncoder().Bytes([]byte(value))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to encode string with %s", encodingName)
	}

	return channel.WriteFull(d.channel, encoded)
}

// Close closes the wrapped channel. Any subsequent call on the DataChannel,
// including Close itself, fails with ErrChannelClosed.
func (d *DataChannel) Close() error {
	if d.closed.Swap(true) {
		return channel.ErrChannelClosed
	}

	return d.channel.Close()
}
