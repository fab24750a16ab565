package datachannel_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chanio/chanio/channel"
	"github.com/chanio/chanio/charset"
	"github.com/chanio/chanio/configuration"
	"github.com/chanio/chanio/datachannel"
)

func orders() map[string]binary.ByteOrder {
	return map[string]binary.ByteOrder{
		"BE":     binary.BigEndian,
		"LE":     binary.LittleEndian,
		"native": datachannel.NativeOrder(),
	}
}

func TestFixedIntRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 42, -12345, math.MaxInt16, math.MinInt16}

	for orderName, order := range orders() {
		t.Run(orderName, func(t *testing.T) {
			stream := &bytes.Buffer{}
			writer := datachannel.New(channel.NewWritable(stream), order)

			for _, value := range values {
				require.NoError(t, writer.WriteInt16(value))
				require.NoError(t, writer.WriteInt32(value))
				require.NoError(t, writer.WriteInt64(value))
			}

			reader := datachannel.New(channel.NewReadable(stream), order)
			for _, value := range values {
				readValue, err := reader.ReadInt16()
				require.NoError(t, err)
				require.Equal(t, value, readValue)

				readValue, err = reader.ReadInt32()
				require.NoError(t, err)
				require.Equal(t, value, readValue)

				readValue, err = reader.ReadInt64()
				require.NoError(t, err)
				require.Equal(t, value, readValue)
			}
		})
	}
}

func TestWideIntRoundTrip(t *testing.T) {
	stream := &bytes.Buffer{}
	writer := datachannel.New(channel.NewWritable(stream), binary.BigEndian)
	reader := datachannel.New(channel.NewReadable(stream), binary.BigEndian)

	for _, value := range []int64{math.MinInt64, math.MinInt32, math.MaxInt32, math.MaxInt64} {
		require.NoError(t, writer.WriteInt64(value))

		readValue, err := reader.ReadInt64()
		require.NoError(t, err)
		require.Equal(t, value, readValue)
	}
}

func TestReadInt16Sequence(t *testing.T) {
	reader := datachannel.NewFromToken(channel.NewReadable(bytes.NewReader([]byte{0x00, 0x01, 0x00, 0x02})), "BE")

	first, err := reader.ReadInt16()
	require.NoError(t, err)
	require.EqualValues(t, 1, first)

	second, err := reader.ReadInt16()
	require.NoError(t, err)
	require.EqualValues(t, 2, second)
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float64{0, 1.5, -1.5, math.Pi, math.MaxFloat32, math.Inf(1), math.Inf(-1)}

	for orderName, order := range orders() {
		t.Run(orderName, func(t *testing.T) {
			stream := &bytes.Buffer{}
			writer := datachannel.New(channel.NewWritable(stream), order)
			reader := datachannel.New(channel.NewReadable(stream), order)

			for _, value := range values {
				require.NoError(t, writer.WriteFloat32(value))
				readValue, err := reader.ReadFloat32()
				require.NoError(t, err)
				require.Equal(t, float64(float32(value)), readValue)

				require.NoError(t, writer.WriteFloat64(value))
				readValue, err = reader.ReadFloat64()
				require.NoError(t, err)
				require.Equal(t, value, readValue)
			}
		})
	}
}

func TestFloatNaN(t *testing.T) {
	stream := &bytes.Buffer{}
	writer := datachannel.New(channel.NewWritable(stream), binary.LittleEndian)
	reader := datachannel.New(channel.NewReadable(stream), binary.LittleEndian)

	require.NoError(t, writer.WriteFloat64(math.NaN()))
	readValue, err := reader.ReadFloat64()
	require.NoError(t, err)
	require.True(t, math.IsNaN(readValue))
}

func TestBoolRoundTrip(t *testing.T) {
	stream := &bytes.Buffer{}
	writer := datachannel.New(channel.NewWritable(stream), binary.BigEndian)
	reader := datachannel.New(channel.NewReadable(stream), binary.BigEndian)

	require.NoError(t, writer.WriteBool(true))
	require.NoError(t, writer.WriteBool(false))

	value, err := reader.ReadBool()
	require.NoError(t, err)
	require.True(t, value)

	value, err = reader.ReadBool()
	require.NoError(t, err)
	require.False(t, value)
}

func TestBoolAnyNonZeroIsTrue(t *testing.T) {
	reader := datachannel.New(channel.NewReadable(bytes.NewReader([]byte{0xff})), binary.BigEndian)

	value, err := reader.ReadBool()
	require.NoError(t, err)
	require.True(t, value)
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 63, 64, 127, 128, 300, -300,
		1 << 14, 1<<14 - 1, 1 << 21, 1 << 28, 1 << 35,
		math.MaxInt64, math.MinInt64, math.MaxInt64 - 1, math.MinInt64 + 1,
	}

	stream := &bytes.Buffer{}
	writer := datachannel.New(channel.NewWritable(stream), binary.BigEndian)
	reader := datachannel.New(channel.NewReadable(stream), binary.BigEndian)

	for _, value := range values {
		require.NoError(t, writer.WriteVarInt(value))

		readValue, err := reader.ReadVarInt()
		require.NoError(t, err)
		require.Equal(t, value, readValue)
	}
}

func TestVarIntEncoding(t *testing.T) {
	stream := &bytes.Buffer{}
	writer := datachannel.New(channel.NewWritable(stream), binary.BigEndian)

	// 300 = 0b10_0101100: low group first, continuation bit on the first byte
	require.NoError(t, writer.WriteVarInt(300))
	require.Equal(t, []byte{0xac, 0x02}, stream.Bytes())
}

func TestVarIntTruncatedStream(t *testing.T) {
	// continuation bit set, but no further bytes follow
	reader := datachannel.New(channel.NewReadable(bytes.NewReader([]byte{0x80})), binary.BigEndian)

	_, err := reader.ReadVarInt()
	require.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	for _, encodingName := range []string{"UTF-8", "ISO-8859-1"} {
		t.Run(encodingName, func(t *testing.T) {
			stream := &bytes.Buffer{}
			writer := datachannel.New(channel.NewWritable(stream), binary.BigEndian)

			written, err := writer.WriteString("café", encodingName)
			require.NoError(t, err)

			reader := datachannel.New(channel.NewReadable(stream), binary.BigEndian)
			value, err := reader.ReadString(written, encodingName)
			require.NoError(t, err)
			require.Equal(t, "café", value)
		})
	}
}

func TestReadStringAtEndOfStream(t *testing.T) {
	ch := channel.NewReadable(bytes.NewReader(nil))
	reader := datachannel.New(ch, binary.BigEndian)

	// drive the channel to its end
	_, err := reader.ReadBool()
	require.Error(t, err)
	require.True(t, reader.HasReachedEnd())

	_, err = reader.ReadString(3, "UTF-8")
	require.ErrorIs(t, err, channel.ErrEndOfStream)
}

func TestReadStringUnsupportedEncoding(t *testing.T) {
	reader := datachannel.New(channel.NewReadable(bytes.NewReader([]byte{1, 2, 3})), binary.BigEndian)

	_, err := reader.ReadString(3, "no-such-encoding")
	require.ErrorIs(t, err, charset.ErrUnsupportedEncoding)
}

func TestShortFixedReadFails(t *testing.T) {
	reader := datachannel.New(channel.NewReadable(bytes.NewReader([]byte{0x01})), binary.BigEndian)

	_, err := reader.ReadInt32()
	require.Error(t, err)
}

func TestClosedDataChannel(t *testing.T) {
	dataChannel := datachannel.New(channel.New(&bytes.Buffer{}), binary.BigEndian)
	require.NoError(t, dataChannel.Close())

	_, err := dataChannel.ReadInt16()
	require.ErrorIs(t, err, channel.ErrChannelClosed)
	_, err = dataChannel.ReadInt64()
	require.ErrorIs(t, err, channel.ErrChannelClosed)
	_, err = dataChannel.ReadFloat64()
	require.ErrorIs(t, err, channel.ErrChannelClosed)
	_, err = dataChannel.ReadBool()
	require.ErrorIs(t, err, channel.ErrChannelClosed)
	_, err = dataChannel.ReadVarInt()
	require.ErrorIs(t, err, channel.ErrChannelClosed)
	_, err = dataChannel.ReadString(1, "UTF-8")
	require.ErrorIs(t, err, channel.ErrChannelClosed)

	require.ErrorIs(t, dataChannel.WriteInt32(1), channel.ErrChannelClosed)
	require.ErrorIs(t, dataChannel.WriteFloat32(1), channel.ErrChannelClosed)
	require.ErrorIs(t, dataChannel.WriteBool(true), channel.ErrChannelClosed)
	require.ErrorIs(t, dataChannel.WriteVarInt(1), channel.ErrChannelClosed)
	_, err = dataChannel.WriteString("x", "UTF-8")
	require.ErrorIs(t, err, channel.ErrChannelClosed)

	require.ErrorIs(t, dataChannel.Close(), channel.ErrChannelClosed)
}

func TestNewFromConfiguration(t *testing.T) {
	config := configuration.New()
	require.NoError(t, config.Set(datachannel.ConfigurationKeyByteOrder, "BE"))

	dataChannel := datachannel.NewFromConfiguration(channel.New(&bytes.Buffer{}), config)
	require.Equal(t, binary.BigEndian, dataChannel.Order())
}
