package datachannel

import (
	"encoding/binary"
	"unsafe"
)

// Byte order tokens recognized by ParseByteOrder.
const (
	TokenBigEndian    = "BE"
	TokenLittleEndian = "LE"
)

// nativeOrder is the byte order of the host, determined once at startup.
var nativeOrder binary.ByteOrder = func() binary.ByteOrder {
	probe := uint16(0x0102)
	if (*(*[2]byte)(unsafe.Pointer(&probe)))[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}()

// NativeOrder returns the byte order of the host.
func NativeOrder() binary.ByteOrder {
	return nativeOrder
}

// ParseByteOrder maps a byte order token to the corresponding binary.ByteOrder.
// "BE" selects big endian, "LE" little endian, any other token selects the
// host's native order.
func ParseByteOrder(token string) binary.ByteOrder {
	switch token {
	case TokenBigEndian:
		return binary.BigEndian
	case TokenLittleEndian:
		return binary.LittleEndian
	default:
		return nativeOrder
	}
}
