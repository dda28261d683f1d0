/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tlv

import (
	"encoding/binary"
	"math"
)

// EncodeVarNum encodes a non-negative integer value for encoding.
func EncodeVarNum(in uint64) []byte {
	switch {
	case in <= 0xFC:
		return []byte{byte(in)}
	case in <= 0xFFFF:
		bytes := make([]byte, 3)
		bytes[0] = 0xFD
		binary.BigEndian.PutUint16(bytes[1:], uint16(in))
		return bytes
	case in <= 0xFFFFFFFF:
		bytes := make([]byte, 5)
		bytes[0] = 0xFE
		binary.BigEndian.PutUint32(bytes[1:], uint32(in))
		return bytes
	default:
		bytes := make([]byte, 9)
		bytes[0] = 0xFF
		binary.BigEndian.PutUint64(bytes[1:], in)
		return bytes
	}
}

// DecodeVarNum decodes a non-negative integer value from a wire value, returning the value and its encoded size.
func DecodeVarNum(in []byte) (uint64, int, error) {
	if len(in) < 1 {
		return 0, 0, ErrBufferTooShort
	}

	switch in[0] {
	case 0xFD:
		if len(in) < 3 {
			return 0, 0, ErrBufferTooShort
		}
		return uint64(binary.BigEndian.Uint16(in[1:3])), 3, nil
	case 0xFE:
		if len(in) < 5 {
			return 0, 0, ErrBufferTooShort
		}
		return uint64(binary.BigEndian.Uint32(in[1:5])), 5, nil
	case 0xFF:
		if len(in) < 9 {
			return 0, 0, ErrBufferTooShort
		}
		return binary.BigEndian.Uint64(in[1:9]), 9, nil
	default:
		return uint64(in[0]), 1, nil
	}
}

// EncodeNNI encodes a non-negative integer value into a TLV value slice.
func EncodeNNI(v uint64) []byte {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, v)

	if v <= math.MaxUint8 {
		return value[7:]
	} else if v <= math.MaxUint16 {
		return value[6:]
	} else if v <= math.MaxUint32 {
		return value[4:]
	}
	return value
}

// DecodeNNI decodes a non-negative integer value from a TLV value slice.
func DecodeNNI(value []byte) (uint64, error) {
	switch len(value) {
	case 1:
		return uint64(value[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(value)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(value)), nil
	case 8:
		return binary.BigEndian.Uint64(value), nil
	case 0:
		return 0, ErrBufferTooShort
	}
	return 0, ErrInvalidNNI
}
