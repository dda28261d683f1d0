/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tlv

// Element is a single decoded TLV. Value aliases the decoded buffer.
type Element struct {
	Type  uint64
	Value []byte
}

// Append appends the type, length and value of a TLV onto buf.
func Append(buf []byte, tlvType uint64, value []byte) []byte {
	buf = append(buf, EncodeVarNum(tlvType)...)
	buf = append(buf, EncodeVarNum(uint64(len(value)))...)
	return append(buf, value...)
}

// AppendNNI appends a TLV whose value is a non-negative integer.
func AppendNNI(buf []byte, tlvType uint64, v uint64) []byte {
	return Append(buf, tlvType, EncodeNNI(v))
}

// DecodeElement decodes the first TLV of wire and returns it with its total encoded size.
func DecodeElement(wire []byte) (Element, int, error) {
	tlvType, typeLen, err := DecodeVarNum(wire)
	if err != nil {
		return Element{}, 0, err
	}
	if typeLen == len(wire) {
		return Element{}, 0, ErrMissingLength
	}
	tlvLength, lengthLen, err := DecodeVarNum(wire[typeLen:])
	if err != nil {
		return Element{}, 0, err
	}
	start := uint64(typeLen + lengthLen)
	if uint64(len(wire))-start < tlvLength {
		return Element{}, 0, ErrBufferTooShort
	}
	end := start + tlvLength
	return Element{Type: tlvType, Value: wire[start:end]}, int(end), nil
}

// ParseElements decodes a concatenation of TLVs.
func ParseElements(value []byte) ([]Element, error) {
	elems := make([]Element, 0, 4)
	for pos := 0; pos < len(value); {
		elem, size, err := DecodeElement(value[pos:])
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		pos += size
	}
	return elems, nil
}
