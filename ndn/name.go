/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/named-data/qosfwd/ndn/tlv"
)

// Component is a single NDN name component.
type Component struct {
	Typ uint64
	Val []byte
}

// NewGenericComponent creates a generic name component holding value.
func NewGenericComponent(value string) Component {
	return Component{Typ: tlv.GenericNameComponent, Val: []byte(value)}
}

func (c Component) String() string {
	var sb strings.Builder
	if c.Typ != tlv.GenericNameComponent {
		sb.WriteString(strconv.FormatUint(c.Typ, 10))
		sb.WriteByte('=')
	}
	for _, b := range c.Val {
		if isUnreserved(b) {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "%%%02X", b)
		}
	}
	return sb.String()
}

// Equals returns whether both components have the same type and value.
func (c Component) Equals(other Component) bool {
	return c.Typ == other.Typ && bytes.Equal(c.Val, other.Val)
}

func (c Component) encode(buf []byte) []byte {
	return tlv.Append(buf, c.Typ, c.Val)
}

func isUnreserved(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') ||
		b == '-' || b == '.' || b == '_' || b == '~'
}

// Name is an NDN name: an ordered sequence of components.
type Name []Component

// NameFromString parses a URI-style name such as "/app/typeI/seq=1".
func NameFromString(str string) (Name, error) {
	str = strings.TrimPrefix(str, "ndn:")
	if !strings.HasPrefix(str, "/") {
		return nil, ErrInvalidName
	}
	name := make(Name, 0, 4)
	for _, part := range strings.Split(strings.Trim(str, "/"), "/") {
		if part == "" {
			continue
		}
		comp := Component{Typ: tlv.GenericNameComponent}
		if i := strings.IndexByte(part, '='); i > 0 {
			if typ, err := strconv.ParseUint(part[:i], 10, 16); err == nil {
				comp.Typ = typ
				part = part[i+1:]
			}
		}
		val, err := unescapeComponent(part)
		if err != nil {
			return nil, err
		}
		comp.Val = val
		name = append(name, comp)
	}
	return name, nil
}

func unescapeComponent(in string) ([]byte, error) {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] != '%' {
			out = append(out, in[i])
			continue
		}
		if i+2 >= len(in) {
			return nil, ErrInvalidName
		}
		b, err := strconv.ParseUint(in[i+1:i+3], 16, 8)
		if err != nil {
			return nil, ErrInvalidName
		}
		out = append(out, byte(b))
		i += 2
	}
	return out, nil
}

// MustNameFromString is NameFromString that panics on malformed input. Meant for tests and constants.
func MustNameFromString(str string) Name {
	name, err := NameFromString(str)
	if err != nil {
		panic(err)
	}
	return name
}

func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, c := range n {
		sb.WriteByte('/')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// At returns the component at index, with negative indices counting from the end.
// ok is false when the index is out of range.
func (n Name) At(index int) (Component, bool) {
	if index < 0 {
		index += len(n)
	}
	if index < 0 || index >= len(n) {
		return Component{}, false
	}
	return n[index], true
}

// Prefix returns the first size components. Negative sizes drop components from the end.
func (n Name) Prefix(size int) Name {
	if size < 0 {
		size += len(n)
	}
	if size <= 0 {
		return Name{}
	}
	if size >= len(n) {
		return n
	}
	return n[:size]
}

// Equals returns whether both names have identical components.
func (n Name) Equals(other Name) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if !n[i].Equals(other[i]) {
			return false
		}
	}
	return true
}

// PrefixOf returns whether n is a prefix of (or equal to) other.
func (n Name) PrefixOf(other Name) bool {
	if len(n) > len(other) {
		return false
	}
	for i := range n {
		if !n[i].Equals(other[i]) {
			return false
		}
	}
	return true
}

// Hash returns a hash of the name suitable for table lookups.
func (n Name) Hash() uint64 {
	h := xxhash.New()
	for _, c := range n {
		h.Write(tlv.EncodeVarNum(c.Typ))
		h.Write(tlv.EncodeVarNum(uint64(len(c.Val))))
		h.Write(c.Val)
	}
	return h.Sum64()
}

// Encode returns the Name TLV.
func (n Name) Encode() []byte {
	var value []byte
	for _, c := range n {
		value = c.encode(value)
	}
	return tlv.Append(nil, tlv.Name, value)
}

// DecodeName decodes the value of a Name TLV.
func DecodeName(value []byte) (Name, error) {
	elems, err := tlv.ParseElements(value)
	if err != nil {
		return nil, err
	}
	name := make(Name, len(elems))
	for i, elem := range elems {
		name[i] = Component{Typ: elem.Type, Val: elem.Value}
	}
	return name, nil
}
