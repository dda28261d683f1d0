/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"time"

	"github.com/named-data/qosfwd/ndn/tlv"
)

// PacketKind identifies what a queued or received packet is.
type PacketKind uint8

// Packet kinds.
const (
	KindRequest PacketKind = iota
	KindResponse
	KindNack
)

func (k PacketKind) String() string {
	switch k {
	case KindRequest:
		return "Interest"
	case KindResponse:
		return "Data"
	case KindNack:
		return "Nack"
	}
	return "Unknown"
}

// NackReason is the reason carried in a negative acknowledgement.
type NackReason uint64

// Nack reasons.
const (
	NackReasonNone       NackReason = 0
	NackReasonCongestion NackReason = 50
	NackReasonDuplicate  NackReason = 100
	NackReasonNoRoute    NackReason = 150
)

func (r NackReason) String() string {
	switch r {
	case NackReasonCongestion:
		return "Congestion"
	case NackReasonDuplicate:
		return "Duplicate"
	case NackReasonNoRoute:
		return "NoRoute"
	}
	return "None"
}

// DefaultInterestLifetime applies when an Interest carries no lifetime.
const DefaultInterestLifetime = 4 * time.Second

// MaxInterestLifetime bounds the lifetime decoded from the wire.
const MaxInterestLifetime = time.Hour

// Interest is a request for named content.
type Interest struct {
	Name     Name
	Nonce    uint32
	Lifetime time.Duration
	HopLimit *uint8
}

// Data is a named response.
type Data struct {
	Name    Name
	Content []byte
}

// Packet is a decoded network-layer packet. Exactly one of Interest or Data is set;
// NackReason is meaningful only for KindNack, whose Interest is the rejected request.
type Packet struct {
	Kind       PacketKind
	Interest   *Interest
	Data       *Data
	NackReason NackReason
	Wire       []byte
}

// Name returns the name of the carried Interest or Data.
func (p *Packet) Name() Name {
	if p.Data != nil {
		return p.Data.Name
	}
	if p.Interest != nil {
		return p.Interest.Name
	}
	return nil
}

// Encode encodes the Interest.
func (i *Interest) Encode() []byte {
	value := i.Name.Encode()
	nonce := make([]byte, 4)
	nonce[0] = byte(i.Nonce >> 24)
	nonce[1] = byte(i.Nonce >> 16)
	nonce[2] = byte(i.Nonce >> 8)
	nonce[3] = byte(i.Nonce)
	value = tlv.Append(value, tlv.Nonce, nonce)
	if i.Lifetime > 0 && i.Lifetime != DefaultInterestLifetime {
		value = tlv.AppendNNI(value, tlv.InterestLifetime, uint64(i.Lifetime.Milliseconds()))
	}
	if i.HopLimit != nil {
		value = tlv.Append(value, tlv.HopLimit, []byte{*i.HopLimit})
	}
	return tlv.Append(nil, tlv.Interest, value)
}

// Encode encodes the Data.
func (d *Data) Encode() []byte {
	value := d.Name.Encode()
	value = tlv.Append(value, tlv.Content, d.Content)
	return tlv.Append(nil, tlv.Data, value)
}

// EncodeNack wraps the Interest wire in a link-layer packet carrying a Nack header.
func EncodeNack(interestWire []byte, reason NackReason) []byte {
	var value []byte
	value = tlv.Append(value, tlv.Nack, tlv.Append(nil, tlv.NackReason, tlv.EncodeNNI(uint64(reason))))
	value = tlv.Append(value, tlv.Fragment, interestWire)
	return tlv.Append(nil, tlv.LpPacket, value)
}

// DecodePacket decodes an Interest, a Data or a Nack-bearing link-layer packet.
func DecodePacket(wire []byte) (*Packet, error) {
	outer, size, err := tlv.DecodeElement(wire)
	if err != nil {
		return nil, err
	}
	wire = wire[:size]

	switch outer.Type {
	case tlv.Interest:
		interest, err := decodeInterest(outer.Value)
		if err != nil {
			return nil, err
		}
		return &Packet{Kind: KindRequest, Interest: interest, Wire: wire}, nil
	case tlv.Data:
		data, err := decodeData(outer.Value)
		if err != nil {
			return nil, err
		}
		return &Packet{Kind: KindResponse, Data: data, Wire: wire}, nil
	case tlv.LpPacket:
		return decodeLpPacket(outer.Value, wire)
	}
	return nil, ErrUnknownPacket
}

func decodeInterest(value []byte) (*Interest, error) {
	elems, err := tlv.ParseElements(value)
	if err != nil {
		return nil, err
	}
	interest := &Interest{Lifetime: DefaultInterestLifetime}
	hasName := false
	for _, elem := range elems {
		switch elem.Type {
		case tlv.Name:
			if interest.Name, err = DecodeName(elem.Value); err != nil {
				return nil, err
			}
			hasName = true
		case tlv.Nonce:
			if len(elem.Value) != 4 {
				return nil, tlv.ErrUnexpected
			}
			interest.Nonce = uint32(elem.Value[0])<<24 | uint32(elem.Value[1])<<16 |
				uint32(elem.Value[2])<<8 | uint32(elem.Value[3])
		case tlv.InterestLifetime:
			ms, err := tlv.DecodeNNI(elem.Value)
			if err != nil {
				return nil, err
			}
			if ms > uint64(MaxInterestLifetime/time.Millisecond) {
				interest.Lifetime = MaxInterestLifetime
			} else {
				interest.Lifetime = time.Duration(ms) * time.Millisecond
			}
		case tlv.HopLimit:
			if len(elem.Value) != 1 {
				return nil, tlv.ErrUnexpected
			}
			hopLimit := elem.Value[0]
			interest.HopLimit = &hopLimit
		}
	}
	if !hasName {
		return nil, ErrMissingName
	}
	return interest, nil
}

func decodeData(value []byte) (*Data, error) {
	elems, err := tlv.ParseElements(value)
	if err != nil {
		return nil, err
	}
	data := new(Data)
	hasName := false
	for _, elem := range elems {
		switch elem.Type {
		case tlv.Name:
			if data.Name, err = DecodeName(elem.Value); err != nil {
				return nil, err
			}
			hasName = true
		case tlv.Content:
			data.Content = elem.Value
		}
	}
	if !hasName {
		return nil, ErrMissingName
	}
	return data, nil
}

func decodeLpPacket(value []byte, wire []byte) (*Packet, error) {
	elems, err := tlv.ParseElements(value)
	if err != nil {
		return nil, err
	}
	var fragment []byte
	isNack := false
	reason := NackReasonNone
	for _, elem := range elems {
		switch elem.Type {
		case tlv.Nack:
			isNack = true
			inner, err := tlv.ParseElements(elem.Value)
			if err != nil {
				return nil, err
			}
			for _, field := range inner {
				if field.Type == tlv.NackReason {
					r, err := tlv.DecodeNNI(field.Value)
					if err != nil {
						return nil, err
					}
					reason = NackReason(r)
				}
			}
		case tlv.Fragment:
			fragment = elem.Value
		}
	}
	if fragment == nil {
		return nil, ErrMissingFragment
	}
	if !isNack {
		return DecodePacket(fragment)
	}

	inner, size, err := tlv.DecodeElement(fragment)
	if err != nil {
		return nil, err
	}
	if inner.Type != tlv.Interest || size != len(fragment) {
		return nil, tlv.ErrUnexpected
	}
	interest, err := decodeInterest(inner.Value)
	if err != nil {
		return nil, err
	}
	return &Packet{Kind: KindNack, Interest: interest, NackReason: reason, Wire: wire}, nil
}
