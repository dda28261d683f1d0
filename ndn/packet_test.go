/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn_test

import (
	"math"
	"testing"
	"time"

	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/ndn/tlv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestEncodeDecode(t *testing.T) {
	hopLimit := uint8(9)
	interest := &ndn.Interest{
		Name:     ndn.MustNameFromString("/app/typeII/1"),
		Nonce:    0xDEADBEEF,
		Lifetime: 1500 * time.Millisecond,
		HopLimit: &hopLimit,
	}
	wire := interest.Encode()
	assert.Equal(t, byte(tlv.Interest), wire[0])

	pkt, err := ndn.DecodePacket(wire)
	require.NoError(t, err)
	assert.Equal(t, ndn.KindRequest, pkt.Kind)
	assert.Equal(t, wire, pkt.Wire)
	assert.True(t, interest.Name.Equals(pkt.Name()))
	assert.Equal(t, uint32(0xDEADBEEF), pkt.Interest.Nonce)
	assert.Equal(t, 1500*time.Millisecond, pkt.Interest.Lifetime)
	require.NotNil(t, pkt.Interest.HopLimit)
	assert.Equal(t, uint8(9), *pkt.Interest.HopLimit)
}

func TestInterestDefaultLifetime(t *testing.T) {
	interest := &ndn.Interest{Name: ndn.MustNameFromString("/a"), Nonce: 1}
	pkt, err := ndn.DecodePacket(interest.Encode())
	require.NoError(t, err)
	assert.Equal(t, ndn.DefaultInterestLifetime, pkt.Interest.Lifetime)
	assert.Nil(t, pkt.Interest.HopLimit)
}

func TestInterestLifetimeClamped(t *testing.T) {
	name := ndn.MustNameFromString("/x/y")
	for _, ms := range []uint64{math.MaxUint64, uint64(ndn.MaxInterestLifetime/time.Millisecond) + 1} {
		value := tlv.AppendNNI(name.Encode(), tlv.InterestLifetime, ms)
		pkt, err := ndn.DecodePacket(tlv.Append(nil, tlv.Interest, value))
		require.NoError(t, err)
		assert.Equal(t, ndn.MaxInterestLifetime, pkt.Interest.Lifetime)
	}
}

func TestDataEncodeDecode(t *testing.T) {
	data := &ndn.Data{Name: ndn.MustNameFromString("/app/typeI/7"), Content: []byte("hello")}
	pkt, err := ndn.DecodePacket(data.Encode())
	require.NoError(t, err)
	assert.Equal(t, ndn.KindResponse, pkt.Kind)
	assert.Equal(t, "/app/typeI/7", pkt.Name().String())
	assert.Equal(t, []byte("hello"), pkt.Data.Content)
}

func TestNackEncodeDecode(t *testing.T) {
	interest := &ndn.Interest{Name: ndn.MustNameFromString("/x/y"), Nonce: 42}
	wire := ndn.EncodeNack(interest.Encode(), ndn.NackReasonNoRoute)

	pkt, err := ndn.DecodePacket(wire)
	require.NoError(t, err)
	assert.Equal(t, ndn.KindNack, pkt.Kind)
	assert.Equal(t, ndn.NackReasonNoRoute, pkt.NackReason)
	assert.Equal(t, uint32(42), pkt.Interest.Nonce)
	assert.Equal(t, "/x/y", pkt.Name().String())
	assert.Equal(t, "NoRoute", pkt.NackReason.String())
}

func TestDecodeMalformed(t *testing.T) {
	_, err := ndn.DecodePacket([]byte{0x05, 0x00})
	assert.ErrorIs(t, err, ndn.ErrMissingName)
	_, err = ndn.DecodePacket([]byte{0x09, 0x00})
	assert.ErrorIs(t, err, ndn.ErrUnknownPacket)
	_, err = ndn.DecodePacket(tlv.Append(nil, tlv.LpPacket, nil))
	assert.ErrorIs(t, err, ndn.ErrMissingFragment)
	_, err = ndn.DecodePacket([]byte{0x05, 0x10, 0x07})
	assert.ErrorIs(t, err, tlv.ErrBufferTooShort)
}
