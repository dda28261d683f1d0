/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tlv

// Packet and element types carried by the forwarder.
const (
	Interest             = 0x05
	Data                 = 0x06
	Name                 = 0x07
	GenericNameComponent = 0x08
	Nonce                = 0x0a
	InterestLifetime     = 0x0c
	Content              = 0x15
	HopLimit             = 0x22
)

// NDNLPv2 types used to frame negative acknowledgements.
const (
	LpPacket   = 0x64
	Fragment   = 0x50
	Nack       = 0xfd0320
	NackReason = 0xfd0321
)
