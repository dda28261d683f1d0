/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import "errors"

// Packet errors.
var (
	ErrInvalidName     = errors.New("malformed name")
	ErrMissingName     = errors.New("packet has no name")
	ErrUnknownPacket   = errors.New("unknown packet type")
	ErrMissingFragment = errors.New("link-layer packet has no fragment")
)
