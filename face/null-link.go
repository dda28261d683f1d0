/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import "strconv"

// NullLink is a link that drops all packets.
type NullLink struct {
	LinkBase
}

// NewNullLink makes a NullLink.
func NewNullLink() *NullLink {
	return &NullLink{LinkBase: MakeLinkBase(ScopeLocal, PointToPoint)}
}

func (l *NullLink) String() string {
	return "NullLink, LinkID=" + strconv.FormatUint(l.id, 10)
}

// Send drops the frame.
func (l *NullLink) Send(frame []byte) error {
	l.countOut(frame)
	return nil
}
