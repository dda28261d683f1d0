/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

// Scope indicates whether a link is local or non-local.
type Scope int

const (
	// ScopeUnknown is an unknown scope.
	ScopeUnknown Scope = -1
	// ScopeNonLocal is a link to another forwarder.
	ScopeNonLocal Scope = 0
	// ScopeLocal is a link to an application on the same host.
	ScopeLocal Scope = 1
)

func (s Scope) String() string {
	switch s {
	case ScopeNonLocal:
		return "non-local"
	case ScopeLocal:
		return "local"
	}
	return "unknown"
}

// LinkType indicates the number of peers reachable through a link.
type LinkType int

const (
	// PointToPoint reaches exactly one peer.
	PointToPoint LinkType = iota
	// MultiAccess reaches a broadcast domain.
	MultiAccess
	// AdHoc is a wireless ad hoc link, where packets may be sent back out the link they arrived on.
	AdHoc
)

func (t LinkType) String() string {
	switch t {
	case PointToPoint:
		return "point-to-point"
	case MultiAccess:
		return "multi-access"
	case AdHoc:
		return "ad-hoc"
	}
	return "unknown"
}

// ParseLinkType parses the names produced by LinkType.String.
func ParseLinkType(s string) (LinkType, bool) {
	switch s {
	case "point-to-point", "":
		return PointToPoint, true
	case "multi-access":
		return MultiAccess, true
	case "ad-hoc":
		return AdHoc, true
	}
	return PointToPoint, false
}
