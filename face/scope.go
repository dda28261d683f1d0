/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import "github.com/named-data/qosfwd/ndn"

var localhostPrefix = ndn.MustNameFromString("/localhost")

// IsLocalhostName returns whether the name is under /localhost.
func IsLocalhostName(name ndn.Name) bool {
	return localhostPrefix.PrefixOf(name)
}

// WouldViolateScope returns whether sending a packet with this name on link leaks a /localhost name off the host.
func WouldViolateScope(name ndn.Name, link Link) bool {
	return link.Scope() == ScopeNonLocal && IsLocalhostName(name)
}
