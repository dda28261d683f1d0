/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/ndn"
)

// deadNonceListLifetime is the lifetime of entries in the dead nonce list.
var deadNonceListLifetime = 6 * time.Second

// deadNonceListCapacity is the expected number of nonces per bloom filter generation.
var deadNonceListCapacity uint = 10000

// Configure configures the tables.
func Configure() {
	deadNonceListLifetime = time.Duration(core.GetConfigIntDefault("tables.dead_nonce_list.lifetime", 6000)) * time.Millisecond
	deadNonceListCapacity = uint(core.GetConfigIntDefault("tables.dead_nonce_list.capacity", 10000))
}

// ParseRoute parses a static route of the form "<prefix> <linkID> [cost]".
func ParseRoute(route string) (ndn.Name, uint64, uint64, error) {
	fields := strings.Fields(route)
	if len(fields) < 2 || len(fields) > 3 {
		return nil, 0, 0, fmt.Errorf("%w: %q", ErrInvalidRoute, route)
	}
	name, err := ndn.NameFromString(fields[0])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidRoute, route, err)
	}
	link, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidRoute, route, err)
	}
	var cost uint64
	if len(fields) == 3 {
		if cost, err = strconv.ParseUint(fields[2], 10, 64); err != nil {
			return nil, 0, 0, fmt.Errorf("%w: %q: %v", ErrInvalidRoute, route, err)
		}
	}
	return name, link, cost, nil
}

// LoadRoutes inserts the static routes listed under fib.routes.
func LoadRoutes(fib *Fib) error {
	for _, route := range core.GetConfigArrayString("fib.routes") {
		name, link, cost, err := ParseRoute(route)
		if err != nil {
			return err
		}
		fib.InsertNextHop(name, link, cost)
		core.LogDebug("Fib", "Added static route ", name, " via LinkID=", link, " cost=", cost)
	}
	return nil
}
