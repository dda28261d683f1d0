/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/named-data/qosfwd/core"
	"golang.org/x/exp/slices"
)

// Table holds all links used by the forwarder.
type Table struct {
	links      *hashmap.HashMap
	nextLinkID atomic.Uint64
}

// NewTable creates an empty link table. Link IDs start at 1.
func NewTable() *Table {
	t := &Table{links: hashmap.New(64)}
	t.nextLinkID.Store(1)
	return t
}

// Add registers a link, assigning it the next free link ID.
func (t *Table) Add(link RegistrableLink) uint64 {
	linkID := t.nextLinkID.Add(1) - 1
	link.SetID(linkID)
	t.links.Set(linkID, link)
	core.LogDebug("LinkTable", "Registered LinkID=", linkID, " ", link)
	return linkID
}

// Get returns the link with the specified ID, or nil.
func (t *Table) Get(id uint64) Link {
	link, ok := t.links.Get(id)
	if !ok {
		return nil
	}
	return link.(Link)
}

// GetAll returns all links in ascending ID order.
func (t *Table) GetAll() []Link {
	links := make([]Link, 0, t.links.Len())
	for kv := range t.links.Iter() {
		links = append(links, kv.Value.(Link))
	}
	slices.SortFunc(links, func(a, b Link) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return links
}

// Len returns the number of registered links.
func (t *Table) Len() int {
	return t.links.Len()
}

// Remove unregisters a link.
func (t *Table) Remove(id uint64) {
	t.links.Del(id)
	core.LogDebug("LinkTable", "Unregistered LinkID=", id)
}
