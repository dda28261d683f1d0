/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"sync"

	"github.com/named-data/qosfwd/ndn"
	"golang.org/x/exp/slices"
)

// FibNextHopEntry represents a nexthop in a FIB entry.
type FibNextHopEntry struct {
	Nexthop uint64
	Cost    uint64
}

// FibEntry is a snapshot of the nexthops registered for one prefix.
type FibEntry struct {
	Name     ndn.Name
	NextHops []FibNextHopEntry
}

// Fib is the forwarding table, shared between the forwarding thread and configuration.
type Fib struct {
	tree  nameTree[[]FibNextHopEntry]
	mutex sync.RWMutex
}

// NewFib creates an empty FIB.
func NewFib() *Fib {
	return &Fib{tree: newNameTree(func(nexthops []FibNextHopEntry) bool { return len(nexthops) == 0 })}
}

// FindNextHops returns the nexthops of the longest prefix of name that has any, in ascending cost order.
func (f *Fib) FindNextHops(name ndn.Name) []FibNextHopEntry {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	// Step back up from the longest prefix until a node with nexthops
	for curNode := f.tree.root.findLongestPrefix(name); curNode != nil; curNode = curNode.parent {
		if len(curNode.value) > 0 {
			return slices.Clone(curNode.value)
		}
	}
	return nil
}

// InsertNextHop adds or updates a nexthop entry for the specified prefix.
func (f *Fib) InsertNextHop(name ndn.Name, nexthop uint64, cost uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	node := f.tree.fill(name)
	for i := range node.value {
		if node.value[i].Nexthop == nexthop {
			node.value[i].Cost = cost
			sortNextHops(node.value)
			return
		}
	}
	node.value = append(node.value, FibNextHopEntry{Nexthop: nexthop, Cost: cost})
	sortNextHops(node.value)
}

// RemoveNextHop removes the specified nexthop entry from the specified prefix.
func (f *Fib) RemoveNextHop(name ndn.Name, nexthop uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	node := f.tree.root.findExactMatch(name)
	if node == nil {
		return
	}
	node.value = slices.DeleteFunc(node.value, func(nh FibNextHopEntry) bool { return nh.Nexthop == nexthop })
	f.tree.prune(node)
}

// ClearNextHops clears all nexthops for the specified prefix.
func (f *Fib) ClearNextHops(name ndn.Name) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if node := f.tree.root.findExactMatch(name); node != nil {
		node.value = nil
		f.tree.prune(node)
	}
}

// RemoveLink removes every nexthop pointing at link.
func (f *Fib) RemoveLink(link uint64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	emptied := make([]*nameTreeNode[[]FibNextHopEntry], 0)
	f.tree.root.walk(func(n *nameTreeNode[[]FibNextHopEntry]) {
		before := len(n.value)
		n.value = slices.DeleteFunc(n.value, func(nh FibNextHopEntry) bool { return nh.Nexthop == link })
		if before > 0 && len(n.value) == 0 {
			emptied = append(emptied, n)
		}
	})
	for _, n := range emptied {
		f.tree.prune(n)
	}
}

// Entries returns all prefixes with nexthops.
func (f *Fib) Entries() []FibEntry {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	entries := make([]FibEntry, 0)
	f.tree.root.walk(func(n *nameTreeNode[[]FibNextHopEntry]) {
		if len(n.value) > 0 {
			entries = append(entries, FibEntry{Name: n.name, NextHops: slices.Clone(n.value)})
		}
	})
	return entries
}

func sortNextHops(nexthops []FibNextHopEntry) {
	slices.SortStableFunc(nexthops, func(a, b FibNextHopEntry) int {
		switch {
		case a.Cost < b.Cost:
			return -1
		case a.Cost > b.Cost:
			return 1
		}
		return 0
	})
}
