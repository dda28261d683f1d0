/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import "github.com/named-data/qosfwd/ndn"

// nameTreeNode is a node of a component-per-level name tree.
type nameTreeNode[V any] struct {
	component ndn.Component
	name      ndn.Name
	depth     int

	parent   *nameTreeNode[V]
	children []*nameTreeNode[V]

	value V
}

// nameTree stores one value per name. isEmpty reports values that allow a leaf to be pruned.
type nameTree[V any] struct {
	root    *nameTreeNode[V]
	isEmpty func(V) bool
}

func newNameTree[V any](isEmpty func(V) bool) nameTree[V] {
	// Root represents zero components
	return nameTree[V]{root: &nameTreeNode[V]{name: ndn.Name{}}, isEmpty: isEmpty}
}

// findExactMatch returns the node for name, or nil if there is none.
func (n *nameTreeNode[V]) findExactMatch(name ndn.Name) *nameTreeNode[V] {
	if len(name) > n.depth {
		for _, child := range n.children {
			if name[child.depth-1].Equals(child.component) {
				return child.findExactMatch(name)
			}
		}
	} else if len(name) == n.depth {
		return n
	}
	return nil
}

// findLongestPrefix returns the deepest existing node on the path of name.
func (n *nameTreeNode[V]) findLongestPrefix(name ndn.Name) *nameTreeNode[V] {
	if len(name) > n.depth {
		for _, child := range n.children {
			if name[child.depth-1].Equals(child.component) {
				return child.findLongestPrefix(name)
			}
		}
	}
	return n
}

// fill adds nodes for any missing components of name and returns its node.
func (t *nameTree[V]) fill(name ndn.Name) *nameTreeNode[V] {
	curNode := t.root.findLongestPrefix(name)
	for depth := curNode.depth + 1; depth <= len(name); depth++ {
		newNode := &nameTreeNode[V]{
			component: name[depth-1],
			name:      name[:depth:depth],
			depth:     depth,
			parent:    curNode,
		}
		curNode.children = append(curNode.children, newNode)
		curNode = newNode
	}
	return curNode
}

// prune removes nodes that no longer carry children or a value, walking up from n.
func (t *nameTree[V]) prune(n *nameTreeNode[V]) {
	for curNode := n; curNode.parent != nil && len(curNode.children) == 0 && t.isEmpty(curNode.value); curNode = curNode.parent {
		siblings := curNode.parent.children
		for i, child := range siblings {
			if child == curNode {
				copy(siblings[i:], siblings[i+1:])
				curNode.parent.children = siblings[:len(siblings)-1]
				break
			}
		}
	}
}

// walk visits every node in depth-first order.
func (n *nameTreeNode[V]) walk(visit func(*nameTreeNode[V])) {
	visit(n)
	for _, child := range n.children {
		child.walk(visit)
	}
}
