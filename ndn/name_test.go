/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn_test

import (
	"testing"

	"github.com/named-data/qosfwd/ndn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFromString(t *testing.T) {
	name, err := ndn.NameFromString("/app/typeI/seq%3D1")
	require.NoError(t, err)
	require.Len(t, name, 3)
	assert.Equal(t, "app", string(name[0].Val))
	assert.Equal(t, "typeI", string(name[1].Val))
	assert.Equal(t, "seq=1", string(name[2].Val))
	assert.Equal(t, "/app/typeI/seq%3D1", name.String())

	name, err = ndn.NameFromString("/")
	require.NoError(t, err)
	assert.Len(t, name, 0)
	assert.Equal(t, "/", name.String())

	name, err = ndn.NameFromString("/32=ver/x")
	require.NoError(t, err)
	assert.Equal(t, uint64(32), name[0].Typ)
	assert.Equal(t, "/32=ver/x", name.String())

	_, err = ndn.NameFromString("relative")
	assert.ErrorIs(t, err, ndn.ErrInvalidName)
	_, err = ndn.NameFromString("/bad%G1")
	assert.ErrorIs(t, err, ndn.ErrInvalidName)
}

func TestNamePrefixAndAt(t *testing.T) {
	name := ndn.MustNameFromString("/a/b/c")
	assert.True(t, ndn.MustNameFromString("/a/b").Equals(name.Prefix(2)))
	assert.True(t, ndn.MustNameFromString("/a/b").Equals(name.Prefix(-1)))
	assert.Len(t, name.Prefix(-5), 0)
	assert.True(t, name.Equals(name.Prefix(10)))

	c, ok := name.At(-1)
	assert.True(t, ok)
	assert.Equal(t, "c", string(c.Val))
	_, ok = name.At(3)
	assert.False(t, ok)

	assert.True(t, ndn.MustNameFromString("/a").PrefixOf(name))
	assert.True(t, ndn.Name{}.PrefixOf(name))
	assert.False(t, ndn.MustNameFromString("/a/c").PrefixOf(name))
	assert.False(t, name.PrefixOf(ndn.MustNameFromString("/a")))
}

func TestNameHash(t *testing.T) {
	a := ndn.MustNameFromString("/a/bc")
	b := ndn.MustNameFromString("/ab/c")
	assert.Equal(t, a.Hash(), ndn.MustNameFromString("/a/bc").Hash())
	assert.NotEqual(t, a.Hash(), b.Hash())
}
