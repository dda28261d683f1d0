/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core_test

import (
	"testing"

	"github.com/named-data/qosfwd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsWithoutFile(t *testing.T) {
	core.ResetConfig()
	assert.Equal(t, 7, core.GetConfigIntDefault("fw.queue_size", 7))
	assert.Equal(t, "INFO", core.GetConfigStringDefault("core.log_level", "INFO"))
	assert.True(t, core.GetConfigBoolDefault("qos.mitigation.enabled", true))
	assert.Equal(t, 0.5, core.GetConfigFloatDefault("qos.reliability.beta", 0.5))
	assert.Nil(t, core.GetConfigArrayString("fib.routes"))
	assert.Nil(t, core.GetConfigArrayFloat("qos.weights"))
}

func TestConfigTypedGetters(t *testing.T) {
	require.NoError(t, core.LoadConfigString(`
[core]
log_level = "DEBUG"

[qos]
weights = [3, 2, 1]
queue_capacity = [10, 20, 30]
refill = 2

[qos.tiers]
targets = [1.0, 1.0, 0.4]

[qos.reliability]
beta = 0.833

[qos.mitigation]
enabled = true

[fib]
routes = ["/a 2 10", "/b 3 0"]
`))
	defer core.ResetConfig()

	assert.Equal(t, "DEBUG", core.GetConfigStringDefault("core.log_level", "INFO"))
	assert.Equal(t, []float64{3, 2, 1}, core.GetConfigArrayFloat("qos.weights"))
	assert.Equal(t, []int{10, 20, 30}, core.GetConfigArrayInt("qos.queue_capacity"))
	assert.Equal(t, []float64{1, 1, 0.4}, core.GetConfigArrayFloat("qos.tiers.targets"))
	assert.Equal(t, 2.0, core.GetConfigFloatDefault("qos.refill", 1))
	assert.Equal(t, 2, core.GetConfigIntDefault("qos.refill", 1))
	assert.Equal(t, 0.833, core.GetConfigFloatDefault("qos.reliability.beta", 0))
	assert.True(t, core.GetConfigBoolDefault("qos.mitigation.enabled", false))
	assert.Equal(t, []string{"/a 2 10", "/b 3 0"}, core.GetConfigArrayString("fib.routes"))

	// Wrong type falls back to the default
	assert.Equal(t, 5, core.GetConfigIntDefault("core.log_level", 5))
	assert.Nil(t, core.GetConfigArrayInt("qos.tiers.targets"))
}

func TestConfigArrayFormat(t *testing.T) {
	require.NoError(t, core.LoadConfigString(`
[qos]
weights = [3, 2, 1]
queue_capacity = [10.5, 2.5]
markers = "typeI"
`))
	defer core.ResetConfig()

	weights, err := core.GetConfigArray("qos.weights", core.GetConfigArrayFloat)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 1}, weights)

	missing, err := core.GetConfigArray("qos.bucket_refill", core.GetConfigArrayFloat)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = core.GetConfigArray("qos.queue_capacity", core.GetConfigArrayInt)
	assert.ErrorIs(t, err, core.ErrConfigFormat)
	_, err = core.GetConfigArray("qos.markers", core.GetConfigArrayString)
	assert.ErrorIs(t, err, core.ErrConfigFormat)
}

func TestConfigLoadErrors(t *testing.T) {
	assert.ErrorIs(t, core.LoadConfigString("not = [valid"), core.ErrConfigLoad)
	assert.ErrorIs(t, core.LoadConfig("/nonexistent/qosfwd.toml"), core.ErrConfigLoad)
}
