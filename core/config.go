/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"fmt"
	"math"

	"github.com/pelletier/go-toml"
)

var config *toml.Tree

// LoadConfig loads the forwarder configuration from the specified configuration file.
func LoadConfig(file string) error {
	tree, err := toml.LoadFile(file)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}
	config = tree
	return nil
}

// LoadConfigString loads the configuration from a TOML document.
func LoadConfigString(doc string) error {
	tree, err := toml.Load(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}
	config = tree
	return nil
}

// ResetConfig drops the loaded configuration so every getter returns its default.
func ResetConfig() {
	config = nil
}

func getConfigValue(key string) interface{} {
	if config == nil {
		return nil
	}
	return config.Get(key)
}

func getConfigArray(key string) interface{} {
	if config == nil || !config.Has(key) {
		return nil
	}
	return config.GetArray(key)
}

// GetConfigArray reads the array at key with get. It returns nil without error when the key is
// absent, and ErrConfigFormat when the key is present but get cannot read it.
func GetConfigArray[T any](key string, get func(key string) []T) ([]T, error) {
	if v := get(key); v != nil {
		return v, nil
	}
	if config != nil && config.Has(key) {
		return nil, fmt.Errorf("%w: %s", ErrConfigFormat, key)
	}
	return nil, nil
}

// GetConfigIntDefault returns the integer configuration value at the specified key or the specified default value if it does not exist.
func GetConfigIntDefault(key string, def int) int {
	val, ok := getConfigValue(key).(int64)
	if ok && val >= math.MinInt32 && val <= math.MaxInt32 {
		return int(val)
	}
	return def
}

// GetConfigStringDefault returns the string configuration value at the specified key or the specified default value if it does not exist.
func GetConfigStringDefault(key string, def string) string {
	if val, ok := getConfigValue(key).(string); ok {
		return val
	}
	return def
}

// GetConfigBoolDefault returns the boolean configuration value at the specified key or def.
func GetConfigBoolDefault(key string, def bool) bool {
	if val, ok := getConfigValue(key).(bool); ok {
		return val
	}
	return def
}

// GetConfigFloatDefault returns the float configuration value at the specified key or def.
// Integer values are accepted and widened.
func GetConfigFloatDefault(key string, def float64) float64 {
	switch val := getConfigValue(key).(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	}
	return def
}

// GetConfigArrayString returns the configuration array value at the specified key or nil if it does not exist.
func GetConfigArrayString(key string) []string {
	switch array := getConfigArray(key).(type) {
	case []string:
		return array
	case []interface{}:
		ret := make([]string, 0, len(array))
		for _, v := range array {
			s, ok := v.(string)
			if !ok {
				return nil
			}
			ret = append(ret, s)
		}
		return ret
	}
	return nil
}

// GetConfigArrayFloat returns the numeric array at the specified key, or nil.
func GetConfigArrayFloat(key string) []float64 {
	switch array := getConfigArray(key).(type) {
	case []float64:
		return array
	case []int64:
		ret := make([]float64, len(array))
		for i, v := range array {
			ret[i] = float64(v)
		}
		return ret
	case []interface{}:
		ret := make([]float64, 0, len(array))
		for _, v := range array {
			switch n := v.(type) {
			case float64:
				ret = append(ret, n)
			case int64:
				ret = append(ret, float64(n))
			default:
				return nil
			}
		}
		return ret
	}
	return nil
}

// GetConfigArrayInt returns the integer array at the specified key, or nil.
func GetConfigArrayInt(key string) []int {
	array, ok := getConfigArray(key).([]int64)
	if !ok {
		return nil
	}
	ret := make([]int, len(array))
	for i, v := range array {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil
		}
		ret[i] = int(v)
	}
	return ret
}
