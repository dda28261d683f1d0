/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "errors"

// Error definitions
var (
	ErrLogFile      = errors.New("unable to open log file")
	ErrConfigLoad   = errors.New("unable to load configuration")
	ErrConfigFormat = errors.New("configuration value has the wrong type")
)
