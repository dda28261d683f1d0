/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import "errors"

// Scheduling errors.
var (
	ErrEmptyQueue      = errors.New("queue is empty")
	ErrClassOutOfRange = errors.New("priority class out of range")
	ErrInvalidOptions  = errors.New("invalid QoS options")
)
