/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import "errors"

// ErrInvalidTopology indicates a malformed or inconsistent topology.
var ErrInvalidTopology = errors.New("invalid topology")
