/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import "errors"

// ErrInvalidRoute is returned for a malformed static route.
var ErrInvalidRoute = errors.New("invalid route")
