// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the
// artifact refetch watcher.
//
// Production code receives [Real]; tests receive [Fake], whose time
// only moves when Advance is called. A test starts the watcher,
// waits until its ticker is registered, then advances deterministically:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go watcher.Run(ctx)
//	c.WaitForTickers(1)
//	c.Advance(time.Second)
package clock
