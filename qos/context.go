/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

// Context is the scheduling state of one forwarding node: the logical tick clock, the
// per-link queues and the per-class token buckets. It is owned by a single forwarding thread.
type Context struct {
	Options Options
	Queues  *QueueSet
	Buckets *BucketPool

	ticks uint64
}

// NewContext validates opts and creates a context for them.
func NewContext(opts Options) (*Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Context{
		Options: opts,
		Queues:  NewQueueSet(&opts),
		Buckets: NewBucketPool(&opts),
	}, nil
}

// Ticks returns the number of ticks elapsed.
func (c *Context) Ticks() uint64 {
	return c.ticks
}

// Tick advances the logical clock, refills the buckets and returns the drain-ready signals.
func (c *Context) Tick() []DrainSignal {
	c.ticks++
	return c.Buckets.Tick()
}

// ForgetLink drops all queues and bucket state of a link. Queued items are discarded and returned.
func (c *Context) ForgetLink(link uint64) []*QueueItem {
	dropped := make([]*QueueItem, 0)
	for class := 0; class < c.Queues.NumClasses(); class++ {
		for !c.Queues.IsEmpty(link, class) {
			item, _ := c.Queues.Dequeue(link, class)
			dropped = append(dropped, item)
		}
	}
	c.Queues.Prune(link)
	c.Buckets.Forget(link)
	return dropped
}
