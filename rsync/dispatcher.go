// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import (
	"context"
	"log/slog"
)

// dispatchQueueSize bounds the per-handle ingress queue. push never blocks
// on the dataset; once the queue is full, push blocks on enqueue only
// (spec.md §4.4/§5).
const dispatchQueueSize = 256

// dispatcher is the per-handle message pipeline (C4, spec.md §4.4): a
// single-producer(-many)/single-consumer queue. Messages belonging to the
// same handle are processed in FIFO order; handler invocations for the
// same handle never overlap.
type dispatcher struct {
	logger *slog.Logger
	engine *Engine
	reg    *registry

	queue chan []byte
	done  chan struct{}
	drain chan struct{}
}

func newDispatcher(logger *slog.Logger, engine *Engine, reg *registry) *dispatcher {
	d := &dispatcher{
		logger: logger,
		engine: engine,
		reg:    reg,
		queue:  make(chan []byte, dispatchQueueSize),
		done:   make(chan struct{}),
		drain:  make(chan struct{}),
	}
	go d.run()
	return d
}

// push enqueues a raw frame buffer. It never blocks on the dataset; when the
// queue is full it waits for the consumer to make room, and it fails once
// the handle is closed (spec.md §4.4).
func (d *dispatcher) push(frame []byte) error {
	select {
	case d.queue <- frame:
		return nil
	case <-d.done:
		return newArgError("handle is closed")
	}
}

// stop signals the consumer to stop after completing the in-flight frame;
// pending frames are dropped (spec.md §5, Cancellation & timeouts).
func (d *dispatcher) stop() {
	close(d.done)
	<-d.drain
}

func (d *dispatcher) run() {
	defer close(d.drain)
	for {
		select {
		case frame := <-d.queue:
			select {
			case <-d.done:
				return
			default:
			}
			d.handle(frame)
		case <-d.done:
			return
		}
	}
}

func (d *dispatcher) handle(frame []byte) {
	in, err := decodeFrame(frame)
	if err != nil {
		d.logger.Warn("rsync: dropping malformed frame", "error", err)
		return
	}

	reg, ok := d.reg.get(in.Component)
	if !ok {
		d.logger.Warn("rsync: dropping frame for unknown sync_id", "sync_id", in.Component)
		return
	}

	d.engine.Process(context.Background(), reg, in)
}
