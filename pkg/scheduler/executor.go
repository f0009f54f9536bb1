/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import (
	"context"
	"sync"
	"time"

	apitypes "k8s.io/apimachinery/pkg/types"
)

// Handler processes a dispatched event; a nil error reports success.
type Handler interface {
	Handle(ctx context.Context, event *Event) error
}

// executor owns all delayed dispatches. It is intentionally sized to a single
// worker, so that reconciliations for distinct uids are serialized and the
// handler needs no per-uid locking. Per uid at most one timer is armed at any
// time; cancelled timers are removed immediately, so coalescing does not leak
// scheduled tasks.
type executor struct {
	handler  Handler
	complete func(event *Event, err error)
	work     chan *Event
	done     chan struct{}
	mutex    sync.Mutex
	timers   map[apitypes.UID]*time.Timer
	stopped  bool
}

func newExecutor(handler Handler, complete func(event *Event, err error)) *executor {
	return &executor{
		handler:  handler,
		complete: complete,
		work:     make(chan *Event),
		done:     make(chan struct{}),
		timers:   make(map[apitypes.UID]*time.Timer),
	}
}

// start launches the worker; it terminates when the context is done or stop is called.
func (x *executor) start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				x.stop()
				return
			case <-x.done:
				return
			case event := <-x.work:
				err := x.handler.Handle(ctx, event)
				x.complete(event, err)
			}
		}
	}()
}

// schedule arms a timer delivering the event to the worker after the given delay.
func (x *executor) schedule(event *Event, delay time.Duration) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	if x.stopped {
		return
	}
	uid := event.UID()
	if timer, ok := x.timers[uid]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		x.mutex.Lock()
		if x.timers[uid] != timer {
			// cancelled or superseded between firing and locking
			x.mutex.Unlock()
			return
		}
		delete(x.timers, uid)
		x.mutex.Unlock()
		select {
		case x.work <- event:
		case <-x.done:
		}
	})
	x.timers[uid] = timer
}

// cancel stops and removes a pending timer for the uid, if any.
func (x *executor) cancel(uid apitypes.UID) {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	if timer, ok := x.timers[uid]; ok {
		timer.Stop()
		delete(x.timers, uid)
	}
}

func (x *executor) stop() {
	x.mutex.Lock()
	defer x.mutex.Unlock()
	if x.stopped {
		return
	}
	x.stopped = true
	for uid, timer := range x.timers {
		timer.Stop()
		delete(x.timers, uid)
	}
	close(x.done)
}
