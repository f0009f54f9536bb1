/*
SPDX-FileCopyrightText: 2026 SAP SE or an SAP affiliate company and resource-operator-runtime contributors
SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHandler struct {
	mutex sync.Mutex
	count int
}

func (h *countingHandler) Handle(ctx context.Context, event *Event) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.count++
	return nil
}

func (h *countingHandler) Count() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.count
}

var _ = Describe("testing: executor.go", func() {
	var ctx context.Context
	var handler *countingHandler

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
		handler = &countingHandler{}
	})

	It("should deliver a scheduled event after the delay", func() {
		x := newExecutor(handler, func(event *Event, err error) {})
		x.start(ctx)
		x.schedule(buildEvent("uid-1", 1, "1"), 5*time.Millisecond)

		Eventually(handler.Count).WithTimeout(time.Second).Should(Equal(1))
	})

	It("should not deliver a cancelled timer", func() {
		x := newExecutor(handler, func(event *Event, err error) {})
		x.start(ctx)
		x.schedule(buildEvent("uid-1", 1, "1"), 50*time.Millisecond)
		x.cancel("uid-1")

		Consistently(handler.Count).WithTimeout(150 * time.Millisecond).Should(BeZero())
	})

	It("should report completion with the handled event", func() {
		var completed sync.WaitGroup
		completed.Add(1)
		var reported *Event
		x := newExecutor(handler, func(event *Event, err error) {
			reported = event
			completed.Done()
		})
		x.start(ctx)
		event := buildEvent("uid-1", 1, "1")
		x.schedule(event, 0)

		completed.Wait()
		Expect(reported).To(BeIdenticalTo(event))
	})

	It("should drop timers armed after stop", func() {
		x := newExecutor(handler, func(event *Event, err error) {})
		x.start(ctx)
		x.stop()
		x.schedule(buildEvent("uid-1", 1, "1"), 0)

		Consistently(handler.Count).WithTimeout(50 * time.Millisecond).Should(BeZero())
	})
})
