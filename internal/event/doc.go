// Package event provides a synchronous pub-sub bus and the events transferwindow
// components exchange over it.
//
// # Overview
//
// The event package is the seam between the claim core and whatever presents
// its progress. The notifier publishes [LineEvent] and [StatusEvent] values in
// a single total order; the arbiter publishes one [ClaimDecidedEvent] or
// [ResetDecidedEvent] per operation; the claimant pool publishes
// [ClaimantDroppedEvent] when it discards work.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publishing goroutine. A panicking handler is recovered and logged and the
// remaining handlers still run.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeNotifyLine, func(e event.Event) {
//	    fmt.Println(e.(event.LineEvent).Line)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    logger.Debug("event", "type", e.EventType())
//	})
//
//	id := bus.Subscribe(event.TypeClaimDecided, handler)
//	bus.Unsubscribe(id)
package event
