// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package events

import (
	"github.com/kelindar/event"
)

// Bus fans events out to any number of subscribers using a kelindar/event
// dispatcher. Publishing never waits for subscribers.
type Bus struct {
	dispatcher *event.Dispatcher
}

// NewBus creates an event bus
func NewBus() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Emit implements Sink.
func (b *Bus) Emit(ev Event) error {
	switch e := ev.(type) {
	case OutputEvent:
		event.Publish(b.dispatcher, e)
	case ProgressEvent:
		event.Publish(b.dispatcher, e)
	case ExitEvent:
		event.Publish(b.dispatcher, e)
	default:
		return ErrUnknownEvent
	}
	event.Publish(b.dispatcher, envelope{ev: ev})
	return nil
}

// Subscribe registers a typed handler, e.g. func(ProgressEvent).
// Unknown handler types get a no-op unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(OutputEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ProgressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ExitEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeChannel forwards every event type into ch through a single
// subscriber, so events arrive in publish order: a process's exit comes
// after its last output line and a progress event after its output
// event. Events are dropped when ch is full.
func (b *Bus) SubscribeChannel(ch chan<- Event) func() {
	return event.Subscribe(b.dispatcher, func(e envelope) {
		select {
		case ch <- e.ev:
		default:
		}
	})
}

// envelope republishes any Event under one type for ordered subscribers.
type envelope struct {
	ev Event
}

func (envelope) Type() uint32 { return typeAll }
