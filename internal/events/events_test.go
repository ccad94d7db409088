// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package events

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSink_DropsWhenFull(t *testing.T) {
	s := NewChannelSink(1)

	require.NoError(t, s.Emit(OutputEvent{ProcessID: 1, Line: "a"}))
	assert.ErrorIs(t, s.Emit(OutputEvent{ProcessID: 1, Line: "b"}), ErrSinkFull)

	got := <-s.Events()
	assert.Equal(t, "a", got.(OutputEvent).Line)
}

func TestChannelSink_EmitAfterClose(t *testing.T) {
	s := NewChannelSink(4)
	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Emit(ProgressEvent{ProcessID: 1}), ErrSinkClosed)

	_, ok := <-s.Events()
	assert.False(t, ok)
}

func TestChannelSink_ConcurrentEmitAndClose(t *testing.T) {
	s := NewChannelSink(8)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				err := s.Emit(OutputEvent{Line: "x"})
				if err != nil && !errors.Is(err, ErrSinkFull) && !errors.Is(err, ErrSinkClosed) {
					t.Errorf("unexpected emit error: %v", err)
				}
			}
		}()
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range s.Events() {
		}
	}()

	time.Sleep(time.Millisecond)
	assert.NotPanics(t, s.Close)
	wg.Wait()
	<-drained

	assert.ErrorIs(t, s.Emit(OutputEvent{Line: "late"}), ErrSinkClosed)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Emit(ExitEvent{}))
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	received := make(chan ProgressEvent, 1)

	unsub := bus.Subscribe(func(e ProgressEvent) {
		received <- e
	})
	defer unsub()

	require.NoError(t, bus.Emit(ProgressEvent{ProcessID: 7, Line: "time=00:00:01.00 bitrate=1k"}))

	select {
	case got := <-received:
		assert.Equal(t, int64(7), got.ProcessID)
	case <-time.After(time.Second):
		t.Fatal("progress event not delivered")
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := NewBus()
	exits := make(chan ExitEvent, 1)

	unsub := bus.Subscribe(func(e ExitEvent) { exits <- e })
	defer unsub()

	require.NoError(t, bus.Emit(OutputEvent{ProcessID: 1}))

	select {
	case <-exits:
		t.Fatal("exit subscriber received an output event")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := NewBus()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestBus_SubscribeChannel(t *testing.T) {
	bus := NewBus()
	ch := make(chan Event, 8)
	unsub := bus.SubscribeChannel(ch)
	defer unsub()

	require.NoError(t, bus.Emit(OutputEvent{ProcessID: 3, Stream: Stderr, Line: "hello"}))
	require.NoError(t, bus.Emit(ExitEvent{ProcessID: 3, ExitCode: 0}))

	names := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			assert.Equal(t, int64(3), ev.Process())
			names[ev.Name()] = true
		case <-time.After(time.Second):
			t.Fatal("event not forwarded to channel")
		}
	}
	assert.Equal(t, map[string]bool{"output": true, "exit": true}, names)
}

func TestBus_SubscribeChannelKeepsPublishOrder(t *testing.T) {
	bus := NewBus()
	ch := make(chan Event, 512)
	unsub := bus.SubscribeChannel(ch)
	defer unsub()

	for i := 0; i < 200; i++ {
		require.NoError(t, bus.Emit(OutputEvent{ProcessID: 5, Line: strconv.Itoa(i)}))
		require.NoError(t, bus.Emit(ProgressEvent{ProcessID: 5, Line: strconv.Itoa(i)}))
	}
	require.NoError(t, bus.Emit(ExitEvent{ProcessID: 5}))

	var got []string
	for len(got) < 401 {
		select {
		case ev := <-ch:
			switch e := ev.(type) {
			case OutputEvent:
				got = append(got, "output:"+e.Line)
			case ProgressEvent:
				got = append(got, "progress:"+e.Line)
			case ExitEvent:
				got = append(got, "exit")
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 401 events forwarded", len(got))
		}
	}

	want := make([]string, 0, 401)
	for i := 0; i < 200; i++ {
		want = append(want, "output:"+strconv.Itoa(i), "progress:"+strconv.Itoa(i))
	}
	want = append(want, "exit")
	assert.Equal(t, want, got)
}

func TestOutputEvent_JSON(t *testing.T) {
	ev := OutputEvent{ProcessID: 2, Stream: Stdout, Line: "frame=1"}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"stream":"stdout"`)
	assert.Contains(t, string(data), `"process_id":2`)
	assert.NotContains(t, string(data), "reference")
}
