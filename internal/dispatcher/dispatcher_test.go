package dispatcher

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) { l.add("DEBUG", msg, keysAndValues) }
func (l *testLogger) Info(msg string, keysAndValues ...any)  { l.add("INFO", msg, keysAndValues) }
func (l *testLogger) Error(msg string, keysAndValues ...any) { l.add("ERROR", msg, keysAndValues) }

func (l *testLogger) add(level, msg string, kv []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("%s: %s %v", level, msg, kv))
}

func (l *testLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("/apollo/planning", func(e Event) error {
		got = e
		return nil
	})

	err := d.Dispatch(Event{Topic: "/apollo/planning", Payload: []byte("{}")})

	require.NoError(t, err)
	assert.Equal(t, "/apollo/planning", got.Topic)
	assert.Equal(t, []byte("{}"), got.Payload)
}

func TestDispatcher_SyncHandlerError(t *testing.T) {
	d, _ := newTestDispatcher(t)
	boom := errors.New("boom")
	d.Register("t", func(Event) error { return boom })

	assert.ErrorIs(t, d.Dispatch(Event{Topic: "t"}), boom)
}

func TestDispatcher_UnknownTopic(t *testing.T) {
	d, _ := newTestDispatcher(t)

	err := d.Dispatch(Event{Topic: "/nobody/listens"})

	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Register("buffered", func(e Event) error {
		processed.Add(1)
		wg.Done()
		return nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Dispatch(Event{Topic: "buffered"}))
	}

	wg.Wait()
	assert.Equal(t, int32(3), processed.Load())
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("full", func(e Event) error {
		started <- struct{}{}
		<-block
		return nil
	}, Buffered(2))
	defer close(block)

	require.NoError(t, d.Dispatch(Event{Topic: "full"}))
	<-started // first event is now being processed

	require.NoError(t, d.Dispatch(Event{Topic: "full"}))
	require.NoError(t, d.Dispatch(Event{Topic: "full"}))

	err := d.Dispatch(Event{Topic: "full"})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("blocking", func(e Event) error {
		started <- struct{}{}
		<-block
		return nil
	}, Buffered(1), Blocking())

	require.NoError(t, d.Dispatch(Event{Topic: "blocking"}))
	<-started
	require.NoError(t, d.Dispatch(Event{Topic: "blocking"}))

	done := make(chan struct{})
	go func() {
		_ = d.Dispatch(Event{Topic: "blocking"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("dispatch did not unblock")
	}
}

func TestDispatcher_ConflateKeepsNewest(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	var seen []float64
	done := make(chan struct{})

	d.Register("latest", func(e Event) error {
		mu.Lock()
		seen = append(seen, e.Timestamp)
		n := len(seen)
		mu.Unlock()
		if n == 1 {
			started <- struct{}{}
			<-block
		}
		if n == 2 {
			close(done)
		}
		return nil
	}, Buffered(1), Conflate())

	require.NoError(t, d.Dispatch(Event{Topic: "latest", Timestamp: 1}))
	<-started

	// The worker is busy: each newer event evicts the pending one.
	for ts := 2.0; ts <= 5; ts++ {
		require.NoError(t, d.Dispatch(Event{Topic: "latest", Timestamp: ts}))
	}
	close(block)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("conflated event was not processed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{1, 5}, seen)
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("logged", func(e Event) error { return nil }, Logged())

	require.NoError(t, d.Dispatch(Event{Topic: "logged", Payload: []byte("abc")}))

	msgs := logger.snapshot()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "DEBUG: handling event")
	assert.Contains(t, msgs[1], "DEBUG: event complete")
}

func TestDispatcher_LoggedBufferedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	handled := make(chan struct{})
	d.Register("bad", func(e Event) error {
		defer close(handled)
		return fmt.Errorf("decode failed")
	}, Buffered(4), Logged())

	require.NoError(t, d.Dispatch(Event{Topic: "bad"}), "queueing succeeds even though handling fails")
	<-handled

	assert.Eventually(t, func() bool {
		for _, msg := range logger.snapshot() {
			if len(msg) >= 5 && msg[:5] == "ERROR" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}
