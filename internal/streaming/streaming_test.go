package streaming

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressCadenceIsAtLeastOne(t *testing.T) {
	assert.Equal(t, 1, ProgressCadence(0))
	assert.Equal(t, 1, ProgressCadence(5))
	assert.Equal(t, 10, ProgressCadence(200))
}

func TestStreamSendRespectsBackpressureDeadline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChannelCapacity = 1
	cfg.BackpressureDeadline = 20 * time.Millisecond
	s := NewStream(cfg)
	defer s.Close()

	require.NoError(t, s.Send(context.Background(), NewEvent(EventResult, 0, nil)))

	err := s.Send(context.Background(), NewEvent(EventResult, 1, nil))
	var bpErr *BackpressureExceededError
	assert.ErrorAs(t, err, &bpErr)
}

func TestStreamResumeFromReturnsEventsAfterLastID(t *testing.T) {
	s := NewStream(DefaultConfig())
	defer s.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			<-s.Events()
		}
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Send(context.Background(), NewEvent(EventResult, i, i)))
	}
	wg.Wait()

	resumed := s.ResumeFrom(2)
	require.Len(t, resumed, 2)
	assert.Equal(t, 3, resumed[0].ResultIndex)
	assert.Equal(t, 4, resumed[1].ResultIndex)
}

func TestNDJSONWriterEmitsOneObjectPerLine(t *testing.T) {
	s := NewStream(DefaultConfig())
	var buf strings.Builder
	writer := NewNDJSONWriter(&buf, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- writer.Run(ctx) }()

	require.NoError(t, s.Send(context.Background(), NewEvent(EventResult, 0, "a")))
	require.NoError(t, s.Send(context.Background(), NewEvent(EventStreamCompleted, -1, nil)))
	require.NoError(t, <-done)
	cancel()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, EventResult, ev.Type)
}

func TestSSEWriterFormatsIDEventData(t *testing.T) {
	s := NewStream(DefaultConfig())
	var buf strings.Builder
	writer := NewSSEWriter(&buf, s, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- writer.Run(ctx) }()

	require.NoError(t, s.Send(context.Background(), NewEvent(EventResult, 3, "x")))
	require.NoError(t, s.Send(context.Background(), NewEvent(EventStreamCompleted, -1, nil)))
	require.NoError(t, <-done)
	cancel()

	scanner := bufio.NewScanner(strings.NewReader(buf.String()))
	var sawID bool
	for scanner.Scan() {
		if scanner.Text() == "id: 3" {
			sawID = true
		}
	}
	assert.True(t, sawID)
}

func TestRunBatchPreservesInsertionOrder(t *testing.T) {
	s := NewStream(DefaultConfig())
	defer s.Close()

	var mu sync.Mutex
	var order []int
	go func() {
		for ev := range s.Events() {
			if ev.Type == EventResult {
				mu.Lock()
				order = append(order, ev.ResultIndex)
				mu.Unlock()
			}
		}
	}()

	items := []string{"c", "a", "b"}
	delays := map[string]time.Duration{"c": 30 * time.Millisecond, "a": 5 * time.Millisecond, "b": 10 * time.Millisecond}
	err := RunBatch(context.Background(), s, items, BatchConfig{Concurrency: 3, PreserveOrder: true}, func(ctx context.Context, item string) (interface{}, error) {
		time.Sleep(delays[item])
		return item, nil
	})
	require.NoError(t, err)
	s.Close()
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestRunBatchReportsErrorsAsStreamErrorEvents(t *testing.T) {
	s := NewStream(DefaultConfig())
	defer s.Close()

	var sawError bool
	go func() {
		for ev := range s.Events() {
			if ev.Type == EventStreamError {
				sawError = true
			}
		}
	}()

	err := RunBatch(context.Background(), s, []string{"bad"}, BatchConfig{Concurrency: 1}, func(ctx context.Context, item string) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)
	s.Close()
	time.Sleep(10 * time.Millisecond)
	assert.True(t, sawError)
}

func TestMetricsSnapshotReportsThroughput(t *testing.T) {
	m := NewMetrics()
	m.RecordBytes(1000)
	m.RecordMessage()
	time.Sleep(5 * time.Millisecond)
	m.Complete(true)

	snap := m.Snapshot()
	assert.Equal(t, int64(1000), snap.BytesOut)
	assert.True(t, snap.Success)
	assert.Greater(t, snap.ThroughputBs, 0.0)
}
