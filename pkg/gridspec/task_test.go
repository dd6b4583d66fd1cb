package gridspec

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchAppliesResult(t *testing.T) {
	d := &dispatcher{}
	applied := make(chan *QueryResult, 1)

	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		return &QueryResult{Rows: []interface{}{"a"}}
	}, func(r *QueryResult) {
		applied <- r
	})

	select {
	case r := <-applied:
		require.Len(t, r.Rows, 1)
	case <-time.After(time.Second):
		t.Fatal("result never applied")
	}
}

func TestDispatchSupersedes(t *testing.T) {
	d := &dispatcher{}

	var mu sync.Mutex
	var applied []string
	done := make(chan struct{}, 2)
	apply := func(r *QueryResult) {
		mu.Lock()
		applied = append(applied, r.Rows[0].(string))
		mu.Unlock()
		done <- struct{}{}
	}

	release := make(chan struct{})
	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		<-release
		return &QueryResult{Rows: []interface{}{"first"}}
	}, apply)

	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		return &QueryResult{Rows: []interface{}{"second"}}
	}, apply)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second task never applied")
	}

	// Let the superseded first task finish; its result must be dropped.
	close(release)
	select {
	case <-done:
		t.Fatal("superseded task result was applied")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"second"}, applied)
}

func TestDispatchApplyAtomicWithSupersede(t *testing.T) {
	d := &dispatcher{}

	var mu sync.Mutex
	var applied []string
	done := make(chan struct{}, 2)
	firstApplying := make(chan struct{})
	releaseFirst := make(chan struct{})

	apply := func(r *QueryResult) {
		name := r.Rows[0].(string)
		if name == "first" {
			// Stall inside apply, after the generation check has passed.
			close(firstApplying)
			<-releaseFirst
		}
		mu.Lock()
		applied = append(applied, name)
		mu.Unlock()
		done <- struct{}{}
	}

	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		return &QueryResult{Rows: []interface{}{"first"}}
	}, apply)

	<-firstApplying

	// Dispatched while the first result is mid-apply. It must not be able
	// to slip its result in underneath the stalled one.
	go d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		return &QueryResult{Rows: []interface{}{"second"}}
	}, apply)

	time.Sleep(20 * time.Millisecond)
	close(releaseFirst)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("tasks did not finish applying")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, applied)
	require.Equal(t, "second", applied[len(applied)-1],
		"newest result must be applied last, applied order: %v", applied)
}

func TestDispatchCancelsSupersededContext(t *testing.T) {
	d := &dispatcher{}

	cancelled := make(chan struct{})
	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		<-ctx.Done()
		close(cancelled)
		return &QueryResult{}
	}, func(*QueryResult) {})

	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		return &QueryResult{}
	}, func(*QueryResult) {})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("superseded task context never cancelled")
	}
}

func TestDispatchPanicBecomesErrorResult(t *testing.T) {
	d := &dispatcher{}
	applied := make(chan *QueryResult, 1)

	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		panic("boom")
	}, func(r *QueryResult) {
		applied <- r
	})

	select {
	case r := <-applied:
		require.Error(t, r.Err)
		assert.Empty(t, r.Rows)
	case <-time.After(time.Second):
		t.Fatal("panicking task never applied an error result")
	}
}

func TestCancelDiscardsInFlight(t *testing.T) {
	d := &dispatcher{}
	applied := make(chan *QueryResult, 1)

	release := make(chan struct{})
	d.Dispatch(context.Background(), func(ctx context.Context) *QueryResult {
		<-release
		return &QueryResult{}
	}, func(r *QueryResult) {
		applied <- r
	})

	d.Cancel()
	close(release)

	select {
	case <-applied:
		t.Fatal("cancelled task result was applied")
	case <-time.After(50 * time.Millisecond):
	}
}
