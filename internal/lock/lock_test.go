package lock_test

// Notes:
// - Redis is replaced by a fake implementing the SetNX/Eval subset; results
//   are built with go-redis result constructors.
// - Blocking behavior is checked with short context deadlines.

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alnah/yt-transcript/internal/lock"
)

// ---------------------------------------------------------------------------
// Local
// ---------------------------------------------------------------------------

func TestLocal_Exclusive(t *testing.T) {
	t.Parallel()

	l := lock.NewLocal()
	release, err := l.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "a"); !errors.Is(err, lock.ErrNotAcquired) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire(held) error = %v, want ErrNotAcquired wrapping DeadlineExceeded", err)
	}

	if _, err := l.Acquire(context.Background(), "b"); err != nil {
		t.Fatalf("Acquire(other key) error = %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		if rel, err := l.Acquire(context.Background(), "a"); err == nil {
			_ = rel(context.Background())
			close(acquired)
		}
	}()

	_ = release(context.Background())
	_ = release(context.Background()) // second call is a no-op

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken after release")
	}
}

func TestLocal_MutualExclusion(t *testing.T) {
	t.Parallel()

	l := lock.NewLocal()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rel, err := l.Acquire(context.Background(), "k")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			_ = rel(context.Background())
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max holders = %d, want 1", maxSeen)
	}
}

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

type fakeRedis struct {
	mu       sync.Mutex
	setnx    []bool // successive SetNX answers; last one repeats
	setErr   error
	evalVal  any
	evalErr  error
	calls    int
	values   []any
	evalKeys []string
	evalArgs []any
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, value)
	if f.setErr != nil {
		return redis.NewBoolResult(false, f.setErr)
	}
	i := min(f.calls, len(f.setnx)-1)
	f.calls++
	return redis.NewBoolResult(f.setnx[i], nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evalKeys = keys
	f.evalArgs = args
	return redis.NewCmdResult(f.evalVal, f.evalErr)
}

func TestRedis_AcquireRelease(t *testing.T) {
	t.Parallel()

	fake := &fakeRedis{setnx: []bool{false, false, true}, evalVal: int64(1)}
	l := lock.NewTestRedis(fake, lock.WithPollInterval(time.Millisecond))

	release, err := l.Acquire(context.Background(), "generate:dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("SetNX calls = %d, want 3", fake.calls)
	}

	if err := release(context.Background()); err != nil {
		t.Fatalf("release() error = %v", err)
	}
	if len(fake.evalKeys) != 1 || fake.evalKeys[0] != "yt-transcript:lock:generate:dQw4w9WgXcQ" {
		t.Errorf("Eval keys = %v", fake.evalKeys)
	}
	if len(fake.evalArgs) != 1 || fake.evalArgs[0] != fake.values[len(fake.values)-1] {
		t.Errorf("Eval token = %v, want the SetNX token %v", fake.evalArgs, fake.values)
	}
}

func TestRedis_ReleaseNotHeld(t *testing.T) {
	t.Parallel()

	fake := &fakeRedis{setnx: []bool{true}, evalVal: int64(0)}
	l := lock.NewTestRedis(fake)

	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := release(context.Background()); !errors.Is(err, lock.ErrNotHeld) {
		t.Errorf("release() error = %v, want ErrNotHeld", err)
	}
}

func TestRedis_AcquireTimeout(t *testing.T) {
	t.Parallel()

	fake := &fakeRedis{setnx: []bool{false}}
	l := lock.NewTestRedis(fake, lock.WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Acquire(ctx, "k")
	if !errors.Is(err, lock.ErrNotAcquired) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want ErrNotAcquired wrapping DeadlineExceeded", err)
	}
}

func TestRedis_AcquireError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	l := lock.NewTestRedis(&fakeRedis{setErr: boom})

	_, err := l.Acquire(context.Background(), "k")
	if !errors.Is(err, boom) {
		t.Errorf("Acquire() error = %v, want %v", err, boom)
	}
}

func TestRedis_UniqueTokens(t *testing.T) {
	t.Parallel()

	fake := &fakeRedis{setnx: []bool{true}, evalVal: int64(1)}
	l := lock.NewTestRedis(fake)

	for range 2 {
		if _, err := l.Acquire(context.Background(), "k"); err != nil {
			t.Fatal(err)
		}
	}
	if fake.values[0] == fake.values[1] {
		t.Errorf("tokens repeated: %v", fake.values)
	}
}

func TestDial_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := lock.Dial(context.Background(), "http://not-redis"); err == nil {
		t.Error("Dial() expected error for non-redis scheme")
	}
}
