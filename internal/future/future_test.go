package future

import (
	"errors"
	"testing"
	"time"
)

func TestAwait(t *testing.T) {
	type testCase struct {
		name    string
		fut     func() *Future[int]
		wantVal int
		wantErr bool
	}

	testCases := []testCase{
		{
			name:    "already completed",
			fut:     func() *Future[int] { return FromValue(42) },
			wantVal: 42,
			wantErr: false,
		},
		{
			name:    "already failed",
			fut:     func() *Future[int] { return FromError[int](errors.New("boom")) },
			wantVal: 0,
			wantErr: true,
		},
		{
			name: "delayed completion",
			fut: func() *Future[int] {
				return New(func() (int, error) {
					time.Sleep(5 * time.Millisecond)
					return 7, nil
				})
			},
			wantVal: 7,
			wantErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			val, err := tc.fut().Await()

			if (err != nil) != tc.wantErr {
				t.Fatalf("expected error: %v, got: %v", tc.wantErr, err)
			}
			if val != tc.wantVal {
				t.Fatalf("expected value: %d, got: %d", tc.wantVal, val)
			}
		})
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := NewPending[string]()
	f.Complete("first")
	f.Complete("second")
	f.Fail(errors.New("ignored"))

	v, err := f.Await()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "first" {
		t.Fatalf("expected first resolution to win, got %q", v)
	}
}

func TestAwaitTimeout(t *testing.T) {
	f := NewPending[int]()

	_, _, ok := f.AwaitTimeout(5 * time.Millisecond)
	if ok {
		t.Fatalf("expected timeout on a pending future")
	}

	f.Complete(9)
	v, err, ok := f.AwaitTimeout(time.Second)
	if !ok || err != nil || v != 9 {
		t.Fatalf("expected completion, got v=%d err=%v ok=%v", v, err, ok)
	}
}

func TestLateCompletionAfterTimeoutIsDiscardable(t *testing.T) {
	f := NewPending[int]()

	_, _, ok := f.AwaitTimeout(time.Millisecond)
	if ok {
		t.Fatalf("expected timeout")
	}

	// the producer finishing after the deadline must not panic or block
	f.Complete(1)

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatalf("Done channel never closed")
	}
}

func TestAll(t *testing.T) {
	futs := []*Future[int]{
		New(func() (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 1, nil
		}),
		FromValue(2),
		New(func() (int, error) {
			time.Sleep(2 * time.Millisecond)
			return 3, nil
		}),
	}

	vals, err := All(futs...).Await()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 3}
	for i, v := range vals {
		if v != want[i] {
			t.Fatalf("values out of order: got %v, want %v", vals, want)
		}
	}
}

func TestAllPropagatesError(t *testing.T) {
	futs := []*Future[int]{
		FromValue(1),
		FromError[int](errors.New("second failed")),
	}
	_, err := All(futs...).Await()
	if err == nil || err.Error() != "second failed" {
		t.Fatalf("expected the failure, got %v", err)
	}
}
