package mailq_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/clientgate/clientgate/pkg/mailq"
	"github.com/clientgate/clientgate/pkg/notifx"
)

// --- fakes ---

type fakeQueue struct {
	mu         sync.Mutex
	ready      chan mailq.Envelope
	envs       map[string]mailq.Envelope
	delivered  chan string
	nextID     int
	promotions int
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{
		ready:     make(chan mailq.Envelope, 16),
		envs:      make(map[string]mailq.Envelope),
		delivered: make(chan string, 16),
	}
}

func (q *fakeQueue) Enqueue(_ context.Context, env mailq.Envelope) (string, error) {
	q.mu.Lock()
	q.nextID++
	env.ID = fmt.Sprintf("env-%d", q.nextID)
	q.envs[env.ID] = env
	q.mu.Unlock()
	q.ready <- env
	return env.ID, nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (*mailq.Envelope, error) {
	select {
	case env := <-q.ready:
		q.mu.Lock()
		env.Attempts++
		q.envs[env.ID] = env
		q.mu.Unlock()
		return &env, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *fakeQueue) Delivered(_ context.Context, id string) error {
	q.delivered <- id
	return nil
}

func (q *fakeQueue) Fail(_ context.Context, id string, errMsg string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	env, ok := q.envs[id]
	if !ok {
		return false, errors.New("unknown envelope")
	}
	env.Error = errMsg
	q.envs[id] = env
	return env.Attempts <= env.MaxRetries, nil
}

func (q *fakeQueue) Retry(_ context.Context, id string, _ time.Duration) error {
	q.mu.Lock()
	env := q.envs[id]
	q.mu.Unlock()
	q.ready <- env
	return nil
}

func (q *fakeQueue) PromoteScheduled(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.promotions++
	return nil
}

func (q *fakeQueue) promoted() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.promotions
}

type flakySender struct {
	mu       sync.Mutex
	failures int
	attempts int
}

func (s *flakySender) SendEmail(_ context.Context, _ notifx.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("smtp sneeze")
	}
	return nil
}

func (s *flakySender) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func startWorker(t *testing.T, q mailq.Queue, sender notifx.EmailSender) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := mailq.NewWorker(q, notifx.NewClient(sender),
		mailq.WithConcurrency(1),
		mailq.WithRetryDelay(time.Millisecond),
		mailq.WithFrom("portal@example.com"),
		mailq.WithShutdownTimeout(time.Second),
	)
	go func() { _ = w.Start(ctx) }()
	return cancel
}

// --- tests ---

func TestWorker_DeliversEnvelope(t *testing.T) {
	q := newFakeQueue()
	sender := &flakySender{}
	cancel := startWorker(t, q, sender)
	defer cancel()

	id, err := q.Enqueue(context.Background(), mailq.Envelope{
		To:         "jane@example.com",
		Subject:    "hello",
		TextBody:   "hi",
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case got := <-q.delivered:
		if got != id {
			t.Errorf("delivered %q, want %q", got, id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("envelope never delivered")
	}

	if sender.sent() != 1 {
		t.Errorf("expected 1 send, got %d", sender.sent())
	}
}

func TestWorker_RetriesThenDelivers(t *testing.T) {
	q := newFakeQueue()
	sender := &flakySender{failures: 2}
	cancel := startWorker(t, q, sender)
	defer cancel()

	if _, err := q.Enqueue(context.Background(), mailq.Envelope{
		To:         "jane@example.com",
		Subject:    "hello",
		TextBody:   "hi",
		MaxRetries: 3,
	}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case <-q.delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("envelope never delivered after retries")
	}

	if sender.sent() != 3 {
		t.Errorf("expected 3 attempts, got %d", sender.sent())
	}
}

func TestWorker_GivesUpAfterMaxRetries(t *testing.T) {
	q := newFakeQueue()
	sender := &flakySender{failures: 100}
	cancel := startWorker(t, q, sender)
	defer cancel()

	if _, err := q.Enqueue(context.Background(), mailq.Envelope{
		To:         "jane@example.com",
		Subject:    "hello",
		TextBody:   "hi",
		MaxRetries: 1,
	}); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case <-q.delivered:
		t.Fatal("undeliverable envelope reported as delivered")
	case <-time.After(500 * time.Millisecond):
	}

	// One initial attempt plus one retry.
	if sender.sent() != 2 {
		t.Errorf("expected 2 attempts, got %d", sender.sent())
	}
}

func TestWorker_HonorsPollInterval(t *testing.T) {
	q := newFakeQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := mailq.NewWorker(q, notifx.NewClient(&flakySender{}),
		mailq.WithConcurrency(1),
		mailq.WithPollInterval(5*time.Millisecond),
	)
	go func() { _ = w.Start(ctx) }()

	// The default interval is a full second; only the configured one ticks
	// several times inside this window.
	deadline := time.After(2 * time.Second)
	for q.promoted() < 3 {
		select {
		case <-deadline:
			t.Fatalf("promote loop ticked %d times, want at least 3", q.promoted())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
