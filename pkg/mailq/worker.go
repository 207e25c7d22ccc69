package mailq

import (
	"context"
	"sync"
	"time"

	"github.com/clientgate/clientgate/pkg/logx"
	"github.com/clientgate/clientgate/pkg/notifx"
)

// WorkerOptions tunes the delivery loop.
type WorkerOptions struct {
	Concurrency     int
	PollInterval    time.Duration
	DequeueTimeout  time.Duration
	RetryDelay      time.Duration
	ShutdownTimeout time.Duration
	From            string
}

func defaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Concurrency:     2,
		PollInterval:    time.Second,
		DequeueTimeout:  5 * time.Second,
		RetryDelay:      30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// WorkerOption mutates WorkerOptions.
type WorkerOption func(*WorkerOptions)

func WithConcurrency(n int) WorkerOption {
	return func(o *WorkerOptions) { o.Concurrency = n }
}

func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) { o.RetryDelay = d }
}

func WithFrom(addr string) WorkerOption {
	return func(o *WorkerOptions) { o.From = addr }
}

func WithShutdownTimeout(d time.Duration) WorkerOption {
	return func(o *WorkerOptions) { o.ShutdownTimeout = d }
}

// Worker drains the queue and delivers envelopes through a notifx client.
type Worker struct {
	queue  Queue
	mailer *notifx.Client
	opts   WorkerOptions

	mu      sync.Mutex
	running bool
}

// NewWorker creates a delivery worker.
func NewWorker(queue Queue, mailer *notifx.Client, options ...WorkerOption) *Worker {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Worker{queue: queue, mailer: mailer, opts: opts}
}

// Start runs the delivery loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return mailqErrors.New(ErrAlreadyRunning)
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	logx.Infof("mailq: starting %d delivery workers", w.opts.Concurrency)

	var wg sync.WaitGroup

	// Promoter goroutine: due retries go back on the ready list.
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.deliverLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Info("mailq: shutting down delivery workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("mailq: all delivery workers stopped")
	case <-time.After(w.opts.ShutdownTimeout):
		logx.Warn("mailq: shutdown timed out, some envelopes may still be in flight")
	}

	return nil
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.queue.PromoteScheduled(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("mailq: failed to promote scheduled envelopes")
			}
		}
	}
}

func (w *Worker) deliverLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		env, err := w.queue.Dequeue(ctx, w.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("mailq: worker %d dequeue error", id)
			time.Sleep(w.opts.PollInterval)
			continue
		}
		if env == nil {
			continue
		}

		w.deliver(ctx, env)
	}
}

func (w *Worker) deliver(ctx context.Context, env *Envelope) {
	msg := notifx.EmailMessage{
		From:     w.opts.From,
		To:       []string{env.To},
		Subject:  env.Subject,
		TextBody: env.TextBody,
		HTMLBody: env.HTMLBody,
	}

	if err := w.mailer.SendEmail(ctx, msg); err != nil {
		logx.WithError(err).Warnf("mailq: envelope %s delivery failed (attempt %d)", env.ID, env.Attempts)

		retry, failErr := w.queue.Fail(ctx, env.ID, err.Error())
		if failErr != nil {
			logx.WithError(failErr).Errorf("mailq: failed to mark envelope %s", env.ID)
			return
		}
		if retry {
			if retryErr := w.queue.Retry(ctx, env.ID, w.opts.RetryDelay); retryErr != nil {
				logx.WithError(retryErr).Errorf("mailq: failed to schedule retry for %s", env.ID)
			}
		}
		return
	}

	if err := w.queue.Delivered(ctx, env.ID); err != nil {
		logx.WithError(err).Errorf("mailq: failed to mark envelope %s delivered", env.ID)
	}
}
