package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/proveloce/connect/internal/api/metrics"
	"github.com/proveloce/connect/internal/core/domain"
	"github.com/proveloce/connect/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Notifier delivers notifications asynchronously through a fixed set of
// workers, sharded by recipient so one user's notifications are written in
// the order they were produced. Notify never blocks workflow handlers beyond
// channel capacity; persistence failures are logged and dropped.
type Notifier struct {
	workers []chan domain.Notification
	repo    ports.NotificationRepository
	log     zerolog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewNotifier(numWorkers int, repo ports.NotificationRepository, log zerolog.Logger) *Notifier {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	n := &Notifier{
		workers: make([]chan domain.Notification, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range n.workers {
		n.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return n
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (n *Notifier) Start(ctx context.Context) {
	for i, ch := range n.workers {
		go n.runWorker(ctx, i, ch)
	}
}

// Notify hands the notification to the worker owning its recipient.
func (n *Notifier) Notify(note domain.Notification) {
	idx := n.shardIndex(note.UserID)
	n.workers[idx] <- note
	metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(n.workers[idx])))
}

// shardIndex maps a recipient deterministically to a worker index.
func (n *Notifier) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(n.workers)
}

func (n *Notifier) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-ch:
			if !ok {
				return
			}
			if err := n.repo.Insert(ctx, &note); err != nil {
				n.log.Error().Err(err).
					Str("user_id", note.UserID).
					Int("worker_id", id).
					Msg("notification write failed")
			}
			metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
