// Package audit is the security log channel, separate from the general
// application log. Blocked-user access attempts, price-tampering detections,
// role-guard denials and admin self-protection triggers all land here.
//
// Entries are written to a MongoDB collection asynchronously so auditing
// never blocks the request path:
//
//   - Events are enqueued into a buffered channel (non-blocking).
//   - A single background goroutine drains the channel and performs
//     InsertMany in batches.
//   - If the channel is full the event is dropped from Mongo (it still
//     reaches the regular warn log).
//   - Graceful shutdown: Close() flushes the queue.
package audit

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pizzanova/backend/pkg/logger"
	"github.com/pizzanova/backend/pkg/metrics"
	"github.com/pizzanova/backend/pkg/reqid"
)

const (
	queueSize = 4096
	batchSize = 50
	drainTick = 2 * time.Second
)

// Entry is the shape written to the security_log collection.
type Entry struct {
	Time      time.Time `bson:"time"`
	Event     string    `bson:"event"`
	RequestID string    `bson:"request_id,omitempty"`
	ActorID   string    `bson:"actor_id,omitempty"`
	ActorRole string    `bson:"actor_role,omitempty"`
	Path      string    `bson:"path,omitempty"`
	Reason    string    `bson:"reason,omitempty"`
	Attrs     bson.M    `bson:"attrs,omitempty"`
}

var (
	mu    sync.Mutex
	col   *mongo.Collection
	queue chan Entry
	done  chan struct{}
)

// Start wires the audit channel to the given collection and launches the
// drain goroutine. Call once after the database connection is up.
func Start(c *mongo.Collection) {
	mu.Lock()
	defer mu.Unlock()
	if queue != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "time", Value: -1}},
		Options: options.Index(),
	})

	col = c
	queue = make(chan Entry, queueSize)
	done = make(chan struct{})
	go drainLoop()
}

// Security records a security-relevant event. actorID/actorRole may be empty
// for anonymous callers. Extra key/value pairs go into attrs.
func Security(ctx context.Context, event, actorID, actorRole, path, reason string, attrs bson.M) {
	metrics.SecurityDenials.WithLabelValues(reason).Inc()
	logger.WithCtx(ctx).Warn("security event",
		"event", event,
		"actor_id", actorID,
		"actor_role", actorRole,
		"path", path,
		"reason", reason,
	)

	mu.Lock()
	q := queue
	mu.Unlock()
	if q == nil {
		return
	}

	e := Entry{
		Time:      time.Now().UTC(),
		Event:     event,
		RequestID: reqid.FromCtx(ctx),
		ActorID:   actorID,
		ActorRole: actorRole,
		Path:      path,
		Reason:    reason,
		Attrs:     attrs,
	}

	// Non-blocking enqueue: drop if channel is full.
	select {
	case q <- e:
	default:
	}
}

func drainLoop() {
	ticker := time.NewTicker(drainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = col.InsertMany(ctx, batch) // errors are intentionally ignored
		batch = batch[:0]
	}

	for {
		select {
		case e := <-queue:
			batch = append(batch, e)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-done:
			for len(queue) > 0 {
				batch = append(batch, <-queue)
			}
			flush()
			return
		}
	}
}

// Close flushes pending entries. Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if done == nil {
		return
	}
	select {
	case <-done:
	default:
		close(done)
	}
}
