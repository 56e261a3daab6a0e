package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only when processing succeeded and the offset may
// be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// Consumer fans messages out to a fixed worker pool. A partition always
// maps to the same worker, so commits within a partition happen in order
// and a failed message is never skipped by a later commit.
type Consumer struct {
	r       *kafka.Reader
	workers int
	commit  func(ctx context.Context, m kafka.Message) error
	backoff time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:       r,
		workers: workers,
		commit: func(ctx context.Context, m kafka.Message) error {
			return r.CommitMessages(ctx, m)
		},
		backoff: 200 * time.Millisecond,
	}
}

func workerFor(partition, workers int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % workers
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(ch <-chan kafka.Message) {
			defer wg.Done()
			for m := range ch {
				c.handle(ctx, h, m)
			}
		}(jobs[i])
	}
	stop := func() {
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
	}

	for {
		// FetchMessage leaves the commit to the worker; ReadMessage would
		// auto-commit under a consumer group.
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs[workerFor(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handle retries until the message is processed and committed or the
// context ends. Giving up here would let the partition's next commit
// silently drop the message.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) {
	for {
		err := h(ctx, m)
		if err == nil {
			if err = c.commit(ctx, m); err == nil {
				return
			}
			slog.Error("consumer commit",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		} else {
			slog.Error("consumer handler",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}
	}
}
