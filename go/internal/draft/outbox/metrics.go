package outbox

import (
	"context"
	"sync"
	"time"
)

// Stats is a point-in-time view of relay throughput.
type Stats struct {
	Published     uint64
	Failed        uint64
	LastPublished time.Time
}

// MetricPublisher wraps a Publisher and counts outcomes.
type MetricPublisher struct {
	publisher Publisher

	mu    sync.Mutex
	stats Stats
}

func NewMetricPublisher(publisher Publisher) *MetricPublisher {
	return &MetricPublisher{publisher: publisher}
}

func (p *MetricPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	err := p.publisher.Publish(ctx, event)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.stats.Failed++
		return err
	}
	p.stats.Published++
	p.stats.LastPublished = time.Now()
	return nil
}

func (p *MetricPublisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
