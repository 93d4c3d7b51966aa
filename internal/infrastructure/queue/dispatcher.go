package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher routes branding saves to a fixed set of mirror workers using
// consistent hashing on the partner id, so saves of one partner are mirrored
// in order.
type Dispatcher struct {
	workers []chan ports.BrandingSavedEvent
	service ports.BrandingMirrorService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.BrandingPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.BrandingMirrorService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.BrandingSavedEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.BrandingSavedEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a saved branding to the worker responsible for its partner.
// It never blocks: when that worker is full the job is dropped, since the
// branding row is already saved and only the mirror is lost.
func (d *Dispatcher) Enqueue(ev ports.BrandingSavedEvent) {
	idx := d.shardIndex(ev.PartnerID)
	select {
	case d.workers[idx] <- ev:
		metrics.MirrorQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.MirrorJobsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("partner_id", ev.PartnerID).
			Int("worker_id", idx).
			Msg("mirror queue full, job dropped")
	}
}

// shardIndex maps a partner id deterministically to a worker index.
func (d *Dispatcher) shardIndex(partnerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(partnerID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.BrandingSavedEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			metrics.MirrorQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.service.Process(ctx, ev); err != nil {
				d.log.Error().Err(err).
					Str("partner_id", ev.PartnerID).
					Int("worker_id", id).
					Msg("branding mirror failed")
			}
		}
	}
}
