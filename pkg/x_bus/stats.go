// file: jsbridge/pkg/x_bus/stats.go
package x_bus

import (
	"sync"
	"time"
)

// Stats contains runtime stats for every subscription of a bridge.
type Stats struct {
	Started   time.Time        `json:"started"`
	Endpoints []*EndpointStats `json:"endpoints"`
}

// EndpointStats holds runtime statistics for one subject.
type EndpointStats struct {
	Subject               string        `json:"subject"`
	QueueGroup            string        `json:"queue_group"`
	NumRequests           int           `json:"num_requests"`
	NumErrors             int           `json:"num_errors"`
	NumFaults             int           `json:"num_faults"` // script faults, counted in NumErrors too
	LastError             string        `json:"last_error"`
	ProcessingTime        time.Duration `json:"processing_time"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
	MinProcessingTime     time.Duration `json:"min_processing_time,omitempty"`
	MaxProcessingTime     time.Duration `json:"max_processing_time,omitempty"`
	LastRequestTime       time.Time     `json:"last_request_time,omitempty"`
}

type statsBook struct {
	mu        sync.Mutex
	started   time.Time
	endpoints map[string]*EndpointStats
	order     []string
}

func newStatsBook() *statsBook {
	return &statsBook{started: time.Now().UTC(), endpoints: make(map[string]*EndpointStats)}
}

func (b *statsBook) add(subject, queue string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.endpoints[subject]; ok {
		return
	}
	b.endpoints[subject] = &EndpointStats{Subject: subject, QueueGroup: queue}
	b.order = append(b.order, subject)
}

func (b *statsBook) record(subject string, started time.Time, err error, isFault bool) {
	elapsed := time.Since(started)

	b.mu.Lock()
	defer b.mu.Unlock()
	ep, ok := b.endpoints[subject]
	if !ok {
		return
	}
	ep.NumRequests++
	ep.LastRequestTime = started.UTC()
	ep.ProcessingTime += elapsed
	ep.AverageProcessingTime = ep.ProcessingTime / time.Duration(ep.NumRequests)
	if ep.MinProcessingTime == 0 || elapsed < ep.MinProcessingTime {
		ep.MinProcessingTime = elapsed
	}
	if elapsed > ep.MaxProcessingTime {
		ep.MaxProcessingTime = elapsed
	}
	if err != nil {
		ep.NumErrors++
		ep.LastError = err.Error()
		if isFault {
			ep.NumFaults++
		}
	}
}

func (b *statsBook) snapshot() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := Stats{Started: b.started, Endpoints: make([]*EndpointStats, 0, len(b.order))}
	for _, s := range b.order {
		ep := *b.endpoints[s]
		out.Endpoints = append(out.Endpoints, &ep)
	}
	return out
}

// reset clears the counters and keeps the subjects.
func (b *statsBook) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = time.Now().UTC()
	for s, ep := range b.endpoints {
		b.endpoints[s] = &EndpointStats{Subject: ep.Subject, QueueGroup: ep.QueueGroup}
	}
}
