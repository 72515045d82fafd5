// Package bench measures link quality from the sequence ids and
// timestamps of received frames.
package bench

import (
	"sync"

	"github.com/ddirect/container/fifo"
)

// DefaultWindow is the default number of observations kept.
const DefaultWindow = 100

// Reading is a snapshot of a Benchmark.
type Reading struct {
	FPS       float64
	Latency   float64 // microseconds
	Lost      uint64
	Samples   int
	Anomalies uint64
}

type observation struct {
	seq     int64
	latency int64  // us, signed so skewed clocks don't wrap
	gap     uint64 // us since the previous arrival
}

// Benchmark tracks frame rate, latency and loss over a rolling window of
// observations. Loss is cumulative and never reset.
type Benchmark struct {
	window  int
	samples fifo.Fifo[observation]

	latencySum int64
	spanSum    uint64

	started     bool
	maxSeq      int64
	lastArrival uint32
	lost        uint64
	anomalies   uint64

	lock sync.Mutex
}

// New creates a Benchmark keeping the last window observations.
func New(window int) *Benchmark {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Benchmark{window: window}
}

// Window returns the capacity of the window.
func (b *Benchmark) Window() int {
	return b.window
}

// Feed records a received frame. Both times are microsecond counters,
// only their low 32 bits are significant.
func (b *Benchmark) Feed(seq int64, remoteSendTime, localReceiveTime uint64) {
	local, remote := Micros(localReceiveTime), Micros(remoteSendTime)
	obs := observation{
		seq:     seq,
		latency: int64(int32(Elapsed(remote, local))),
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.started {
		b.started, b.maxSeq = true, seq
	} else {
		obs.gap = uint64(Elapsed(b.lastArrival, local))
		if seq > b.maxSeq {
			if gap := seq - b.maxSeq - 1; gap > 0 {
				b.lost += uint64(gap)
			}
			b.maxSeq = seq
		} else {
			b.anomalies++
		}
	}
	b.lastArrival = local

	for b.samples.Len() >= b.window {
		b.evict()
	}
	b.samples.Enqueue(obs)
	b.latencySum += obs.latency
	b.spanSum += obs.gap
}

func (b *Benchmark) evict() {
	if obs, ok := b.samples.Dequeue(); ok {
		b.latencySum -= obs.latency
		b.spanSum -= obs.gap
	}
}

// FPS returns observations per second over the window.
func (b *Benchmark) FPS() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.fps()
}

func (b *Benchmark) fps() float64 {
	if b.spanSum < 1 {
		return 0
	}
	return float64(b.samples.Len()) * 1e6 / float64(b.spanSum)
}

// Latency returns the mean receive minus send time in microseconds.
func (b *Benchmark) Latency() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.latency()
}

func (b *Benchmark) latency() float64 {
	n := b.samples.Len()
	if n == 0 {
		return 0
	}
	return float64(b.latencySum) / float64(n)
}

// Lost returns the cumulative number of frames missing from the sequence.
func (b *Benchmark) Lost() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.lost
}

// Anomalies returns the number of duplicated or reordered frames.
func (b *Benchmark) Anomalies() uint64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.anomalies
}

// Reading takes a consistent snapshot.
func (b *Benchmark) Reading() Reading {
	b.lock.Lock()
	defer b.lock.Unlock()
	return Reading{
		FPS:       b.fps(),
		Latency:   b.latency(),
		Lost:      b.lost,
		Samples:   b.samples.Len(),
		Anomalies: b.anomalies,
	}
}

// Aggregate combines readings of several links: rates and losses add up,
// latency is averaged over the links with samples.
func Aggregate(readings ...Reading) Reading {
	var r Reading
	var links int
	for _, rd := range readings {
		r.FPS += rd.FPS
		r.Lost += rd.Lost
		r.Anomalies += rd.Anomalies
		r.Samples += rd.Samples
		if rd.Samples > 0 {
			r.Latency += rd.Latency
			links++
		}
	}
	if links > 0 {
		r.Latency /= float64(links)
	}
	return r
}
