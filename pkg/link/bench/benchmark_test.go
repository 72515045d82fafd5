package bench

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func feedSeq(b *Benchmark, ids ...int64) {
	for i, id := range ids {
		t := uint64(i) * 10000
		b.Feed(id, t, t+500)
	}
}

func TestLost(t *testing.T) {
	testCases := []struct {
		name      string
		ids       []int64
		lost      uint64
		anomalies uint64
	}{
		{"in order", []int64{1, 2, 3, 4}, 0, 0},
		{"single gap", []int64{1, 2, 3, 5, 6}, 1, 0},
		{"wide gap", []int64{10, 20}, 9, 0},
		{"duplicate", []int64{1, 2, 3, 2, 4}, 0, 1},
		{"late arrival fills no gap", []int64{1, 3, 2, 4}, 1, 1},
		{"first id sets baseline", []int64{100, 101}, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := New(DefaultWindow)
			feedSeq(b, tc.ids...)
			require.Equal(t, tc.lost, b.Lost())
			require.Equal(t, tc.anomalies, b.Anomalies())
		})
	}
}

func TestLostIsCumulative(t *testing.T) {
	b := New(DefaultWindow)
	feedSeq(b, 1, 2, 3, 5, 6)
	require.EqualValues(t, 1, b.Lost())
	feedSeq(b, 1, 2, 3, 2, 4)
	require.EqualValues(t, 1, b.Lost())
	require.EqualValues(t, 5, b.Anomalies())
}

func TestFPS(t *testing.T) {
	b := New(DefaultWindow)
	require.Zero(t, b.FPS())
	b.Feed(1, 0, 0)
	require.Zero(t, b.FPS())
	for i := int64(1); i < 5; i++ {
		b.Feed(i+1, 0, uint64(i)*10000)
	}
	// 5 observations over 40ms
	require.InDelta(t, 125.0, b.FPS(), 1e-9)
}

func TestFPSEviction(t *testing.T) {
	b := New(4)
	for i := int64(0); i < 10; i++ {
		b.Feed(i, 0, uint64(i)*10000)
	}
	r := b.Reading()
	require.Equal(t, 4, r.Samples)
	require.InDelta(t, 100.0, r.FPS, 1e-9)

	// rate change only shows up in the window.
	for i := int64(10); i < 14; i++ {
		b.Feed(i, 0, 90000+uint64(i-9)*5000)
	}
	require.InDelta(t, 200.0, b.FPS(), 1e-9)
}

func TestLatency(t *testing.T) {
	testCases := []struct {
		name   string
		send   uint64
		recv   uint64
		expect float64
	}{
		{"forward", 1000, 1300, 300},
		{"wrapped counter", 0xffffff00, 0x100, 0x200},
		{"wide timestamps", 0x1_0000_0000 + 50, 0x2_0000_0000 + 80, 30},
		{"skewed clocks", 1000, 900, -100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := New(DefaultWindow)
			b.Feed(1, tc.send, tc.recv)
			require.InDelta(t, tc.expect, b.Latency(), 1e-9)
		})
	}
}

func TestLatencyMeanOverWindow(t *testing.T) {
	b := New(2)
	b.Feed(1, 0, 100)
	b.Feed(2, 0, 200)
	b.Feed(3, 0, 600)
	require.InDelta(t, 400.0, b.Latency(), 1e-9)
}

func TestConcurrentFeed(t *testing.T) {
	b := New(16)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 1000; i++ {
			b.Feed(i, uint64(i), uint64(i)*1000)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.Reading()
		}
	}()
	wg.Wait()
	require.Zero(t, b.Lost())
	require.Equal(t, 16, b.Reading().Samples)
}

func TestAggregate(t *testing.T) {
	r := Aggregate(
		Reading{FPS: 50, Latency: 100, Lost: 1, Samples: 10},
		Reading{FPS: 49, Latency: 300, Lost: 2, Samples: 10},
		Reading{},
	)
	require.InDelta(t, 99.0, r.FPS, 1e-9)
	require.InDelta(t, 200.0, r.Latency, 1e-9)
	require.EqualValues(t, 3, r.Lost)
	require.Equal(t, 20, r.Samples)
	require.Equal(t, Reading{}, Aggregate())
}
