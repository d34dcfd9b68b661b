package benchmark

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"go.uber.org/zap"

	"example.com/rolling-median/base/floats"

	"example.com/rolling-median/core/median"
)

const (
	maxRecordableLatency = int64(10 * time.Second)
	significantFigures   = 3
)

var errMedianMismatch = errors.New("rolling median differs from reference median")

// Run pushes count pseudo-random values into a rolling median of the given
// precision, prints the distribution of push latencies in nanoseconds to w and
// verifies the final median against a full sort.
func Run(log *zap.Logger, w io.Writer, precision, count int, seed uint64) error {
	if count <= 0 {
		panic("count must be greater than 0")
	}
	switch precision {
	case 32:
		return run[float32](log, w, count, seed)
	case 64:
		return run[float64](log, w, count, seed)
	default:
		panic("unexpected precision")
	}
}

func run[T floats.Float](log *zap.Logger, w io.Writer, count int, seed uint64) error {
	r := rand.New(rand.NewPCG(seed, 0))
	values := make([]T, count)
	for i := range values {
		values[i] = T(r.NormFloat64())
	}

	hg := hdrhistogram.New(1, maxRecordableLatency, significantFigures)
	m := median.NewWithCapacity[T](count)

	t0 := time.Now()
	for _, x := range values {
		t1 := time.Now()
		err := m.Push(x)
		d := time.Since(t1)
		if err != nil {
			return err
		}
		err = hg.RecordValue(max(d.Nanoseconds(), 1))
		if err != nil {
			log.Debug("failed to record histogram value", zap.Duration("latency", d), zap.Error(err))
		}
	}
	elapsed := time.Since(t0)

	got, ok := m.Get()
	if !ok {
		panic("unexpected empty rolling median")
	}
	want := floats.Median(values)
	if got != want {
		return fmt.Errorf("%w: got %v, want %v", errMedianMismatch, got, want)
	}

	log.Info("benchmark finished",
		zap.Int("count", count),
		zap.Uint64("seed", seed),
		zap.Duration("elapsed", elapsed),
		zap.Float64("median", float64(got)),
	)

	_, err := hg.PercentilesPrint(w, 1, 1.0)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "pushed %d values in %v, mean %.1f ns/push, final median %v\n",
		count, elapsed, hg.Mean(), got)
	return err
}
