// Package stream feeds a rolling median from line-oriented input and reports
// the median after every accepted value.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"example.com/rolling-median/base/floats"
	"example.com/rolling-median/base/metrics"
	"example.com/rolling-median/base/zaplog"

	"example.com/rolling-median/core/config"
	"example.com/rolling-median/core/median"
)

type Options struct {
	Format       string
	SkipInvalid  bool
	ResetMarker  string
	CapacityHint int
	// MaxRecordSize limits the length of an input line in bytes, zero selects
	// config.DefaultMaxRecordSize.
	MaxRecordSize int
}

type Result[T floats.Float] struct {
	Line   int
	Value  T
	Median T
	Count  int
}

type Summary[T floats.Float] struct {
	Accepted  int
	Rejected  int
	Resets    int
	Median    T
	HasMedian bool
}

type processorMetrics struct {
	valuesAccepted prometheus.Counter
	valuesRejected prometheus.Counter
	valuesStored   prometheus.Gauge
	median         prometheus.Gauge
	resets         prometheus.Counter
}

func newProcessorMetrics(reg prometheus.Registerer) *processorMetrics {
	f := promauto.With(reg)
	return &processorMetrics{
		valuesAccepted: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ValuesAcceptedN,
			Help: metrics.ValuesAcceptedH,
		}),
		valuesRejected: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ValuesRejectedN,
			Help: metrics.ValuesRejectedH,
		}),
		valuesStored: f.NewGauge(prometheus.GaugeOpts{
			Name: metrics.ValuesStoredN,
			Help: metrics.ValuesStoredH,
		}),
		median: f.NewGauge(prometheus.GaugeOpts{
			Name: metrics.MedianN,
			Help: metrics.MedianH,
		}),
		resets: f.NewCounter(prometheus.CounterOpts{
			Name: metrics.ResetsN,
			Help: metrics.ResetsH,
		}),
	}
}

// Processor owns a rolling median and must not be used concurrently. Its
// metrics may be scraped at any time.
type Processor[T floats.Float] struct {
	log   *zap.Logger
	opts  Options
	mtrcs *processorMetrics
	m     *median.Median[T]
}

// New creates a processor. A nil log selects the logger registered with
// zaplog, a nil reg leaves the metrics unregistered.
func New[T floats.Float](log *zap.Logger, reg prometheus.Registerer, opts Options) *Processor[T] {
	switch opts.Format {
	case "":
		opts.Format = config.FormatText
	case config.FormatText, config.FormatJSON:
	default:
		panic("unexpected input format")
	}
	if opts.MaxRecordSize < 0 {
		panic("record size limit must not be negative")
	}
	if opts.MaxRecordSize == 0 {
		opts.MaxRecordSize = config.DefaultMaxRecordSize
	}
	if log == nil {
		log = zaplog.Logger()
	}
	p := &Processor[T]{
		log:   log,
		opts:  opts,
		mtrcs: newProcessorMetrics(reg),
		m:     median.NewWithCapacity[T](opts.CapacityHint),
	}
	p.mtrcs.median.Set(math.NaN())
	return p
}

func (p *Processor[T]) Median() (T, bool) {
	return p.m.Get()
}

func (p *Processor[T]) Len() int {
	return p.m.Len()
}

func (p *Processor[T]) Reset() {
	p.m.Clear()
	p.mtrcs.resets.Inc()
	p.mtrcs.valuesStored.Set(0)
	p.mtrcs.median.Set(math.NaN())
}

// Push adds a single value, see median.Median.Push.
func (p *Processor[T]) Push(x T) (T, error) {
	err := p.m.Push(x)
	if err != nil {
		p.mtrcs.valuesRejected.Inc()
		return 0, err
	}
	med, _ := p.m.Get()
	p.mtrcs.valuesAccepted.Inc()
	p.mtrcs.valuesStored.Set(float64(p.m.Len()))
	p.mtrcs.median.Set(float64(med))
	return med, nil
}

// Run reads records from r until EOF and calls emit for every accepted value.
// Blank lines and lines starting with '#' are ignored; a line equal to the
// reset marker clears the median. Rejected values and records longer than
// Options.MaxRecordSize are skipped if Options.SkipInvalid is set and end the
// run otherwise.
func (p *Processor[T]) Run(ctx context.Context, r io.Reader, emit func(Result[T]) error) (
	Summary[T], error) {
	var s Summary[T]
	lr := newLineReader(r, p.opts.MaxRecordSize)
	line := 0
	for {
		b, err := lr.next()
		if err == io.EOF {
			break
		}
		if err != nil && !errors.Is(err, ErrRecordTooLong) {
			return p.summarize(s), fmt.Errorf("failed to read input: %w", err)
		}
		line++
		if ctxErr := ctx.Err(); ctxErr != nil {
			return p.summarize(s), ctxErr
		}
		if err != nil {
			p.mtrcs.valuesRejected.Inc()
			s.Rejected++
			p.log.Warn("rejected record", zap.Int("line", line),
				zap.Int("limit", p.opts.MaxRecordSize), zap.Error(err))
			if !p.opts.SkipInvalid {
				return p.summarize(s), fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}

		rec := strings.TrimSpace(string(b))
		if rec == "" || strings.HasPrefix(rec, "#") {
			continue
		}
		if p.opts.ResetMarker != "" && rec == p.opts.ResetMarker {
			p.log.Info("resetting median", zap.Int("line", line), zap.Int("count", p.m.Len()))
			p.Reset()
			s.Resets++
			continue
		}

		xs, err := parseRecord[T](p.opts.Format, rec)
		if err != nil {
			p.mtrcs.valuesRejected.Inc()
			s.Rejected++
			p.log.Warn("rejected record", zap.Int("line", line), zap.String("record", rec), zap.Error(err))
			if !p.opts.SkipInvalid {
				return p.summarize(s), fmt.Errorf("line %d: %w", line, err)
			}
			continue
		}

		for _, x := range xs {
			med, err := p.Push(x)
			if err != nil {
				s.Rejected++
				p.log.Warn("rejected value", zap.Int("line", line), zap.String("record", rec), zap.Error(err))
				if !p.opts.SkipInvalid {
					return p.summarize(s), fmt.Errorf("line %d: %w", line, err)
				}
				continue
			}
			s.Accepted++
			p.log.Debug("accepted value",
				zap.Int("line", line),
				zap.Float64("value", float64(x)),
				zap.Float64("median", float64(med)),
				zap.Int("count", p.m.Len()),
			)
			if emit != nil {
				err = emit(Result[T]{Line: line, Value: x, Median: med, Count: p.m.Len()})
				if err != nil {
					return p.summarize(s), err
				}
			}
		}
	}
	return p.summarize(s), nil
}

func (p *Processor[T]) summarize(s Summary[T]) Summary[T] {
	s.Median, s.HasMedian = p.m.Get()
	return s
}
