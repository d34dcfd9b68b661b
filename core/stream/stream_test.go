package stream_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"example.com/rolling-median/core/config"
	"example.com/rolling-median/core/median"
	"example.com/rolling-median/core/stream"
)

type collected[T float32 | float64] struct {
	medians []T
	lines   []int
}

func (c *collected[T]) emit(r stream.Result[T]) error {
	c.medians = append(c.medians, r.Median)
	c.lines = append(c.lines, r.Line)
	return nil
}

func TestRunText(t *testing.T) {
	input := `# sample data
3.27
4.60

5.95
9.93
7.79
`
	p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{SkipInvalid: true})
	var c collected[float64]
	s, err := p.Run(context.Background(), strings.NewReader(input), c.emit)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []float64{3.27, 3.935, 4.60, 4.775, 5.95}
	if len(c.medians) != len(want) {
		t.Fatalf("got %d medians, want %d", len(c.medians), len(want))
	}
	for i := range want {
		if math.Abs(c.medians[i]-want[i]) > 1e-12 {
			t.Errorf("median %d = %v, want %v", i, c.medians[i], want[i])
		}
	}
	wantLines := []int{2, 3, 5, 6, 7}
	for i := range wantLines {
		if c.lines[i] != wantLines[i] {
			t.Errorf("line of result %d = %d, want %d", i, c.lines[i], wantLines[i])
		}
	}
	if s.Accepted != 5 || s.Rejected != 0 || !s.HasMedian || s.Median != 5.95 {
		t.Errorf("Run() summary = %+v", s)
	}
}

func TestRunSkipInvalid(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := stream.New[float64](zaptest.NewLogger(t), reg, stream.Options{SkipInvalid: true})
	input := "1\nNaN\nfoo\n3\n1e999\ninf\n"
	s, err := p.Run(context.Background(), strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.Accepted != 3 || s.Rejected != 3 {
		t.Errorf("Run() summary = %+v, want 3 accepted, 3 rejected", s)
	}
	if s.Median != 3 || p.Len() != 3 {
		t.Errorf("median = %v, len = %d, want 3, 3", s.Median, p.Len())
	}

	gathered, err := testutil.GatherAndCount(reg)
	if err != nil || gathered != 5 {
		t.Errorf("GatherAndCount() = %d, %v, want 5 metrics", gathered, err)
	}
}

func TestRunStopOnInvalid(t *testing.T) {
	p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{})
	s, err := p.Run(context.Background(), strings.NewReader("1\n2\nnan\n4\n"), nil)
	if !errors.Is(err, median.ErrInvalidValue) {
		t.Fatalf("Run() error = %v, want %v", err, median.ErrInvalidValue)
	}
	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("Run() error = %v, want line number", err)
	}
	if s.Accepted != 2 || s.Rejected != 1 || s.Median != 1.5 {
		t.Errorf("Run() summary = %+v", s)
	}

	p = stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{})
	_, err = p.Run(context.Background(), strings.NewReader("1\nx\n"), nil)
	if !errors.Is(err, stream.ErrMalformedValue) {
		t.Errorf("Run() error = %v, want %v", err, stream.ErrMalformedValue)
	}
}

func TestRunReset(t *testing.T) {
	p := stream.New[float32](zaptest.NewLogger(t), nil, stream.Options{ResetMarker: config.DefaultResetMarker})
	s, err := p.Run(context.Background(), strings.NewReader("100\n200\nreset\n1\n2\n3\n"), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.Resets != 1 || s.Accepted != 5 || s.Median != 2 || p.Len() != 3 {
		t.Errorf("Run() summary = %+v, len = %d", s, p.Len())
	}

	s, err = p.Run(context.Background(), strings.NewReader("reset\n"), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.HasMedian || p.Len() != 0 {
		t.Errorf("Run() summary = %+v after reset, want no median", s)
	}
}

func TestRunJSON(t *testing.T) {
	p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{Format: config.FormatJSON})
	var c collected[float64]
	s, err := p.Run(context.Background(), strings.NewReader("[1, 5]\n3\n[]\n[2.5, 4]\n"), c.emit)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []float64{1, 3, 3, 2.75, 3}
	if len(c.medians) != len(want) {
		t.Fatalf("got %d medians, want %d", len(c.medians), len(want))
	}
	for i := range want {
		if c.medians[i] != want[i] {
			t.Errorf("median %d = %v, want %v", i, c.medians[i], want[i])
		}
	}
	if s.Accepted != 5 {
		t.Errorf("Run() summary = %+v", s)
	}

	for _, rec := range []string{"{\"a\": 1}", "null", "[null, 5]", "[5, null]", "true"} {
		p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{Format: config.FormatJSON})
		s, err := p.Run(context.Background(), strings.NewReader(rec+"\n"), nil)
		if !errors.Is(err, stream.ErrMalformedValue) {
			t.Errorf("Run(%q) error = %v, want %v", rec, err, stream.ErrMalformedValue)
		}
		if s.Accepted != 0 || s.Rejected != 1 || s.HasMedian {
			t.Errorf("Run(%q) summary = %+v, want 1 rejected record and no median", rec, s)
		}
	}
}

func TestRunLongRecord(t *testing.T) {
	n := 30_000
	long := "[" + strings.Repeat("1.25, ", n-1) + "1.25]"
	if len(long) <= 64*1024 {
		t.Fatalf("record of %d bytes is too short", len(long))
	}

	p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{Format: config.FormatJSON})
	s, err := p.Run(context.Background(), strings.NewReader(long+"\n2\n"), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.Accepted != n+1 || s.Median != 1.25 {
		t.Errorf("Run() summary = %+v, want %d accepted, median 1.25", s, n+1)
	}

	opts := stream.Options{Format: config.FormatJSON, SkipInvalid: true, MaxRecordSize: 1024}
	p = stream.New[float64](zaptest.NewLogger(t), nil, opts)
	var c collected[float64]
	s, err = p.Run(context.Background(), strings.NewReader("3\n"+long+"\n[5, 7]\n"), c.emit)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.Accepted != 3 || s.Rejected != 1 || s.Median != 5 {
		t.Errorf("Run() summary = %+v, want 3 accepted, 1 rejected, median 5", s)
	}
	wantLines := []int{1, 3, 3}
	for i := range wantLines {
		if i >= len(c.lines) || c.lines[i] != wantLines[i] {
			t.Errorf("lines of results = %v, want %v", c.lines, wantLines)
			break
		}
	}

	opts.SkipInvalid = false
	p = stream.New[float64](zaptest.NewLogger(t), nil, opts)
	s, err = p.Run(context.Background(), strings.NewReader("3\n"+long+"\n[5, 7]\n"), nil)
	if !errors.Is(err, stream.ErrRecordTooLong) || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Run() error = %v, want %v at line 2", err, stream.ErrRecordTooLong)
	}
	if s.Accepted != 1 || s.Rejected != 1 {
		t.Errorf("Run() summary = %+v, want 1 accepted, 1 rejected", s)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{})
	_, err := p.Run(ctx, strings.NewReader("1\n"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want %v", err, context.Canceled)
	}
}

func TestRunEmitError(t *testing.T) {
	errStop := errors.New("stop")
	p := stream.New[float64](zaptest.NewLogger(t), nil, stream.Options{})
	s, err := p.Run(context.Background(), strings.NewReader("1\n2\n3\n"), func(r stream.Result[float64]) error {
		if r.Count == 2 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) || s.Accepted != 2 {
		t.Errorf("Run() = %+v, %v, want 2 accepted and %v", s, err, errStop)
	}
}

func TestNewUnknownFormat(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("New with unknown format did not panic")
		}
	}()
	stream.New[float64](nil, nil, stream.Options{Format: "csv"})
}

func TestNewNegativeRecordSize(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("New with negative record size limit did not panic")
		}
	}()
	stream.New[float64](nil, nil, stream.Options{MaxRecordSize: -1})
}
