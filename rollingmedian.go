// Rolling median tool

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/mmcloughlin/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/rolling-median/base/floats"
	"example.com/rolling-median/base/zaplog"

	"example.com/rolling-median/benchmark"

	"example.com/rolling-median/core/config"
	"example.com/rolling-median/core/stream"
)

var (
	log *zap.Logger
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		// See https://github.com/scionproto/scion/blob/master/pkg/log/log.go
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(log)
}

func runMonitor(log *zap.Logger, addr string) {
	http.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(addr, nil)
	log.Fatal("failed to serve metrics", zap.Error(err))
}

func loadConfig(configFile string) config.Config {
	if configFile == "" {
		return config.Default()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal("failed to load configuration", zap.String("file", configFile), zap.Error(err))
	}
	return cfg
}

func openInput(input string) io.ReadCloser {
	if input == config.StdinInput {
		return io.NopCloser(os.Stdin)
	}
	f, err := os.Open(input)
	if err != nil {
		log.Fatal("failed to open input", zap.String("input", input), zap.Error(err))
	}
	return f
}

func runStream[T floats.Float](ctx context.Context, cfg config.Config) {
	in := openInput(cfg.Input)
	defer in.Close()

	out := bufio.NewWriter(os.Stdout)

	p := stream.New[T](log, prometheus.DefaultRegisterer, stream.Options{
		Format:        cfg.Format,
		SkipInvalid:   cfg.SkipInvalid,
		ResetMarker:   cfg.ResetMarker,
		CapacityHint:  cfg.CapacityHint,
		MaxRecordSize: cfg.MaxRecordSize,
	})

	emit := func(r stream.Result[T]) error {
		if !cfg.PrintEachValue {
			return nil
		}
		_, err := fmt.Fprintf(out, "median so far: %v\n", r.Median)
		return err
	}
	s, err := p.Run(ctx, in, emit)
	if err != nil {
		_ = out.Flush()
		log.Fatal("failed to process input", zap.String("input", cfg.Input), zap.Error(err))
	}

	err = writeSummary(out, s)
	if err != nil {
		log.Fatal("failed to write output", zap.Error(err))
	}
	log.Info("processed input",
		zap.String("input", cfg.Input),
		zap.Int("accepted", s.Accepted),
		zap.Int("rejected", s.Rejected),
		zap.Int("resets", s.Resets),
	)
}

// writeSummary prints the final median and flushes out.
func writeSummary[T floats.Float](out *bufio.Writer, s stream.Summary[T]) error {
	var err error
	if s.HasMedian {
		_, err = fmt.Fprintf(out, "final median: %v\n", s.Median)
	} else {
		_, err = fmt.Fprintln(out, "final median: none")
	}
	if err != nil {
		return err
	}
	return out.Flush()
}

func runRun(cfg config.Config) {
	err := cfg.Validate()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.MetricsAddr != "" {
		go runMonitor(log, cfg.MetricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cfg.Precision {
	case 32:
		runStream[float32](ctx, cfg)
	case 64:
		runStream[float64](ctx, cfg)
	}
}

func runBenchmark(prof *profile.Profile, precision, count int, seed uint64) {
	defer prof.Start().Stop()
	err := benchmark.Run(log, os.Stdout, precision, count, seed)
	if err != nil {
		log.Fatal("benchmark failed", zap.Error(err))
	}
}

func exitWithUsage() {
	fmt.Println("usage: rollingmedian run [-config file] [-input path] [-precision 32|64] [-format text|json] [-metrics addr] [-quiet] [-verbose]")
	fmt.Println("       rollingmedian benchmark [-precision 32|64] [-count n] [-seed s] [-cpuprofile file] [-memprofile file] [-verbose]")
	os.Exit(1)
}

func main() {
	var (
		verbose     bool
		quiet       bool
		configFile  string
		input       string
		format      string
		metricsAddr string
		precision   int
		benchPrec   int
		count       int
		seed        uint64
	)

	runFlags := flag.NewFlagSet("run", flag.ExitOnError)
	benchmarkFlags := flag.NewFlagSet("benchmark", flag.ExitOnError)

	runFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	runFlags.BoolVar(&quiet, "quiet", false, "Print the final median only")
	runFlags.StringVar(&configFile, "config", "", "Config file")
	runFlags.StringVar(&input, "input", "", "Input file, - for stdin")
	runFlags.StringVar(&format, "format", "", "Input format")
	runFlags.StringVar(&metricsAddr, "metrics", "", "Metrics address")
	runFlags.IntVar(&precision, "precision", 0, "Precision in bits")

	benchmarkFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	benchmarkFlags.IntVar(&benchPrec, "precision", 64, "Precision in bits")
	benchmarkFlags.IntVar(&count, "count", 1_000_000, "Number of values")
	benchmarkFlags.Uint64Var(&seed, "seed", 0, "Random seed")
	prof := profile.New(profile.CPUProfile, profile.MemProfile)
	prof.SetFlags(benchmarkFlags)

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case runFlags.Name():
		err := runFlags.Parse(os.Args[2:])
		if err != nil || runFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		cfg := loadConfig(configFile)
		if input != "" {
			cfg.Input = input
		}
		if format != "" {
			cfg.Format = format
		}
		if metricsAddr != "" {
			cfg.MetricsAddr = metricsAddr
		}
		if precision != 0 {
			cfg.Precision = precision
		}
		if quiet {
			cfg.PrintEachValue = false
		}
		runRun(cfg)
	case benchmarkFlags.Name():
		err := benchmarkFlags.Parse(os.Args[2:])
		if err != nil || benchmarkFlags.NArg() != 0 {
			exitWithUsage()
		}
		if benchPrec != 32 && benchPrec != 64 {
			exitWithUsage()
		}
		if count <= 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runBenchmark(prof, benchPrec, count, seed)
	default:
		exitWithUsage()
	}
}
