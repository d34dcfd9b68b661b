package stream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sugawarayuuta/sonnet"

	"example.com/rolling-median/base/floats"
	"example.com/rolling-median/core/config"
)

func bitSize[T floats.Float]() int {
	var x T
	switch any(x).(type) {
	case float32:
		return 32
	default:
		return 64
	}
}

// parseText parses a single value. "NaN", "Inf" and "-Inf" are accepted in
// any case; values out of range for T are malformed.
func parseText[T floats.Float](s string) (T, error) {
	f, err := strconv.ParseFloat(s, bitSize[T]())
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrMalformedValue, s, err)
	}
	return T(f), nil
}

// parseJSON parses a JSON number or an array of JSON numbers. null is not a
// number.
func parseJSON[T floats.Float](s string) ([]T, error) {
	var err error
	var ps []*T
	if strings.HasPrefix(s, "[") {
		err = sonnet.Unmarshal([]byte(s), &ps)
	} else {
		var p *T
		err = sonnet.Unmarshal([]byte(s), &p)
		ps = []*T{p}
	}
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrMalformedValue, s, err)
	}
	xs := make([]T, len(ps))
	for i, p := range ps {
		if p == nil {
			return nil, fmt.Errorf("%w %q: null at position %d", ErrMalformedValue, s, i)
		}
		xs[i] = *p
	}
	return xs, nil
}

func parseRecord[T floats.Float](format, s string) ([]T, error) {
	switch format {
	case config.FormatText, "":
		x, err := parseText[T](s)
		if err != nil {
			return nil, err
		}
		return []T{x}, nil
	case config.FormatJSON:
		return parseJSON[T](s)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}
