package stream

import (
	"bufio"
	"io"
)

// lineReader splits input into lines of at most max bytes, not counting the
// line terminator. A longer line is consumed in full and reported as
// ErrRecordTooLong, so reading can continue with the next line.
type lineReader struct {
	r   *bufio.Reader
	max int
	buf []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReader(r), max: max}
}

// next returns the next line without its '\n' terminator, or io.EOF once the
// input is exhausted. The returned slice is valid until the next call.
func (lr *lineReader) next() ([]byte, error) {
	lr.buf = lr.buf[:0]
	n := 0
	for {
		chunk, err := lr.r.ReadSlice('\n')
		n += len(chunk)
		if n <= lr.max+1 {
			lr.buf = append(lr.buf, chunk...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && (err != io.EOF || n == 0) {
			return nil, err
		}
		size := n
		if err == nil {
			size--
		}
		if size > lr.max {
			return nil, ErrRecordTooLong
		}
		return lr.buf[:size], nil
	}
}
