package stream

import (
	"bufio"
	"io"
	"strings"
)

// maxEventSize bounds a single line and the joined data of one event.
const maxEventSize = 1 << 20

// sseEvent is one dispatched Server-Sent Event.
type sseEvent struct {
	Name string // "event:" field, empty for the default type
	ID   string // "id:" field
	Data string // data lines joined with "\n"

	// Oversize marks an event whose line or data exceeded the size limit.
	// Its Data is dropped.
	Oversize bool
}

// sseScanner splits an SSE byte stream into events. Events end at a blank
// line, comment lines (leading ':') and unknown fields are skipped, and
// blocks without any data line are not dispatched.
type sseScanner struct {
	reader  *bufio.Reader
	max     int
	current sseEvent
	err     error
}

func newSSEScanner(r io.Reader) *sseScanner {
	return newSSEScannerSize(r, maxEventSize)
}

func newSSEScannerSize(r io.Reader, max int) *sseScanner {
	return &sseScanner{reader: bufio.NewReaderSize(r, 64*1024), max: max}
}

// Next advances to the next event. It returns false at end of stream or on
// a read error; Err tells them apart.
func (s *sseScanner) Next() bool {
	if s.err != nil {
		return false
	}

	var (
		data     []string
		size     int
		name     string
		id       string
		hasData  bool
		oversize bool
	)
	emit := func() {
		s.current = sseEvent{Name: name, ID: id, Data: strings.Join(data, "\n"), Oversize: oversize}
		if oversize {
			s.current.Data = ""
		}
	}
	for {
		line, truncated, err := s.readLine()
		if err != nil && line == "" && !truncated {
			s.err = err
			// A final event without its trailing blank line is still delivered.
			if err == io.EOF && hasData {
				emit()
				return true
			}
			return false
		}

		if line == "" && !truncated {
			if hasData {
				emit()
				return true
			}
			name, id, oversize = "", "", false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		if truncated {
			oversize = true
		}
		switch field {
		case "data":
			hasData = true
			size += len(value) + 1
			if truncated || size > s.max {
				oversize = true
				data = nil
				continue
			}
			if !oversize {
				data = append(data, value)
			}
		case "event":
			name = value
		case "id":
			id = value
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// max is consumed up to its newline and only its first max bytes are kept.
func (s *sseScanner) readLine() (line string, truncated bool, err error) {
	var buf []byte
	for {
		frag, rerr := s.reader.ReadSlice('\n')
		if room := s.max + 2 - len(buf); room > 0 {
			if len(frag) > room {
				buf = append(buf, frag[:room]...)
			} else {
				buf = append(buf, frag...)
			}
		}
		if rerr == bufio.ErrBufferFull {
			continue
		}
		err = rerr
		break
	}

	trimmed := strings.TrimRight(string(buf), "\r\n")
	if len(trimmed) > s.max {
		return trimmed[:s.max], true, err
	}
	return trimmed, false, err
}

// Event returns the event read by the last successful Next.
func (s *sseScanner) Event() sseEvent {
	return s.current
}

// Err returns the read error that stopped the scanner, or nil on clean EOF.
func (s *sseScanner) Err() error {
	if s.err == io.EOF {
		return nil
	}
	return s.err
}
