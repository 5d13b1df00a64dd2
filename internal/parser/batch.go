package parser

import (
	"bufio"
	"io"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/pkg/errors"
)

// Skip records a rejected line and why.
type Skip struct {
	LineNo int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
	err    error
}

func (s Skip) Err() error {
	return s.err
}

// Batch is the outcome of parsing a whole snapshot.
type Batch struct {
	Records []models.ServiceRecord
	Skipped []Skip
}

// ParseLines parses every line in order. Blank and header lines are dropped
// silently; anything else that fails is kept in Skipped.
func ParseLines(lines []string) Batch {
	var b Batch
	for i, line := range lines {
		rec, err := ParseLine(line)
		if err == nil {
			b.Records = append(b.Records, rec)
			continue
		}
		if errors.Is(err, ErrBlank) || errors.Is(err, ErrHeader) {
			continue
		}
		var se *SkipError
		reason := err.Error()
		if errors.As(err, &se) {
			reason = se.Reason.Error()
		}
		b.Skipped = append(b.Skipped, Skip{LineNo: i + 1, Reason: reason, err: err})
	}
	return b
}

// ReadLines reads a snapshot from r. lsof NAME columns can be long, so the
// scanner buffer is raised above the bufio default.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot")
	}
	return lines, nil
}
