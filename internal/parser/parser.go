// Package parser turns lsof socket lines into service records.
//
// A line is split on whitespace, the protocol token is located by scanning
// (its column moves when the user column contains spaces), and the trailing
// NAME column is tokenized into endpoints, local->remote pairs and a state
// marker. Malformed lines are never fatal: they come back as a *SkipError.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/pkg/errors"
)

// HeaderToken starts the column header line printed by lsof.
const HeaderToken = "COMMAND"

// minFields is command, pid, user, protocol and at least one name token.
const minFields = 5

var (
	ErrBlank        = errors.New("blank line")
	ErrHeader       = errors.New("header line")
	ErrTooFewFields = errors.New("too few fields")
	ErrNoProtocol   = errors.New("no protocol token")
	ErrBadPID       = errors.New("pid is not numeric")
	ErrPanic        = errors.New("unparseable line")
)

var protocols = map[string]models.Protocol{
	"TCP":    models.ProtocolTCP,
	"UDP":    models.ProtocolUDP,
	"ICMP":   models.ProtocolICMP,
	"ICMPV6": models.ProtocolICMPv6,
}

// SkipError explains why a line produced no record.
type SkipError struct {
	Line   string
	Reason error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped %q: %v", truncate(e.Line, 50), e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Reason
}

func skip(line string, reason error) error {
	return &SkipError{Line: line, Reason: reason}
}

// ParseLine parses a single lsof line. Any failure, including a panic in the
// name tokenizer, is reported as a *SkipError wrapping one of the Err* reasons.
func ParseLine(line string) (rec models.ServiceRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = models.ServiceRecord{}
			err = skip(line, errors.Wrapf(ErrPanic, "%v", r))
		}
	}()

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return rec, skip(line, ErrBlank)
	}
	if strings.HasPrefix(trimmed, HeaderToken) {
		return rec, skip(line, ErrHeader)
	}

	fields := strings.Fields(trimmed)
	if len(fields) < minFields {
		return rec, skip(line, ErrTooFewFields)
	}

	idx := protocolIndex(fields)
	if idx < 0 {
		return rec, skip(line, ErrNoProtocol)
	}
	if idx == len(fields)-1 {
		return rec, skip(line, ErrTooFewFields)
	}

	pid, convErr := strconv.Atoi(fields[1])
	if convErr != nil {
		return rec, skip(line, ErrBadPID)
	}

	rec = models.ServiceRecord{
		Command:  fields[0],
		PID:      pid,
		User:     userField(fields, idx),
		Protocol: protocols[fields[idx]],
		RawName:  strings.Join(fields[idx+1:], " "),
	}
	applyName(&rec)
	return rec, nil
}

// protocolIndex finds the protocol column. The first three columns are always
// command, pid and user, so the scan starts after them.
func protocolIndex(fields []string) int {
	for i := 3; i < len(fields); i++ {
		if _, ok := protocols[fields[i]]; ok {
			return i
		}
	}
	return -1
}

// ppidProtocolIndex is where the protocol lands when lsof prints a PPID column
// (-R): command, pid, ppid, user, fd, type, device, size/off, then NODE.
const ppidProtocolIndex = 8

// userField returns the user column, skipping a numeric PPID column when the
// protocol sits far enough right for one to be present.
func userField(fields []string, protoIdx int) string {
	if protoIdx >= ppidProtocolIndex && isNumeric(fields[2]) {
		return fields[3]
	}
	return fields[2]
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
