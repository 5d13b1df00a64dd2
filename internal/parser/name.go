package parser

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/K0NGR3SS/netwatch/internal/models"
)

type tokenKind int

const (
	tokenOther tokenKind = iota
	tokenEndpoint
	tokenPair
	tokenState
)

type token struct {
	kind tokenKind
	text string
}

// stateMarkers is checked in order; the first marker found in the name wins.
var stateMarkers = []struct {
	marker string
	state  models.State
}{
	{"(LISTEN)", models.StateListening},
	{"(ESTABLISHED)", models.StateEstablished},
	{"(CLOSED)", models.StateClosed},
	{"(SYN_SENT)", models.StateSynSent},
}

func tokenize(name string) []token {
	fields := strings.Fields(name)
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "(") && strings.HasSuffix(f, ")"):
			tokens = append(tokens, token{tokenState, f})
		case strings.Contains(f, "->"):
			tokens = append(tokens, token{tokenPair, f})
		case strings.Contains(f, ":"):
			tokens = append(tokens, token{tokenEndpoint, f})
		default:
			tokens = append(tokens, token{tokenOther, f})
		}
	}
	return tokens
}

func stateOf(name string) models.State {
	for _, m := range stateMarkers {
		if strings.Contains(name, m.marker) {
			return m.state
		}
	}
	return models.StateOther
}

// applyName fills state, port, interface and remote from rec.RawName.
func applyName(rec *models.ServiceRecord) {
	rec.State = stateOf(rec.RawName)
	tokens := tokenize(rec.RawName)

	switch {
	case rec.State == models.StateListening:
		for _, t := range tokens {
			local := t.text
			if t.kind == tokenPair {
				local, _, _ = strings.Cut(t.text, "->")
			} else if t.kind != tokenEndpoint {
				continue
			}
			if setLocal(rec, local) {
				return
			}
		}

	case rec.State.IsConnection():
		for _, t := range tokens {
			if t.kind != tokenPair {
				continue
			}
			local, remote, _ := strings.Cut(t.text, "->")
			setLocal(rec, local)
			rec.Remote = parseRemote(remote)
			return
		}

	case rec.Protocol == models.ProtocolUDP:
		// No state column: only an endpoint at the very end counts.
		if n := len(tokens); n > 0 && tokens[n-1].kind == tokenEndpoint {
			setLocal(rec, tokens[n-1].text)
		}
	}
}

func setLocal(rec *models.ServiceRecord, s string) bool {
	addr, port, ok := parseEndpoint(s)
	if !ok {
		return false
	}
	rec.Port = models.IntPtr(port)
	rec.Interface = addr
	return true
}

// parseEndpoint accepts "*:port", "a.b.c.d:port" and "[v6]:port" with a numeric port.
func parseEndpoint(s string) (string, int, bool) {
	var addr, portStr string
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 || end+1 >= len(s) || s[end+1] != ':' {
			return "", 0, false
		}
		addr, portStr = s[1:end], s[end+2:]
		ip, err := netip.ParseAddr(addr)
		if err != nil || !ip.Is6() {
			return "", 0, false
		}
	} else {
		i := strings.LastIndex(s, ":")
		if i < 0 {
			return "", 0, false
		}
		addr, portStr = s[:i], s[i+1:]
		if addr != "*" {
			ip, err := netip.ParseAddr(addr)
			if err != nil || !ip.Is4() {
				return "", 0, false
			}
		}
	}

	port, ok := parsePort(portStr)
	if !ok {
		return "", 0, false
	}
	return addr, port, true
}

// parseRemote is lenient: the peer may be a hostname and the port a service name.
func parseRemote(s string) *models.Endpoint {
	if s == "" {
		return nil
	}
	ep := &models.Endpoint{Address: s}
	if strings.HasPrefix(s, "[") {
		if end := strings.Index(s, "]"); end > 0 {
			ep.Address = s[1:end]
			if rest := s[end+1:]; strings.HasPrefix(rest, ":") {
				if p, ok := parsePort(rest[1:]); ok {
					ep.Port = models.IntPtr(p)
				}
			}
		}
		return ep
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		ep.Address = s[:i]
		if p, ok := parsePort(s[i+1:]); ok {
			ep.Port = models.IntPtr(p)
		}
	}
	return ep
}

func parsePort(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	p, err := strconv.Atoi(s)
	if err != nil || p > 65535 {
		return 0, false
	}
	return p, true
}
