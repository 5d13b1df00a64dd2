package models

import (
	"strconv"
	"strings"
)

type Protocol string

const (
	ProtocolTCP     Protocol = "TCP"
	ProtocolUDP     Protocol = "UDP"
	ProtocolICMP    Protocol = "ICMP"
	ProtocolICMPv6  Protocol = "ICMPV6"
	ProtocolUnknown Protocol = "UNKNOWN"
)

type State string

const (
	StateListening   State = "LISTENING"
	StateEstablished State = "ESTABLISHED"
	StateClosed      State = "CLOSED"
	StateSynSent     State = "SYN_SENT"
	StateOther       State = "OTHER"
)

// IsConnection reports whether records in this state belong to the connection set.
func (s State) IsConnection() bool {
	return s == StateEstablished || s == StateClosed || s == StateSynSent
}

type Endpoint struct {
	Address string `json:"address" yaml:"address"`
	Port    *int   `json:"port,omitempty" yaml:"port,omitempty"`
}

// ServiceRecord is one socket line of an lsof snapshot.
type ServiceRecord struct {
	Command   string    `json:"command" yaml:"command"`
	PID       int       `json:"pid" yaml:"pid"`
	User      string    `json:"user" yaml:"user"`
	Protocol  Protocol  `json:"protocol" yaml:"protocol"`
	State     State     `json:"state" yaml:"state"`
	Port      *int      `json:"port,omitempty" yaml:"port,omitempty"`
	Interface string    `json:"interface,omitempty" yaml:"interface,omitempty"`
	Remote    *Endpoint `json:"remote,omitempty" yaml:"remote,omitempty"`
	RawName   string    `json:"raw_name" yaml:"raw_name"`
}

func (s ServiceRecord) HasPort() bool {
	return s.Port != nil
}

// PortOr returns the port, or def when the record has none.
func (s ServiceRecord) PortOr(def int) int {
	if s.Port == nil {
		return def
	}
	return *s.Port
}

// AllInterfaces reports whether the socket is bound to the wildcard address.
func (s ServiceRecord) AllInterfaces() bool {
	return s.Interface == "*" || s.Interface == "0.0.0.0"
}

func (s ServiceRecord) Ref() ServiceRef {
	return ServiceRef{Command: s.Command, PID: s.PID, User: s.User, Port: s.PortOr(0)}
}

// IntPtr is a small helper for optional ports.
func IntPtr(v int) *int {
	return &v
}

// CleanCommand undoes lsof's \x20 escaping of spaces in command names.
func CleanCommand(cmd string) string {
	return strings.ReplaceAll(cmd, `\x20`, " ")
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
