package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshot = `COMMAND     PID   USER   FD   TYPE DEVICE SIZE/OFF NODE NAME
redis-ser   812   redis  6u   IPv4 0x1    0t0      TCP *:6379 (LISTEN)
sshd        1     root   3u   IPv4 0x2    0t0      TCP 127.0.0.1:22 (LISTEN)
Code\x20H   900   alice  30u  IPv4 0x3    0t0      TCP 127.0.0.1:3000 (LISTEN)
curl        5000  alice  5u   IPv4 0x4    0t0      TCP 192.168.1.10:53412->203.0.113.5:443 (ESTABLISHED)
curl        5001  alice  5u   IPv4 0x5    0t0      TCP 192.168.1.10:53413->203.0.113.6:443 (ESTABLISHED)
Spotify     700   alice  40u  IPv4 0x6    0t0      TCP 192.168.1.10:50000->10.0.0.5:4070 (ESTABLISHED)
garbage
`

func TestAnalyze(t *testing.T) {
	an, err := New(zerolog.Nop()).AnalyzeReader(strings.NewReader(snapshot))
	require.NoError(t, err)

	assert.Equal(t, 85, an.Report.Score)
	assert.Equal(t, rules.RatingFor(85), an.Report.Rating)
	assert.Equal(t, []int{6379}, an.Report.KnownRiskPorts)
	assert.Len(t, an.Report.ExternalConnections, 2)
	assert.Equal(t, 3, an.Report.Stats.Listening)
	assert.Equal(t, 3, an.Report.Stats.Established)

	require.Len(t, an.Skipped, 1)
	assert.Equal(t, 8, an.Skipped[0].LineNo)

	var cats []string
	for _, g := range an.Categories {
		cats = append(cats, g.Category)
	}
	assert.Equal(t, []string{"development", "communication", "other"}, cats)
	assert.Equal(t, CommandPorts{Command: "Code H", Ports: []string{"3000/TCP"}}, an.Categories[0].Commands[0])

	assert.Equal(t, []PortUsage{
		{Port: 22, Name: "SSH", Commands: []string{"sshd"}},
		{Port: 3000, Name: "Dev Server", Commands: []string{"Code H"}},
		{Port: 6379, Name: "Redis", Commands: []string{"redis-ser"}},
	}, an.WellKnownPorts)

	assert.Equal(t, []ConnectionCount{{"curl", 2}, {"Spotify", 1}}, an.TopConnections)
	assert.NotEmpty(t, an.Recommendations)
}

func TestAnalyzeEmpty(t *testing.T) {
	an := New(zerolog.Nop()).Analyze(nil)
	assert.Equal(t, 100, an.Report.Score)
	assert.NotNil(t, an.Skipped)
	assert.Empty(t, an.Categories)
	assert.Empty(t, an.WellKnownPorts)
	assert.Empty(t, an.TopConnections)
	assert.Empty(t, an.Services())
}

func TestAdvisoryRequest(t *testing.T) {
	an := New(zerolog.Nop()).Analyze(strings.Split(snapshot, "\n"))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	req := an.AdvisoryRequest(now)
	assert.Len(t, req.Services, 3)
	assert.Equal(t, 85, req.SecurityScore)
	assert.Equal(t, []string{"redis-ser:6379"}, req.Vulnerabilities)
	assert.Equal(t, []int{6379}, req.SuspiciousPorts)
	assert.Len(t, req.ExternalConnections, 2)
	assert.Equal(t, "2026-03-01T12:00:00Z", req.Timestamp)
	assert.Equal(t, "*", req.Services[0].Interface)
}

func TestTopConnectionsLimit(t *testing.T) {
	var lines []string
	for _, cmd := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		lines = append(lines, cmd+" 1 u 5u IPv4 0x1 0t0 TCP 10.0.0.1:5000->10.0.0.2:80 (ESTABLISHED)")
	}
	an := New(zerolog.Nop()).Analyze(lines)
	require.Len(t, an.TopConnections, 10)
	assert.Equal(t, "a", an.TopConnections[0].Command)
	assert.Equal(t, "j", an.TopConnections[9].Command)
}
