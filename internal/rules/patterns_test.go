package rules

import (
	"testing"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func svc(cmd string, port int, user, iface string) models.ServiceRecord {
	return models.ServiceRecord{
		Command:   cmd,
		User:      user,
		Protocol:  models.ProtocolTCP,
		State:     models.StateListening,
		Port:      models.IntPtr(port),
		Interface: iface,
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		svc  models.ServiceRecord
		ids  []string
	}{
		{"redis exposed", svc("redis-server", 6379, "redis", "*"), []string{"redis_exposed"}},
		{"redis local", svc("redis-server", 6379, "redis", "127.0.0.1"), nil},
		{"mongo exposed", svc("mongod", 27017, "mongodb", "0.0.0.0"), []string{"mongodb_exposed"}},
		{"ssh root", svc("sshd", 22, "root", "127.0.0.1"), []string{"ssh_root"}},
		{"ssh user", svc("sshd", 22, "sshd", "*"), nil},
		{"dev server", svc("node", 8080, "alice", "*"), []string{"dev_server_exposed"}},
		{"no port", models.ServiceRecord{Command: "x", Interface: "*"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, r := range Match(tt.svc) {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestFixCommandsFor(t *testing.T) {
	redis := FixCommandsFor(svc("redis-server", 6379, "redis", "*"))
	require.NotEmpty(t, redis)
	assert.Contains(t, redis[0], "redis-cli CONFIG SET requirepass")
	assert.Contains(t, redis, "redis-cli CONFIG REWRITE")

	assert.NotEmpty(t, FixCommandsFor(svc("sshd", 22, "root", "*")))
	assert.Empty(t, FixCommandsFor(svc("sshd", 22, "sshd", "*")))
	assert.Empty(t, FixCommandsFor(svc("node", 3000, "alice", "*")))
}

func TestRecommendationFor(t *testing.T) {
	assert.Contains(t, RecommendationFor(svc("redis-server", 6379, "redis", "*")), "Redis authentication")
	assert.Equal(t, "Review security configuration for Code H on port 9999",
		RecommendationFor(svc(`Code\x20H`, 9999, "alice", "*")))
}

func TestQuickCheck(t *testing.T) {
	res := QuickCheck([]models.ServiceRecord{
		svc("redis-server", 6379, "redis", "*"),
		svc("sshd", 22, "root", "*"),
		svc("node", 3000, "alice", "*"),
	})
	assert.Equal(t, 1, res.CriticalIssues)
	assert.Equal(t, 1, res.HighIssues)
	assert.Equal(t, 100-15-10, res.Score)
	assert.Len(t, res.Issues, 3)
	assert.Equal(t, "Run full analysis for detailed recommendations", res.Recommendation)

	clean := QuickCheck(nil)
	assert.Equal(t, 100, clean.Score)
	assert.Empty(t, clean.Issues)
	assert.Equal(t, "Looking good!", clean.Recommendation)
}

func TestQuickCheckClampsAndTruncates(t *testing.T) {
	var services []models.ServiceRecord
	for i := 0; i < 12; i++ {
		services = append(services, svc("redis-server", 6379, "redis", "*"))
	}
	res := QuickCheck(services)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 12, res.CriticalIssues)
	assert.Len(t, res.Issues, 10)
}

func TestAdviceForPort(t *testing.T) {
	assert.Equal(t, "Redis", AdviceForPort(6379).Service)
	assert.Equal(t, "SSH", AdviceForPort(22).Service)

	generic := AdviceForPort(1234)
	assert.Equal(t, "Unknown", generic.Service)
	assert.Contains(t, generic.Commands[0], "lsof -i :1234")
}

func TestRecommendations(t *testing.T) {
	reg := registry.Build([]models.ServiceRecord{
		svc("redis-server", 6379, "redis", "*"),
		svc("sshd", 22, "root", "127.0.0.1"),
	})
	recs := Recommendations(reg, Evaluate(reg))
	assert.Equal(t, []string{
		"Bind services to localhost/127.0.0.1 when possible",
		"Add authentication to Redis (requirepass)",
		"Use SSH keys instead of passwords, disable root login",
		"Consider using a firewall (pf/iptables) to restrict access",
		"Run regular audits with 'netwatch analyze'",
	}, recs)
}
