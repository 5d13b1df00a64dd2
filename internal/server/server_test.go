package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/K0NGR3SS/netwatch/internal/advisory"
	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/rules"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// LogCapture collects zerolog output for assertions.
type LogCapture struct {
	sync.Mutex
	logs []string
}

func (lc *LogCapture) Write(p []byte) (n int, err error) {
	lc.Lock()
	defer lc.Unlock()
	lc.logs = append(lc.logs, string(p))
	return len(p), nil
}

func (lc *LogCapture) GetLogs() []string {
	lc.Lock()
	defer lc.Unlock()
	return lc.logs
}

type staticRemote struct{ resp *advisory.Response }

func (s staticRemote) Advise(ctx context.Context, req advisory.Request) (*advisory.Response, error) {
	return s.resp, nil
}

func newTestServer(t *testing.T, remote advisory.Remote) (*httptest.Server, *LogCapture) {
	t.Helper()
	lc := &LogCapture{}
	logger := zerolog.New(lc)
	s := New(advisory.New(remote, nil, logger), analyzer.New(logger), "v1.0", logger)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, lc
}

const redisBody = `{"services":[{"command":"redis-server","port":6379,"protocol":"TCP","user":"redis","state":"LISTENING","interface":"*"}],"security_score":83,"vulnerabilities":["redis-server:6379"],"external_connections":[],"suspicious_ports":[6379]}`

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["api_configured"])
	assert.EqualValues(t, 0, body["cache_size"])
}

func TestAnalyzeFallsBackWithoutRemote(t *testing.T) {
	srv, lc := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/analyze", "application/json", strings.NewReader(redisBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fallback", resp.Header.Get(SourceHeader))

	var body advisory.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.RiskCritical, body.RiskLevel)
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, 9, body.Recommendations[0].Priority)

	logs := strings.Join(lc.GetLogs(), "")
	assert.Contains(t, logs, `"message":"analysis served"`)
	assert.Contains(t, logs, `"critical":1`)
}

func TestAnalyzeUsesCacheOnRepeat(t *testing.T) {
	remote := staticRemote{resp: &advisory.Response{RiskLevel: models.RiskLow, Recommendations: []advisory.Recommendation{}, ActionItems: []string{}}}
	srv, _ := newTestServer(t, remote)

	var sources []string
	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/analyze", "application/json", strings.NewReader(redisBody))
		require.NoError(t, err)
		resp.Body.Close()
		sources = append(sources, resp.Header.Get(SourceHeader))
	}
	assert.Equal(t, []string{"remote", "cache"}, sources)
}

func TestAnalyzeRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/analyze", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuickCheck(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := `[{"command":"redis-server","port":6379,"protocol":"TCP","user":"redis","state":"LISTENING","interface":"*"},
	          {"command":"sshd","port":22,"protocol":"TCP","user":"root","state":"LISTENING","interface":"*"}]`
	resp, err := http.Post(srv.URL+"/quick-check", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var res rules.QuickCheckResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 75, res.Score)
	assert.Equal(t, 1, res.CriticalIssues)
	assert.Equal(t, 1, res.HighIssues)
}

func TestRecommendations(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/recommendations/6379")
	require.NoError(t, err)
	defer resp.Body.Close()
	var advice rules.PortAdvice
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&advice))
	assert.Equal(t, "Redis", advice.Service)

	for _, bad := range []string{"abc", "0", "70000"} {
		resp, err := http.Get(srv.URL + "/recommendations/" + bad)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestReport(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	snapshot := "COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME\n" +
		"redis-ser 812 redis 6u IPv4 0x1 0t0 TCP *:6379 (LISTEN)\n" +
		"broken line\n"
	resp, err := http.Post(srv.URL+"/report", "text/plain", strings.NewReader(snapshot))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Report  models.SecurityReport `json:"report"`
		Skipped []json.RawMessage     `json:"skipped"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 85, body.Report.Score)
	assert.Len(t, body.Skipped, 1)
}

func TestRootAndUnknownMethod(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
