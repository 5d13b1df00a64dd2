package registry

import (
	"testing"

	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(cmd string, pid int, state models.State, port *int) models.ServiceRecord {
	return models.ServiceRecord{Command: cmd, PID: pid, User: "u", Protocol: models.ProtocolTCP, State: state, Port: port}
}

func TestBuild(t *testing.T) {
	records := []models.ServiceRecord{
		rec("nginx", 1, models.StateListening, models.IntPtr(80)),
		rec("nginx", 2, models.StateListening, models.IntPtr(80)),
		rec("sshd", 3, models.StateListening, models.IntPtr(22)),
		rec("named", 4, models.StateListening, nil),
		rec("curl", 5, models.StateEstablished, models.IntPtr(50000)),
		rec("curl", 5, models.StateSynSent, models.IntPtr(50001)),
		rec("Mail", 6, models.StateClosed, models.IntPtr(50002)),
		rec("mDNSRespo", 7, models.StateOther, models.IntPtr(5353)),
	}

	r := Build(records)

	assert.Len(t, r.Listeners, 4)
	assert.Len(t, r.Connections, 3)
	assert.Equal(t, []int{22, 80}, r.Ports())

	nginx := r.ByPort(80)
	require.Len(t, nginx, 2)
	assert.Equal(t, 1, nginx[0].PID)
	assert.Equal(t, 2, nginx[1].PID)

	// OTHER only lands in the process index.
	assert.False(t, r.HasPort(5353))
	assert.Len(t, r.ByProcess("mDNSRespo"), 1)
	assert.Len(t, r.ByProcess("curl"), 2)

	assert.Equal(t, []string{"nginx", "sshd", "named", "curl", "Mail", "mDNSRespo"}, r.Processes())
	assert.Len(t, r.Established(), 1)
	assert.Len(t, r.Closed(), 1)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil)
	assert.Empty(t, r.Listeners)
	assert.Empty(t, r.Connections)
	assert.Empty(t, r.Ports())
	assert.Empty(t, r.Processes())
}
