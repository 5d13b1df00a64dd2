package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEC2 struct {
	input *ec2.DescribeInstancesInput
	out   *ec2.DescribeInstancesOutput
}

func (f *fakeEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.input = params
	return f.out, nil
}

type fakeSSM struct {
	mu       sync.Mutex
	sent     [][]string
	polls    map[string]int
	statuses map[string][]types.CommandInvocationStatus
	stdout   map[string]string
}

func (f *fakeSSM) SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params.InstanceIds)
	return &ssm.SendCommandOutput{Command: &types.Command{CommandId: aws.String("cmd-1")}}, nil
}

func (f *fakeSSM) GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := aws.ToString(params.InstanceId)
	seq, ok := f.statuses[id]
	if !ok {
		return nil, errors.New("InvocationDoesNotExist")
	}
	n := f.polls[id]
	f.polls[id] = n + 1
	if n >= len(seq) {
		n = len(seq) - 1
	}
	return &ssm.GetCommandInvocationOutput{
		Status:                seq[n],
		StandardOutputContent: aws.String(f.stdout[id]),
	}, nil
}

func instance(id, name string) ec2types.Instance {
	return ec2types.Instance{
		InstanceId:       aws.String(id),
		PrivateIpAddress: aws.String("10.0.0.1"),
		Tags:             []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
	}
}

func newScanner(e EC2API, s SSMAPI, exclude config.ExcludeConfig) *Scanner {
	return &Scanner{
		EC2:             e,
		SSM:             s,
		Region:          "us-east-1",
		Exclude:         exclude,
		InstanceTimeout: 200 * time.Millisecond,
		PollInterval:    time.Millisecond,
		logger:          zerolog.Nop(),
	}
}

func TestInstancesFiltersExcluded(t *testing.T) {
	e := &fakeEC2{out: &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: []ec2types.Instance{
			instance("i-1", "web"),
			instance("i-2", "bastion"),
			{InstanceId: aws.String("")},
		}}},
	}}
	s := newScanner(e, &fakeSSM{}, config.ExcludeConfig{Tags: map[string]string{"Name": "bastion"}})

	got, err := s.Instances(context.Background(), []string{"i-1", "i-2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i-1", got[0].ID)
	assert.Equal(t, "web", got[0].NameTag)
	assert.Equal(t, "N/A", got[0].PublicIP)
	assert.Equal(t, []string{"i-1", "i-2"}, e.input.InstanceIds)
	assert.Equal(t, "instance-state-name", aws.ToString(e.input.Filters[0].Name))
}

func TestCollectSkipsFailedInstances(t *testing.T) {
	fake := &fakeSSM{
		polls: map[string]int{},
		statuses: map[string][]types.CommandInvocationStatus{
			"i-ok":   {types.CommandInvocationStatusPending, types.CommandInvocationStatusInProgress, types.CommandInvocationStatusSuccess},
			"i-fail": {types.CommandInvocationStatusFailed},
			"i-slow": {types.CommandInvocationStatusInProgress},
		},
		stdout: map[string]string{
			"i-ok": "COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME\nsshd 1 root 3u IPv4 0x1 0t0 TCP *:22 (LISTEN)",
		},
	}
	s := newScanner(&fakeEC2{}, fake, config.ExcludeConfig{})

	var progress []string
	snaps, err := s.Collect(context.Background(), []Instance{{ID: "i-ok"}, {ID: "i-fail"}, {ID: "i-slow"}, {ID: "i-missing"}},
		func(msg string) { progress = append(progress, msg) })
	require.NoError(t, err)

	require.Len(t, snaps, 1)
	assert.Equal(t, "i-ok", snaps[0].Instance.ID)
	assert.Equal(t, "us-east-1", snaps[0].Region)
	assert.Len(t, snaps[0].Lines, 2)
	assert.Equal(t, [][]string{{"i-ok", "i-fail", "i-slow", "i-missing"}}, fake.sent)
	assert.NotEmpty(t, progress)
}

func TestCollectStopsOnCancel(t *testing.T) {
	fake := &fakeSSM{
		polls:    map[string]int{},
		statuses: map[string][]types.CommandInvocationStatus{"i-1": {types.CommandInvocationStatusInProgress}},
	}
	s := newScanner(&fakeEC2{}, fake, config.ExcludeConfig{})
	s.InstanceTimeout = time.Minute
	s.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := s.Collect(ctx, []Instance{{ID: "i-1"}}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
