// Package scanner collects lsof snapshots from running EC2 instances through
// SSM Run Command.
package scanner

import (
	"context"
	"time"

	client "github.com/K0NGR3SS/netwatch/internal/aws"
	"github.com/K0NGR3SS/netwatch/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultInstanceTimeout = 15 * time.Second
	DefaultPollInterval    = 800 * time.Millisecond
)

type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

type SSMAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// Instance is a running EC2 instance eligible for collection.
type Instance struct {
	ID        string
	NameTag   string
	PrivateIP string
	PublicIP  string
	Tags      map[string]string
}

type Scanner struct {
	EC2     EC2API
	SSM     SSMAPI
	Region  string
	Exclude config.ExcludeConfig

	InstanceTimeout time.Duration
	PollInterval    time.Duration

	logger zerolog.Logger
}

func New(c *client.Client, exclude config.ExcludeConfig, logger zerolog.Logger) *Scanner {
	return &Scanner{
		EC2:             c.EC2,
		SSM:             c.SSM,
		Region:          c.Region,
		Exclude:         exclude,
		InstanceTimeout: DefaultInstanceTimeout,
		PollInterval:    DefaultPollInterval,
		logger:          logger.With().Str("component", "scanner").Str("region", c.Region).Logger(),
	}
}

// Instances lists running instances, or only ids when given. Excluded
// instances are dropped.
func (s *Scanner) Instances(ctx context.Context, ids []string) ([]Instance, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"running"},
			},
		},
	}
	if len(ids) > 0 {
		input.InstanceIds = ids
	}

	var out []Instance
	p := ec2.NewDescribeInstancesPaginator(s.EC2, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to describe instances")
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				id := aws.ToString(inst.InstanceId)
				if id == "" {
					continue
				}
				tags := tagMap(inst.Tags)
				if s.Exclude.Excluded(id, tags) {
					s.logger.Debug().Str("instance", id).Msg("instance excluded by config")
					continue
				}
				out = append(out, Instance{
					ID:        id,
					NameTag:   nameTag(tags),
					PrivateIP: orNA(inst.PrivateIpAddress),
					PublicIP:  orNA(inst.PublicIpAddress),
					Tags:      tags,
				})
			}
		}
	}
	return out, nil
}

func tagMap(tags []types.Tag) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key != nil {
			m[*t.Key] = aws.ToString(t.Value)
		}
	}
	return m
}

func nameTag(tags map[string]string) string {
	if n, ok := tags["Name"]; ok && n != "" {
		return n
	}
	return "Unknown"
}

func orNA(s *string) string {
	if s != nil {
		return *s
	}
	return "N/A"
}
