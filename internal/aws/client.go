package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/pkg/errors"
)

const maxAttempts = 5

// Client bundles the EC2 and SSM clients for one region.
type Client struct {
	EC2    *ec2.Client
	SSM    *ssm.Client
	Region string
}

func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(maxAttempts),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load SDK config for %s", region)
	}

	return &Client{
		EC2:    ec2.NewFromConfig(cfg),
		SSM:    ssm.NewFromConfig(cfg),
		Region: region,
	}, nil
}

// NewClients builds one client per region, in order.
func NewClients(ctx context.Context, regions []string) ([]*Client, error) {
	clients := make([]*Client, 0, len(regions))
	for _, r := range regions {
		c, err := NewClient(ctx, r)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, nil
}
