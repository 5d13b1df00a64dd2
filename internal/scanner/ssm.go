package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/pkg/errors"
)

// LsofCommand is the snapshot command run on each instance.
const LsofCommand = "lsof -i -P -n"

// sendCommandBatch is the SSM limit on instance ids per SendCommand call.
const sendCommandBatch = 50

// Snapshot is the raw lsof output of one instance.
type Snapshot struct {
	Instance Instance
	Region   string
	Lines    []string
}

// Collect runs lsof on every instance and returns the snapshots that
// completed. Instances that fail or time out are logged and skipped.
func (s *Scanner) Collect(ctx context.Context, instances []Instance, progress func(string)) ([]Snapshot, error) {
	if progress == nil {
		progress = func(string) {}
	}
	var snapshots []Snapshot

	for start := 0; start < len(instances); start += sendCommandBatch {
		end := min(start+sendCommandBatch, len(instances))
		batch := instances[start:end]

		ids := make([]string, len(batch))
		for i, inst := range batch {
			ids[i] = inst.ID
		}

		progress(fmt.Sprintf("Running lsof via SSM on %d instances in %s...", len(ids), s.Region))
		commandID, err := s.send(ctx, ids)
		if err != nil {
			return snapshots, err
		}

		for i, inst := range batch {
			progress(fmt.Sprintf("Collecting %s (%d/%d)...", inst.ID, start+i+1, len(instances)))

			stdout, status, err := s.waitCommandOutput(ctx, commandID, inst.ID)
			if err != nil {
				if ctx.Err() != nil {
					return snapshots, ctx.Err()
				}
				s.logger.Warn().Err(err).Str("instance", inst.ID).Msg("skipping instance")
				continue
			}
			if status != types.CommandInvocationStatusSuccess {
				s.logger.Warn().Str("instance", inst.ID).Str("status", string(status)).Msg("lsof did not succeed, skipping instance")
				continue
			}

			snapshots = append(snapshots, Snapshot{
				Instance: inst,
				Region:   s.Region,
				Lines:    strings.Split(stdout, "\n"),
			})
		}
	}

	return snapshots, nil
}

func (s *Scanner) send(ctx context.Context, ids []string) (string, error) {
	out, err := s.SSM.SendCommand(ctx, &ssm.SendCommandInput{
		InstanceIds:  ids,
		DocumentName: aws.String("AWS-RunShellScript"),
		Comment:      aws.String("netwatch snapshot"),
		Parameters: map[string][]string{
			"commands": {LsofCommand},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to send SSM command")
	}
	if out.Command == nil || out.Command.CommandId == nil {
		return "", errors.New("ssm SendCommand returned empty command id")
	}
	return *out.Command.CommandId, nil
}

func (s *Scanner) waitCommandOutput(ctx context.Context, commandID, instanceID string) (string, types.CommandInvocationStatus, error) {
	deadline := time.Now().Add(s.InstanceTimeout)

	for {
		if time.Now().After(deadline) {
			return "", types.CommandInvocationStatusTimedOut, errors.Errorf("ssm invocation timed out for %s", instanceID)
		}

		res, err := s.SSM.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
			CommandId:  aws.String(commandID),
			InstanceId: aws.String(instanceID),
			PluginName: aws.String("aws:runShellScript"),
		})
		if err != nil {
			// The invocation is not visible immediately after SendCommand.
			if werr := s.wait(ctx); werr != nil {
				return "", types.CommandInvocationStatusCancelled, werr
			}
			continue
		}

		switch res.Status {
		case types.CommandInvocationStatusPending,
			types.CommandInvocationStatusInProgress,
			types.CommandInvocationStatusDelayed:
			if werr := s.wait(ctx); werr != nil {
				return "", types.CommandInvocationStatusCancelled, werr
			}
		default:
			return aws.ToString(res.StandardOutputContent), res.Status, nil
		}
	}
}

func (s *Scanner) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.PollInterval):
		return nil
	}
}
