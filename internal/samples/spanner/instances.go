// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// InstanceConfigRow is a row of list-instance-configs.
type InstanceConfigRow struct {
	ID           string `jsonapi:"primary,instance-configs"`
	Name         string `jsonapi:"attr,name"`
	DisplayName  string `jsonapi:"attr,display-name"`
	Leaders      string `jsonapi:"attr,leaders"`
	ReplicaCount int    `jsonapi:"attr,replicas"`
	ConfigType   string `jsonapi:"attr,config-type"`
}

// ListInstanceConfigs returns the instance configurations available to the
// project.
func ListInstanceConfigs(ctx context.Context, c *instance.InstanceAdminClient, project string) ([]*InstanceConfigRow, error) {
	var rows []*InstanceConfigRow
	it := c.ListInstanceConfigs(ctx, &instancepb.ListInstanceConfigsRequest{
		Parent: "projects/" + project,
	})
	for {
		ic, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list instance configs: %w", err)
		}
		rows = append(rows, &InstanceConfigRow{
			ID:           ic.GetName()[strings.LastIndex(ic.GetName(), "/")+1:],
			Name:         ic.GetName(),
			DisplayName:  ic.GetDisplayName(),
			Leaders:      strings.Join(ic.GetLeaderOptions(), ","),
			ReplicaCount: len(ic.GetReplicas()),
			ConfigType:   ic.GetConfigType().String(),
		})
	}
	return rows, nil
}

func newInstance(project, instanceID string) *instancepb.Instance {
	return &instancepb.Instance{
		Config:      fmt.Sprintf("projects/%s/instanceConfigs/%s", project, DefaultInstanceConfig),
		DisplayName: instanceID,
		Labels:      map[string]string{"cloud_spanner_samples": "true"},
	}
}

func createInstance(ctx context.Context, w io.Writer, c *instance.InstanceAdminClient, project, instanceID string, inst *instancepb.Instance) (*instancepb.Instance, error) {
	op, err := c.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     "projects/" + project,
		InstanceId: instanceID,
		Instance:   inst,
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Instance %s already exists.\n", instanceID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create instance %s: %w", instanceID, err)
	}

	created, err := wait(ctx, w, func(ctx context.Context) (*instancepb.Instance, error) {
		return op.Wait(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance %s: %w", instanceID, err)
	}
	fmt.Fprintf(w, "Created instance %s\n", instanceID)
	return created, nil
}

// CreateInstance creates a one node instance.
func CreateInstance(ctx context.Context, w io.Writer, c *instance.InstanceAdminClient, project, instanceID string) error {
	inst := newInstance(project, instanceID)
	inst.NodeCount = 1
	_, err := createInstance(ctx, w, c, project, instanceID, inst)
	return err
}

// CreateInstanceWithAutoscaling creates an instance that scales between one
// and two nodes on high priority CPU and storage utilisation.
func CreateInstanceWithAutoscaling(ctx context.Context, w io.Writer, c *instance.InstanceAdminClient, project, instanceID string) error {
	inst := newInstance(project, instanceID)
	inst.AutoscalingConfig = &instancepb.AutoscalingConfig{
		AutoscalingLimits: &instancepb.AutoscalingConfig_AutoscalingLimits{
			MinLimit: &instancepb.AutoscalingConfig_AutoscalingLimits_MinNodes{MinNodes: 1},
			MaxLimit: &instancepb.AutoscalingConfig_AutoscalingLimits_MaxNodes{MaxNodes: 2},
		},
		AutoscalingTargets: &instancepb.AutoscalingConfig_AutoscalingTargets{
			HighPriorityCpuUtilizationPercent: 65,
			StorageUtilizationPercent:         95,
		},
	}
	created, err := createInstance(ctx, w, c, project, instanceID, inst)
	if err != nil || created == nil {
		return err
	}

	name := fmt.Sprintf("projects/%s/instances/%s", project, instanceID)
	got, err := c.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: name})
	if err != nil {
		return fmt.Errorf("failed to get instance %s: %w", instanceID, err)
	}
	fmt.Fprintf(w, "Instance %s has minNodes set to %d.\n",
		instanceID, got.GetAutoscalingConfig().GetAutoscalingLimits().GetMinNodes())
	return nil
}
