// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	bt "cloud.google.com/go/bigtable"
	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/apex/log"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/progress"
)

// DefaultZone is used when a sample is not given a zone.
const DefaultZone = "us-east1-b"

// Instance is a row of list-instances.
type Instance struct {
	ID          string `jsonapi:"primary,instances"`
	DisplayName string `jsonapi:"attr,display-name"`
	State       string `jsonapi:"attr,state"`
	Type        string `jsonapi:"attr,type"`
	Labels      string `jsonapi:"attr,labels"`
}

func newInstance(i *bt.InstanceInfo) *Instance {
	return &Instance{
		ID:          i.Name,
		DisplayName: i.DisplayName,
		State:       btapb.Instance_State(i.InstanceState).String(),
		Type:        btapb.Instance_Type(i.InstanceType).String(),
		Labels:      formatLabels(i.Labels),
	}
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+labels[k])
	}
	return strings.Join(pairs, ",")
}

// CreateDevInstance creates a DEVELOPMENT instance with a single HDD cluster
// in zone. An existing instance is reported, not recreated.
func CreateDevInstance(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID, zone string) error {
	fmt.Fprintln(w, "Creating a DEVELOPMENT Instance")
	return createInstance(ctx, w, c, &bt.InstanceConf{
		InstanceId:   instanceID,
		DisplayName:  instanceID,
		ClusterId:    clusterID,
		Zone:         zone,
		StorageType:  bt.HDD,
		InstanceType: bt.DEVELOPMENT,
		Labels:       map[string]string{"dev-label": "dev-label"},
	})
}

// CreateProductionInstance creates a PRODUCTION instance with an SSD cluster
// of nodes serve nodes.
func CreateProductionInstance(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID, zone string, nodes int32) error {
	fmt.Fprintln(w, "Creating a PRODUCTION Instance")
	return createInstance(ctx, w, c, &bt.InstanceConf{
		InstanceId:   instanceID,
		DisplayName:  instanceID,
		ClusterId:    clusterID,
		Zone:         zone,
		NumNodes:     nodes,
		StorageType:  bt.SSD,
		InstanceType: bt.PRODUCTION,
		Labels:       map[string]string{"prod-label": "prod-label"},
	})
}

func createInstance(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, conf *bt.InstanceConf) error {
	_, err := c.InstanceInfo(ctx, conf.InstanceId)
	if err == nil {
		fmt.Fprintf(w, "Instance %s already exists.\n", conf.InstanceId)
		return nil
	}
	if !gcp.IsNotFound(err) {
		return fmt.Errorf("failed to get instance %s: %w", conf.InstanceId, err)
	}

	fmt.Fprintf(w, "Creating a %s Instance: %s\n",
		strings.ToLower(btapb.Instance_Type(conf.InstanceType).String()), conf.InstanceId)
	err = progress.Do(ctx, w, "Waiting for operation to complete", func(ctx context.Context) error {
		return c.CreateInstance(ctx, conf)
	})
	if err != nil {
		return fmt.Errorf("failed to create instance %s: %w", conf.InstanceId, err)
	}
	fmt.Fprintf(w, "Instance %s created.\n", conf.InstanceId)
	return nil
}

// ListInstances returns the project's instances. When some locations are
// unavailable the partial list is returned and the failed locations are
// written to w.
func ListInstances(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient) ([]*Instance, error) {
	infos, err := c.Instances(ctx)
	var partial bt.ErrPartiallyUnavailable
	if errors.As(err, &partial) {
		fmt.Fprintf(w, "Failed to get data from the following locations: %s\n", strings.Join(partial.Locations, ", "))
		log.WithField("locations", partial.Locations).Warn("partial instance list")
	} else if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	rows := make([]*Instance, 0, len(infos))
	for _, i := range infos {
		rows = append(rows, newInstance(i))
	}
	return rows, nil
}

// GetInstance prints an instance's details.
func GetInstance(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID string) error {
	info, err := c.InstanceInfo(ctx, instanceID)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Instance %s does not exist.\n", instanceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get instance %s: %w", instanceID, err)
	}

	row := newInstance(info)
	fmt.Fprintf(w, "Instance: %s\n", row.ID)
	fmt.Fprintf(w, "\tDisplay name: %s\n", row.DisplayName)
	fmt.Fprintf(w, "\tState: %s\n", row.State)
	fmt.Fprintf(w, "\tType: %s\n", row.Type)
	if row.Labels != "" {
		fmt.Fprintf(w, "\tLabels: %s\n", row.Labels)
	}
	return nil
}

// DeleteInstance deletes an instance and every cluster and table in it.
func DeleteInstance(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID string) error {
	fmt.Fprintln(w, "Deleting Instance")
	err := c.DeleteInstance(ctx, instanceID)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Instance %s does not exists.\n", instanceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete instance %s: %w", instanceID, err)
	}
	fmt.Fprintf(w, "Deleted Instance: %s.\n", instanceID)
	return nil
}
