// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"context"
	"errors"
	"fmt"
	"io"

	bt "cloud.google.com/go/bigtable"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/progress"
)

// Autoscaling bounds applied by the autoscale samples.
var sampleAutoscaling = bt.AutoscalingConfig{
	MinNodes:         2,
	MaxNodes:         5,
	CPUTargetPercent: 10,
}

// Cluster is a row of list-clusters.
type Cluster struct {
	ID          string `jsonapi:"primary,clusters"`
	Zone        string `jsonapi:"attr,zone"`
	ServeNodes  int    `jsonapi:"attr,serve-nodes"`
	State       string `jsonapi:"attr,state"`
	StorageType string `jsonapi:"attr,storage-type"`
	Autoscaling string `jsonapi:"attr,autoscaling"`
}

func newCluster(ci *bt.ClusterInfo) *Cluster {
	row := &Cluster{
		ID:          ci.Name,
		Zone:        ci.Zone,
		ServeNodes:  ci.ServeNodes,
		State:       ci.State,
		StorageType: storageTypeName(ci.StorageType),
	}
	if a := ci.AutoscalingConfig; a != nil {
		row.Autoscaling = fmt.Sprintf("min=%d max=%d cpu=%d%%", a.MinNodes, a.MaxNodes, a.CPUTargetPercent)
	}
	return row
}

func storageTypeName(st bt.StorageType) string {
	if st == bt.HDD {
		return "HDD"
	}
	return "SSD"
}

// CreateCluster adds an SSD cluster with nodes serve nodes to an existing
// instance.
func CreateCluster(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID, zone string, nodes int32) error {
	return addCluster(ctx, w, c, &bt.ClusterConfig{
		InstanceID:  instanceID,
		ClusterID:   clusterID,
		Zone:        zone,
		NumNodes:    nodes,
		StorageType: bt.SSD,
	})
}

// CreateClusterAutoscale adds an SSD cluster that autoscales between 2 and 5
// nodes at 10% CPU.
func CreateClusterAutoscale(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID, zone string) error {
	as := sampleAutoscaling
	return addCluster(ctx, w, c, &bt.ClusterConfig{
		InstanceID:        instanceID,
		ClusterID:         clusterID,
		Zone:              zone,
		StorageType:       bt.SSD,
		AutoscalingConfig: &as,
	})
}

func addCluster(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, conf *bt.ClusterConfig) error {
	fmt.Fprintf(w, "Adding Cluster to Instance %s\n", conf.InstanceID)

	if _, err := c.InstanceInfo(ctx, conf.InstanceID); err != nil {
		if gcp.IsNotFound(err) {
			fmt.Fprintf(w, "Instance %s does not exists.\n", conf.InstanceID)
			return nil
		}
		return fmt.Errorf("failed to get instance %s: %w", conf.InstanceID, err)
	}

	fmt.Fprintln(w, "Listing Clusters:")
	clusters, err := c.Clusters(ctx, conf.InstanceID)
	var partial bt.ErrPartiallyUnavailable
	if err != nil && !errors.As(err, &partial) {
		return fmt.Errorf("failed to list clusters: %w", err)
	}

	exists := false
	for _, ci := range clusters {
		fmt.Fprintln(w, ci.Name)
		if ci.Name == conf.ClusterID {
			exists = true
		}
	}
	if exists {
		fmt.Fprintf(w, "Cluster %s already exists, aborting...\n", conf.ClusterID)
		return nil
	}

	err = progress.Do(ctx, w, "Waiting for operation to complete", func(ctx context.Context) error {
		return c.CreateCluster(ctx, conf)
	})
	if err != nil {
		fmt.Fprintf(w, "Cluster not created: %v\n", err)
		return fmt.Errorf("failed to create cluster %s: %w", conf.ClusterID, err)
	}
	fmt.Fprintf(w, "Cluster created: %s\n", conf.ClusterID)
	return nil
}

// UpdateClusterAutoscale replaces a cluster's autoscaling limits.
func UpdateClusterAutoscale(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID string) error {
	err := progress.Do(ctx, w, "Waiting for operation to complete", func(ctx context.Context) error {
		return c.SetAutoscaling(ctx, instanceID, clusterID, sampleAutoscaling)
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Cluster %s does not exist.\n", clusterID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update cluster %s: %w", clusterID, err)
	}
	return printClusterNodes(ctx, w, c, instanceID, clusterID)
}

// UpdateClusterNodes pins a cluster to nodes serve nodes, dropping any
// autoscaling configuration.
func UpdateClusterNodes(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID string, nodes int32) error {
	err := progress.Do(ctx, w, "Waiting for operation to complete", func(ctx context.Context) error {
		return c.UpdateCluster(ctx, instanceID, clusterID, nodes)
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Cluster %s does not exist.\n", clusterID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update cluster %s: %w", clusterID, err)
	}
	return printClusterNodes(ctx, w, c, instanceID, clusterID)
}

func printClusterNodes(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID string) error {
	ci, err := c.GetCluster(ctx, instanceID, clusterID)
	if err != nil {
		fmt.Fprintln(w, "Cluster failed to update.")
		return fmt.Errorf("failed to get cluster %s: %w", clusterID, err)
	}
	fmt.Fprintf(w, "Cluster updated with the new num of nodes: %d.\n", ci.ServeNodes)
	if a := ci.AutoscalingConfig; a != nil {
		fmt.Fprintf(w, "Autoscaling: min %d, max %d, cpu target %d%%.\n", a.MinNodes, a.MaxNodes, a.CPUTargetPercent)
	}
	return nil
}

// ListClusters returns the clusters of an instance.
func ListClusters(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID string) ([]*Cluster, error) {
	infos, err := c.Clusters(ctx, instanceID)
	var partial bt.ErrPartiallyUnavailable
	if errors.As(err, &partial) {
		fmt.Fprintf(w, "Failed to get data from the following locations: %v\n", partial.Locations)
	} else if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Instance %s does not exist.\n", instanceID)
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}

	rows := make([]*Cluster, 0, len(infos))
	for _, ci := range infos {
		rows = append(rows, newCluster(ci))
	}
	return rows, nil
}

// DeleteCluster removes a cluster from an instance.
func DeleteCluster(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID string) error {
	fmt.Fprintln(w, "Deleting Cluster")
	err := c.DeleteCluster(ctx, instanceID, clusterID)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Cluster %s does not exist.\n", clusterID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", clusterID, err)
	}
	fmt.Fprintf(w, "Cluster deleted: %s\n", clusterID)
	return nil
}
