// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package bigtable

import (
	"context"
	"fmt"
	"io"
	"path"

	bt "cloud.google.com/go/bigtable"
	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/progress"
)

// AppProfile is a row of list-app-profiles.
type AppProfile struct {
	ID          string `jsonapi:"primary,app-profiles"`
	Description string `jsonapi:"attr,description"`
	Routing     string `jsonapi:"attr,routing"`
	Etag        string `jsonapi:"attr,etag"`
}

func newAppProfile(p *btapb.AppProfile) *AppProfile {
	return &AppProfile{
		ID:          path.Base(p.GetName()),
		Description: p.GetDescription(),
		Routing:     routingName(p),
		Etag:        p.GetEtag(),
	}
}

func routingName(p *btapb.AppProfile) string {
	switch r := p.GetRoutingPolicy().(type) {
	case *btapb.AppProfile_MultiClusterRoutingUseAny_:
		return "multi-cluster"
	case *btapb.AppProfile_SingleClusterRouting_:
		return "single-cluster:" + r.SingleClusterRouting.GetClusterId()
	}
	return ""
}

// CreateAppProfile creates a profile that routes to any cluster.
func CreateAppProfile(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, profileID string) error {
	fmt.Fprintf(w, "Creating a new AppProfile %s\n", profileID)
	p, err := c.CreateAppProfile(ctx, bt.ProfileConf{
		InstanceID:     instanceID,
		ProfileID:      profileID,
		Description:    "Multi-cluster routing profile",
		RoutingPolicy:  bt.MultiClusterRouting,
		IgnoreWarnings: true,
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "App Profile %s already exists.\n", profileID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create app profile %s: %w", profileID, err)
	}
	fmt.Fprintf(w, "App profile created: %s\n", p.GetName())
	return nil
}

// UpdateAppProfile switches a profile to single-cluster routing on clusterID
// with transactional writes allowed.
func UpdateAppProfile(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, clusterID, profileID string) error {
	fmt.Fprintf(w, "Updating the AppProfile %s\n", profileID)
	err := progress.Do(ctx, w, "Waiting for operation to complete", func(ctx context.Context) error {
		return c.UpdateAppProfile(ctx, instanceID, profileID, bt.ProfileAttrsToUpdate{
			Description:              "The updated description",
			RoutingPolicy:            bt.SingleClusterRouting,
			ClusterID:                clusterID,
			AllowTransactionalWrites: true,
			IgnoreWarnings:           true,
		})
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "App Profile %s does not exist.\n", profileID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update app profile %s: %w", profileID, err)
	}

	p, err := c.GetAppProfile(ctx, instanceID, profileID)
	if err != nil {
		return fmt.Errorf("failed to get app profile %s: %w", profileID, err)
	}
	fmt.Fprintf(w, "App profile updated: %s\n", p.GetName())
	return nil
}

// ListAppProfiles returns the app profiles of an instance.
func ListAppProfiles(ctx context.Context, c *bt.InstanceAdminClient, instanceID string) ([]*AppProfile, error) {
	var rows []*AppProfile
	it := c.ListAppProfiles(ctx, instanceID)
	for {
		p, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list app profiles: %w", err)
		}
		rows = append(rows, newAppProfile(p))
	}
	return rows, nil
}

// DeleteAppProfile deletes a profile, ignoring safety warnings.
func DeleteAppProfile(ctx context.Context, w io.Writer, c *bt.InstanceAdminClient, instanceID, profileID string) error {
	err := c.DeleteAppProfile(ctx, instanceID, profileID)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "App Profile %s does not exist.\n", profileID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete app profile %s: %w", profileID, err)
	}
	fmt.Fprintf(w, "App Profile %s deleted.\n", profileID)
	return nil
}
