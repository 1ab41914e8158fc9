// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package secretmanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	sm "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// SecretRow is a row of list-secrets.
type SecretRow struct {
	ID          string `jsonapi:"primary,secrets"`
	Name        string `jsonapi:"attr,name"`
	Replication string `jsonapi:"attr,replication"`
	Labels      string `jsonapi:"attr,labels"`
	Created     string `jsonapi:"attr,created"`
}

func lastSegment(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}

func replication(s *secretmanagerpb.Secret) string {
	switch {
	case s.GetReplication().GetAutomatic() != nil:
		return "AUTOMATIC"
	case s.GetReplication().GetUserManaged() != nil:
		return "USER_MANAGED"
	}
	return "REGIONAL"
}

func labelString(labels map[string]string) string {
	pairs := make([]string, 0, len(labels))
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		pairs = append(pairs, k+"="+labels[k])
	}
	return strings.Join(pairs, ",")
}

// ListSecrets returns the location's secrets. filter uses the list filter
// syntax, e.g. labels.env=prod.
func ListSecrets(ctx context.Context, c *sm.Client, loc Location, filter string) ([]*SecretRow, error) {
	var rows []*SecretRow
	it := c.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: loc.parent(),
		Filter: filter,
	})
	for {
		s, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list secrets: %w", err)
		}
		rows = append(rows, &SecretRow{
			ID:          lastSegment(s.GetName()),
			Name:        s.GetName(),
			Replication: replication(s),
			Labels:      labelString(s.GetLabels()),
			Created:     s.GetCreateTime().AsTime().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return rows, nil
}

// CreateSecret creates a secret with no versions. Global secrets replicate
// automatically. Regional secrets carry no replication policy.
func CreateSecret(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string) error {
	return CreateSecretWithLabels(ctx, w, c, loc, secretID, nil)
}

// CreateSecretWithLabels creates a secret carrying labels.
func CreateSecretWithLabels(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string, labels map[string]string) error {
	secret := &secretmanagerpb.Secret{Labels: labels}
	if !loc.regional() {
		secret.Replication = &secretmanagerpb.Replication{
			Replication: &secretmanagerpb.Replication_Automatic_{
				Automatic: &secretmanagerpb.Replication_Automatic{},
			},
		}
	}

	s, err := c.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
		Parent:   loc.parent(),
		SecretId: secretID,
		Secret:   secret,
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Secret %s already exists.\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create secret %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Created secret: %s\n", s.GetName())
	return nil
}

// UpdateSecret merges labels into the secret's labels.
func UpdateSecret(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string, labels map[string]string) error {
	name := loc.secret(secretID)
	cur, err := c.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}

	merged := maps.Clone(cur.GetLabels())
	if merged == nil {
		merged = map[string]string{}
	}
	maps.Copy(merged, labels)

	s, err := c.UpdateSecret(ctx, &secretmanagerpb.UpdateSecretRequest{
		Secret:     &secretmanagerpb.Secret{Name: name, Labels: merged},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"labels"}},
	})
	if err != nil {
		return fmt.Errorf("failed to update secret %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Updated secret: %s\n", s.GetName())
	return nil
}

// GetSecret prints a secret's metadata.
func GetSecret(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string) error {
	s, err := c.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: loc.secret(secretID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Found secret %s with replication policy %s\n", s.GetName(), replication(s))
	if len(s.GetLabels()) > 0 {
		fmt.Fprintf(w, "\tLabels: %s\n", labelString(s.GetLabels()))
	}
	return nil
}

// DeleteSecret deletes a secret and all of its versions.
func DeleteSecret(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string) error {
	name := loc.secret(secretID)
	err := c.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete secret %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Deleted secret %s\n", name)
	return nil
}
