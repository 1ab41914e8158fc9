// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package secretmanager

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/iam"
	"cloud.google.com/go/iam/apiv1/iampb"
	sm "cloud.google.com/go/secretmanager/apiv1"

	"github.com/staranto/gcpctl/internal/gcp"
)

// editPolicy runs a read-modify-write of the secret's policy. The etag read
// with the policy guards the write against concurrent writers.
func editPolicy(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID string, edit func(*iam.Policy)) error {
	name := loc.secret(secretID)
	p, err := c.GetIamPolicy(ctx, &iampb.GetIamPolicyRequest{Resource: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Secret %s not found\n", secretID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get policy of %s: %w", secretID, err)
	}

	policy := &iam.Policy{InternalProto: p}
	edit(policy)

	if _, err := c.SetIamPolicy(ctx, &iampb.SetIamPolicyRequest{
		Resource: name,
		Policy:   policy.InternalProto,
	}); err != nil {
		return fmt.Errorf("failed to set policy of %s: %w", secretID, err)
	}
	fmt.Fprintf(w, "Updated IAM policy for %s\n", secretID)
	return nil
}

// IAMGrantAccess lets member read the secret's versions.
func IAMGrantAccess(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, member string) error {
	return editPolicy(ctx, w, c, loc, secretID, func(p *iam.Policy) {
		p.Add(member, AccessorRole)
	})
}

// IAMRevokeAccess removes member's access to the secret's versions.
func IAMRevokeAccess(ctx context.Context, w io.Writer, c *sm.Client, loc Location, secretID, member string) error {
	return editPolicy(ctx, w, c, loc, secretID, func(p *iam.Policy) {
		p.Remove(member, AccessorRole)
	})
}
