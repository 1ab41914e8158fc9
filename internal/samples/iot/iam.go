// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package iot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/iam/apiv1/iampb"
	iot "cloud.google.com/go/iot/apiv1"
)

func printPolicy(w io.Writer, p *iampb.Policy) {
	for _, b := range p.GetBindings() {
		fmt.Fprintf(w, "Role: %s\n", b.GetRole())
		fmt.Fprintf(w, "\tMembers: %s\n", strings.Join(b.GetMembers(), ", "))
	}
}

// GetIAMPolicy prints the registry's IAM policy.
func GetIAMPolicy(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry) error {
	p, err := c.GetIamPolicy(ctx, &iampb.GetIamPolicyRequest{Resource: reg.Name()})
	if err != nil {
		return fmt.Errorf("failed to get policy of %s: %w", reg.ID, err)
	}
	printPolicy(w, p)
	return nil
}

// SetIAMPolicy replaces the registry's policy with a single binding of role
// to member.
func SetIAMPolicy(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, member, role string) error {
	p, err := c.SetIamPolicy(ctx, &iampb.SetIamPolicyRequest{
		Resource: reg.Name(),
		Policy: &iampb.Policy{
			Bindings: []*iampb.Binding{{Role: role, Members: []string{member}}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set policy of %s: %w", reg.ID, err)
	}
	printPolicy(w, p)
	return nil
}
