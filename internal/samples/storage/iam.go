// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"io"
	"slices"

	"cloud.google.com/go/iam/apiv1/iampb"
	gcs "cloud.google.com/go/storage"
	"google.golang.org/genproto/googleapis/type/expr"
)

// Condition is an IAM condition attached to a binding.
type Condition struct {
	Title       string
	Description string
	Expression  string
}

func (c *Condition) matches(e *expr.Expr) bool {
	if c == nil || e == nil {
		return c == nil && e == nil
	}
	return c.Title == e.GetTitle() && c.Description == e.GetDescription() && c.Expression == e.GetExpression()
}

// ViewBucketIAMMembers prints every binding of the bucket's v3 policy.
func ViewBucketIAMMembers(ctx context.Context, w io.Writer, c *gcs.Client, bucket string) error {
	p, err := c.Bucket(bucket).IAM().V3().Policy(ctx)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get policy of %s: %w", bucket, err)
	}

	fmt.Fprintf(w, "Printing Bucket IAM members for Bucket: %s\n\n", bucket)
	for _, b := range p.Bindings {
		fmt.Fprintf(w, "Role: %s\n", b.GetRole())
		fmt.Fprintln(w, "Members:")
		for _, m := range b.GetMembers() {
			fmt.Fprintf(w, "  %s\n", m)
		}
		if cond := b.GetCondition(); cond != nil {
			fmt.Fprintln(w, "  with condition:")
			fmt.Fprintf(w, "    Title: %s\n", cond.GetTitle())
			fmt.Fprintf(w, "    Description: %s\n", cond.GetDescription())
			fmt.Fprintf(w, "    Expression: %s\n", cond.GetExpression())
		}
		fmt.Fprintln(w)
	}
	return nil
}

// editPolicy reads the v3 policy, lets edit change its bindings and writes
// it back. edit reports whether anything changed.
func editPolicy(ctx context.Context, c *gcs.Client, bucket string, edit func([]*iampb.Binding) ([]*iampb.Binding, bool)) (bool, error) {
	h := c.Bucket(bucket).IAM().V3()
	p, err := h.Policy(ctx)
	if err != nil {
		return false, err
	}
	bindings, changed := edit(p.Bindings)
	if !changed {
		return false, nil
	}
	p.Bindings = bindings
	return true, h.SetPolicy(ctx, p)
}

// AddBucketIAMMember grants role to members.
func AddBucketIAMMember(ctx context.Context, w io.Writer, c *gcs.Client, bucket, role string, members ...string) error {
	_, err := editPolicy(ctx, c, bucket, func(bs []*iampb.Binding) ([]*iampb.Binding, bool) {
		for _, b := range bs {
			if b.GetRole() == role && b.GetCondition() == nil {
				for _, m := range members {
					if !slices.Contains(b.Members, m) {
						b.Members = append(b.Members, m)
					}
				}
				return bs, true
			}
		}
		return append(bs, &iampb.Binding{Role: role, Members: members}), true
	})
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update policy of %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "Added the following member(s) to role %s for bucket %s\n", role, bucket)
	for _, m := range members {
		fmt.Fprintf(w, "    %s\n", m)
	}
	return nil
}

// AddBucketConditionalIAMBinding grants role to members while cond holds.
func AddBucketConditionalIAMBinding(ctx context.Context, w io.Writer, c *gcs.Client, bucket, role string, cond Condition, members ...string) error {
	_, err := editPolicy(ctx, c, bucket, func(bs []*iampb.Binding) ([]*iampb.Binding, bool) {
		return append(bs, &iampb.Binding{
			Role:    role,
			Members: members,
			Condition: &expr.Expr{
				Title:       cond.Title,
				Description: cond.Description,
				Expression:  cond.Expression,
			},
		}), true
	})
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update policy of %s: %w", bucket, err)
	}
	fmt.Fprintf(w, "Added the following member(s) with role %s to %s:\n", role, bucket)
	for _, m := range members {
		fmt.Fprintf(w, "    %s\n", m)
	}
	fmt.Fprintln(w, "with condition:")
	fmt.Fprintf(w, "    Title: %s\n", cond.Title)
	fmt.Fprintf(w, "    Description: %s\n", cond.Description)
	fmt.Fprintf(w, "    Expression: %s\n", cond.Expression)
	return nil
}

// RemoveBucketIAMMember revokes role from member. With cond set only the
// binding carrying that condition is touched; a binding left without
// members is dropped.
func RemoveBucketIAMMember(ctx context.Context, w io.Writer, c *gcs.Client, bucket, role, member string, cond *Condition) error {
	changed, err := editPolicy(ctx, c, bucket, func(bs []*iampb.Binding) ([]*iampb.Binding, bool) {
		changed := false
		out := bs[:0]
		for _, b := range bs {
			if b.GetRole() == role && cond.matches(b.GetCondition()) {
				if i := slices.Index(b.Members, member); i >= 0 {
					b.Members = slices.Delete(b.Members, i, i+1)
					changed = true
				}
				if len(b.Members) == 0 {
					continue
				}
			}
			out = append(out, b)
		}
		return out, changed
	})
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update policy of %s: %w", bucket, err)
	}
	switch {
	case !changed:
		fmt.Fprintf(w, "No matching role-member binding for %s in %s.\n", member, bucket)
	case cond != nil:
		fmt.Fprintln(w, "Conditional Binding was removed.")
	default:
		fmt.Fprintf(w, "User %s removed from role %s for bucket %s\n", member, role, bucket)
	}
	return nil
}
