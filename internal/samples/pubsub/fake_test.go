// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package pubsub

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cloud.google.com/go/iam/apiv1/iampb"
	ps "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/gcptest"
)

// fakeIAM keeps one policy per resource. pstest does not serve IAM, so the
// fake rides on the same server.
type fakeIAM struct {
	iampb.UnimplementedIAMPolicyServer

	mu       sync.Mutex
	policies map[string]*iampb.Policy
	version  int
}

func (f *fakeIAM) GetIamPolicy(_ context.Context, req *iampb.GetIamPolicyRequest) (*iampb.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.policies[req.GetResource()]; ok {
		return p, nil
	}
	return &iampb.Policy{Etag: []byte("etag-0")}, nil
}

func (f *fakeIAM) SetIamPolicy(_ context.Context, req *iampb.SetIamPolicyRequest) (*iampb.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version++
	p := req.GetPolicy()
	p.Etag = []byte(fmt.Sprintf("etag-%d", f.version))
	f.policies[req.GetResource()] = p
	return p, nil
}

func (f *fakeIAM) TestIamPermissions(_ context.Context, req *iampb.TestIamPermissionsRequest) (*iampb.TestIamPermissionsResponse, error) {
	return &iampb.TestIamPermissionsResponse{Permissions: req.GetPermissions()}, nil
}

// newClient starts pstest with the IAM fake attached and returns a client
// and factory routed to it.
func newClient(t *testing.T) (*ps.Client, *gcp.Factory, *fakeIAM) {
	t.Helper()

	fake := &fakeIAM{policies: map[string]*iampb.Policy{}}
	srv := pstest.NewServerWithCallback(0, func(s *grpc.Server) {
		iampb.RegisterIAMPolicyServer(s, fake)
	})
	t.Cleanup(func() { _ = srv.Close() })

	f := gcptest.Factory(t, gcptest.Dial(t, srv.Addr))
	c, err := NewClient(context.Background(), f)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, f, fake
}
