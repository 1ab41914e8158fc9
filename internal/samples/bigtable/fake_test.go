// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package bigtable

import (
	"context"
	"strings"
	"sync"
	"testing"

	bt "cloud.google.com/go/bigtable"
	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"cloud.google.com/go/bigtable/bttest"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

const testInstance = "my-instance"

// fakeInstanceAdmin keeps instances, clusters and app profiles in maps keyed
// by resource name. Long-running operations complete immediately.
type fakeInstanceAdmin struct {
	btapb.UnimplementedBigtableInstanceAdminServer

	mu              sync.Mutex
	instances       map[string]*btapb.Instance
	clusters        map[string]*btapb.Cluster
	profiles        map[string]*btapb.AppProfile
	failedLocations []string
}

func newFakeInstanceAdmin() *fakeInstanceAdmin {
	return &fakeInstanceAdmin{
		instances: map[string]*btapb.Instance{},
		clusters:  map[string]*btapb.Cluster{},
		profiles:  map[string]*btapb.AppProfile{},
	}
}

func doneOp(m proto.Message) (*longrunningpb.Operation, error) {
	a, err := anypb.New(m)
	if err != nil {
		return nil, err
	}
	return &longrunningpb.Operation{
		Name:   "operations/fake",
		Done:   true,
		Result: &longrunningpb.Operation_Response{Response: a},
	}, nil
}

func notFound(name string) error {
	return status.Errorf(codes.NotFound, "%s not found", name)
}

func children[T any](m map[string]T, parent string) []T {
	var out []T
	for name, v := range m {
		if strings.HasPrefix(name, parent+"/") {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeInstanceAdmin) CreateInstance(_ context.Context, req *btapb.CreateInstanceRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetParent() + "/instances/" + req.GetInstanceId()
	inst := proto.Clone(req.GetInstance()).(*btapb.Instance)
	inst.Name = name
	inst.State = btapb.Instance_READY
	f.instances[name] = inst
	for id, c := range req.GetClusters() {
		cl := proto.Clone(c).(*btapb.Cluster)
		cl.Name = name + "/clusters/" + id
		cl.State = btapb.Cluster_READY
		f.clusters[cl.Name] = cl
	}
	return doneOp(inst)
}

func (f *fakeInstanceAdmin) GetInstance(_ context.Context, req *btapb.GetInstanceRequest) (*btapb.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst, ok := f.instances[req.GetName()]; ok {
		return inst, nil
	}
	return nil, notFound(req.GetName())
}

func (f *fakeInstanceAdmin) ListInstances(_ context.Context, req *btapb.ListInstancesRequest) (*btapb.ListInstancesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &btapb.ListInstancesResponse{
		Instances:       children(f.instances, req.GetParent()),
		FailedLocations: f.failedLocations,
	}, nil
}

func (f *fakeInstanceAdmin) DeleteInstance(_ context.Context, req *btapb.DeleteInstanceRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.instances[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	delete(f.instances, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeInstanceAdmin) CreateCluster(_ context.Context, req *btapb.CreateClusterRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cl := proto.Clone(req.GetCluster()).(*btapb.Cluster)
	cl.Name = req.GetParent() + "/clusters/" + req.GetClusterId()
	cl.State = btapb.Cluster_READY
	f.clusters[cl.Name] = cl
	return doneOp(cl)
}

func (f *fakeInstanceAdmin) GetCluster(_ context.Context, req *btapb.GetClusterRequest) (*btapb.Cluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cl, ok := f.clusters[req.GetName()]; ok {
		return cl, nil
	}
	return nil, notFound(req.GetName())
}

func (f *fakeInstanceAdmin) ListClusters(_ context.Context, req *btapb.ListClustersRequest) (*btapb.ListClustersResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &btapb.ListClustersResponse{
		Clusters:        children(f.clusters, req.GetParent()),
		FailedLocations: f.failedLocations,
	}, nil
}

func (f *fakeInstanceAdmin) PartialUpdateCluster(_ context.Context, req *btapb.PartialUpdateClusterRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cl, ok := f.clusters[req.GetCluster().GetName()]
	if !ok {
		return nil, notFound(req.GetCluster().GetName())
	}
	for _, p := range req.GetUpdateMask().GetPaths() {
		switch p {
		case "serve_nodes":
			cl.ServeNodes = req.GetCluster().GetServeNodes()
		case "cluster_config.cluster_autoscaling_config":
			cl.Config = req.GetCluster().GetConfig()
		}
	}
	return doneOp(cl)
}

func (f *fakeInstanceAdmin) DeleteCluster(_ context.Context, req *btapb.DeleteClusterRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clusters[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	delete(f.clusters, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeInstanceAdmin) CreateAppProfile(_ context.Context, req *btapb.CreateAppProfileRequest) (*btapb.AppProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := req.GetParent() + "/appProfiles/" + req.GetAppProfileId()
	if _, ok := f.profiles[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s already exists", name)
	}
	p := proto.Clone(req.GetAppProfile()).(*btapb.AppProfile)
	p.Name = name
	f.profiles[name] = p
	return p, nil
}

func (f *fakeInstanceAdmin) GetAppProfile(_ context.Context, req *btapb.GetAppProfileRequest) (*btapb.AppProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[req.GetName()]; ok {
		return p, nil
	}
	return nil, notFound(req.GetName())
}

func (f *fakeInstanceAdmin) ListAppProfiles(_ context.Context, req *btapb.ListAppProfilesRequest) (*btapb.ListAppProfilesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &btapb.ListAppProfilesResponse{AppProfiles: children(f.profiles, req.GetParent())}, nil
}

func (f *fakeInstanceAdmin) UpdateAppProfile(_ context.Context, req *btapb.UpdateAppProfileRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[req.GetAppProfile().GetName()]
	if !ok {
		return nil, notFound(req.GetAppProfile().GetName())
	}
	for _, path := range req.GetUpdateMask().GetPaths() {
		switch path {
		case "description":
			p.Description = req.GetAppProfile().GetDescription()
		default:
			p.RoutingPolicy = req.GetAppProfile().GetRoutingPolicy()
		}
	}
	return doneOp(p)
}

func (f *fakeInstanceAdmin) DeleteAppProfile(_ context.Context, req *btapb.DeleteAppProfileRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	delete(f.profiles, req.GetName())
	return &emptypb.Empty{}, nil
}

func newInstanceAdmin(t *testing.T) (*bt.InstanceAdminClient, *fakeInstanceAdmin) {
	t.Helper()

	fake := newFakeInstanceAdmin()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		btapb.RegisterBigtableInstanceAdminServer(s, fake)
	})

	c, err := NewInstanceAdminClient(context.Background(), gcptest.Factory(t, conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}

// newEmulated returns table admin and data clients backed by bttest.
func newEmulated(t *testing.T) (*bt.AdminClient, *bt.Client) {
	t.Helper()

	srv, err := bttest.NewServer("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	// Keeps the client's built-in metrics exporter off.
	t.Setenv("BIGTABLE_EMULATOR_HOST", srv.Addr)
	f := gcptest.Factory(t, gcptest.Dial(t, srv.Addr))
	ctx := context.Background()

	admin, err := NewAdminClient(ctx, f, testInstance)
	require.NoError(t, err)
	t.Cleanup(func() { _ = admin.Close() })

	client, err := NewClient(ctx, f, testInstance)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return admin, client
}
