// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package secretmanager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/iam/apiv1/iampb"
	sm "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

type fakeSecretManager struct {
	secretmanagerpb.UnimplementedSecretManagerServiceServer

	mu       sync.Mutex
	secrets  map[string]*secretmanagerpb.Secret
	versions map[string][]*secretmanagerpb.SecretVersion
	payloads map[string][]byte
	policies map[string]*iampb.Policy
	// corrupt makes AccessSecretVersion return a payload whose checksum
	// does not match.
	corrupt bool
}

func newFakeSecretManager() *fakeSecretManager {
	return &fakeSecretManager{
		secrets:  map[string]*secretmanagerpb.Secret{},
		versions: map[string][]*secretmanagerpb.SecretVersion{},
		payloads: map[string][]byte{},
		policies: map[string]*iampb.Policy{},
	}
}

func notFound(name string) error {
	return status.Errorf(codes.NotFound, "%s not found", name)
}

func (f *fakeSecretManager) CreateSecret(_ context.Context, req *secretmanagerpb.CreateSecretRequest) (*secretmanagerpb.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := req.GetParent() + "/secrets/" + req.GetSecretId()
	if _, ok := f.secrets[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s already exists", name)
	}
	regional := strings.Contains(req.GetParent(), "/locations/")
	if regional && req.GetSecret().GetReplication() != nil {
		return nil, status.Error(codes.InvalidArgument, "regional secrets do not take a replication policy")
	}
	if !regional && req.GetSecret().GetReplication() == nil {
		return nil, status.Error(codes.InvalidArgument, "replication is required")
	}
	s := proto.Clone(req.GetSecret()).(*secretmanagerpb.Secret)
	s.Name = name
	s.CreateTime = timestamppb.Now()
	f.secrets[name] = s
	return s, nil
}

func (f *fakeSecretManager) GetSecret(_ context.Context, req *secretmanagerpb.GetSecretRequest) (*secretmanagerpb.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.secrets[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	return s, nil
}

func (f *fakeSecretManager) UpdateSecret(_ context.Context, req *secretmanagerpb.UpdateSecretRequest) (*secretmanagerpb.Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.secrets[req.GetSecret().GetName()]
	if !ok {
		return nil, notFound(req.GetSecret().GetName())
	}
	for _, p := range req.GetUpdateMask().GetPaths() {
		if p != "labels" {
			return nil, status.Errorf(codes.InvalidArgument, "unsupported path %s", p)
		}
		s.Labels = req.GetSecret().GetLabels()
	}
	return s, nil
}

func (f *fakeSecretManager) ListSecrets(_ context.Context, req *secretmanagerpb.ListSecretsRequest) (*secretmanagerpb.ListSecretsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var key, value string
	if req.GetFilter() != "" {
		k, v, ok := strings.Cut(req.GetFilter(), "=")
		if !ok || !strings.HasPrefix(k, "labels.") {
			return nil, status.Errorf(codes.InvalidArgument, "unsupported filter %q", req.GetFilter())
		}
		key, value = strings.TrimPrefix(k, "labels."), v
	}

	var names []string
	for name, s := range f.secrets {
		if !strings.HasPrefix(name, req.GetParent()+"/secrets/") {
			continue
		}
		if key != "" && s.GetLabels()[key] != value {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	resp := &secretmanagerpb.ListSecretsResponse{}
	for _, n := range names {
		resp.Secrets = append(resp.Secrets, f.secrets[n])
	}
	return resp, nil
}

func (f *fakeSecretManager) DeleteSecret(_ context.Context, req *secretmanagerpb.DeleteSecretRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	delete(f.secrets, req.GetName())
	delete(f.versions, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeSecretManager) AddSecretVersion(_ context.Context, req *secretmanagerpb.AddSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[req.GetParent()]; !ok {
		return nil, notFound(req.GetParent())
	}
	p := req.GetPayload()
	if p.DataCrc32C != nil && checksum(p.GetData()) != p.GetDataCrc32C() {
		return nil, status.Error(codes.InvalidArgument, "checksum mismatch")
	}
	n := len(f.versions[req.GetParent()]) + 1
	v := &secretmanagerpb.SecretVersion{
		Name:       fmt.Sprintf("%s/versions/%d", req.GetParent(), n),
		State:      secretmanagerpb.SecretVersion_ENABLED,
		CreateTime: timestamppb.Now(),
	}
	f.versions[req.GetParent()] = append(f.versions[req.GetParent()], v)
	f.payloads[v.GetName()] = p.GetData()
	return v, nil
}

// version resolves name, including the latest alias, to a stored version.
func (f *fakeSecretManager) version(name string) (*secretmanagerpb.SecretVersion, error) {
	secret, id, _ := strings.Cut(name, "/versions/")
	vs := f.versions[secret]
	if id == "latest" {
		for i := len(vs) - 1; i >= 0; i-- {
			if vs[i].GetState() == secretmanagerpb.SecretVersion_ENABLED {
				return vs[i], nil
			}
		}
		return nil, notFound(name)
	}
	for _, v := range vs {
		if v.GetName() == name {
			return v, nil
		}
	}
	return nil, notFound(name)
}

func (f *fakeSecretManager) GetSecretVersion(_ context.Context, req *secretmanagerpb.GetSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version(req.GetName())
}

func (f *fakeSecretManager) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, err := f.version(req.GetName())
	if err != nil {
		return nil, err
	}
	if v.GetState() != secretmanagerpb.SecretVersion_ENABLED {
		return nil, status.Errorf(codes.FailedPrecondition, "%s is in state %s", v.GetName(), v.GetState())
	}
	data := f.payloads[v.GetName()]
	crc := checksum(data)
	if f.corrupt {
		crc++
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    v.GetName(),
		Payload: &secretmanagerpb.SecretPayload{Data: data, DataCrc32C: &crc},
	}, nil
}

func (f *fakeSecretManager) ListSecretVersions(_ context.Context, req *secretmanagerpb.ListSecretVersionsRequest) (*secretmanagerpb.ListSecretVersionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[req.GetParent()]; !ok {
		return nil, notFound(req.GetParent())
	}
	resp := &secretmanagerpb.ListSecretVersionsResponse{}
	vs := f.versions[req.GetParent()]
	for i := len(vs) - 1; i >= 0; i-- {
		resp.Versions = append(resp.Versions, vs[i])
	}
	return resp, nil
}

func (f *fakeSecretManager) setState(name string, state secretmanagerpb.SecretVersion_State) (*secretmanagerpb.SecretVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, err := f.version(name)
	if err != nil {
		return nil, err
	}
	if v.GetState() == secretmanagerpb.SecretVersion_DESTROYED {
		return nil, status.Errorf(codes.FailedPrecondition, "%s is destroyed", name)
	}
	v.State = state
	if state == secretmanagerpb.SecretVersion_DESTROYED {
		delete(f.payloads, v.GetName())
		v.DestroyTime = timestamppb.Now()
	}
	return v, nil
}

func (f *fakeSecretManager) DisableSecretVersion(_ context.Context, req *secretmanagerpb.DisableSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	return f.setState(req.GetName(), secretmanagerpb.SecretVersion_DISABLED)
}

func (f *fakeSecretManager) EnableSecretVersion(_ context.Context, req *secretmanagerpb.EnableSecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	return f.setState(req.GetName(), secretmanagerpb.SecretVersion_ENABLED)
}

func (f *fakeSecretManager) DestroySecretVersion(_ context.Context, req *secretmanagerpb.DestroySecretVersionRequest) (*secretmanagerpb.SecretVersion, error) {
	return f.setState(req.GetName(), secretmanagerpb.SecretVersion_DESTROYED)
}

func (f *fakeSecretManager) GetIamPolicy(_ context.Context, req *iampb.GetIamPolicyRequest) (*iampb.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[req.GetResource()]; !ok {
		return nil, notFound(req.GetResource())
	}
	if p, ok := f.policies[req.GetResource()]; ok {
		return p, nil
	}
	return &iampb.Policy{}, nil
}

func (f *fakeSecretManager) SetIamPolicy(_ context.Context, req *iampb.SetIamPolicyRequest) (*iampb.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.secrets[req.GetResource()]; !ok {
		return nil, notFound(req.GetResource())
	}
	f.policies[req.GetResource()] = req.GetPolicy()
	return req.GetPolicy(), nil
}

// members returns who holds role on the secret.
func (f *fakeSecretManager) members(name, role string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.policies[name].GetBindings() {
		if b.GetRole() == role {
			return b.GetMembers()
		}
	}
	return nil
}

func newClient(t *testing.T, location string) (*sm.Client, *fakeSecretManager) {
	t.Helper()

	fake := newFakeSecretManager()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		secretmanagerpb.RegisterSecretManagerServiceServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn), location)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
