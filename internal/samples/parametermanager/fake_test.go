// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package parametermanager

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	pm "cloud.google.com/go/parametermanager/apiv1"
	"cloud.google.com/go/parametermanager/apiv1/parametermanagerpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

var secretRef = regexp.MustCompile(`__REF__\(//secretmanager\.googleapis\.com/([^)]+)\)`)

type fakeParameterManager struct {
	parametermanagerpb.UnimplementedParameterManagerServer

	mu       sync.Mutex
	params   map[string]*parametermanagerpb.Parameter
	versions map[string]*parametermanagerpb.ParameterVersion
	secrets  map[string]string
}

func newFakeParameterManager() *fakeParameterManager {
	return &fakeParameterManager{
		params:   map[string]*parametermanagerpb.Parameter{},
		versions: map[string]*parametermanagerpb.ParameterVersion{},
		secrets:  map[string]string{},
	}
}

func notFound(name string) error {
	return status.Errorf(codes.NotFound, "%s not found", name)
}

func direct[V any](m map[string]V, prefix string) []V {
	var names []string
	for name := range m {
		if rest, ok := strings.CutPrefix(name, prefix); ok && !strings.Contains(rest, "/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]V, 0, len(names))
	for _, n := range names {
		out = append(out, m[n])
	}
	return out
}

func (f *fakeParameterManager) CreateParameter(_ context.Context, req *parametermanagerpb.CreateParameterRequest) (*parametermanagerpb.Parameter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := req.GetParent() + "/parameters/" + req.GetParameterId()
	if _, ok := f.params[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s exists", name)
	}
	p := proto.Clone(req.GetParameter()).(*parametermanagerpb.Parameter)
	p.Name = name
	p.CreateTime = timestamppb.Now()
	if p.GetFormat() == parametermanagerpb.ParameterFormat_PARAMETER_FORMAT_UNSPECIFIED {
		p.Format = parametermanagerpb.ParameterFormat_UNFORMATTED
	}
	f.params[name] = p
	return p, nil
}

func (f *fakeParameterManager) GetParameter(_ context.Context, req *parametermanagerpb.GetParameterRequest) (*parametermanagerpb.Parameter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.params[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	return p, nil
}

func (f *fakeParameterManager) ListParameters(_ context.Context, req *parametermanagerpb.ListParametersRequest) (*parametermanagerpb.ListParametersResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &parametermanagerpb.ListParametersResponse{Parameters: direct(f.params, req.GetParent()+"/parameters/")}, nil
}

func (f *fakeParameterManager) UpdateParameter(_ context.Context, req *parametermanagerpb.UpdateParameterRequest) (*parametermanagerpb.Parameter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.params[req.GetParameter().GetName()]
	if !ok {
		return nil, notFound(req.GetParameter().GetName())
	}
	for _, path := range req.GetUpdateMask().GetPaths() {
		if path != "kms_key" {
			return nil, status.Errorf(codes.InvalidArgument, "cannot update %s", path)
		}
		p.KmsKey = req.GetParameter().KmsKey
	}
	return p, nil
}

func (f *fakeParameterManager) DeleteParameter(_ context.Context, req *parametermanagerpb.DeleteParameterRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.params[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	if len(direct(f.versions, req.GetName()+"/versions/")) > 0 {
		return nil, status.Errorf(codes.FailedPrecondition, "%s has versions", req.GetName())
	}
	delete(f.params, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeParameterManager) CreateParameterVersion(_ context.Context, req *parametermanagerpb.CreateParameterVersionRequest) (*parametermanagerpb.ParameterVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.params[req.GetParent()]
	if !ok {
		return nil, notFound(req.GetParent())
	}
	data := req.GetParameterVersion().GetPayload().GetData()
	if p.GetFormat() == parametermanagerpb.ParameterFormat_JSON && !json.Valid(data) {
		return nil, status.Error(codes.InvalidArgument, "payload is not JSON")
	}
	name := req.GetParent() + "/versions/" + req.GetParameterVersionId()
	if _, ok := f.versions[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s exists", name)
	}
	v := proto.Clone(req.GetParameterVersion()).(*parametermanagerpb.ParameterVersion)
	v.Name = name
	v.CreateTime = timestamppb.Now()
	f.versions[name] = v
	return v, nil
}

func (f *fakeParameterManager) GetParameterVersion(_ context.Context, req *parametermanagerpb.GetParameterVersionRequest) (*parametermanagerpb.ParameterVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.versions[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	return v, nil
}

func (f *fakeParameterManager) ListParameterVersions(_ context.Context, req *parametermanagerpb.ListParameterVersionsRequest) (*parametermanagerpb.ListParameterVersionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &parametermanagerpb.ListParameterVersionsResponse{ParameterVersions: direct(f.versions, req.GetParent()+"/versions/")}, nil
}

func (f *fakeParameterManager) RenderParameterVersion(_ context.Context, req *parametermanagerpb.RenderParameterVersionRequest) (*parametermanagerpb.RenderParameterVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.versions[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	if v.GetDisabled() {
		return nil, status.Errorf(codes.FailedPrecondition, "%s is disabled", req.GetName())
	}

	var missing string
	rendered := secretRef.ReplaceAllStringFunc(string(v.GetPayload().GetData()), func(ref string) string {
		name := secretRef.FindStringSubmatch(ref)[1]
		data, ok := f.secrets[name]
		if !ok {
			missing = name
		}
		return data
	})
	if missing != "" {
		return nil, notFound(missing)
	}
	return &parametermanagerpb.RenderParameterVersionResponse{
		ParameterVersion: v.GetName(),
		Payload:          v.GetPayload(),
		RenderedPayload:  []byte(rendered),
	}, nil
}

func (f *fakeParameterManager) UpdateParameterVersion(_ context.Context, req *parametermanagerpb.UpdateParameterVersionRequest) (*parametermanagerpb.ParameterVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.versions[req.GetParameterVersion().GetName()]
	if !ok {
		return nil, notFound(req.GetParameterVersion().GetName())
	}
	for _, path := range req.GetUpdateMask().GetPaths() {
		if path != "disabled" {
			return nil, status.Errorf(codes.InvalidArgument, "cannot update %s", path)
		}
		v.Disabled = req.GetParameterVersion().GetDisabled()
	}
	return v, nil
}

func (f *fakeParameterManager) DeleteParameterVersion(_ context.Context, req *parametermanagerpb.DeleteParameterVersionRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.versions[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	delete(f.versions, req.GetName())
	return &emptypb.Empty{}, nil
}

func newClient(t *testing.T, location string) (*pm.Client, *fakeParameterManager) {
	t.Helper()

	fake := newFakeParameterManager()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		parametermanagerpb.RegisterParameterManagerServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn), location)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
