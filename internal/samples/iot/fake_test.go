// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package iot

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/iam/apiv1/iampb"
	iot "cloud.google.com/go/iot/apiv1"
	"cloud.google.com/go/iot/apiv1/iotpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

// fakeDeviceManager keeps registries and devices keyed by resource name.
type fakeDeviceManager struct {
	iotpb.UnimplementedDeviceManagerServer

	mu         sync.Mutex
	numID      uint64
	registries map[string]*iotpb.DeviceRegistry
	devices    map[string]*iotpb.Device
	configs    map[string][]*iotpb.DeviceConfig
	states     map[string][]*iotpb.DeviceState
	bindings   map[string]map[string]bool // gateway name -> device ids
	policies   map[string]*iampb.Policy
	commands   map[string][]string
	listMask   []string
}

func newFakeDeviceManager() *fakeDeviceManager {
	return &fakeDeviceManager{
		registries: map[string]*iotpb.DeviceRegistry{},
		devices:    map[string]*iotpb.Device{},
		configs:    map[string][]*iotpb.DeviceConfig{},
		states:     map[string][]*iotpb.DeviceState{},
		bindings:   map[string]map[string]bool{},
		policies:   map[string]*iampb.Policy{},
		commands:   map[string][]string{},
	}
}

func notFound(name string) error {
	return status.Errorf(codes.NotFound, "%s not found", name)
}

func sortedKeys[V any](m map[string]V, prefix string) []string {
	var keys []string
	for k := range m {
		if rest, ok := strings.CutPrefix(k, prefix); ok && !strings.Contains(rest, "/") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeDeviceManager) CreateDeviceRegistry(_ context.Context, req *iotpb.CreateDeviceRegistryRequest) (*iotpb.DeviceRegistry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := proto.Clone(req.GetDeviceRegistry()).(*iotpb.DeviceRegistry)
	r.Name = req.GetParent() + "/registries/" + r.GetId()
	if _, ok := f.registries[r.Name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s exists", r.Name)
	}
	f.registries[r.Name] = r
	return r, nil
}

func (f *fakeDeviceManager) GetDeviceRegistry(_ context.Context, req *iotpb.GetDeviceRegistryRequest) (*iotpb.DeviceRegistry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.registries[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	return r, nil
}

func (f *fakeDeviceManager) DeleteDeviceRegistry(_ context.Context, req *iotpb.DeleteDeviceRegistryRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.registries[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	if len(sortedKeys(f.devices, req.GetName()+"/devices/")) > 0 {
		return nil, status.Errorf(codes.FailedPrecondition, "%s is not empty", req.GetName())
	}
	delete(f.registries, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeDeviceManager) ListDeviceRegistries(_ context.Context, req *iotpb.ListDeviceRegistriesRequest) (*iotpb.ListDeviceRegistriesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &iotpb.ListDeviceRegistriesResponse{}
	for _, k := range sortedKeys(f.registries, req.GetParent()+"/registries/") {
		resp.DeviceRegistries = append(resp.DeviceRegistries, f.registries[k])
	}
	return resp, nil
}

func (f *fakeDeviceManager) CreateDevice(_ context.Context, req *iotpb.CreateDeviceRequest) (*iotpb.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.registries[req.GetParent()]; !ok {
		return nil, notFound(req.GetParent())
	}
	d := proto.Clone(req.GetDevice()).(*iotpb.Device)
	d.Name = req.GetParent() + "/devices/" + d.GetId()
	if _, ok := f.devices[d.Name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "%s exists", d.Name)
	}
	f.numID++
	d.NumId = f.numID
	d.Config = &iotpb.DeviceConfig{Version: 1}
	f.devices[d.Name] = d
	f.configs[d.Name] = []*iotpb.DeviceConfig{d.Config}
	return d, nil
}

func (f *fakeDeviceManager) GetDevice(_ context.Context, req *iotpb.GetDeviceRequest) (*iotpb.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	return d, nil
}

func (f *fakeDeviceManager) UpdateDevice(_ context.Context, req *iotpb.UpdateDeviceRequest) (*iotpb.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[req.GetDevice().GetName()]
	if !ok {
		return nil, notFound(req.GetDevice().GetName())
	}
	for _, p := range req.GetUpdateMask().GetPaths() {
		switch p {
		case "credentials":
			d.Credentials = req.GetDevice().GetCredentials()
		case "blocked":
			d.Blocked = req.GetDevice().GetBlocked()
		default:
			return nil, status.Errorf(codes.InvalidArgument, "cannot update %s", p)
		}
	}
	return d, nil
}

func (f *fakeDeviceManager) DeleteDevice(_ context.Context, req *iotpb.DeleteDeviceRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.devices[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	if len(f.bindings[req.GetName()]) > 0 {
		return nil, status.Errorf(codes.FailedPrecondition, "%s still has bound devices", req.GetName())
	}
	delete(f.devices, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeDeviceManager) ListDevices(_ context.Context, req *iotpb.ListDevicesRequest) (*iotpb.ListDevicesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listMask = req.GetFieldMask().GetPaths()
	opts := req.GetGatewayListOptions()

	resp := &iotpb.ListDevicesResponse{}
	for _, k := range sortedKeys(f.devices, req.GetParent()+"/devices/") {
		d := f.devices[k]
		switch {
		case opts.GetGatewayType() != iotpb.GatewayType_GATEWAY_TYPE_UNSPECIFIED:
			if d.GetGatewayConfig().GetGatewayType() != opts.GetGatewayType() {
				continue
			}
		case opts.GetAssociationsGatewayId() != "":
			gw := req.GetParent() + "/devices/" + opts.GetAssociationsGatewayId()
			if !f.bindings[gw][d.GetId()] {
				continue
			}
		}
		resp.Devices = append(resp.Devices, d)
	}
	return resp, nil
}

func (f *fakeDeviceManager) ModifyCloudToDeviceConfig(_ context.Context, req *iotpb.ModifyCloudToDeviceConfigRequest) (*iotpb.DeviceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[req.GetName()]
	if !ok {
		return nil, notFound(req.GetName())
	}
	current := d.GetConfig().GetVersion()
	if v := req.GetVersionToUpdate(); v != 0 && v != current {
		return nil, status.Errorf(codes.FailedPrecondition, "version %d is not current (%d)", v, current)
	}
	cfg := &iotpb.DeviceConfig{
		Version:         current + 1,
		BinaryData:      req.GetBinaryData(),
		CloudUpdateTime: timestamppb.Now(),
	}
	d.Config = cfg
	f.configs[req.GetName()] = append([]*iotpb.DeviceConfig{cfg}, f.configs[req.GetName()]...)
	return cfg, nil
}

func (f *fakeDeviceManager) ListDeviceConfigVersions(_ context.Context, req *iotpb.ListDeviceConfigVersionsRequest) (*iotpb.ListDeviceConfigVersionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.devices[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	return &iotpb.ListDeviceConfigVersionsResponse{DeviceConfigs: f.configs[req.GetName()]}, nil
}

func (f *fakeDeviceManager) ListDeviceStates(_ context.Context, req *iotpb.ListDeviceStatesRequest) (*iotpb.ListDeviceStatesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.devices[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	return &iotpb.ListDeviceStatesResponse{DeviceStates: f.states[req.GetName()]}, nil
}

func (f *fakeDeviceManager) SendCommandToDevice(_ context.Context, req *iotpb.SendCommandToDeviceRequest) (*iotpb.SendCommandToDeviceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.devices[req.GetName()]; !ok {
		return nil, notFound(req.GetName())
	}
	f.commands[req.GetName()] = append(f.commands[req.GetName()], string(req.GetBinaryData()))
	return &iotpb.SendCommandToDeviceResponse{}, nil
}

func (f *fakeDeviceManager) gateway(parent, id string) (string, error) {
	name := parent + "/devices/" + id
	gw, ok := f.devices[name]
	if !ok {
		return "", notFound(name)
	}
	if gw.GetGatewayConfig().GetGatewayType() != iotpb.GatewayType_GATEWAY {
		return "", status.Errorf(codes.InvalidArgument, "%s is not a gateway", id)
	}
	return name, nil
}

func (f *fakeDeviceManager) BindDeviceToGateway(_ context.Context, req *iotpb.BindDeviceToGatewayRequest) (*iotpb.BindDeviceToGatewayResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gw, err := f.gateway(req.GetParent(), req.GetGatewayId())
	if err != nil {
		return nil, err
	}
	if _, ok := f.devices[req.GetParent()+"/devices/"+req.GetDeviceId()]; !ok {
		return nil, notFound(req.GetDeviceId())
	}
	if f.bindings[gw] == nil {
		f.bindings[gw] = map[string]bool{}
	}
	f.bindings[gw][req.GetDeviceId()] = true
	return &iotpb.BindDeviceToGatewayResponse{}, nil
}

func (f *fakeDeviceManager) UnbindDeviceFromGateway(_ context.Context, req *iotpb.UnbindDeviceFromGatewayRequest) (*iotpb.UnbindDeviceFromGatewayResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gw, err := f.gateway(req.GetParent(), req.GetGatewayId())
	if err != nil {
		return nil, err
	}
	delete(f.bindings[gw], req.GetDeviceId())
	return &iotpb.UnbindDeviceFromGatewayResponse{}, nil
}

func (f *fakeDeviceManager) SetIamPolicy(_ context.Context, req *iampb.SetIamPolicyRequest) (*iampb.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.registries[req.GetResource()]; !ok {
		return nil, notFound(req.GetResource())
	}
	p := proto.Clone(req.GetPolicy()).(*iampb.Policy)
	p.Etag = []byte("etag")
	f.policies[req.GetResource()] = p
	return p, nil
}

func (f *fakeDeviceManager) GetIamPolicy(_ context.Context, req *iampb.GetIamPolicyRequest) (*iampb.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.registries[req.GetResource()]; !ok {
		return nil, notFound(req.GetResource())
	}
	if p, ok := f.policies[req.GetResource()]; ok {
		return p, nil
	}
	return &iampb.Policy{}, nil
}

func newClient(t *testing.T) (*iot.DeviceManagerClient, *fakeDeviceManager) {
	t.Helper()

	fake := newFakeDeviceManager()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		iotpb.RegisterDeviceManagerServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
