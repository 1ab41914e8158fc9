// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package iot

import (
	"context"
	"fmt"
	"io"

	iot "cloud.google.com/go/iot/apiv1"
	"cloud.google.com/go/iot/apiv1/iotpb"
)

// CreateGateway creates a gateway device. Devices bound to it authenticate
// through the gateway's association alone.
func CreateGateway(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, gatewayID, keyFile, algorithm string) error {
	format, err := ParseKeyFormat(algorithm)
	if err != nil {
		return err
	}
	cred, err := credential(keyFile, format)
	if err != nil {
		return err
	}

	return createDevice(ctx, w, c, reg, &iotpb.Device{
		Id:          gatewayID,
		Credentials: []*iotpb.DeviceCredential{cred},
		GatewayConfig: &iotpb.GatewayConfig{
			GatewayType:       iotpb.GatewayType_GATEWAY,
			GatewayAuthMethod: iotpb.GatewayAuthMethod_ASSOCIATION_ONLY,
		},
	})
}

// ListGateways returns the registry's gateways.
func ListGateways(ctx context.Context, c *iot.DeviceManagerClient, reg Registry) ([]*DeviceRow, error) {
	return listDevices(ctx, c, &iotpb.ListDevicesRequest{
		Parent: reg.Name(),
		GatewayListOptions: &iotpb.GatewayListOptions{
			Filter: &iotpb.GatewayListOptions_GatewayType{GatewayType: iotpb.GatewayType_GATEWAY},
		},
	})
}

// ListDevicesForGateway returns the devices bound to a gateway.
func ListDevicesForGateway(ctx context.Context, c *iot.DeviceManagerClient, reg Registry, gatewayID string) ([]*DeviceRow, error) {
	return listDevices(ctx, c, &iotpb.ListDevicesRequest{
		Parent: reg.Name(),
		GatewayListOptions: &iotpb.GatewayListOptions{
			Filter: &iotpb.GatewayListOptions_AssociationsGatewayId{AssociationsGatewayId: gatewayID},
		},
	})
}

// BindDeviceToGateway associates a device with a gateway.
func BindDeviceToGateway(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, gatewayID string) error {
	_, err := c.BindDeviceToGateway(ctx, &iotpb.BindDeviceToGatewayRequest{
		Parent:    reg.Name(),
		GatewayId: gatewayID,
		DeviceId:  deviceID,
	})
	if err != nil {
		return fmt.Errorf("failed to bind %s to %s: %w", deviceID, gatewayID, err)
	}
	fmt.Fprintf(w, "Device %s bound to gateway %s\n", deviceID, gatewayID)
	return nil
}

// UnbindDeviceFromGateway removes a device's association with a gateway.
func UnbindDeviceFromGateway(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, gatewayID string) error {
	_, err := c.UnbindDeviceFromGateway(ctx, &iotpb.UnbindDeviceFromGatewayRequest{
		Parent:    reg.Name(),
		GatewayId: gatewayID,
		DeviceId:  deviceID,
	})
	if err != nil {
		return fmt.Errorf("failed to unbind %s from %s: %w", deviceID, gatewayID, err)
	}
	fmt.Fprintf(w, "Device %s unbound from gateway %s\n", deviceID, gatewayID)
	return nil
}

// DeleteGateway unbinds every device from the gateway and then deletes it.
func DeleteGateway(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, gatewayID string) error {
	bound, err := ListDevicesForGateway(ctx, c, reg, gatewayID)
	if err != nil {
		return err
	}
	for _, d := range bound {
		if err := UnbindDeviceFromGateway(ctx, w, c, reg, d.ID, gatewayID); err != nil {
			return err
		}
	}
	return DeleteDevice(ctx, w, c, reg, gatewayID)
}
