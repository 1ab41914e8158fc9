// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package iot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	iot "cloud.google.com/go/iot/apiv1"
	"cloud.google.com/go/iot/apiv1/iotpb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// DeviceRow is a row of list-devices and list-gateways.
type DeviceRow struct {
	ID        string `jsonapi:"primary,devices"`
	NumID     string `jsonapi:"attr,num-id"`
	Name      string `jsonapi:"attr,name"`
	Gateway   bool   `jsonapi:"attr,gateway"`
	Blocked   bool   `jsonapi:"attr,blocked"`
	Heartbeat string `jsonapi:"attr,last-heartbeat"`
}

func deviceRow(d *iotpb.Device) *DeviceRow {
	row := &DeviceRow{
		ID:      d.GetId(),
		NumID:   strconv.FormatUint(d.GetNumId(), 10),
		Name:    d.GetName(),
		Gateway: d.GetGatewayConfig().GetGatewayType() == iotpb.GatewayType_GATEWAY,
		Blocked: d.GetBlocked(),
	}
	if t := d.GetLastHeartbeatTime(); t != nil {
		row.Heartbeat = t.AsTime().Format("2006-01-02T15:04:05Z07:00")
	}
	return row
}

func listDevices(ctx context.Context, c *iot.DeviceManagerClient, req *iotpb.ListDevicesRequest) ([]*DeviceRow, error) {
	req.FieldMask = &fieldmaskpb.FieldMask{Paths: []string{"config", "gateway_config"}}

	var rows []*DeviceRow
	it := c.ListDevices(ctx, req)
	for {
		d, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		rows = append(rows, deviceRow(d))
	}
	return rows, nil
}

// ListDevices returns the devices of a registry.
func ListDevices(ctx context.Context, c *iot.DeviceManagerClient, reg Registry) ([]*DeviceRow, error) {
	return listDevices(ctx, c, &iotpb.ListDevicesRequest{Parent: reg.Name()})
}

func createDevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, device *iotpb.Device) error {
	d, err := c.CreateDevice(ctx, &iotpb.CreateDeviceRequest{Parent: reg.Name(), Device: device})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Device %s already exists.\n", device.GetId())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create device %s: %w", device.GetId(), err)
	}
	fmt.Fprintf(w, "Created device %s\n", d.GetName())
	return nil
}

// CreateUnauthDevice creates a device without credentials.
func CreateUnauthDevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID string) error {
	return createDevice(ctx, w, c, reg, &iotpb.Device{Id: deviceID})
}

// CreateESDevice creates a device that authenticates with an ES256 key.
func CreateESDevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, keyFile string) error {
	cred, err := credential(keyFile, iotpb.PublicKeyFormat_ES256_PEM)
	if err != nil {
		return err
	}
	return createDevice(ctx, w, c, reg, &iotpb.Device{Id: deviceID, Credentials: []*iotpb.DeviceCredential{cred}})
}

// CreateRSADevice creates a device that authenticates with an RS256
// certificate.
func CreateRSADevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, certFile string) error {
	cred, err := credential(certFile, iotpb.PublicKeyFormat_RSA_X509_PEM)
	if err != nil {
		return err
	}
	return createDevice(ctx, w, c, reg, &iotpb.Device{Id: deviceID, Credentials: []*iotpb.DeviceCredential{cred}})
}

// GetDevice prints a device and its credentials.
func GetDevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID string) error {
	d, err := c.GetDevice(ctx, &iotpb.GetDeviceRequest{Name: reg.device(deviceID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Device %s not found.\n", deviceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get device %s: %w", deviceID, err)
	}

	fmt.Fprintf(w, "Id: %s, Name: %s\n", d.GetId(), d.GetName())
	for _, cred := range d.GetCredentials() {
		fmt.Fprintf(w, "\tCredential format: %s\n", cred.GetPublicKey().GetFormat())
	}
	if cfg := d.GetConfig(); cfg != nil {
		fmt.Fprintf(w, "\tConfig version: %d\n", cfg.GetVersion())
	}
	return nil
}

// DeleteDevice deletes a device.
func DeleteDevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID string) error {
	err := c.DeleteDevice(ctx, &iotpb.DeleteDeviceRequest{Name: reg.device(deviceID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Device %s not found.\n", deviceID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete device %s: %w", deviceID, err)
	}
	fmt.Fprintf(w, "Deleted device %s\n", deviceID)
	return nil
}

func patchCredentials(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, keyFile string, format iotpb.PublicKeyFormat) error {
	cred, err := credential(keyFile, format)
	if err != nil {
		return err
	}

	d, err := c.UpdateDevice(ctx, &iotpb.UpdateDeviceRequest{
		Device: &iotpb.Device{
			Name:        reg.device(deviceID),
			Credentials: []*iotpb.DeviceCredential{cred},
		},
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{"credentials"}},
	})
	if err != nil {
		return fmt.Errorf("failed to patch device %s: %w", deviceID, err)
	}
	fmt.Fprintf(w, "Updated device %s\n", d.GetName())
	return nil
}

// PatchESDevice replaces a device's credentials with an ES256 key.
func PatchESDevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, keyFile string) error {
	return patchCredentials(ctx, w, c, reg, deviceID, keyFile, iotpb.PublicKeyFormat_ES256_PEM)
}

// PatchRSADevice replaces a device's credentials with an RS256 certificate.
func PatchRSADevice(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, certFile string) error {
	return patchCredentials(ctx, w, c, reg, deviceID, certFile, iotpb.PublicKeyFormat_RSA_X509_PEM)
}

// GetDeviceConfigs prints the device's recent config versions.
func GetDeviceConfigs(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID string) error {
	resp, err := c.ListDeviceConfigVersions(ctx, &iotpb.ListDeviceConfigVersionsRequest{Name: reg.device(deviceID)})
	if err != nil {
		return fmt.Errorf("failed to list configs of %s: %w", deviceID, err)
	}
	for _, cfg := range resp.GetDeviceConfigs() {
		fmt.Fprintf(w, "Version: %d\n", cfg.GetVersion())
		fmt.Fprintf(w, "\tData: %s\n", cfg.GetBinaryData())
	}
	return nil
}

// GetDeviceState prints the states the device last reported.
func GetDeviceState(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID string) error {
	resp, err := c.ListDeviceStates(ctx, &iotpb.ListDeviceStatesRequest{Name: reg.device(deviceID)})
	if err != nil {
		return fmt.Errorf("failed to list states of %s: %w", deviceID, err)
	}
	for _, s := range resp.GetDeviceStates() {
		fmt.Fprintf(w, "State: %s\n", s.GetUpdateTime().AsTime().Format("2006-01-02T15:04:05Z07:00"))
		fmt.Fprintf(w, "\tData: %s\n", s.GetBinaryData())
	}
	return nil
}

// SetDeviceConfig pushes a new config. A version of 0 always applies;
// any other version must match the current one.
func SetDeviceConfig(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, data string, version int64) error {
	cfg, err := c.ModifyCloudToDeviceConfig(ctx, &iotpb.ModifyCloudToDeviceConfigRequest{
		Name:            reg.device(deviceID),
		VersionToUpdate: version,
		BinaryData:      []byte(data),
	})
	if err != nil {
		return fmt.Errorf("failed to set config of %s: %w", deviceID, err)
	}
	fmt.Fprintf(w, "Version: %d\n", cfg.GetVersion())
	fmt.Fprintf(w, "Data: %s\n", cfg.GetBinaryData())
	return nil
}

// SendCommand sends a command to a connected device.
func SendCommand(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, deviceID, command string) error {
	_, err := c.SendCommandToDevice(ctx, &iotpb.SendCommandToDeviceRequest{
		Name:       reg.device(deviceID),
		BinaryData: []byte(command),
	})
	if err != nil {
		return fmt.Errorf("failed to send command to %s: %w", deviceID, err)
	}
	fmt.Fprintln(w, "Sending command to device")
	return nil
}
