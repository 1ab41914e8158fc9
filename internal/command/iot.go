// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"

	iot "cloud.google.com/go/iot/apiv1"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	iotsample "github.com/staranto/gcpctl/internal/samples/iot"
)

var openIoT = FromFactory(iotsample.NewClient)

type registryFunc func(context.Context, io.Writer, *iot.DeviceManagerClient, iotsample.Registry, *cli.Command) error

// registryRun resolves the registry named by the first argument in the
// project and location of the session.
func registryRun(fn registryFunc) RunFunc {
	return WithProject(openIoT, func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, project string, cmd *cli.Command) error {
		reg := iotsample.Registry{Project: project, Location: cmd.String("location"), ID: arg(cmd, 0)}
		return fn(ctx, w, c, reg, cmd)
	})
}

func registrySample(name, usage string, args []string, fn registryFunc) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  append([]string{"registry"}, args...),
		Run:   registryRun(fn),
	}
}

// deviceSample builds a sample over <registry> <device>.
func deviceSample(name, usage string, fn func(context.Context, io.Writer, *iot.DeviceManagerClient, iotsample.Registry, string) error) Sample {
	return registrySample(name, usage, []string{"device"},
		func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) error {
			return fn(ctx, w, c, reg, arg(cmd, 1))
		})
}

// deviceFileSample builds a sample over <registry> <device> <file>.
func deviceFileSample(name, usage, file string, fn func(context.Context, io.Writer, *iot.DeviceManagerClient, iotsample.Registry, string, string) error) Sample {
	return registrySample(name, usage, []string{"device", file},
		func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) error {
			return fn(ctx, w, c, reg, arg(cmd, 1), arg(cmd, 2))
		})
}

func registryList[T any](name, usage string, args []string, fn func(context.Context, *iot.DeviceManagerClient, iotsample.Registry, *cli.Command) ([]T, error)) Sample {
	return List(name, usage, append([]string{"registry"}, args...), nil,
		ListWithProject(openIoT, func(ctx context.Context, c *iot.DeviceManagerClient, project string, cmd *cli.Command) ([]T, error) {
			reg := iotsample.Registry{Project: project, Location: cmd.String("location"), ID: arg(cmd, 0)}
			return fn(ctx, c, reg, cmd)
		}))
}

// IoTCommandBuilder constructs the "iot" command group.
func IoTCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:     "iot",
		Usage:    "Cloud IoT Core samples",
		Location: iotsample.DefaultLocation,
		Meta:     meta,
		Samples: []Sample{
			// Registries.
			List("list-registries", "list the registries of a location", nil, nil,
				ListWithProject(openIoT, func(ctx context.Context, c *iot.DeviceManagerClient, project string, cmd *cli.Command) ([]*iotsample.RegistryRow, error) {
					return iotsample.ListRegistries(ctx, c, project, cmd.String("location"))
				})),
			registrySample("create-registry", "create a registry that publishes to a topic", []string{"pubsub-topic"},
				func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) error {
					return iotsample.CreateRegistry(ctx, w, c, reg, arg(cmd, 1))
				}),
			registrySample("get-registry", "print a registry", nil,
				func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, _ *cli.Command) error {
					return iotsample.GetRegistry(ctx, w, c, reg)
				}),
			registrySample("delete-registry", "delete a registry", nil,
				func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, _ *cli.Command) error {
					return iotsample.DeleteRegistry(ctx, w, c, reg)
				}),

			// Devices.
			deviceSample("create-unauth-device", "create a device without credentials", iotsample.CreateUnauthDevice),
			deviceFileSample("create-es-device", "create a device with an ES256 public key", "public-key-file", iotsample.CreateESDevice),
			deviceFileSample("create-rsa-device", "create a device with an RSA X.509 certificate", "certificate-file", iotsample.CreateRSADevice),
			deviceSample("get-device", "print a device", iotsample.GetDevice),
			deviceSample("delete-device", "delete a device", iotsample.DeleteDevice),
			registryList("list-devices", "list a registry's devices", nil,
				func(ctx context.Context, c *iot.DeviceManagerClient, reg iotsample.Registry, _ *cli.Command) ([]*iotsample.DeviceRow, error) {
					return iotsample.ListDevices(ctx, c, reg)
				}),
			deviceFileSample("patch-es-device", "replace a device's credentials with an ES256 public key", "public-key-file", iotsample.PatchESDevice),
			deviceFileSample("patch-rsa-device", "replace a device's credentials with an RSA certificate", "certificate-file", iotsample.PatchRSADevice),
			deviceSample("get-device-configs", "print a device's config versions", iotsample.GetDeviceConfigs),
			deviceSample("get-device-state", "print a device's reported states", iotsample.GetDeviceState),
			{
				Name:  "set-device-config",
				Usage: "push a config to a device",
				Args:  []string{"registry", "device", "data"},
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "version", Usage: "config version to replace. 0 replaces any version"},
				},
				Run: registryRun(func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) error {
					return iotsample.SetDeviceConfig(ctx, w, c, reg, arg(cmd, 1), arg(cmd, 2), cmd.Int64("version"))
				}),
			},
			deviceFileSample("send-command", "send a command to a connected device", "command", iotsample.SendCommand),

			// IAM.
			registrySample("get-iam-policy", "print a registry's IAM policy", nil,
				func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, _ *cli.Command) error {
					return iotsample.GetIAMPolicy(ctx, w, c, reg)
				}),
			registrySample("set-iam-policy", "replace a registry's IAM policy with one binding", []string{"member", "role"},
				func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) error {
					return iotsample.SetIAMPolicy(ctx, w, c, reg, arg(cmd, 1), arg(cmd, 2))
				}),

			// Gateways.
			{
				Name:  "create-gateway",
				Usage: "create a gateway that authenticates its devices by association",
				Args:  []string{"registry", "gateway", "public-key-file"},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "algorithm", Usage: "ES256 or RS256", Value: "RS256"},
				},
				Run: registryRun(func(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) error {
					return iotsample.CreateGateway(ctx, w, c, reg, arg(cmd, 1), arg(cmd, 2), cmd.String("algorithm"))
				}),
			},
			registryList("list-gateways", "list a registry's gateways", nil,
				func(ctx context.Context, c *iot.DeviceManagerClient, reg iotsample.Registry, _ *cli.Command) ([]*iotsample.DeviceRow, error) {
					return iotsample.ListGateways(ctx, c, reg)
				}),
			registryList("list-devices-for-gateway", "list the devices bound to a gateway", []string{"gateway"},
				func(ctx context.Context, c *iot.DeviceManagerClient, reg iotsample.Registry, cmd *cli.Command) ([]*iotsample.DeviceRow, error) {
					return iotsample.ListDevicesForGateway(ctx, c, reg, arg(cmd, 1))
				}),
			deviceFileSample("bind-device-to-gateway", "bind a device to a gateway", "gateway", iotsample.BindDeviceToGateway),
			deviceFileSample("unbind-device-from-gateway", "unbind a device from a gateway", "gateway", iotsample.UnbindDeviceFromGateway),
			deviceSample("delete-gateway", "unbind a gateway's devices and delete it", iotsample.DeleteGateway),
		},
	}).Build()
}
