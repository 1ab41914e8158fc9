// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package iot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	iot "cloud.google.com/go/iot/apiv1"
	"cloud.google.com/go/iot/apiv1/iotpb"
	"google.golang.org/api/iterator"

	"github.com/staranto/gcpctl/internal/gcp"
)

// RegistryRow is a row of list-registries.
type RegistryRow struct {
	ID        string `jsonapi:"primary,registries"`
	Name      string `jsonapi:"attr,name"`
	Topics    string `jsonapi:"attr,topics"`
	LogLevel  string `jsonapi:"attr,log-level"`
	MQTTState string `jsonapi:"attr,mqtt-state"`
}

// ListRegistries returns the registries of the location.
func ListRegistries(ctx context.Context, c *iot.DeviceManagerClient, project, location string) ([]*RegistryRow, error) {
	parent := Registry{Project: project, Location: location}.parent()

	var rows []*RegistryRow
	it := c.ListDeviceRegistries(ctx, &iotpb.ListDeviceRegistriesRequest{Parent: parent})
	for {
		r, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list registries: %w", err)
		}

		topics := make([]string, 0, len(r.GetEventNotificationConfigs()))
		for _, n := range r.GetEventNotificationConfigs() {
			topics = append(topics, n.GetPubsubTopicName())
		}
		rows = append(rows, &RegistryRow{
			ID:        r.GetId(),
			Name:      r.GetName(),
			Topics:    strings.Join(topics, ","),
			LogLevel:  r.GetLogLevel().String(),
			MQTTState: r.GetMqttConfig().GetMqttEnabledState().String(),
		})
	}
	return rows, nil
}

// CreateRegistry creates a registry that publishes telemetry events to
// topic. A bare topic id is expanded to the project's topic.
func CreateRegistry(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry, topic string) error {
	if !strings.HasPrefix(topic, "projects/") {
		topic = fmt.Sprintf("projects/%s/topics/%s", reg.Project, topic)
	}

	r, err := c.CreateDeviceRegistry(ctx, &iotpb.CreateDeviceRegistryRequest{
		Parent: reg.parent(),
		DeviceRegistry: &iotpb.DeviceRegistry{
			Id: reg.ID,
			EventNotificationConfigs: []*iotpb.EventNotificationConfig{
				{PubsubTopicName: topic},
			},
		},
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Registry %s already exists.\n", reg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create registry %s: %w", reg.ID, err)
	}
	fmt.Fprintf(w, "Id: %s, Name: %s\n", r.GetId(), r.GetName())
	return nil
}

// GetRegistry prints one registry.
func GetRegistry(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry) error {
	r, err := c.GetDeviceRegistry(ctx, &iotpb.GetDeviceRegistryRequest{Name: reg.Name()})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Registry %s not found.\n", reg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get registry %s: %w", reg.ID, err)
	}
	fmt.Fprintf(w, "Id: %s, Name: %s\n", r.GetId(), r.GetName())
	for _, n := range r.GetEventNotificationConfigs() {
		fmt.Fprintf(w, "\tTopic: %s\n", n.GetPubsubTopicName())
	}
	return nil
}

// DeleteRegistry deletes an empty registry.
func DeleteRegistry(ctx context.Context, w io.Writer, c *iot.DeviceManagerClient, reg Registry) error {
	err := c.DeleteDeviceRegistry(ctx, &iotpb.DeleteDeviceRegistryRequest{Name: reg.Name()})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Registry %s not found.\n", reg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete registry %s: %w", reg.ID, err)
	}
	fmt.Fprintf(w, "Deleted registry %s\n", reg.ID)
	return nil
}
