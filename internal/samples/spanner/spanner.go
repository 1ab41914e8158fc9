// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package spanner holds the Cloud Spanner samples: instance and database
// administration, the Singers/Albums getting-started walkthrough, indexes,
// transactions, DML, PostgreSQL dialect samples and backup schedules.
package spanner

import (
	"context"
	"fmt"
	"io"
	"strconv"

	sp "cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"

	"github.com/staranto/gcpctl/internal/gcp"
	"github.com/staranto/gcpctl/internal/progress"
)

// DefaultInstanceConfig is the configuration new instances are placed in.
const DefaultInstanceConfig = "regional-us-central1"

// waitLabel is shown while an admin operation runs.
const waitLabel = "Waiting for operation to complete"

// Database addresses one database.
type Database struct {
	Project  string
	Instance string
	ID       string
}

// InstanceName is the full resource name of the database's instance.
func (d Database) InstanceName() string {
	return fmt.Sprintf("projects/%s/instances/%s", d.Project, d.Instance)
}

// Name is the full resource name of the database.
func (d Database) Name() string {
	return fmt.Sprintf("%s/databases/%s", d.InstanceName(), d.ID)
}

// NewClient returns a data client for db.
func NewClient(ctx context.Context, f *gcp.Factory, db Database) (*sp.Client, error) {
	c, err := sp.NewClient(ctx, db.Name(), f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create spanner client: %w", err)
	}
	return c, nil
}

// NewDatabaseAdmin returns a database admin client.
func NewDatabaseAdmin(ctx context.Context, f *gcp.Factory) (*database.DatabaseAdminClient, error) {
	c, err := database.NewDatabaseAdminClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create database admin client: %w", err)
	}
	return c, nil
}

// NewInstanceAdmin returns an instance admin client.
func NewInstanceAdmin(ctx context.Context, f *gcp.Factory) (*instance.InstanceAdminClient, error) {
	c, err := instance.NewInstanceAdminClient(ctx, f.ClientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance admin client: %w", err)
	}
	return c, nil
}

// wait runs an admin operation behind the progress indicator.
func wait[T any](ctx context.Context, w io.Writer, fn func(context.Context) (T, error)) (T, error) {
	return progress.Wait(ctx, w, waitLabel, fn)
}

func nullInt(n sp.NullInt64) string {
	if !n.Valid {
		return "NULL"
	}
	return strconv.FormatInt(n.Int64, 10)
}

func nullString(n sp.NullString) string {
	if !n.Valid {
		return "NULL"
	}
	return n.StringVal
}

func nullTime(n sp.NullTime) string {
	if !n.Valid {
		return "NULL"
	}
	return n.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
}
