// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"fmt"
	"io"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// SchemaDDL is the Singers/Albums schema every GoogleSQL sample runs on.
var SchemaDDL = []string{
	`CREATE TABLE Singers (
		SingerId   INT64 NOT NULL,
		FirstName  STRING(1024),
		LastName   STRING(1024),
		SingerInfo BYTES(MAX),
		FullName   STRING(2048) AS (ARRAY_TO_STRING([FirstName, LastName], " ")) STORED
	) PRIMARY KEY (SingerId)`,
	`CREATE TABLE Albums (
		SingerId   INT64 NOT NULL,
		AlbumId    INT64 NOT NULL,
		AlbumTitle STRING(MAX)
	) PRIMARY KEY (SingerId, AlbumId),
	INTERLEAVE IN PARENT Singers ON DELETE CASCADE`,
}

// PGSchemaDDL is the PostgreSQL dialect version of SchemaDDL.
var PGSchemaDDL = []string{
	`CREATE TABLE Singers (
		SingerId   bigint NOT NULL,
		FirstName  character varying(1024),
		LastName   character varying(1024),
		SingerInfo bytea,
		FullName   character varying(2048) GENERATED ALWAYS AS (FirstName || ' ' || LastName) STORED,
		PRIMARY KEY (SingerId)
	)`,
	`CREATE TABLE Albums (
		SingerId        bigint NOT NULL,
		AlbumId         bigint NOT NULL,
		AlbumTitle      character varying,
		MarketingBudget bigint,
		PRIMARY KEY (SingerId, AlbumId)
	) INTERLEAVE IN PARENT Singers ON DELETE CASCADE`,
}

// CreateDatabase creates the database with SchemaDDL.
func CreateDatabase(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database) error {
	return createDatabase(ctx, w, c, db, &databasepb.CreateDatabaseRequest{
		Parent:          db.InstanceName(),
		CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", db.ID),
		ExtraStatements: SchemaDDL,
	}, nil)
}

// CreatePGDatabase creates a PostgreSQL dialect database. The dialect does
// not accept extra statements on create, so PGSchemaDDL is applied by a
// separate schema update.
func CreatePGDatabase(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database) error {
	return createDatabase(ctx, w, c, db, &databasepb.CreateDatabaseRequest{
		Parent:          db.InstanceName(),
		CreateStatement: fmt.Sprintf(`CREATE DATABASE "%s"`, db.ID),
		DatabaseDialect: databasepb.DatabaseDialect_POSTGRESQL,
	}, PGSchemaDDL)
}

func createDatabase(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, req *databasepb.CreateDatabaseRequest, ddl []string) error {
	op, err := c.CreateDatabase(ctx, req)
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Database %s already exists.\n", db.ID)
		return nil
	}
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Instance %s not found.\n", db.Instance)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", db.ID, err)
	}
	if _, err := wait(ctx, w, func(ctx context.Context) (*databasepb.Database, error) {
		return op.Wait(ctx)
	}); err != nil {
		return fmt.Errorf("failed to create database %s: %w", db.ID, err)
	}

	if len(ddl) > 0 {
		if err := updateDDL(ctx, w, c, db, ddl...); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "Created database %s on instance %s\n", db.ID, db.Instance)
	return nil
}

// updateDDL applies statements to db and waits for the schema change.
func updateDDL(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, statements ...string) error {
	op, err := c.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   db.Name(),
		Statements: statements,
	})
	if err != nil {
		return fmt.Errorf("failed to update schema of %s: %w", db.ID, err)
	}
	if _, err := wait(ctx, w, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op.Wait(ctx)
	}); err != nil {
		return fmt.Errorf("failed to update schema of %s: %w", db.ID, err)
	}
	return nil
}

// schemaChange applies statements and prints done once they took effect.
// A missing database prints a message instead of failing.
func schemaChange(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, done string, statements ...string) error {
	err := updateDDL(ctx, w, c, db, statements...)
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Database %s not found.\n", db.ID)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(w, done)
	return nil
}

// AddColumn adds the MarketingBudget column to Albums.
func AddColumn(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database) error {
	return schemaChange(ctx, w, c, db, "Added the MarketingBudget column.",
		"ALTER TABLE Albums ADD COLUMN MarketingBudget INT64")
}

// CreateIndex adds the AlbumsByAlbumTitle index.
func CreateIndex(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database) error {
	return schemaChange(ctx, w, c, db, "Added the AlbumsByAlbumTitle index.",
		"CREATE INDEX AlbumsByAlbumTitle ON Albums(AlbumTitle)")
}

// CreateStoringIndex adds AlbumsByAlbumTitle2, which also stores
// MarketingBudget so index reads need not touch the base table.
func CreateStoringIndex(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database) error {
	return schemaChange(ctx, w, c, db, "Added the AlbumsByAlbumTitle2 index.",
		"CREATE INDEX AlbumsByAlbumTitle2 ON Albums(AlbumTitle) STORING (MarketingBudget)")
}

// AddTimestampColumn adds LastUpdateTime, filled with commit timestamps.
func AddTimestampColumn(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database) error {
	return schemaChange(ctx, w, c, db, "Added LastUpdateTime as a commit timestamp column in Albums table",
		"ALTER TABLE Albums ADD COLUMN LastUpdateTime TIMESTAMP OPTIONS (allow_commit_timestamp=true)")
}
