// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package spanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	"github.com/dustin/go-humanize"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/fieldmaskpb"

	"github.com/staranto/gcpctl/internal/gcp"
)

// BackupFilter is one step of list-backups.
type BackupFilter struct {
	Title  string
	Filter string
}

// BackupFilters is the filter sequence list-backups walks through. now
// anchors the time based filters.
func BackupFilters(backupID, databaseID string, now time.Time) []BackupFilter {
	expire := now.AddDate(0, 0, 30).UTC().Format(time.RFC3339)
	created := now.AddDate(0, 0, -1).UTC().Format(time.RFC3339)
	const size = 500
	return []BackupFilter{
		{"All backups:", ""},
		{fmt.Sprintf("All backups with name containing %q:", backupID), "name:" + backupID},
		{fmt.Sprintf("All backups for a database which name contains %q:", databaseID), "database:" + databaseID},
		{fmt.Sprintf("All backups that expire before %s:", expire), fmt.Sprintf("expire_time < %q", expire)},
		{fmt.Sprintf("All backups with size greater than %d bytes:", size), fmt.Sprintf("size_bytes > %d", size)},
		{fmt.Sprintf("All backups created after %s:", created), fmt.Sprintf("create_time >= %q AND state:READY", created)},
	}
}

func lastSegment(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}

// ListBackups prints the instance's backups once per filter of
// BackupFilters, then page by page.
func ListBackups(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, backupID string) error {
	for _, f := range BackupFilters(backupID, db.ID, time.Now()) {
		fmt.Fprintln(w, f.Title)
		it := c.ListBackups(ctx, &databasepb.ListBackupsRequest{
			Parent: db.InstanceName(),
			Filter: f.Filter,
		})
		for {
			b, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if gcp.IsNotFound(err) {
				fmt.Fprintf(w, "Instance %s not found.\n", db.Instance)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}
			fmt.Fprintf(w, "  %s (%s)\n", lastSegment(b.GetName()), humanize.Bytes(uint64(b.GetSizeBytes())))
		}
	}

	fmt.Fprintln(w, "All backups with pagination:")
	pager := iterator.NewPager(c.ListBackups(ctx, &databasepb.ListBackupsRequest{
		Parent: db.InstanceName(),
	}), 2, "")
	for page := 1; ; page++ {
		var backups []*databasepb.Backup
		token, err := pager.NextPage(&backups)
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(backups) > 0 {
			fmt.Fprintf(w, "All backups, page %d:\n", page)
		}
		for _, b := range backups {
			fmt.Fprintf(w, "  %s\n", lastSegment(b.GetName()))
		}
		if token == "" {
			break
		}
	}
	return nil
}

// ScheduleRow is a row of list-backup-schedules.
type ScheduleRow struct {
	ID        string `jsonapi:"primary,backup-schedules"`
	Name      string `jsonapi:"attr,name"`
	Cron      string `jsonapi:"attr,cron"`
	Retention string `jsonapi:"attr,retention"`
	Type      string `jsonapi:"attr,type"`
	Updated   string `jsonapi:"attr,updated"`
}

func scheduleName(db Database, scheduleID string) string {
	return fmt.Sprintf("%s/backupSchedules/%s", db.Name(), scheduleID)
}

// newSchedule is a daily full backup kept for retention and encrypted like
// the database.
func newSchedule(cron string, retention time.Duration) *databasepb.BackupSchedule {
	return &databasepb.BackupSchedule{
		Spec: &databasepb.BackupScheduleSpec{
			ScheduleSpec: &databasepb.BackupScheduleSpec_CronSpec{
				CronSpec: &databasepb.CrontabSpec{Text: cron},
			},
		},
		RetentionDuration: durationpb.New(retention),
		EncryptionConfig: &databasepb.CreateBackupEncryptionConfig{
			EncryptionType: databasepb.CreateBackupEncryptionConfig_USE_DATABASE_ENCRYPTION,
		},
		BackupTypeSpec: &databasepb.BackupSchedule_FullBackupSpec{
			FullBackupSpec: &databasepb.FullBackupSpec{},
		},
	}
}

func printSchedule(w io.Writer, s *databasepb.BackupSchedule) {
	fmt.Fprintf(w, "Backup schedule: %s\n", s.GetName())
	fmt.Fprintf(w, "\tCron: %s\n", s.GetSpec().GetCronSpec().GetText())
	fmt.Fprintf(w, "\tRetention: %s\n", s.GetRetentionDuration().AsDuration())
}

// CreateBackupSchedule creates a daily full backup at 12:30 UTC retained for
// a day.
func CreateBackupSchedule(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, scheduleID string) error {
	s, err := c.CreateBackupSchedule(ctx, &databasepb.CreateBackupScheduleRequest{
		Parent:           db.Name(),
		BackupScheduleId: scheduleID,
		BackupSchedule:   newSchedule("30 12 * * *", 24*time.Hour),
	})
	if gcp.IsAlreadyExists(err) {
		fmt.Fprintf(w, "Backup schedule %s already exists.\n", scheduleID)
		return nil
	}
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Database %s not found.\n", db.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create backup schedule %s: %w", scheduleID, err)
	}
	fmt.Fprintf(w, "Created backup schedule %s\n", s.GetName())
	return nil
}

// UpdateBackupSchedule moves the schedule to 15:45 UTC with two days of
// retention.
func UpdateBackupSchedule(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, scheduleID string) error {
	sched := newSchedule("45 15 * * *", 48*time.Hour)
	sched.Name = scheduleName(db, scheduleID)
	s, err := c.UpdateBackupSchedule(ctx, &databasepb.UpdateBackupScheduleRequest{
		BackupSchedule: sched,
		UpdateMask: &fieldmaskpb.FieldMask{Paths: []string{
			"retention_duration",
			"spec.cron_spec.text",
			"encryption_config",
		}},
	})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Backup schedule %s not found.\n", scheduleID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update backup schedule %s: %w", scheduleID, err)
	}
	fmt.Fprintf(w, "Updated backup schedule %s\n", s.GetName())
	return nil
}

// GetBackupSchedule prints one schedule.
func GetBackupSchedule(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, scheduleID string) error {
	s, err := c.GetBackupSchedule(ctx, &databasepb.GetBackupScheduleRequest{Name: scheduleName(db, scheduleID)})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Backup schedule %s not found.\n", scheduleID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get backup schedule %s: %w", scheduleID, err)
	}
	printSchedule(w, s)
	return nil
}

// ListBackupSchedules returns the database's schedules.
func ListBackupSchedules(ctx context.Context, c *database.DatabaseAdminClient, db Database) ([]*ScheduleRow, error) {
	var rows []*ScheduleRow
	it := c.ListBackupSchedules(ctx, &databasepb.ListBackupSchedulesRequest{Parent: db.Name()})
	for {
		s, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list backup schedules: %w", err)
		}
		typ := "full"
		if s.GetIncrementalBackupSpec() != nil {
			typ = "incremental"
		}
		rows = append(rows, &ScheduleRow{
			ID:        lastSegment(s.GetName()),
			Name:      s.GetName(),
			Cron:      s.GetSpec().GetCronSpec().GetText(),
			Retention: s.GetRetentionDuration().AsDuration().String(),
			Type:      typ,
			Updated:   s.GetUpdateTime().AsTime().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return rows, nil
}

// DeleteBackupSchedule deletes a schedule. Backups it already took remain.
func DeleteBackupSchedule(ctx context.Context, w io.Writer, c *database.DatabaseAdminClient, db Database, scheduleID string) error {
	name := scheduleName(db, scheduleID)
	err := c.DeleteBackupSchedule(ctx, &databasepb.DeleteBackupScheduleRequest{Name: name})
	if gcp.IsNotFound(err) {
		fmt.Fprintf(w, "Backup schedule %s not found.\n", scheduleID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete backup schedule %s: %w", scheduleID, err)
	}
	fmt.Fprintf(w, "Deleted backup schedule %s\n", name)
	return nil
}
