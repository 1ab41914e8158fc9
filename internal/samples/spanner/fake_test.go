// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package spanner

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	sp "cloud.google.com/go/spanner"
	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"cloud.google.com/go/spanner/spannertest"
	"cloud.google.com/go/spanner/spansql"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

var testDB = Database{Project: gcptest.Project, Instance: "my-instance", ID: "example-db"}

func doneOp(m proto.Message) (*longrunningpb.Operation, error) {
	a, err := anypb.New(m)
	if err != nil {
		return nil, err
	}
	return &longrunningpb.Operation{
		Name:   "operations/fake",
		Done:   true,
		Result: &longrunningpb.Operation_Response{Response: a},
	}, nil
}

// fakeDatabaseAdmin records databases, schema statements, backups and backup
// schedules. Operations complete immediately.
type fakeDatabaseAdmin struct {
	databasepb.UnimplementedDatabaseAdminServer

	mu         sync.Mutex
	instances  map[string]bool
	databases  map[string]*databasepb.Database
	ddl        map[string][]string
	backups    []*databasepb.Backup
	schedules  map[string]*databasepb.BackupSchedule
	listFilter []string
}

func newFakeDatabaseAdmin(instances ...string) *fakeDatabaseAdmin {
	f := &fakeDatabaseAdmin{
		instances: map[string]bool{},
		databases: map[string]*databasepb.Database{},
		ddl:       map[string][]string{},
		schedules: map[string]*databasepb.BackupSchedule{},
	}
	for _, i := range instances {
		f.instances[i] = true
	}
	return f
}

func (f *fakeDatabaseAdmin) CreateDatabase(_ context.Context, req *databasepb.CreateDatabaseRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.instances[req.GetParent()] {
		return nil, status.Errorf(codes.NotFound, "instance %s not found", req.GetParent())
	}
	id := strings.Trim(strings.TrimPrefix(req.GetCreateStatement(), "CREATE DATABASE "), "`\"")
	name := req.GetParent() + "/databases/" + id
	if _, ok := f.databases[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "database %s already exists", name)
	}
	db := &databasepb.Database{
		Name:            name,
		State:           databasepb.Database_READY,
		DatabaseDialect: req.GetDatabaseDialect(),
	}
	f.databases[name] = db
	f.ddl[name] = append([]string(nil), req.GetExtraStatements()...)
	return doneOp(db)
}

func (f *fakeDatabaseAdmin) UpdateDatabaseDdl(_ context.Context, req *databasepb.UpdateDatabaseDdlRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.databases[req.GetDatabase()]; !ok {
		return nil, status.Errorf(codes.NotFound, "database %s not found", req.GetDatabase())
	}
	f.ddl[req.GetDatabase()] = append(f.ddl[req.GetDatabase()], req.GetStatements()...)
	return doneOp(&emptypb.Empty{})
}

func (f *fakeDatabaseAdmin) statements(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ddl[name]...)
}

// ListBackups understands the name: and database: filters and pages by
// offset.
func (f *fakeDatabaseAdmin) ListBackups(_ context.Context, req *databasepb.ListBackupsRequest) (*databasepb.ListBackupsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listFilter = append(f.listFilter, req.GetFilter())

	var matched []*databasepb.Backup
	for _, b := range f.backups {
		switch filter := req.GetFilter(); {
		case strings.HasPrefix(filter, "name:"):
			if !strings.Contains(b.GetName(), strings.TrimPrefix(filter, "name:")) {
				continue
			}
		case strings.HasPrefix(filter, "database:"):
			if !strings.Contains(b.GetDatabase(), strings.TrimPrefix(filter, "database:")) {
				continue
			}
		}
		matched = append(matched, b)
	}

	start := 0
	if req.GetPageToken() != "" {
		n, err := strconv.Atoi(req.GetPageToken())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "bad page token")
		}
		start = n
	}
	end := len(matched)
	if size := int(req.GetPageSize()); size > 0 && start+size < end {
		end = start + size
	}
	resp := &databasepb.ListBackupsResponse{Backups: matched[start:end]}
	if end < len(matched) {
		resp.NextPageToken = strconv.Itoa(end)
	}
	return resp, nil
}

func (f *fakeDatabaseAdmin) CreateBackupSchedule(_ context.Context, req *databasepb.CreateBackupScheduleRequest) (*databasepb.BackupSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.databases[req.GetParent()]; !ok {
		return nil, status.Errorf(codes.NotFound, "database %s not found", req.GetParent())
	}
	name := req.GetParent() + "/backupSchedules/" + req.GetBackupScheduleId()
	if _, ok := f.schedules[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "schedule %s already exists", name)
	}
	s := proto.Clone(req.GetBackupSchedule()).(*databasepb.BackupSchedule)
	s.Name = name
	s.UpdateTime = timestamppb.Now()
	f.schedules[name] = s
	return s, nil
}

func (f *fakeDatabaseAdmin) GetBackupSchedule(_ context.Context, req *databasepb.GetBackupScheduleRequest) (*databasepb.BackupSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.schedules[req.GetName()]; ok {
		return s, nil
	}
	return nil, status.Errorf(codes.NotFound, "schedule %s not found", req.GetName())
}

func (f *fakeDatabaseAdmin) UpdateBackupSchedule(_ context.Context, req *databasepb.UpdateBackupScheduleRequest) (*databasepb.BackupSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in := req.GetBackupSchedule()
	s, ok := f.schedules[in.GetName()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "schedule %s not found", in.GetName())
	}
	for _, p := range req.GetUpdateMask().GetPaths() {
		switch p {
		case "retention_duration":
			s.RetentionDuration = in.GetRetentionDuration()
		case "spec.cron_spec.text":
			s.Spec = in.GetSpec()
		case "encryption_config":
			s.EncryptionConfig = in.GetEncryptionConfig()
		default:
			return nil, status.Errorf(codes.InvalidArgument, "unsupported path %s", p)
		}
	}
	s.UpdateTime = timestamppb.Now()
	return s, nil
}

func (f *fakeDatabaseAdmin) ListBackupSchedules(_ context.Context, req *databasepb.ListBackupSchedulesRequest) (*databasepb.ListBackupSchedulesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &databasepb.ListBackupSchedulesResponse{}
	for name, s := range f.schedules {
		if strings.HasPrefix(name, req.GetParent()+"/") {
			resp.BackupSchedules = append(resp.BackupSchedules, s)
		}
	}
	sort.Slice(resp.BackupSchedules, func(i, j int) bool {
		return resp.BackupSchedules[i].GetName() < resp.BackupSchedules[j].GetName()
	})
	return resp, nil
}

func (f *fakeDatabaseAdmin) DeleteBackupSchedule(_ context.Context, req *databasepb.DeleteBackupScheduleRequest) (*emptypb.Empty, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.schedules[req.GetName()]; !ok {
		return nil, status.Errorf(codes.NotFound, "schedule %s not found", req.GetName())
	}
	delete(f.schedules, req.GetName())
	return &emptypb.Empty{}, nil
}

// fakeInstanceAdmin serves instances and a fixed set of configurations.
type fakeInstanceAdmin struct {
	instancepb.UnimplementedInstanceAdminServer

	mu        sync.Mutex
	instances map[string]*instancepb.Instance
}

func (f *fakeInstanceAdmin) CreateInstance(_ context.Context, req *instancepb.CreateInstanceRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := req.GetParent() + "/instances/" + req.GetInstanceId()
	if _, ok := f.instances[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "instance %s already exists", name)
	}
	inst := proto.Clone(req.GetInstance()).(*instancepb.Instance)
	inst.Name = name
	inst.State = instancepb.Instance_READY
	f.instances[name] = inst
	return doneOp(inst)
}

func (f *fakeInstanceAdmin) GetInstance(_ context.Context, req *instancepb.GetInstanceRequest) (*instancepb.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst, ok := f.instances[req.GetName()]; ok {
		return inst, nil
	}
	return nil, status.Errorf(codes.NotFound, "instance %s not found", req.GetName())
}

func (f *fakeInstanceAdmin) ListInstanceConfigs(_ context.Context, req *instancepb.ListInstanceConfigsRequest) (*instancepb.ListInstanceConfigsResponse, error) {
	return &instancepb.ListInstanceConfigsResponse{
		InstanceConfigs: []*instancepb.InstanceConfig{
			{
				Name:          req.GetParent() + "/instanceConfigs/regional-us-central1",
				DisplayName:   "us-central1",
				ConfigType:    instancepb.InstanceConfig_GOOGLE_MANAGED,
				LeaderOptions: []string{"us-central1"},
				Replicas: []*instancepb.ReplicaInfo{
					{Location: "us-central1", Type: instancepb.ReplicaInfo_READ_WRITE},
					{Location: "us-central1", Type: instancepb.ReplicaInfo_READ_WRITE},
					{Location: "us-central1", Type: instancepb.ReplicaInfo_READ_WRITE},
				},
			},
			{
				Name:          req.GetParent() + "/instanceConfigs/nam3",
				DisplayName:   "North America (Northern Virginia/South Carolina)",
				ConfigType:    instancepb.InstanceConfig_GOOGLE_MANAGED,
				LeaderOptions: []string{"us-east4", "us-east1"},
				Replicas: []*instancepb.ReplicaInfo{
					{Location: "us-east4", Type: instancepb.ReplicaInfo_READ_WRITE},
					{Location: "us-east1", Type: instancepb.ReplicaInfo_READ_WRITE},
					{Location: "us-central1", Type: instancepb.ReplicaInfo_WITNESS},
				},
			},
		},
	}, nil
}

// newAdmins returns admin clients served by the fakes. testDB's instance
// exists for the database admin.
func newAdmins(t *testing.T) (*database.DatabaseAdminClient, *fakeDatabaseAdmin, *instance.InstanceAdminClient) {
	t.Helper()

	dbFake := newFakeDatabaseAdmin(testDB.InstanceName())
	instFake := &fakeInstanceAdmin{instances: map[string]*instancepb.Instance{}}
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		databasepb.RegisterDatabaseAdminServer(s, dbFake)
		instancepb.RegisterInstanceAdminServer(s, instFake)
	})
	f := gcptest.Factory(t, conn)
	ctx := context.Background()

	dbAdmin, err := NewDatabaseAdmin(ctx, f)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbAdmin.Close() })

	instAdmin, err := NewInstanceAdmin(ctx, f)
	require.NoError(t, err)
	t.Cleanup(func() { _ = instAdmin.Close() })

	return dbAdmin, dbFake, instAdmin
}

// emulatedDDL is the schema the in-memory server runs. It omits the
// generated FullName column, which the emulator does not evaluate.
const emulatedDDL = `
CREATE TABLE Singers (
	SingerId   INT64 NOT NULL,
	FirstName  STRING(1024),
	LastName   STRING(1024),
	SingerInfo BYTES(MAX)
) PRIMARY KEY (SingerId);
CREATE TABLE Albums (
	SingerId        INT64 NOT NULL,
	AlbumId         INT64 NOT NULL,
	AlbumTitle      STRING(MAX),
	MarketingBudget INT64
) PRIMARY KEY (SingerId, AlbumId),
	INTERLEAVE IN PARENT Singers ON DELETE CASCADE;
`

// newEmulated returns a data client backed by spannertest with the sample
// schema applied.
func newEmulated(t *testing.T) *sp.Client {
	t.Helper()
	t.Setenv("SPANNER_DISABLE_BUILTIN_METRICS", "true")

	srv, err := spannertest.NewServer("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	ddl, err := spansql.ParseDDL("schema", emulatedDDL)
	require.NoError(t, err)
	require.NoError(t, srv.UpdateDDL(ddl), "failed to apply schema")

	c, err := NewClient(context.Background(), gcptest.Factory(t, gcptest.Dial(t, srv.Addr)), testDB)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}
