// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package datastore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	ds "cloud.google.com/go/datastore"
	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/staranto/gcpctl/internal/gcptest"
)

// fakeDatastore keeps entities in insertion order keyed by their path.
// Queries match on kind only and record the last query for assertions.
type fakeDatastore struct {
	datastorepb.UnimplementedDatastoreServer

	mu        sync.Mutex
	order     []string
	entities  map[string]*datastorepb.Entity
	nextID    int64
	txCount   int
	lastQuery *datastorepb.Query
}

func newFakeDatastore() *fakeDatastore {
	return &fakeDatastore{entities: map[string]*datastorepb.Entity{}, nextID: 1000}
}

func pathString(k *datastorepb.Key) string {
	parts := make([]string, 0, len(k.GetPath()))
	for _, e := range k.GetPath() {
		id := e.GetName()
		if id == "" {
			id = fmt.Sprint(e.GetId())
		}
		parts = append(parts, e.GetKind()+":"+id)
	}
	return k.GetPartitionId().GetNamespaceId() + "|" + strings.Join(parts, "/")
}

func kindOf(k *datastorepb.Key) string {
	path := k.GetPath()
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1].GetKind()
}

func (f *fakeDatastore) Lookup(_ context.Context, req *datastorepb.LookupRequest) (*datastorepb.LookupResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &datastorepb.LookupResponse{}
	for _, k := range req.GetKeys() {
		if e, ok := f.entities[pathString(k)]; ok {
			resp.Found = append(resp.Found, &datastorepb.EntityResult{Entity: proto.Clone(e).(*datastorepb.Entity)})
			continue
		}
		resp.Missing = append(resp.Missing, &datastorepb.EntityResult{Entity: &datastorepb.Entity{Key: k}})
	}
	return resp, nil
}

func (f *fakeDatastore) BeginTransaction(context.Context, *datastorepb.BeginTransactionRequest) (*datastorepb.BeginTransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.txCount++
	return &datastorepb.BeginTransactionResponse{Transaction: []byte(fmt.Sprintf("tx-%d", f.txCount))}, nil
}

func (f *fakeDatastore) Rollback(context.Context, *datastorepb.RollbackRequest) (*datastorepb.RollbackResponse, error) {
	return &datastorepb.RollbackResponse{}, nil
}

func (f *fakeDatastore) Commit(_ context.Context, req *datastorepb.CommitRequest) (*datastorepb.CommitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	resp := &datastorepb.CommitResponse{}
	for _, m := range req.GetMutations() {
		var key *datastorepb.Key
		switch op := m.GetOperation().(type) {
		case *datastorepb.Mutation_Insert:
			key = f.complete(op.Insert.GetKey())
			if _, ok := f.entities[pathString(key)]; ok {
				return nil, status.Errorf(codes.AlreadyExists, "entity %s already exists", pathString(key))
			}
			f.put(op.Insert)
		case *datastorepb.Mutation_Update:
			key = op.Update.GetKey()
			if _, ok := f.entities[pathString(key)]; !ok {
				return nil, status.Errorf(codes.NotFound, "entity %s not found", pathString(key))
			}
			f.put(op.Update)
		case *datastorepb.Mutation_Upsert:
			key = f.complete(op.Upsert.GetKey())
			f.put(op.Upsert)
		case *datastorepb.Mutation_Delete:
			key = op.Delete
			f.delete(pathString(key))
		}
		resp.MutationResults = append(resp.MutationResults, &datastorepb.MutationResult{Key: key, Version: 1})
	}
	return resp, nil
}

// complete assigns an id to an incomplete key in place.
func (f *fakeDatastore) complete(k *datastorepb.Key) *datastorepb.Key {
	path := k.GetPath()
	last := path[len(path)-1]
	if last.GetIdType() == nil {
		f.nextID++
		last.IdType = &datastorepb.Key_PathElement_Id{Id: f.nextID}
	}
	return k
}

func (f *fakeDatastore) put(e *datastorepb.Entity) {
	name := pathString(e.GetKey())
	if _, ok := f.entities[name]; !ok {
		f.order = append(f.order, name)
	}
	f.entities[name] = proto.Clone(e).(*datastorepb.Entity)
}

func (f *fakeDatastore) delete(name string) {
	delete(f.entities, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

func (f *fakeDatastore) RunQuery(_ context.Context, req *datastorepb.RunQueryRequest) (*datastorepb.RunQueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := req.GetQuery()
	if q == nil {
		return nil, status.Error(codes.Unimplemented, "only structured queries are supported")
	}
	f.lastQuery = proto.Clone(q).(*datastorepb.Query)

	kind := ""
	if len(q.GetKind()) > 0 {
		kind = q.GetKind()[0].GetName()
	}
	keep := map[string]bool{}
	for _, p := range q.GetProjection() {
		keep[p.GetProperty().GetName()] = true
	}

	resultType := datastorepb.EntityResult_FULL
	if len(keep) > 0 {
		resultType = datastorepb.EntityResult_PROJECTION
		if keep["__key__"] {
			resultType = datastorepb.EntityResult_KEY_ONLY
		}
	}

	var results []*datastorepb.EntityResult
	for _, name := range f.order {
		e := f.entities[name]
		if kind == "" && strings.HasPrefix(kindOf(e.GetKey()), "__") {
			continue
		}
		if kind != "" && kindOf(e.GetKey()) != kind {
			continue
		}
		e = proto.Clone(e).(*datastorepb.Entity)
		if len(keep) > 0 {
			for p := range e.GetProperties() {
				if !keep[p] {
					delete(e.Properties, p)
				}
			}
		}
		results = append(results, &datastorepb.EntityResult{Entity: e, Cursor: []byte(name)})
	}

	skipped := int32(0)
	if off := q.GetOffset(); off > 0 {
		skipped = min(off, int32(len(results)))
		results = results[skipped:]
	}
	if q.GetLimit() != nil && int(q.GetLimit().GetValue()) < len(results) {
		results = results[:q.GetLimit().GetValue()]
	}

	return &datastorepb.RunQueryResponse{
		Batch: &datastorepb.QueryResultBatch{
			EntityResultType: resultType,
			EntityResults:    results,
			SkippedResults:   skipped,
			EndCursor:        []byte("end"),
			MoreResults:      datastorepb.QueryResultBatch_NO_MORE_RESULTS,
		},
		Query: q,
	}, nil
}

func (f *fakeDatastore) query() *datastorepb.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func newClient(t *testing.T) (*ds.Client, *fakeDatastore) {
	t.Helper()

	fake := newFakeDatastore()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		datastorepb.RegisterDatastoreServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
