// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	fs "cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

const documentsRoot = "projects/" + gcptest.Project + "/databases/(default)/documents"

// fakeFirestore is a single-database Firestore good enough for the samples:
// commits apply masks and field transforms, and structured queries support
// field and composite filters, ordering, cursors, offset and limit.
type fakeFirestore struct {
	firestorepb.UnimplementedFirestoreServer

	mu      sync.Mutex
	docs    map[string]*firestorepb.Document
	txCount int
	queries []*firestorepb.StructuredQuery
}

func newFakeFirestore() *fakeFirestore {
	return &fakeFirestore{docs: map[string]*firestorepb.Document{}}
}

func (f *fakeFirestore) BatchGetDocuments(req *firestorepb.BatchGetDocumentsRequest, stream firestorepb.Firestore_BatchGetDocumentsServer) error {
	f.mu.Lock()
	var out []*firestorepb.BatchGetDocumentsResponse
	for _, name := range req.GetDocuments() {
		resp := &firestorepb.BatchGetDocumentsResponse{ReadTime: timestamppb.Now()}
		if d, ok := f.docs[name]; ok {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Found{Found: proto.Clone(d).(*firestorepb.Document)}
		} else {
			resp.Result = &firestorepb.BatchGetDocumentsResponse_Missing{Missing: name}
		}
		out = append(out, resp)
	}
	f.mu.Unlock()

	for _, resp := range out {
		if err := stream.Send(resp); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFirestore) BeginTransaction(context.Context, *firestorepb.BeginTransactionRequest) (*firestorepb.BeginTransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCount++
	return &firestorepb.BeginTransactionResponse{Transaction: []byte(fmt.Sprintf("tx-%d", f.txCount))}, nil
}

func (f *fakeFirestore) Rollback(context.Context, *firestorepb.RollbackRequest) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}

func (f *fakeFirestore) Commit(_ context.Context, req *firestorepb.CommitRequest) (*firestorepb.CommitResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Writes are all-or-nothing, so apply them to a copy first.
	staged := make(map[string]*firestorepb.Document, len(f.docs))
	for k, v := range f.docs {
		staged[k] = v
	}

	now := timestamppb.Now()
	resp := &firestorepb.CommitResponse{CommitTime: now}
	for _, w := range req.GetWrites() {
		if err := applyWrite(staged, w, now); err != nil {
			return nil, err
		}
		resp.WriteResults = append(resp.WriteResults, &firestorepb.WriteResult{UpdateTime: now})
	}
	f.docs = staged
	return resp, nil
}

func (f *fakeFirestore) BatchWrite(_ context.Context, req *firestorepb.BatchWriteRequest) (*firestorepb.BatchWriteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := timestamppb.Now()
	resp := &firestorepb.BatchWriteResponse{}
	for _, w := range req.GetWrites() {
		st := &rpcstatus.Status{}
		if err := applyWrite(f.docs, w, now); err != nil {
			s, _ := status.FromError(err)
			st = s.Proto()
		}
		resp.WriteResults = append(resp.WriteResults, &firestorepb.WriteResult{UpdateTime: now})
		resp.Status = append(resp.Status, st)
	}
	return resp, nil
}

func applyWrite(docs map[string]*firestorepb.Document, w *firestorepb.Write, now *timestamppb.Timestamp) error {
	var name string
	switch op := w.GetOperation().(type) {
	case *firestorepb.Write_Delete:
		name = op.Delete
	case *firestorepb.Write_Update:
		name = op.Update.GetName()
	case *firestorepb.Write_Transform:
		name = op.Transform.GetDocument()
	default:
		return status.Error(codes.Unimplemented, "unsupported write")
	}

	existing, exists := docs[name]
	if ex, ok := w.GetCurrentDocument().GetConditionType().(*firestorepb.Precondition_Exists); ok {
		if ex.Exists && !exists {
			return status.Errorf(codes.NotFound, "no document to update: %s", name)
		}
		if !ex.Exists && exists {
			return status.Errorf(codes.AlreadyExists, "document already exists: %s", name)
		}
	}

	if _, ok := w.GetOperation().(*firestorepb.Write_Delete); ok {
		delete(docs, name)
		return nil
	}

	fields := map[string]*firestorepb.Value{}
	if exists {
		fields = cloneFields(existing.GetFields())
	}
	transforms := w.GetUpdateTransforms()

	switch op := w.GetOperation().(type) {
	case *firestorepb.Write_Transform:
		transforms = append(op.Transform.GetFieldTransforms(), transforms...)
	case *firestorepb.Write_Update:
		mask := w.GetUpdateMask()
		if mask == nil {
			fields = cloneFields(op.Update.GetFields())
			break
		}
		for _, fp := range mask.GetFieldPaths() {
			path := splitPath(fp)
			if v, ok := lookup(op.Update.GetFields(), path); ok {
				setPath(fields, path, proto.Clone(v).(*firestorepb.Value))
			} else {
				deletePath(fields, path)
			}
		}
	}

	for _, t := range transforms {
		if err := applyTransform(fields, t, now); err != nil {
			return err
		}
	}

	created := now
	if exists {
		created = existing.GetCreateTime()
	}
	docs[name] = &firestorepb.Document{Name: name, Fields: fields, CreateTime: created, UpdateTime: now}
	return nil
}

func applyTransform(fields map[string]*firestorepb.Value, t *firestorepb.DocumentTransform_FieldTransform, now *timestamppb.Timestamp) error {
	path := splitPath(t.GetFieldPath())
	current, _ := lookup(fields, path)

	switch tt := t.GetTransformType().(type) {
	case *firestorepb.DocumentTransform_FieldTransform_SetToServerValue:
		setPath(fields, path, &firestorepb.Value{ValueType: &firestorepb.Value_TimestampValue{TimestampValue: now}})
	case *firestorepb.DocumentTransform_FieldTransform_Increment:
		setPath(fields, path, add(current, tt.Increment))
	case *firestorepb.DocumentTransform_FieldTransform_AppendMissingElements:
		values := current.GetArrayValue().GetValues()
		for _, v := range tt.AppendMissingElements.GetValues() {
			if !containsValue(values, v) {
				values = append(values, v)
			}
		}
		setPath(fields, path, arrayValue(values))
	case *firestorepb.DocumentTransform_FieldTransform_RemoveAllFromArray:
		var values []*firestorepb.Value
		for _, v := range current.GetArrayValue().GetValues() {
			if !containsValue(tt.RemoveAllFromArray.GetValues(), v) {
				values = append(values, v)
			}
		}
		setPath(fields, path, arrayValue(values))
	default:
		return status.Errorf(codes.Unimplemented, "unsupported transform on %s", t.GetFieldPath())
	}
	return nil
}

func arrayValue(values []*firestorepb.Value) *firestorepb.Value {
	return &firestorepb.Value{ValueType: &firestorepb.Value_ArrayValue{ArrayValue: &firestorepb.ArrayValue{Values: values}}}
}

func add(current, inc *firestorepb.Value) *firestorepb.Value {
	_, curIsInt := current.GetValueType().(*firestorepb.Value_IntegerValue)
	_, incIsInt := inc.GetValueType().(*firestorepb.Value_IntegerValue)
	if (current == nil || curIsInt) && incIsInt {
		return &firestorepb.Value{ValueType: &firestorepb.Value_IntegerValue{IntegerValue: current.GetIntegerValue() + inc.GetIntegerValue()}}
	}
	n, _ := number(current)
	d, _ := number(inc)
	return &firestorepb.Value{ValueType: &firestorepb.Value_DoubleValue{DoubleValue: n + d}}
}

func cloneFields(in map[string]*firestorepb.Value) map[string]*firestorepb.Value {
	out := make(map[string]*firestorepb.Value, len(in))
	for k, v := range in {
		out[k] = proto.Clone(v).(*firestorepb.Value)
	}
	return out
}

// splitPath splits a field path on dots outside backquotes.
func splitPath(fp string) []string {
	var parts []string
	var cur strings.Builder
	quoted := false
	for _, r := range fp {
		switch {
		case r == '`':
			quoted = !quoted
		case r == '.' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, cur.String())
}

func lookup(fields map[string]*firestorepb.Value, path []string) (*firestorepb.Value, bool) {
	v, ok := fields[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return v, true
	}
	m := v.GetMapValue()
	if m == nil {
		return nil, false
	}
	return lookup(m.GetFields(), path[1:])
}

func setPath(fields map[string]*firestorepb.Value, path []string, v *firestorepb.Value) {
	if len(path) == 1 {
		fields[path[0]] = v
		return
	}
	child, ok := fields[path[0]]
	if !ok || child.GetMapValue() == nil {
		child = &firestorepb.Value{ValueType: &firestorepb.Value_MapValue{MapValue: &firestorepb.MapValue{Fields: map[string]*firestorepb.Value{}}}}
		fields[path[0]] = child
	}
	if child.GetMapValue().Fields == nil {
		child.GetMapValue().Fields = map[string]*firestorepb.Value{}
	}
	setPath(child.GetMapValue().Fields, path[1:], v)
}

func deletePath(fields map[string]*firestorepb.Value, path []string) {
	if len(path) == 1 {
		delete(fields, path[0])
		return
	}
	if child, ok := fields[path[0]]; ok && child.GetMapValue() != nil {
		deletePath(child.GetMapValue().Fields, path[1:])
	}
}

func number(v *firestorepb.Value) (float64, bool) {
	switch t := v.GetValueType().(type) {
	case *firestorepb.Value_IntegerValue:
		return float64(t.IntegerValue), true
	case *firestorepb.Value_DoubleValue:
		return t.DoubleValue, true
	}
	return 0, false
}

func typeOrder(v *firestorepb.Value) int {
	switch v.GetValueType().(type) {
	case *firestorepb.Value_NullValue:
		return 0
	case *firestorepb.Value_BooleanValue:
		return 1
	case *firestorepb.Value_IntegerValue, *firestorepb.Value_DoubleValue:
		return 2
	case *firestorepb.Value_TimestampValue:
		return 3
	case *firestorepb.Value_StringValue:
		return 4
	case *firestorepb.Value_BytesValue:
		return 5
	case *firestorepb.Value_ReferenceValue:
		return 6
	case *firestorepb.Value_GeoPointValue:
		return 7
	case *firestorepb.Value_ArrayValue:
		return 8
	}
	return 9
}

func compareValues(a, b *firestorepb.Value) int {
	if ta, tb := typeOrder(a), typeOrder(b); ta != tb {
		return ta - tb
	}
	switch a.GetValueType().(type) {
	case *firestorepb.Value_BooleanValue:
		switch {
		case a.GetBooleanValue() == b.GetBooleanValue():
			return 0
		case a.GetBooleanValue():
			return 1
		}
		return -1
	case *firestorepb.Value_IntegerValue, *firestorepb.Value_DoubleValue:
		x, _ := number(a)
		y, _ := number(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case *firestorepb.Value_TimestampValue:
		return a.GetTimestampValue().AsTime().Compare(b.GetTimestampValue().AsTime())
	case *firestorepb.Value_StringValue:
		return strings.Compare(a.GetStringValue(), b.GetStringValue())
	case *firestorepb.Value_ReferenceValue:
		return strings.Compare(a.GetReferenceValue(), b.GetReferenceValue())
	case *firestorepb.Value_ArrayValue:
		av, bv := a.GetArrayValue().GetValues(), b.GetArrayValue().GetValues()
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := compareValues(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return len(av) - len(bv)
	}
	if proto.Equal(a, b) {
		return 0
	}
	return 1
}

func containsValue(values []*firestorepb.Value, v *firestorepb.Value) bool {
	for _, x := range values {
		if compareValues(x, v) == 0 {
			return true
		}
	}
	return false
}

func fieldOf(d *firestorepb.Document, fp string) (*firestorepb.Value, bool) {
	if fp == "__name__" {
		return &firestorepb.Value{ValueType: &firestorepb.Value_ReferenceValue{ReferenceValue: d.GetName()}}, true
	}
	return lookup(d.GetFields(), splitPath(fp))
}

func matches(d *firestorepb.Document, filter *firestorepb.StructuredQuery_Filter) bool {
	if filter == nil {
		return true
	}
	if cf := filter.GetCompositeFilter(); cf != nil {
		for _, sub := range cf.GetFilters() {
			m := matches(d, sub)
			if cf.GetOp() == firestorepb.StructuredQuery_CompositeFilter_OR && m {
				return true
			}
			if cf.GetOp() != firestorepb.StructuredQuery_CompositeFilter_OR && !m {
				return false
			}
		}
		return cf.GetOp() != firestorepb.StructuredQuery_CompositeFilter_OR
	}
	if uf := filter.GetUnaryFilter(); uf != nil {
		v, ok := fieldOf(d, uf.GetField().GetFieldPath())
		isNull := ok && typeOrder(v) == 0
		switch uf.GetOp() {
		case firestorepb.StructuredQuery_UnaryFilter_IS_NULL:
			return isNull
		case firestorepb.StructuredQuery_UnaryFilter_IS_NOT_NULL:
			return ok && !isNull
		}
		return false
	}

	ff := filter.GetFieldFilter()
	v, ok := fieldOf(d, ff.GetField().GetFieldPath())
	if !ok {
		return false
	}
	want := ff.GetValue()
	sameType := typeOrder(v) == typeOrder(want)
	switch ff.GetOp() {
	case firestorepb.StructuredQuery_FieldFilter_EQUAL:
		return compareValues(v, want) == 0
	case firestorepb.StructuredQuery_FieldFilter_NOT_EQUAL:
		return typeOrder(v) != 0 && compareValues(v, want) != 0
	case firestorepb.StructuredQuery_FieldFilter_LESS_THAN:
		return sameType && compareValues(v, want) < 0
	case firestorepb.StructuredQuery_FieldFilter_LESS_THAN_OR_EQUAL:
		return sameType && compareValues(v, want) <= 0
	case firestorepb.StructuredQuery_FieldFilter_GREATER_THAN:
		return sameType && compareValues(v, want) > 0
	case firestorepb.StructuredQuery_FieldFilter_GREATER_THAN_OR_EQUAL:
		return sameType && compareValues(v, want) >= 0
	case firestorepb.StructuredQuery_FieldFilter_ARRAY_CONTAINS:
		return containsValue(v.GetArrayValue().GetValues(), want)
	case firestorepb.StructuredQuery_FieldFilter_ARRAY_CONTAINS_ANY:
		for _, x := range want.GetArrayValue().GetValues() {
			if containsValue(v.GetArrayValue().GetValues(), x) {
				return true
			}
		}
		return false
	case firestorepb.StructuredQuery_FieldFilter_IN:
		return containsValue(want.GetArrayValue().GetValues(), v)
	case firestorepb.StructuredQuery_FieldFilter_NOT_IN:
		return typeOrder(v) != 0 && !containsValue(want.GetArrayValue().GetValues(), v)
	}
	return false
}

// inCollection reports whether name is a document of the selected
// collection directly under parent, or anywhere below it for collection
// group queries.
func inCollection(name, parent string, from *firestorepb.StructuredQuery_CollectionSelector) bool {
	rel, ok := strings.CutPrefix(name, parent+"/")
	if !ok {
		return false
	}
	segs := strings.Split(rel, "/")
	if from.GetAllDescendants() {
		return len(segs) >= 2 && len(segs)%2 == 0 && segs[len(segs)-2] == from.GetCollectionId()
	}
	return len(segs) == 2 && segs[0] == from.GetCollectionId()
}

// compareCursor compares a document's order values with a cursor.
func compareCursor(d *firestorepb.Document, orders []*firestorepb.StructuredQuery_Order, cursor *firestorepb.Cursor) int {
	for i, v := range cursor.GetValues() {
		if i >= len(orders) {
			break
		}
		dv, _ := fieldOf(d, orders[i].GetField().GetFieldPath())
		c := compareValues(dv, v)
		if orders[i].GetDirection() == firestorepb.StructuredQuery_DESCENDING {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func (f *fakeFirestore) RunQuery(req *firestorepb.RunQueryRequest, stream firestorepb.Firestore_RunQueryServer) error {
	sq := req.GetStructuredQuery()
	if sq == nil || len(sq.GetFrom()) != 1 {
		return status.Error(codes.Unimplemented, "only single collection structured queries are supported")
	}

	f.mu.Lock()
	f.queries = append(f.queries, proto.Clone(sq).(*firestorepb.StructuredQuery))
	var docs []*firestorepb.Document
	for name, d := range f.docs {
		if !inCollection(name, req.GetParent(), sq.GetFrom()[0]) || !matches(d, sq.GetWhere()) {
			continue
		}
		hasOrderFields := true
		for _, o := range sq.GetOrderBy() {
			if _, ok := fieldOf(d, o.GetField().GetFieldPath()); !ok {
				hasOrderFields = false
			}
		}
		if hasOrderFields {
			docs = append(docs, proto.Clone(d).(*firestorepb.Document))
		}
	}
	f.mu.Unlock()

	orders := sq.GetOrderBy()
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			a, _ := fieldOf(docs[i], o.GetField().GetFieldPath())
			b, _ := fieldOf(docs[j], o.GetField().GetFieldPath())
			c := compareValues(a, b)
			if o.GetDirection() == firestorepb.StructuredQuery_DESCENDING {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return docs[i].GetName() < docs[j].GetName()
	})

	var out []*firestorepb.Document
	for _, d := range docs {
		if start := sq.GetStartAt(); start != nil {
			c := compareCursor(d, orders, start)
			if c < 0 || (c == 0 && !start.GetBefore()) {
				continue
			}
		}
		if end := sq.GetEndAt(); end != nil {
			c := compareCursor(d, orders, end)
			if c > 0 || (c == 0 && end.GetBefore()) {
				continue
			}
		}
		out = append(out, d)
	}

	if off := int(sq.GetOffset()); off > 0 {
		out = out[min(off, len(out)):]
	}
	if sq.GetLimit() != nil && int(sq.GetLimit().GetValue()) < len(out) {
		out = out[:sq.GetLimit().GetValue()]
	}

	for _, d := range out {
		if err := stream.Send(&firestorepb.RunQueryResponse{Document: d, ReadTime: timestamppb.Now()}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeFirestore) ListCollectionIds(_ context.Context, req *firestorepb.ListCollectionIdsRequest) (*firestorepb.ListCollectionIdsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := map[string]bool{}
	for name := range f.docs {
		if rel, ok := strings.CutPrefix(name, req.GetParent()+"/"); ok {
			seen[strings.SplitN(rel, "/", 2)[0]] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &firestorepb.ListCollectionIdsResponse{CollectionIds: ids}, nil
}

func (f *fakeFirestore) doc(path string) (*firestorepb.Document, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[documentsRoot+"/"+path]
	return d, ok
}

func (f *fakeFirestore) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for name := range f.docs {
		if strings.HasPrefix(name, documentsRoot+"/"+prefix) {
			n++
		}
	}
	return n
}

func newClient(t *testing.T) (*fs.Client, *fakeFirestore) {
	t.Helper()

	fake := newFakeFirestore()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		firestorepb.RegisterFirestoreServer(s, fake)
	})

	c, err := NewClient(context.Background(), gcptest.Factory(t, conn))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, fake
}
