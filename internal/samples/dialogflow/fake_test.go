// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package dialogflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	df "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/staranto/gcpctl/internal/gcptest"
)

const testProject = gcptest.Project

// fakeAgent is one Dialogflow agent. Every resource lives in a single map
// keyed by its full name.
type fakeAgent struct {
	dialogflowpb.UnimplementedSessionsServer
	dialogflowpb.UnimplementedIntentsServer
	dialogflowpb.UnimplementedEntityTypesServer
	dialogflowpb.UnimplementedContextsServer
	dialogflowpb.UnimplementedSessionEntityTypesServer

	mu          sync.Mutex
	seq         int
	resources   map[string]proto.Message
	audioChunks int
	audioBytes  int
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{resources: map[string]proto.Message{}}
}

func (f *fakeAgent) nextID() string {
	f.seq++
	return fmt.Sprintf("id-%d", f.seq)
}

func list[T proto.Message](f *fakeAgent, parent, collection string) []T {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := parent + "/" + collection + "/"
	var names []string
	for name := range f.resources {
		rest, ok := strings.CutPrefix(name, prefix)
		if ok && !strings.Contains(rest, "/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]T, 0, len(names))
	for _, name := range names {
		if v, ok := f.resources[name].(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (f *fakeAgent) store(name string, m proto.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources[name] = m
}

func (f *fakeAgent) remove(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resources[name]; !ok {
		return status.Errorf(codes.NotFound, "%s not found", name)
	}
	delete(f.resources, name)
	return nil
}

func queryResult(text string) *dialogflowpb.QueryResult {
	return &dialogflowpb.QueryResult{
		QueryText:                 text,
		Intent:                    &dialogflowpb.Intent{DisplayName: "greeting"},
		IntentDetectionConfidence: 0.75,
		FulfillmentText:           "Hi there!",
	}
}

func (f *fakeAgent) DetectIntent(_ context.Context, req *dialogflowpb.DetectIntentRequest) (*dialogflowpb.DetectIntentResponse, error) {
	text := req.GetQueryInput().GetText().GetText()
	if text == "" {
		text = fmt.Sprintf("audio of %d bytes", len(req.GetInputAudio()))
	}
	return &dialogflowpb.DetectIntentResponse{QueryResult: queryResult(text)}, nil
}

func (f *fakeAgent) StreamingDetectIntent(stream dialogflowpb.Sessions_StreamingDetectIntentServer) error {
	first, err := stream.Recv()
	if err != nil {
		return err
	}
	if first.GetQueryInput().GetAudioConfig().GetSampleRateHertz() != 16000 {
		return status.Error(codes.InvalidArgument, "first request must carry the audio config")
	}

	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.audioChunks++
		f.audioBytes += len(req.GetInputAudio())
		f.mu.Unlock()
	}

	for _, t := range []string{"hi", "hi there"} {
		resp := &dialogflowpb.StreamingDetectIntentResponse{
			RecognitionResult: &dialogflowpb.StreamingRecognitionResult{Transcript: t},
		}
		if err := stream.Send(resp); err != nil {
			return err
		}
	}
	return stream.Send(&dialogflowpb.StreamingDetectIntentResponse{QueryResult: queryResult("hi there")})
}

func (f *fakeAgent) CreateIntent(_ context.Context, req *dialogflowpb.CreateIntentRequest) (*dialogflowpb.Intent, error) {
	i := proto.Clone(req.GetIntent()).(*dialogflowpb.Intent)
	f.mu.Lock()
	i.Name = req.GetParent() + "/intents/" + f.nextID()
	f.mu.Unlock()
	f.store(i.GetName(), i)
	return i, nil
}

func (f *fakeAgent) ListIntents(_ context.Context, req *dialogflowpb.ListIntentsRequest) (*dialogflowpb.ListIntentsResponse, error) {
	return &dialogflowpb.ListIntentsResponse{Intents: list[*dialogflowpb.Intent](f, req.GetParent(), "intents")}, nil
}

func (f *fakeAgent) DeleteIntent(_ context.Context, req *dialogflowpb.DeleteIntentRequest) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, f.remove(req.GetName())
}

func (f *fakeAgent) CreateEntityType(_ context.Context, req *dialogflowpb.CreateEntityTypeRequest) (*dialogflowpb.EntityType, error) {
	et := proto.Clone(req.GetEntityType()).(*dialogflowpb.EntityType)
	f.mu.Lock()
	et.Name = req.GetParent() + "/entityTypes/" + f.nextID()
	f.mu.Unlock()
	f.store(et.GetName(), et)
	return et, nil
}

func (f *fakeAgent) GetEntityType(_ context.Context, req *dialogflowpb.GetEntityTypeRequest) (*dialogflowpb.EntityType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	et, ok := f.resources[req.GetName()].(*dialogflowpb.EntityType)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetName())
	}
	return proto.Clone(et).(*dialogflowpb.EntityType), nil
}

func (f *fakeAgent) ListEntityTypes(_ context.Context, req *dialogflowpb.ListEntityTypesRequest) (*dialogflowpb.ListEntityTypesResponse, error) {
	return &dialogflowpb.ListEntityTypesResponse{EntityTypes: list[*dialogflowpb.EntityType](f, req.GetParent(), "entityTypes")}, nil
}

func (f *fakeAgent) DeleteEntityType(_ context.Context, req *dialogflowpb.DeleteEntityTypeRequest) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, f.remove(req.GetName())
}

func emptyOp() (*longrunningpb.Operation, error) {
	a, err := anypb.New(&emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return &longrunningpb.Operation{
		Name:   "operations/fake",
		Done:   true,
		Result: &longrunningpb.Operation_Response{Response: a},
	}, nil
}

func (f *fakeAgent) BatchCreateEntities(_ context.Context, req *dialogflowpb.BatchCreateEntitiesRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	et, ok := f.resources[req.GetParent()].(*dialogflowpb.EntityType)
	if ok {
		et.Entities = append(et.Entities, req.GetEntities()...)
	}
	f.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetParent())
	}
	return emptyOp()
}

func (f *fakeAgent) BatchDeleteEntities(_ context.Context, req *dialogflowpb.BatchDeleteEntitiesRequest) (*longrunningpb.Operation, error) {
	f.mu.Lock()
	et, ok := f.resources[req.GetParent()].(*dialogflowpb.EntityType)
	if ok {
		drop := map[string]bool{}
		for _, v := range req.GetEntityValues() {
			drop[v] = true
		}
		var kept []*dialogflowpb.EntityType_Entity
		for _, e := range et.GetEntities() {
			if !drop[e.GetValue()] {
				kept = append(kept, e)
			}
		}
		et.Entities = kept
	}
	f.mu.Unlock()
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s not found", req.GetParent())
	}
	return emptyOp()
}

func (f *fakeAgent) CreateContext(_ context.Context, req *dialogflowpb.CreateContextRequest) (*dialogflowpb.Context, error) {
	c := proto.Clone(req.GetContext()).(*dialogflowpb.Context)
	f.store(c.GetName(), c)
	return c, nil
}

func (f *fakeAgent) ListContexts(_ context.Context, req *dialogflowpb.ListContextsRequest) (*dialogflowpb.ListContextsResponse, error) {
	return &dialogflowpb.ListContextsResponse{Contexts: list[*dialogflowpb.Context](f, req.GetParent(), "contexts")}, nil
}

func (f *fakeAgent) DeleteContext(_ context.Context, req *dialogflowpb.DeleteContextRequest) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, f.remove(req.GetName())
}

func (f *fakeAgent) CreateSessionEntityType(_ context.Context, req *dialogflowpb.CreateSessionEntityTypeRequest) (*dialogflowpb.SessionEntityType, error) {
	s := proto.Clone(req.GetSessionEntityType()).(*dialogflowpb.SessionEntityType)
	f.store(s.GetName(), s)
	return s, nil
}

func (f *fakeAgent) ListSessionEntityTypes(_ context.Context, req *dialogflowpb.ListSessionEntityTypesRequest) (*dialogflowpb.ListSessionEntityTypesResponse, error) {
	return &dialogflowpb.ListSessionEntityTypesResponse{
		SessionEntityTypes: list[*dialogflowpb.SessionEntityType](f, req.GetParent(), "entityTypes"),
	}, nil
}

func (f *fakeAgent) DeleteSessionEntityType(_ context.Context, req *dialogflowpb.DeleteSessionEntityTypeRequest) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, f.remove(req.GetName())
}

// testClients are the clients every test needs, all wired to one fake.
type testClients struct {
	fake       *fakeAgent
	sessions   *df.SessionsClient
	intents    *df.IntentsClient
	types      *df.EntityTypesClient
	contexts   *df.ContextsClient
	sessionETs *df.SessionEntityTypesClient
}

func newClients(t *testing.T) *testClients {
	t.Helper()

	fake := newFakeAgent()
	conn := gcptest.Serve(t, func(s *grpc.Server) {
		dialogflowpb.RegisterSessionsServer(s, fake)
		dialogflowpb.RegisterIntentsServer(s, fake)
		dialogflowpb.RegisterEntityTypesServer(s, fake)
		dialogflowpb.RegisterContextsServer(s, fake)
		dialogflowpb.RegisterSessionEntityTypesServer(s, fake)
	})
	f := gcptest.Factory(t, conn)
	ctx := context.Background()

	tc := &testClients{fake: fake}
	var err error
	if tc.sessions, err = NewSessionsClient(ctx, f); err != nil {
		t.Fatal(err)
	}
	if tc.intents, err = NewIntentsClient(ctx, f); err != nil {
		t.Fatal(err)
	}
	if tc.types, err = NewEntityTypesClient(ctx, f); err != nil {
		t.Fatal(err)
	}
	if tc.contexts, err = NewContextsClient(ctx, f); err != nil {
		t.Fatal(err)
	}
	if tc.sessionETs, err = NewSessionEntityTypesClient(ctx, f); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = tc.sessions.Close()
		_ = tc.intents.Close()
		_ = tc.types.Close()
		_ = tc.contexts.Close()
		_ = tc.sessionETs.Close()
	})
	return tc
}
