// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package gcptest runs in-process gRPC fakes for the sample tests and hands
// back a gcp.Factory whose clients are wired to them.
package gcptest

import (
	"context"
	"net"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/staranto/gcpctl/internal/gcp"
)

// Project is the project every fake-backed factory reports.
const Project = "test-project"

// Serve starts a gRPC server on a loopback port, lets register attach the
// fake services and returns a connection to it. Both are torn down when the
// test ends.
func Serve(t testing.TB, register func(*grpc.Server)) *grpc.ClientConn {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	srv := grpc.NewServer()
	register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return Dial(t, lis.Addr().String())
}

// Dial connects to addr without transport security. It is also used for the
// fakes that ship with the SDKs, such as bttest and pstest.
func Dial(t testing.TB, addr string) *grpc.ClientConn {
	t.Helper()

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Options are the client options that route a client to the fake behind
// conn. Every client dials its own connection so closing one client leaves
// the others usable.
func Options(conn *grpc.ClientConn) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(conn.Target()),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

// Factory returns a factory pinned to Project whose clients dial the fake
// behind conn, also for samples that ask for a regional endpoint.
func Factory(t testing.TB, conn *grpc.ClientConn) *gcp.Factory {
	t.Helper()

	f, err := gcp.NewFactory(context.Background(),
		gcp.WithProject(Project),
		gcp.WithEndpoint(conn.Target()),
		gcp.WithClientOptions(Options(conn)...),
	)
	if err != nil {
		t.Fatalf("failed to build factory: %v", err)
	}
	return f
}
