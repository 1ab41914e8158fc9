// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/staranto/gcpctl/internal/version"
)

// options holds the overrides collected from the command line and config.
type options struct {
	project         string
	credentialsFile string
	endpoint        string
	userAgent       string
	registerer      prometheus.Registerer
	logging         bool
	clientOptions   []option.ClientOption
}

// Option customizes how the Factory builds clients.
// Default behavior (no options) inherits Application Default Credentials and
// the service's global endpoint.
type Option func(*options)

// WithProject pins the project instead of discovering it.
func WithProject(project string) Option {
	return func(o *options) { o.project = project }
}

// WithCredentialsFile uses a service account key instead of ADC.
func WithCredentialsFile(path string) Option {
	return func(o *options) { o.credentialsFile = path }
}

// WithEndpoint overrides the service endpoint, e.g. an emulator address.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithUserAgent replaces the default gcpctl/<version> user agent.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRegisterer turns on per-RPC latency histograms registered with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithLogging logs every RPC at debug level.
func WithLogging(enabled bool) Option {
	return func(o *options) { o.logging = enabled }
}

// WithClientOptions appends raw client options. Tests use it to point clients
// at in-process fakes.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *options) { o.clientOptions = append(o.clientOptions, opts...) }
}

// Factory hands out the client options every sample's client constructor
// needs and resolves the project on first use.
type Factory struct {
	opts            []option.ClientOption
	explicitProject string
	credentialsFile string
	endpoint        string

	once    sync.Once
	project string
	err     error
}

// NewFactory assembles the client options. It does not contact any service.
func NewFactory(ctx context.Context, opts ...Option) (*Factory, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ua := o.userAgent
	if ua == "" {
		ua = "gcpctl/" + version.Version
	}

	clientOpts := []option.ClientOption{option.WithUserAgent(ua)}
	if o.credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(o.credentialsFile))
	}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}

	var unary []grpc.UnaryClientInterceptor
	var stream []grpc.StreamClientInterceptor
	if o.registerer != nil {
		m, err := newRPCMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register rpc metrics: %w", err)
		}
		unary = append(unary, m.unaryInterceptor)
		stream = append(stream, m.streamInterceptor)
	}
	if o.logging {
		unary = append(unary, loggingUnaryInterceptor())
		stream = append(stream, loggingStreamInterceptor())
	}
	if len(unary) > 0 {
		clientOpts = append(clientOpts,
			option.WithGRPCDialOption(grpc.WithChainUnaryInterceptor(unary...)),
			option.WithGRPCDialOption(grpc.WithChainStreamInterceptor(stream...)),
		)
	}

	clientOpts = append(clientOpts, o.clientOptions...)

	log.Debugf("client factory: project=%q endpoint=%q credentials=%q", o.project, o.endpoint, o.credentialsFile)

	return &Factory{
		opts:            clientOpts,
		explicitProject: o.project,
		credentialsFile: o.credentialsFile,
		endpoint:        o.endpoint,
	}, nil
}

// Project returns the resolved project, resolving it on the first call.
func (f *Factory) Project(ctx context.Context) (string, error) {
	f.once.Do(func() {
		f.project, f.err = ResolveProject(ctx, f.explicitProject, f.credentialsFile)
	})
	return f.project, f.err
}

// ClientOptions returns the factory's options followed by extra. Later
// options win, so a sample can override the endpoint for a region.
func (f *Factory) ClientOptions(extra ...option.ClientOption) []option.ClientOption {
	out := make([]option.ClientOption, 0, len(f.opts)+len(extra))
	out = append(out, f.opts...)
	return append(out, extra...)
}

// LocationOptions is the package LocationOptions unless the factory was
// given an endpoint, which then wins over the regional one.
func (f *Factory) LocationOptions(service, location string) []option.ClientOption {
	if f.endpoint != "" {
		return nil
	}
	return LocationOptions(service, location)
}

// RegionalEndpoint is the locational endpoint of service, for example
// secretmanager.us-east4.rep.googleapis.com:443. Services that only have a
// global endpoint return "" for the global location.
func RegionalEndpoint(service, location string) string {
	if location == "" || location == "global" {
		return ""
	}
	return fmt.Sprintf("%s.%s.rep.googleapis.com:443", service, location)
}

// LocationOptions returns the option that selects the regional endpoint for
// location, or nothing for the global location.
func LocationOptions(service, location string) []option.ClientOption {
	if ep := RegionalEndpoint(service, location); ep != "" {
		return []option.ClientOption{option.WithEndpoint(ep)}
	}
	return nil
}
