// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type rpcMetrics struct {
	duration *prometheus.HistogramVec
}

func newRPCMetrics(r prometheus.Registerer) (*rpcMetrics, error) {
	m := &rpcMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gcpctl",
			Name:      "rpc_duration_seconds",
			Help:      "Time spent doing Google Cloud RPCs.",

			// 8 buckets from 128us to 2s.
			Buckets: prometheus.ExponentialBuckets(0.000128, 4, 8),
		}, []string{"operation", "status_code"}),
	}

	if err := r.Register(m.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		m.duration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return m, nil
}

func (m *rpcMetrics) observe(method string, start time.Time, err error) {
	m.duration.WithLabelValues(method, status.Code(err).String()).Observe(time.Since(start).Seconds())
}

func (m *rpcMetrics) unaryInterceptor(
	ctx context.Context, method string, req, resp interface{},
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
) error {
	start := time.Now()
	err := invoker(ctx, method, req, resp, cc, opts...)
	m.observe(method, start, err)
	return err
}

func (m *rpcMetrics) streamInterceptor(
	ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string,
	streamer grpc.Streamer, opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	start := time.Now()
	stream, err := streamer(ctx, desc, cc, method, opts...)
	if err != nil {
		m.observe(method, start, err)
		return nil, err
	}
	return &instrumentedClientStream{
		metrics:      m,
		start:        start,
		method:       method,
		ClientStream: stream,
	}, nil
}

type instrumentedClientStream struct {
	metrics *rpcMetrics
	start   time.Time
	method  string
	grpc.ClientStream
}

func (s *instrumentedClientStream) RecvMsg(m interface{}) error {
	err := s.ClientStream.RecvMsg(m)
	if err == nil {
		return err
	}

	if errors.Is(err, io.EOF) {
		s.metrics.observe(s.method, s.start, nil)
	} else {
		s.metrics.observe(s.method, s.start, err)
	}

	return err
}

// WriteMetrics writes everything g gathered in the prometheus text format.
func WriteMetrics(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// apexLogger adapts apex/log to the grpc middleware logging interface.
func apexLogger() logging.Logger {
	return logging.LoggerFunc(func(_ context.Context, lvl logging.Level, msg string, fields ...any) {
		f := log.Fields{}
		for i := 0; i+1 < len(fields); i += 2 {
			f[fmt.Sprint(fields[i])] = fields[i+1]
		}
		entry := log.WithFields(f)
		switch lvl {
		case logging.LevelError:
			entry.Error(msg)
		case logging.LevelWarn:
			entry.Warn(msg)
		default:
			entry.Debug(msg)
		}
	})
}

func loggingUnaryInterceptor() grpc.UnaryClientInterceptor {
	return logging.UnaryClientInterceptor(apexLogger(), logging.WithLogOnEvents(logging.StartCall, logging.FinishCall))
}

func loggingStreamInterceptor() grpc.StreamClientInterceptor {
	return logging.StreamClientInterceptor(apexLogger(), logging.WithLogOnEvents(logging.StartCall, logging.FinishCall))
}
