// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"errors"
	"net/http"

	"cloud.google.com/go/datastore"
	"cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code maps an SDK error to a gRPC code. gRPC statuses, gax API errors, JSON
// API errors and the well-known sentinel errors are all understood. nil maps
// to codes.OK and anything unrecognised to codes.Unknown.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	switch {
	case errors.Is(err, storage.ErrBucketNotExist),
		errors.Is(err, storage.ErrObjectNotExist),
		errors.Is(err, datastore.ErrNoSuchEntity):
		return codes.NotFound
	}

	// JSON API errors come wrapped in an APIError whose status gax derives
	// from the HTTP code, and it maps 409 to Aborted. The HTTP code wins.
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return httpToCode(ge.Code)
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if s := ae.GRPCStatus(); s != nil {
			return s.Code()
		}
		if c := ae.HTTPCode(); c > 0 {
			return httpToCode(c)
		}
	}

	if s, ok := status.FromError(err); ok {
		return s.Code()
	}

	return codes.Unknown
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return Code(err) == codes.NotFound
}

// IsAlreadyExists reports whether err means the resource already exists.
func IsAlreadyExists(err error) bool {
	return Code(err) == codes.AlreadyExists
}

func httpToCode(c int) codes.Code {
	switch c {
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusPreconditionFailed:
		return codes.FailedPrecondition
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}
