// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gcp

import (
	"context"
	"errors"
	"os"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/apex/log"
	"golang.org/x/oauth2/google"

	"github.com/staranto/gcpctl/internal/cacheutil"
)

// ErrNoProject is returned when no source yields a project.
var ErrNoProject = errors.New("no project: use --project or set GOOGLE_CLOUD_PROJECT")

// projectEnvVars are consulted in order after the explicit value.
var projectEnvVars = []string{
	"GCPCTL_PROJECT",
	"GOOGLE_CLOUD_PROJECT",
	"GCLOUD_PROJECT",
	"GOOGLE_PROJECT",
	"PROJECT_ID",
}

// projectCache holds the project ADC resolved to, keyed by credentials.
var projectCache = cacheutil.New("project", 24*time.Hour)

// Overridable in tests.
var (
	findDefaultCredentials = google.FindDefaultCredentials
	onGCE                  = metadata.OnGCE
	metadataProjectID      = metadata.ProjectIDWithContext
)

// ResolveProject returns the first project found in: explicit, the
// environment, the cached ADC lookup, Application Default Credentials and
// finally the metadata server.
func ResolveProject(ctx context.Context, explicit, credentialsFile string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	for _, name := range projectEnvVars {
		if v := os.Getenv(name); v != "" {
			log.Debugf("project from %s", name)
			return v, nil
		}
	}

	key := adcCacheKey(credentialsFile)
	if e, ok := projectCache.Get(key); ok && len(e.Data) > 0 {
		log.Debugf("project from cache %s", e.Path)
		return string(e.Data), nil
	}

	if p := adcProject(ctx, credentialsFile); p != "" {
		if err := projectCache.Put(key, []byte(p)); err != nil {
			log.WithError(err).Warn("failed to cache project")
		}
		return p, nil
	}

	if onGCE() {
		if p, err := metadataProjectID(ctx); err == nil && p != "" {
			log.Debug("project from metadata server")
			return p, nil
		}
	}

	return "", ErrNoProject
}

func adcProject(ctx context.Context, credentialsFile string) string {
	if credentialsFile != "" {
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			log.WithError(err).Debug("failed to read credentials file")
			return ""
		}
		creds, err := google.CredentialsFromJSON(ctx, b)
		if err != nil {
			log.WithError(err).Debug("failed to parse credentials file")
			return ""
		}
		return creds.ProjectID
	}

	creds, err := findDefaultCredentials(ctx)
	if err != nil {
		log.WithError(err).Debug("no application default credentials")
		return ""
	}
	return creds.ProjectID
}

func adcCacheKey(credentialsFile string) string {
	if credentialsFile != "" {
		return "adc:" + credentialsFile
	}
	if f := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); f != "" {
		return "adc:" + f
	}
	return "adc:default"
}
