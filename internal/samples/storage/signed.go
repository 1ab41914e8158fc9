// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"fmt"
	"html"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
)

// SignedURLExpiry is how long generated URLs and policies stay valid.
const SignedURLExpiry = 15 * time.Minute

// Signer is a service account identity that signs URLs locally. A nil
// Signer lets the client sign with its own credentials.
type Signer struct {
	AccessID   string
	PrivateKey []byte
}

// LoadSigner reads a service account JSON key file.
func LoadSigner(keyFile string) (*Signer, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", keyFile, err)
	}
	cfg, err := google.JWTConfigFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", keyFile, err)
	}
	return &Signer{AccessID: cfg.Email, PrivateKey: cfg.PrivateKey}, nil
}

func (s *Signer) urlOptions(method string, now time.Time) *gcs.SignedURLOptions {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  method,
		Expires: now.Add(SignedURLExpiry),
	}
	if method == "PUT" {
		opts.Headers = []string{"Content-Type:application/octet-stream"}
	}
	if s != nil {
		opts.GoogleAccessID = s.AccessID
		opts.PrivateKey = s.PrivateKey
	}
	return opts
}

// GenerateV4SignedURL prints a URL that downloads bucket/object.
func GenerateV4SignedURL(w io.Writer, c *gcs.Client, s *Signer, bucket, object string) error {
	u, err := c.Bucket(bucket).SignedURL(object, s.urlOptions("GET", time.Now()))
	if err != nil {
		return fmt.Errorf("failed to sign url: %w", err)
	}
	fmt.Fprintln(w, "Generated GET signed URL:")
	fmt.Fprintf(w, "%s\n", u)
	fmt.Fprintln(w, "You can use this URL with any user agent, for example:")
	fmt.Fprintf(w, "curl '%s'\n", u)
	return nil
}

// GenerateV4PutSignedURL prints a URL that uploads bucket/object.
func GenerateV4PutSignedURL(w io.Writer, c *gcs.Client, s *Signer, bucket, object string) error {
	u, err := c.Bucket(bucket).SignedURL(object, s.urlOptions("PUT", time.Now()))
	if err != nil {
		return fmt.Errorf("failed to sign url: %w", err)
	}
	fmt.Fprintln(w, "Generated PUT signed URL:")
	fmt.Fprintf(w, "%s\n", u)
	fmt.Fprintln(w, "You can use this URL with any user agent, for example:")
	fmt.Fprintf(w, "curl -X PUT -H 'Content-Type: application/octet-stream' --upload-file my-file '%s'\n", u)
	return nil
}

// GenerateSignedPostPolicyV4 prints an HTML form that uploads to
// bucket/object.
func GenerateSignedPostPolicyV4(w io.Writer, c *gcs.Client, s *Signer, bucket, object string) error {
	opts := &gcs.PostPolicyV4Options{
		Expires: time.Now().Add(SignedURLExpiry),
		Fields: &gcs.PolicyV4Fields{
			StatusCodeOnSuccess: 201,
		},
	}
	if s != nil {
		opts.GoogleAccessID = s.AccessID
		opts.PrivateKey = s.PrivateKey
	}
	p, err := c.Bucket(bucket).GenerateSignedPostPolicyV4(object, opts)
	if err != nil {
		return fmt.Errorf("failed to sign post policy: %w", err)
	}

	fmt.Fprintf(w, "<form action='%s' method='POST' enctype='multipart/form-data'>\n", html.EscapeString(p.URL))
	for _, k := range slices.Sorted(maps.Keys(p.Fields)) {
		fmt.Fprintf(w, "  <input name='%s' value='%s' type='hidden'/>\n", html.EscapeString(k), html.EscapeString(p.Fields[k]))
	}
	fmt.Fprintln(w, "  <input type='file' name='file'/><br />")
	fmt.Fprintln(w, "  <input type='submit' value='Upload File'/><br />")
	fmt.Fprintln(w, "</form>")
	return nil
}
