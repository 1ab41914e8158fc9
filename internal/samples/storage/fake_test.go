// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/fsouza/fake-gcs-server/fakestorage"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/staranto/gcpctl/internal/gcptest"
)

const (
	testBucket   = "sample-bucket"
	testObject   = "greeting.txt"
	testContents = "hello, world"
	testSigner   = "signer@test-project.iam.gserviceaccount.com"
)

// newFake returns a client for an in-memory GCS server holding testBucket
// with testObject in it.
func newFake(t *testing.T) (*gcs.Client, *fakestorage.Server) {
	t.Helper()

	srv, err := fakestorage.NewServerWithOptions(fakestorage.Options{
		NoListener: true,
		InitialObjects: []fakestorage.Object{
			{
				ObjectAttrs: fakestorage.ObjectAttrs{
					BucketName:  testBucket,
					Name:        testObject,
					ContentType: "text/plain",
				},
				Content: []byte(testContents),
			},
		},
	})
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	c := srv.Client()
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

// newMissing returns a client whose JSON API answers every call with 404, for
// the not-found paths fake-gcs-server does not serve.
func newMissing(t *testing.T) *gcs.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"The specified bucket does not exist."}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := gcs.NewClient(context.Background(),
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// tempFile writes contents to a file under the test's temp dir.
func tempFile(t *testing.T, name, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	return p
}

// serviceAccountKey writes a JSON key file for testSigner with a fresh RSA
// key and returns its path.
func serviceAccountKey(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	block := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     gcptest.Project,
		"private_key_id": "key-1",
		"private_key":    string(block),
		"client_email":   testSigner,
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)
	return tempFile(t, "key.json", string(data))
}
