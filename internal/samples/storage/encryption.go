// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/term"
)

const (
	// keySize is the length of an AES-256 customer supplied key.
	keySize = 32
	// DefaultKeySalt salts passphrase derived keys when no salt is given.
	DefaultKeySalt = "gcpctl-csek"
	pbkdf2Rounds   = 600000
)

// ErrNotTerminal is returned when a passphrase prompt has no terminal.
var ErrNotTerminal = errors.New("passphrase prompt needs a terminal, pass --passphrase")

// GenerateEncryptionKey prints a base64 AES-256 key. With a passphrase the
// key is derived with PBKDF2-SHA256 and salt, so the same inputs give the
// same key. Otherwise it is random.
func GenerateEncryptionKey(w io.Writer, passphrase, salt string) error {
	key := make([]byte, keySize)
	if passphrase != "" {
		if salt == "" {
			salt = DefaultKeySalt
		}
		key = pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Rounds, keySize, sha256.New)
	} else if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	fmt.Fprintf(w, "Your encryption key: %s\n", base64.StdEncoding.EncodeToString(key))
	return nil
}

// PromptPassphrase reads a passphrase from the terminal fd without echo.
func PromptPassphrase(w io.Writer, fd int) (string, error) {
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprint(w, "Passphrase: ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(pass), nil
}

// decodeKey turns a base64 key into the raw 32 bytes.
func decodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(raw))
	}
	return raw, nil
}

// UploadEncryptedObject uploads file encrypted with the base64 key.
func UploadEncryptedObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, file, key string) error {
	raw, err := decodeKey(key)
	if err != nil {
		return err
	}
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	err = write(ctx, c.Bucket(bucket).Object(object).Key(raw), f, nil)
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", file, err)
	}
	fmt.Fprintf(w, "Uploaded encrypted %s to %s\n", filepath.Base(file), objectURL(bucket, object))
	return nil
}

// DownloadEncryptedObject downloads an object encrypted with key to file.
func DownloadEncryptedObject(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, file, key string) error {
	raw, err := decodeKey(key)
	if err != nil {
		return err
	}
	return download(ctx, w, c.Bucket(bucket).Object(object).Key(raw), file,
		fmt.Sprintf("Encrypted object %s downloaded to %s", objectURL(bucket, object), filepath.Base(file)))
}

// RotateEncryptionKey rewrites the object from oldKey to newKey.
func RotateEncryptionKey(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, oldKey, newKey string) error {
	oldRaw, err := decodeKey(oldKey)
	if err != nil {
		return err
	}
	newRaw, err := decodeKey(newKey)
	if err != nil {
		return err
	}
	o := c.Bucket(bucket).Object(object)
	_, err = o.Key(newRaw).CopierFrom(o.Key(oldRaw)).Run(ctx)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to rotate key of %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Rotated encryption key for object %s\n", objectURL(bucket, object))
	return nil
}

// EnableDefaultKMSKey makes kmsKey the bucket's default encryption key.
func EnableDefaultKMSKey(ctx context.Context, w io.Writer, c *gcs.Client, bucket, kmsKey string) error {
	u := gcs.BucketAttrsToUpdate{Encryption: &gcs.BucketEncryption{DefaultKMSKeyName: kmsKey}}
	return updateBucket(ctx, w, c, bucket, u, fmt.Sprintf("Default KMS key for %s was set to %s", bucket, kmsKey))
}

// UploadWithKMSKey uploads file encrypted with the Cloud KMS key.
func UploadWithKMSKey(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, file, kmsKey string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	err = write(ctx, c.Bucket(bucket).Object(object), f, func(wc *gcs.Writer) {
		wc.KMSKeyName = kmsKey
	})
	if notFound(w, err, bucket, "") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", file, err)
	}
	fmt.Fprintf(w, "Uploaded %s to %s using encryption key %s\n", filepath.Base(file), objectURL(bucket, object), kmsKey)
	return nil
}

// ObjectCSEKToCMEK rewrites an object encrypted with a customer supplied
// key so that kmsKey manages it instead.
func ObjectCSEKToCMEK(ctx context.Context, w io.Writer, c *gcs.Client, bucket, object, key, kmsKey string) error {
	raw, err := decodeKey(key)
	if err != nil {
		return err
	}
	o := c.Bucket(bucket).Object(object)
	copier := o.CopierFrom(o.Key(raw))
	copier.DestinationKMSKeyName = kmsKey
	_, err = copier.Run(ctx)
	if notFound(w, err, bucket, object) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", objectURL(bucket, object), err)
	}
	fmt.Fprintf(w, "Object %s in bucket %s is now managed by the KMS key %s instead of a customer-supplied encryption key\n",
		object, bucket, kmsKey)
	return nil
}
