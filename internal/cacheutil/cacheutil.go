// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil keeps small lookups, such as the project Application
// Default Credentials resolved to, on disk between runs.
package cacheutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Entry is a cached value read back from disk.
type Entry struct {
	Key     string
	Path    string
	Data    []byte
	Written time.Time
}

// Store is one namespace of the cache, a subdirectory of the base cache
// directory. A zero TTL never expires entries.
type Store struct {
	Namespace string
	TTL       time.Duration
}

// New returns the Store for namespace.
func New(namespace string, ttl time.Duration) Store {
	return Store{Namespace: namespace, TTL: ttl}
}

// Dir resolves the base cache directory. GCPCTL_CACHE_DIR wins over
// os.UserCacheDir()/gcpctl. ok is false when neither resolves, which
// disables caching.
func Dir() (dir string, ok bool) {
	if c := os.Getenv("GCPCTL_CACHE_DIR"); c != "" {
		return c, true
	}
	if ucd, err := os.UserCacheDir(); err == nil && ucd != "" {
		return filepath.Join(ucd, "gcpctl"), true
	}
	return "", false
}

// Enabled is true unless GCPCTL_CACHE is "0" or "false".
func Enabled() bool {
	switch os.Getenv("GCPCTL_CACHE") {
	case "0", "false":
		return false
	}
	return true
}

// EnsureBaseDir creates the base cache directory when caching is enabled.
// ok reports whether the directory is usable.
func EnsureBaseDir() (base string, ok bool, err error) {
	if !Enabled() {
		return "", false, nil
	}
	if base, ok = Dir(); !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// Path is where key lives in the store. ok is false when caching is off.
func (s Store) Path(key string) (string, bool) {
	if !Enabled() {
		return "", false
	}
	base, ok := Dir()
	if !ok {
		return "", false
	}
	return filepath.Join(base, s.Namespace, encodeKey(key)), true
}

// Get returns the entry for key. Entries older than the TTL are removed and
// reported as missing.
func (s Store) Get(key string) (*Entry, bool) {
	p, ok := s.Path(key)
	if !ok {
		return nil, false
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if s.TTL > 0 && time.Since(info.ModTime()) > s.TTL {
		log.Debugf("cache entry %s expired", p)
		_ = os.Remove(p)
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return &Entry{
		Key:     key,
		Path:    p,
		Data:    bytes.TrimSpace(b),
		Written: info.ModTime(),
	}, true
}

// Put stores data for key. The file is written beside its final name and
// renamed into place so a concurrent Get never sees a partial value.
func (s Store) Put(key string, data []byte) error {
	p, ok := s.Path(key)
	if !ok {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Delete removes key. A missing entry is not an error.
func (s Store) Delete(key string) error {
	p, ok := s.Path(key)
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Purge removes every cached file older than hours. hours <= 0 is a no-op.
func Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}
	base, ok := Dir()
	if !ok {
		return nil
	}
	maxAge := time.Duration(hours) * time.Hour
	err := filepath.WalkDir(base, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil || time.Since(info.ModTime()) <= maxAge {
			return nil
		}
		if err := os.Remove(path); err != nil {
			log.WithError(err).Warnf("failed to remove cache file %s", path)
			return nil
		}
		log.Debugf("removed cache file %s", path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

func encodeKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:16])
}
