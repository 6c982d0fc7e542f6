// Package cache stores raw monthly calendar payloads on disk, one file per
// (location, month, year, method), plus the last IP geolocation result.
//
// Entries never expire; callers bypass reads with a force flag when they want
// fresh data. Writes go through a temp file and rename, so a reader never sees
// a partial file. Two processes writing the same key race and the last rename
// wins; no locking is done.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/myprayer/internal/geo"
	"github.com/smokyabdulrahman/myprayer/internal/location"
)

const (
	appDirName   = "myprayer"
	geoCacheFile = "geolocation.json"
	geoTTL       = 24 * time.Hour

	// maxFragmentLen keeps file names well under the common 255-byte limit.
	maxFragmentLen = 160
	// hashedPrefixLen is how much of an over-long fragment stays readable.
	hashedPrefixLen = maxFragmentLen - 1 - sha256.Size*2
)

var (
	// ErrNotFound is returned by Get when no entry exists for the key.
	ErrNotFound = errors.New("cache entry not found")
	// ErrInvalidKey is returned when a key component would escape the cache directory.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Store is a file-backed payload cache.
type Store struct {
	dir    string
	logger zerolog.Logger
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns $XDG_CACHE_HOME/myprayer, falling back to ~/.cache/myprayer.
func DefaultDir() (string, error) {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, appDirName), nil
}

// New creates a Store rooted at dir, or at DefaultDir when dir is empty.
// The directory is created lazily on first write.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	return &Store{
		dir:    dir,
		logger: logger,
	}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the file name used for the given key.
func FileName(loc location.Location, month, year, method int) (string, error) {
	frag := loc.CacheKey()
	if frag == "" || strings.ContainsAny(frag, `/\`) || strings.Contains(frag, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, frag)
	}
	return shorten(frag) + "_" + strconv.Itoa(month) + "_" + strconv.Itoa(year) + "_" + strconv.Itoa(method) + ".json", nil
}

// shorten replaces the tail of an over-long fragment with its sha256. Escaped
// fragments never contain ".", so the "." before the hash keeps shortened and
// plain fragments apart.
func shorten(frag string) string {
	if len(frag) <= maxFragmentLen {
		return frag
	}
	sum := sha256.Sum256([]byte(frag))
	return frag[:hashedPrefixLen] + "." + hex.EncodeToString(sum[:])
}

// Get returns the cached payload for the key, or ErrNotFound.
func (s *Store) Get(loc location.Location, month, year, method int) ([]byte, error) {
	name, err := FileName(loc, month, year, method)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	s.logger.Debug().Str("key", name).Msg("[cache] hit")
	return data, nil
}

// Put writes payload for the key, replacing any existing entry.
func (s *Store) Put(loc location.Location, month, year, method int, payload []byte) error {
	name, err := FileName(loc, month, year, method)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(s.dir, name, payload); err != nil {
		return err
	}

	s.logger.Debug().Str("key", name).Int("bytes", len(payload)).Msg("[cache] stored")
	return nil
}

// LoadGeo returns a cached geolocation result, or nil if missing or older than 24 hours.
func (s *Store) LoadGeo() *geo.Location {
	data, err := os.ReadFile(filepath.Join(s.dir, geoCacheFile))
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn().Err(err).Msg("[cache] ignoring corrupt geolocation cache")
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (s *Store) SaveGeo(loc *geo.Location) error {
	data, err := json.Marshal(GeoCacheEntry{Location: *loc, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}
	return writeFileAtomic(s.dir, geoCacheFile, data)
}

func writeFileAtomic(dir, name string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
