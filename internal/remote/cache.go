package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	sortimage "github.com/jmylchreest/sortlaunch/internal/image"
	"github.com/jmylchreest/sortlaunch/internal/version"
)

const (
	// UserAgentName is the application name used in the User-Agent header.
	UserAgentName = "sortlaunch"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps a single download.
	DefaultMaxBytes = 64 << 20
)

// Options configures a download.
type Options struct {
	// CacheDir is where images are stored. Defaults to DefaultCacheDir().
	CacheDir string

	// Timeout bounds the request. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxBytes caps the response size. Zero means DefaultMaxBytes.
	MaxBytes int64

	// Refresh downloads the image even if it is already cached.
	Refresh bool

	// AllowPrivateHosts permits loopback and private addresses.
	AllowPrivateHosts bool

	// Client overrides the HTTP client; its Timeout is left untouched.
	Client *http.Client

	Logger hclog.Logger
}

// DefaultCacheDir returns the default cache directory path.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "sortlaunch", "images"), nil
	}
	return filepath.Join(cacheDir, "sortlaunch", "images"), nil
}

// cacheFilename derives a stable file name from the URL: a hash of the whole
// URL plus the extension of its path, so the sorter can infer the format.
func cacheFilename(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	name := hex.EncodeToString(sum[:16])

	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	ext := strings.ToLower(path.Ext(rawURL))
	if ext == "" || len(ext) > 5 {
		ext = ".img"
	}
	return name + ext
}

// Download fetches the image at rawURL into the cache and returns the local
// path. A cached copy is reused unless opts.Refresh is set. The body must
// decode as an image; anything else is discarded.
func Download(ctx context.Context, rawURL string, opts Options) (string, error) {
	if err := ValidateURL(rawURL, opts.AllowPrivateHosts); err != nil {
		return "", err
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return "", err
		}
		cacheDir = dir
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	cached := filepath.Join(cacheDir, cacheFilename(rawURL))
	if !opts.Refresh {
		if _, err := os.Stat(cached); err == nil {
			logger.Debug("using cached image", "url", rawURL, "path", cached)
			return cached, nil
		}
	}

	data, err := fetch(ctx, rawURL, opts)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	format, err := sortimage.DetectFormat(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("downloaded file is not a supported image: %w", err)
	}
	logger.Debug("downloaded image", "url", rawURL, "format", format, "bytes", len(data))

	// Write then rename so a concurrent reader never sees a partial file.
	tmp, err := os.CreateTemp(cacheDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmp.Name(), cached); err != nil {
		return "", fmt.Errorf("failed to write cached image: %w", err)
	}
	return cached, nil
}

func fetch(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgentName+"/"+version.Version)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxBytes)
	}
	return data, nil
}
