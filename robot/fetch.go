package robot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultRegistry serves robot descriptions and their metadata.
	DefaultRegistry = "https://models.ksim.dev"

	// DefaultTTL is how long a cached robot is trusted before the
	// registry is asked again.
	DefaultTTL = 24 * time.Hour

	descriptionFile = "robot.yaml"
	metadataFile    = "metadata.yaml"
)

// Fetcher downloads robot descriptions from a registry and caches them on
// disk, so repeated runs of the same task do not touch the network.
type Fetcher struct {
	BaseURL  string
	CacheDir string
	TTL      time.Duration
	Client   *http.Client
}

// NewFetcher returns a Fetcher with the default registry and a per-user
// cache directory. KSIM_REGISTRY and KSIM_CACHE_DIR override both.
func NewFetcher() *Fetcher {
	base := os.Getenv("KSIM_REGISTRY")
	if base == "" {
		base = DefaultRegistry
	}
	cache := os.Getenv("KSIM_CACHE_DIR")
	if cache == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		cache = filepath.Join(home, ".ksim", "robots")
	}
	return &Fetcher{
		BaseURL:  base,
		CacheDir: cache,
		TTL:      DefaultTTL,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the named robot, from cache when fresh, otherwise from the
// registry. A stale cache is reused if the registry cannot be reached.
func (f *Fetcher) Fetch(ctx context.Context, name string) (*Description, *Metadata, error) {
	if name == "" {
		return nil, nil, errors.New("robot: fetch with empty name")
	}
	dir := filepath.Join(f.CacheDir, name)
	descPath := filepath.Join(dir, descriptionFile)
	metaPath := filepath.Join(dir, metadataFile)

	if fresh(descPath, f.TTL) && fresh(metaPath, f.TTL) {
		return loadPair(descPath, metaPath)
	}

	if err := f.download(ctx, name, dir); err != nil {
		if exists(descPath) && exists(metaPath) {
			log.Printf("robot %s: registry unreachable, using stale cache: %v", name, err)
			return loadPair(descPath, metaPath)
		}
		return nil, nil, err
	}
	return loadPair(descPath, metaPath)
}

func (f *Fetcher) download(ctx context.Context, name, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}
	for _, file := range []string{descriptionFile, metadataFile} {
		url := fmt.Sprintf("%s/robots/%s/%s", f.BaseURL, name, file)
		raw, err := f.get(ctx, url)
		if err != nil {
			return errors.Wrapf(err, "fetch robot %s", name)
		}
		if err := os.WriteFile(filepath.Join(dir, file), raw, 0644); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("GET %s: %s", url, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	return raw, errors.WithStack(err)
}

func loadPair(descPath, metaPath string) (*Description, *Metadata, error) {
	d, err := LoadDescription(descPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := LoadMetadata(metaPath)
	if err != nil {
		return nil, nil, err
	}
	return d, m, nil
}

func fresh(path string, ttl time.Duration) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(fi.ModTime()) < ttl
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
