package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore downloads remote files in the background and hands them out by
// their sha256 key. Grading requests reference submissions and bundles by
// hash, so a worker can schedule every file in a request up front and await
// each one only when grading actually needs it. Keys double as integrity
// checks: a downloaded file whose digest does not match its key is rejected.
type FileStore struct {
	fileDir      string
	tmpDir       string
	downloadFunc func(url string, path string) error

	awaited   chan string
	scheduled chan string

	mu    sync.Mutex
	urls  map[string]string
	conds map[string]*sync.Cond
	done  map[string]error
}

// New creates a FileStore that keeps completed downloads in fileDir and uses
// tmpDir for in-progress ones. downloadFunc fetches a url into a local path.
func New(fileDir string, tmpDir string, downloadFunc func(url string, path string) error) *FileStore {
	fs := &FileStore{
		fileDir:      fileDir,
		tmpDir:       tmpDir,
		downloadFunc: downloadFunc,
		awaited:      make(chan string, 10000),
		scheduled:    make(chan string, 10000),
		urls:         make(map[string]string),
		conds:        make(map[string]*sync.Cond),
		done:         make(map[string]error),
	}

	if err := os.MkdirAll(fs.fileDir, 0o755); err != nil {
		panic(fmt.Errorf("create file store directory: %w", err))
	}
	if err := os.MkdirAll(fs.tmpDir, 0o755); err != nil {
		panic(fmt.Errorf("create tmp directory: %w", err))
	}

	return fs
}

// Schedule queues a download. Scheduling the same key twice is a no-op.
func (fs *FileStore) Schedule(key string, url string) error {
	fs.mu.Lock()
	if _, exists := fs.urls[key]; exists {
		fs.mu.Unlock()
		return nil
	}
	fs.urls[key] = url
	fs.conds[key] = sync.NewCond(&fs.mu)
	fs.mu.Unlock()

	fs.scheduled <- key
	return nil
}

// Await blocks until the keyed file has been downloaded and verified, then
// returns its contents. Awaited keys jump the download queue.
func (fs *FileStore) Await(key string) ([]byte, error) {
	fs.mu.Lock()
	cond, exists := fs.conds[key]
	if !exists {
		fs.mu.Unlock()
		return nil, fmt.Errorf("file %s has not been scheduled for download", key)
	}
	fs.mu.Unlock()

	fs.awaited <- key

	fs.mu.Lock()
	for {
		if err, finished := fs.done[key]; finished {
			fs.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return os.ReadFile(filepath.Join(fs.fileDir, key))
		}
		cond.Wait()
	}
}

// Start launches the background download loop. Awaited files are prioritized
// over merely scheduled ones.
func (fs *FileStore) Start() {
	go func() {
		for {
			var key string
			select {
			case key = <-fs.awaited:
			default:
				select {
				case key = <-fs.awaited:
				case key = <-fs.scheduled:
				}
			}
			fs.finish(key, fs.fetch(key))
		}
	}()
}

func (fs *FileStore) finish(key string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, finished := fs.done[key]; finished {
		return
	}
	if err != nil {
		slog.Warn("file download failed", "key", key, "error", err)
	}
	fs.done[key] = err
	if cond, exists := fs.conds[key]; exists {
		cond.Broadcast()
	}
}

func (fs *FileStore) fetch(key string) error {
	finalPath := filepath.Join(fs.fileDir, key)
	if _, err := os.Stat(finalPath); err == nil {
		return nil
	}

	fs.mu.Lock()
	url, exists := fs.urls[key]
	fs.mu.Unlock()
	if !exists {
		return fmt.Errorf("file %s has not been scheduled for download", key)
	}

	tmpPath := filepath.Join(fs.tmpDir, key)
	if err := fs.downloadFunc(url, tmpPath); err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}

	digest, err := sha256File(tmpPath)
	if err != nil {
		return fmt.Errorf("hash %s: %w", key, err)
	}
	if digest != key {
		os.Remove(tmpPath)
		return fmt.Errorf("integrity check failed for %s: got sha256 %s", key, digest)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("move %s into file store: %w", key, err)
	}
	return nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
