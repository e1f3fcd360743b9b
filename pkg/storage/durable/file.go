package durable

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

// LockTimeout bounds how long File waits for the directory lock before proceeding without it.
const LockTimeout = 100 * time.Millisecond

const filePerm = 0o600

// File stores every key in its own file under dir. Writes go through a temp file and rename.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("file storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("file storage: create dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, strconv.FormatUint(xxh3.HashString(key), 16)+".json")
}

// lock returns an unlock func. When the lock is busy past LockTimeout the call proceeds unlocked.
func (f *File) lock(ctx context.Context) (func(), error) {
	fl := flock.New(filepath.Join(f.dir, ".lock"))

	lctx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lctx, 10*time.Millisecond)
	if err != nil {
		if lctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			log.Warn().Msg("[durable] lock timeout, proceeding unlocked")
			return func() {}, nil
		}
		return nil, fmt.Errorf("file storage: lock: %w", err)
	}
	if !locked {
		return func() {}, nil
	}
	return func() { _ = fl.Unlock() }, nil
}

func (f *File) GetItem(ctx context.Context, key string) (string, bool, error) {
	unlock, err := f.lock(ctx)
	if err != nil {
		return "", false, err
	}
	defer unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("file storage: read %q: %w", key, err)
	}
	return string(data), true, nil
}

func (f *File) SetItem(ctx context.Context, key, value string) error {
	unlock, err := f.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	target := f.path(key)
	tmp := fmt.Sprintf("%s.%d.%d.tmp", target, os.Getpid(), time.Now().UnixNano())
	if err = os.WriteFile(tmp, []byte(value), filePerm); err != nil {
		return fmt.Errorf("file storage: write %q: %w", key, err)
	}
	if err = os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("file storage: rename %q: %w", key, err)
	}
	return nil
}

func (f *File) RemoveItem(ctx context.Context, key string) error {
	unlock, err := f.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err = os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file storage: remove %q: %w", key, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
