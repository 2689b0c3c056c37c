package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileSource reads heads from a local file, one JSON frame per line. With
// Follow set it keeps the stream open and waits for appended lines, like
// tail -f.
type FileSource struct {
	Path   string
	Follow bool
	Logger *zap.Logger
}

var _ Source = (*FileSource)(nil)

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open head feed: %w", err)
	}
	if !s.Follow {
		return f, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: editors and log rotation replace files.
	if err := watcher.Add(filepath.Dir(s.Path)); err != nil {
		watcher.Close()
		f.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Path, err)
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name, err := filepath.Abs(s.Path)
	if err != nil {
		name = s.Path
	}

	return &followReader{
		ctx:     ctx,
		file:    f,
		name:    filepath.Clean(name),
		watcher: watcher,
		logger:  logger,
		closed:  make(chan struct{}),
	}, nil
}

type followReader struct {
	ctx     context.Context
	file    *os.File
	name    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	once   sync.Once
	closed chan struct{}
}

var errFeedRemoved = errors.New("head feed file removed")

func (r *followReader) Read(p []byte) (int, error) {
	for {
		n, err := r.file.Read(p)
		if n > 0 || !errors.Is(err, io.EOF) {
			return n, err
		}
		if err := r.wait(); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the file may have grown.
func (r *followReader) wait() error {
	for {
		select {
		case <-r.closed:
			return io.EOF
		case <-r.ctx.Done():
			return io.EOF
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return io.EOF
			}
			return fmt.Errorf("file watcher: %w", err)
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return io.EOF
			}
			if r.abs(ev.Name) != r.name {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write):
				return nil
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				r.logger.Warn("head feed file went away", zap.String("path", r.name))
				return errFeedRemoved
			}
		}
	}
}

func (r *followReader) abs(name string) string {
	a, err := filepath.Abs(name)
	if err != nil {
		return filepath.Clean(name)
	}
	return filepath.Clean(a)
}

func (r *followReader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.closed)
		err = errors.Join(r.watcher.Close(), r.file.Close())
	})
	return err
}
