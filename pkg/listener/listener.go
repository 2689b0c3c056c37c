// Package listener follows the chain head feed and forwards every announced
// header to the node.
package listener

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/papercomputeco/sequencer/pkg/inbox"
)

// maxFrameSize bounds a single feed line.
const maxFrameSize = 1 << 20

// Source opens the newline delimited JSON stream of chain heads.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// HeaderSink receives decoded headers. *node.Node implements it.
type HeaderSink interface {
	OnHeader(ctx context.Context, header inbox.ChainHeader) error
}

// Listener decodes one stream and forwards its headers.
type Listener struct {
	source Source
	sink   HeaderSink
	logger *zap.Logger
}

func New(source Source, sink HeaderSink, logger *zap.Logger) *Listener {
	return &Listener{source: source, sink: sink, logger: logger}
}

// Run reads the stream until it ends or ctx is done. Malformed frames are
// dropped. The end of the stream is not an error; failing to open or read
// it is, and so is a sink that stops accepting headers.
func (l *Listener) Run(ctx context.Context) error {
	stream, err := l.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open chain head feed: %w", err)
	}
	defer stream.Close()

	// Unblock reads when ctx is done.
	stop := context.AfterFunc(ctx, func() { stream.Close() })
	defer stop()

	r := bufio.NewReaderSize(stream, 64*1024)
	for {
		line, err := readFrame(r)
		if len(line) > 0 {
			if ferr := l.forward(ctx, line); ferr != nil {
				return ferr
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			l.logger.Info("chain head feed ended")
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("failed to read chain head feed: %w", err)
		}
	}
}

func (l *Listener) forward(ctx context.Context, line []byte) error {
	var header inbox.ChainHeader
	if err := json.Unmarshal(line, &header); err != nil {
		l.logger.Debug("dropping malformed chain head frame", zap.ByteString("frame", truncate(line, 128)), zap.Error(err))
		return nil
	}
	if header.Hash == "" {
		l.logger.Debug("dropping chain head frame without hash", zap.ByteString("frame", truncate(line, 128)))
		return nil
	}

	l.logger.Debug("chain head", zap.String("hash", header.Hash), zap.Uint32("level", header.Level))
	if err := l.sink.OnHeader(ctx, header); err != nil {
		return fmt.Errorf("failed to forward chain head %s: %w", header.Hash, err)
	}
	return nil
}

// readFrame returns the next trimmed line. Oversized lines are discarded
// whole.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var frame []byte
	oversized := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			frame = append(frame, chunk...)
			if len(frame) > maxFrameSize {
				oversized = true
				frame = nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if oversized {
			return nil, err
		}
		return bytes.TrimSpace(frame), err
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
