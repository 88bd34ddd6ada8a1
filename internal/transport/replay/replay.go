// Package replay plays a recorded envelope log back as if it were live.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/mapshow/planplot/internal/transport"
	"github.com/mapshow/planplot/pkg/streaming"
)

// maxLine bounds a single recorded frame.
const maxLine = 64 * 1024 * 1024

// Config holds replay configuration.
type Config struct {
	File string  // one JSON frame per line; a .zst suffix means zstd-compressed
	Rate float64 // playback speed multiplier; <= 0 means 1
	Loop bool    // restart from the top when the log ends
}

// Subscriber is a transport.Subscriber reading from a recorded log.
type Subscriber struct {
	cfg    Config
	logger *slog.Logger

	// sleep waits d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a replay subscriber.
func New(cfg Config, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	return &Subscriber{
		cfg:    cfg,
		logger: logger.With("component", "replay", "file", cfg.File),
		sleep:  sleepCtx,
	}
}

// Run delivers the log's message frames on topics to sink, waiting the
// recorded gap between consecutive timestamps divided by the rate. It
// returns nil at the end of the log unless looping, and on cancellation.
func (s *Subscriber) Run(ctx context.Context, topics []string, sink transport.Sink) error {
	set := transport.TopicSet(topics)
	for pass := 1; ; pass++ {
		n, err := s.play(ctx, set, sink)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if err != nil {
			return err
		}
		s.logger.Info("Replay finished", "pass", pass, "messages", n)
		if !s.cfg.Loop || n == 0 {
			return nil
		}
	}
}

func (s *Subscriber) play(ctx context.Context, topics map[string]struct{}, sink transport.Sink) (int, error) {
	r, closeFn, err := open(s.cfg.File)
	if err != nil {
		return 0, err
	}
	defer closeFn()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		delivered int
		prev      float64
		havePrev  bool
		lineNo    int
	)
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		env, err := streaming.UnmarshalFrame(line, streaming.EncodingJSON)
		if err != nil {
			s.logger.Warn("Skipping bad replay line", "line", lineNo, "error", err)
			continue
		}
		if env.Type != streaming.TypeMessage {
			continue
		}
		if _, ok := topics[env.Topic]; !ok {
			continue
		}

		if havePrev && env.Timestamp > prev {
			gap := time.Duration((env.Timestamp - prev) / s.cfg.Rate * float64(time.Second))
			if err := s.sleep(ctx, gap); err != nil {
				return delivered, err
			}
		} else if err := ctx.Err(); err != nil {
			return delivered, err
		}
		prev, havePrev = env.Timestamp, true

		sink(env)
		delivered++
	}
	if err := sc.Err(); err != nil {
		return delivered, fmt.Errorf("reading replay log: %w", err)
	}
	return delivered, nil
}

// open returns a reader over path, decompressing .zst files.
func open(path string) (io.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open replay log: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, func() { _ = f.Close() }, nil
	}
	zr, err := zstd.NewReader(bufio.NewReader(f), zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
	}
	return zr, func() {
		zr.Close()
		_ = f.Close()
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ transport.Subscriber = (*Subscriber)(nil)
