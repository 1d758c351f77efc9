// Package logsink appends client and server diagnostic events to a shared
// JSON-lines file. Writing is best effort and never fails the caller's flow.
package logsink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one diagnostic record. A nil Context is written as null.
type Event struct {
	Level   Level
	Message string
	Context map[string]any
}

type line struct {
	TS      string         `json:"ts"`
	Level   Level          `json:"level"`
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// Recorder is what the rest of the app logs diagnostic events through.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Notifier receives error-level events, e.g. a chat alert.
type Notifier interface {
	Notify(text string) error
}

type FileSink struct {
	path     string
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

func NewFileSink(path string, notifier Notifier, logger *logrus.Logger) *FileSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileSink{
		path:     path,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Record appends ev as one line. Filesystem errors are swallowed; only an
// event that cannot be encoded is reported.
func (s *FileSink) Record(_ context.Context, ev Event) error {
	payload, err := json.Marshal(line{
		TS:      s.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:   ev.Level,
		Message: ev.Message,
		Context: ev.Context,
	})
	if err != nil {
		return fmt.Errorf("failed to encode log event: %w", err)
	}
	payload = append(payload, '\n')

	if err := s.append(payload); err != nil {
		s.logger.WithError(err).Debug("Diagnostic log write dropped")
	}

	if ev.Level == LevelError && s.notifier != nil {
		go s.notify(ev)
	}
	return nil
}

// Writes are not coordinated across requests; each line is a single append.
func (s *FileSink) append(payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(payload)
	return err
}

func (s *FileSink) notify(ev Event) {
	text := fmt.Sprintf("[%s] %s", ev.Level, ev.Message)
	if len(ev.Context) > 0 {
		if ctx, err := json.Marshal(ev.Context); err == nil {
			text += "\n" + string(ctx)
		}
	}
	if err := s.notifier.Notify(text); err != nil {
		s.logger.WithError(err).Warn("Failed to forward diagnostic alert")
	}
}
