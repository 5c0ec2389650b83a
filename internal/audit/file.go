package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileSink appends JSON lines to <dir>/<REGION>-server.log.
type FileSink struct {
	file *os.File
	log  zerolog.Logger
	mu   sync.Mutex
}

// FilePath returns the audit log path for region under dir.
func FilePath(dir, region string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-server.log", region))
}

// OpenFile creates dir if needed and opens the region's audit log for appending.
func OpenFile(dir, region string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	path := FilePath(dir, region)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}

	return &FileSink{
		file: file,
		log: zerolog.New(file).With().
			Timestamp().
			Str("region", region).
			Logger(),
	}, nil
}

// Record implements Sink.
func (f *FileSink) Record(message, source string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.log.Log().Str("source", source).Msg(message)
}

// Close closes the underlying file.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.file.Close()
}
