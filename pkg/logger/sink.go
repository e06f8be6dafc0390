package logger

import (
	"os"
	"path/filepath"

	"github.com/rogpeppe/go-internal/lockedfile"
)

// FileSink appends each log record to a file, taking an advisory lock for
// the duration of the write. Several hook processes may share one log file.
//
// Write never reports failure; a record that cannot be written is dropped.
// logrus prints its own complaint to stderr when a writer fails, and stderr
// belongs to the host protocol.
type FileSink struct {
	path string
}

// NewFileSink returns a sink appending to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the file the sink appends to.
func (s *FileSink) Path() string {
	return s.path
}

// Write implements io.Writer.
func (s *FileSink) Write(p []byte) (int, error) {
	_ = s.append(p)
	return len(p), nil
}

func (s *FileSink) append(p []byte) error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	f, err := lockedfile.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(p)
	return err
}
