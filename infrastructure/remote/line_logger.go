package remote

import (
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"
)

// lineLogger is an io.Writer that streams remote output into the run log one
// complete line at a time while also accumulating the full capture for the
// caller.
type lineLogger struct {
	mu      sync.Mutex
	log     *logger.Logger
	pending strings.Builder
	capture strings.Builder
}

func newLineLogger(log *logger.Logger) *lineLogger {
	return &lineLogger{log: log}
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.capture.Write(p)
	l.pending.Write(p)

	buffered := l.pending.String()
	for {
		idx := strings.IndexByte(buffered, '\n')
		if idx < 0 {
			break
		}
		l.emit(buffered[:idx])
		buffered = buffered[idx+1:]
	}
	l.pending.Reset()
	l.pending.WriteString(buffered)

	return len(p), nil
}

// Flush emits any trailing output that did not end in a newline.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pending.Len() > 0 {
		l.emit(l.pending.String())
		l.pending.Reset()
	}
}

// String returns the full combined capture.
func (l *lineLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capture.String()
}

func (l *lineLogger) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	l.log.Infof("[remote] %s", line)
}
