package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SecurityLog writes security-relevant events (CSRF rejections, lockouts,
// invalid tokens, injection patterns) to a file separate from the general
// application log. A nil receiver is safe and discards events, which keeps
// tests quiet.
type SecurityLog struct {
	logger *log.Logger
	file   *os.File
}

func OpenSecurityLog(dir string) (*SecurityLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, fmt.Sprintf("security-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &SecurityLog{
		logger: log.New(file, "", log.LstdFlags|log.LUTC),
		file:   file,
	}, nil
}

// Event logs a security event with key/value detail pairs.
func (s *SecurityLog) Event(kind string, pairs ...string) {
	if s == nil || s.logger == nil {
		return
	}
	var b strings.Builder
	b.WriteString(kind)
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, " %s=%s", pairs[i], pairs[i+1])
	}
	s.logger.Print(b.String())
}

func (s *SecurityLog) Close() {
	if s == nil || s.file == nil {
		return
	}
	_ = s.file.Close()
}
