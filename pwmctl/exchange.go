package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harveysanders/pwmbridge/bridge"
)

var (
	errNoReply  = errors.New("no reply from bridge")
	errRejected = errors.New("bridge rejected value")
)

// exchange writes msg followed by a newline and returns the bridge's reply
// line. rw must return from Read within a short timeout when idle. The
// startup notice, sent when opening the port resets the board, is skipped.
func exchange(rw io.ReadWriter, msg string, timeout time.Duration) (string, error) {
	if _, err := io.WriteString(rw, msg+"\n"); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}

	deadline := time.Now().Add(timeout)
	var line []byte
	buf := make([]byte, 64)
	for time.Now().Before(deadline) {
		n, err := rw.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read: %w", err)
		}
		for _, c := range buf[:n] {
			if c != '\n' {
				line = append(line, c)
				continue
			}
			reply := strings.TrimRight(string(line), "\r")
			line = line[:0]
			if reply == strings.TrimSpace(bridge.StartupNotice) || reply == "" {
				continue
			}
			if reply == bridge.InvalidMessage {
				return reply, errRejected
			}
			return reply, nil
		}
		if n == 0 && errors.Is(err, io.EOF) {
			break
		}
	}
	return "", errNoReply
}
