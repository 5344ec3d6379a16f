// Package chatlog reads chat-log exports and restricts them to date windows.
//
// An export is a sequence of lines where each calendar day starts with a
// date banner line, for example
//
//	--------------- 2024년 3월 1일 금요일 ---------------
//	[Kim] [오후 2:03] hello
//
// Message lines are governed by the most recent banner above them.
package chatlog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	utf8BOM       = "\ufeff"
	maxLineLength = 1024 * 1024
)

// ReadLines reads all lines of an export, dropping a leading UTF-8 BOM and
// trailing carriage returns.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat log: %w", err)
	}
	return lines, nil
}

// Tail keeps the last limit lines. It reports whether anything was cut.
// A limit of zero or less keeps everything.
func Tail(lines []string, limit int) ([]string, bool) {
	if limit <= 0 || len(lines) <= limit {
		return lines, false
	}
	return lines[len(lines)-limit:], true
}
