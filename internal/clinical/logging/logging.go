// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logging provides per-stage structured logging for the
// pipeline, adapted from the teacher's internal/logging/global_logger.go
// custom formatter (timestamp, level, request id, caller file:line).
package logging

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var setupOnce sync.Once

// Formatter renders: [2026-07-31 09:14:04] [info ] [req-id] [stage] message | k=v
type Formatter struct{}

func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	var buf *bytes.Buffer
	if entry.Buffer != nil {
		buf = entry.Buffer
	} else {
		buf = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")
	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	reqID := "--------"
	if v, ok := entry.Data["request_id"].(string); ok && v != "" {
		reqID = v
	}
	stage := ""
	if v, ok := entry.Data["stage"].(string); ok && v != "" {
		stage = v
	}

	fmt.Fprintf(buf, "[%s] [%-5s] [%s] [%s] %s", timestamp, level, reqID, stage, message)
	for k, v := range entry.Data {
		if k == "request_id" || k == "stage" {
			continue
		}
		fmt.Fprintf(buf, " %s=%v", k, v)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Options configures file-based rotation, mirroring the teacher's
// LoggingToFile / LogsMaxTotalSizeMB config knobs.
type Options struct {
	ToFile       bool
	FilePath     string
	MaxSizeMB    int
	MaxBackups   int
	MaxAgeDays   int
}

var base = log.New()

// Setup configures the shared base logger; safe to call multiple times.
func Setup(opts Options) {
	setupOnce.Do(func() {
		base.SetFormatter(&Formatter{})
		var out io.Writer = base.Out
		if opts.ToFile && opts.FilePath != "" {
			out = &lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    maxOr(opts.MaxSizeMB, 50),
				MaxBackups: maxOr(opts.MaxBackups, 5),
				MaxAge:     maxOr(opts.MaxAgeDays, 14),
			}
		}
		base.SetOutput(out)
	})
}

func maxOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// For returns a logger entry scoped to one pipeline stage and request,
// carrying request_id and stage fields on every subsequent call.
func For(stage, requestID string) *log.Entry {
	return base.WithFields(log.Fields{"stage": stage, "request_id": requestID})
}
