/*
 * L2 Router - A Layer 2 OpenFlow Controller
 *
 * Copyright (C) 2026 The L2 Router Authors.
 * Portions Copyright (C) 2015 Samjung Data Service, Inc.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package log

import (
	"strings"
	"testing"

	"github.com/op/go-logging"
)

type line struct {
	priority, message string
}

type recorder struct {
	lines []line
}

func (r *recorder) add(priority, m string) error {
	r.lines = append(r.lines, line{priority, m})
	return nil
}

func (r *recorder) Crit(m string) error    { return r.add("crit", m) }
func (r *recorder) Err(m string) error     { return r.add("err", m) }
func (r *recorder) Warning(m string) error { return r.add("warning", m) }
func (r *recorder) Notice(m string) error  { return r.add("notice", m) }
func (r *recorder) Info(m string) error    { return r.add("info", m) }
func (r *recorder) Debug(m string) error   { return r.add("debug", m) }

func TestSyslogBackend(t *testing.T) {
	w := &recorder{}
	backend := logging.NewBackendFormatter(&Syslog{writer: w}, logging.MustStringFormatter(`%{level}: %{message}`))
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(logging.INFO, "")

	logger := logging.MustGetLogger("test")
	logger.SetBackend(leveled)
	logger.Debug("hidden")
	logger.Infof("switch joined: id=%v", 1)
	logger.Warning("host moved")
	logger.Error("failed")

	expected := []line{
		{"info", "INFO: switch joined: id=1"},
		{"warning", "WARNING: host moved"},
		{"err", "ERROR: failed"},
	}
	if len(w.lines) != len(expected) {
		t.Fatalf("Unexpected number of lines: expected=%v, got=%v", len(expected), len(w.lines))
	}
	for i, v := range expected {
		got := w.lines[i]
		if got.priority != v.priority || !strings.HasPrefix(got.message, v.message+" (TID=") {
			t.Fatalf("Unexpected line: expected=%v, got=%v", v, got)
		}
	}
}
