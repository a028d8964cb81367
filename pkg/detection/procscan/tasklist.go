// RetroTrack Core
// Copyright (c) 2026 The RetroTrack Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of RetroTrack Core.
//
// RetroTrack Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// RetroTrack Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with RetroTrack Core.  If not, see <http://www.gnu.org/licenses/>.

package procscan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/retrotrack/retrotrack-core/pkg/helpers/command"
)

var ErrNoOutput = errors.New("listing utility produced no output")

// tasklist /NH omits the header row so one is supplied for the decoder.
const tasklistHeader = "name,pid,session,session_num,mem\n"

type tasklistRow struct {
	Name       string `csv:"name"`
	PID        string `csv:"pid"`
	Session    string `csv:"session"`
	SessionNum string `csv:"session_num"`
	Mem        string `csv:"mem"`
}

// TasklistLister lists processes with the Windows tasklist utility.
type TasklistLister struct {
	Exec command.Executor
}

// List implements Lister.
func (t TasklistLister) List(ctx context.Context) ([]ProcessObservation, error) {
	out, err := t.Exec.OutputWithOptions(
		ctx,
		command.RunOptions{HideWindow: true},
		"tasklist", "/fo", "csv", "/nh",
	)
	if err != nil {
		return nil, fmt.Errorf("tasklist failed: %w", err)
	}
	return ParseTasklistCSV(out)
}

// ParseTasklistCSV decodes headerless tasklist CSV output. Rows without an
// image name are dropped; an unparsable pid becomes 0.
func ParseTasklistCSV(out []byte) ([]ProcessObservation, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, ErrNoOutput
	}

	// tasklist prints an informational line instead of CSV when nothing matches
	if !bytes.HasPrefix(trimmed, []byte(`"`)) {
		return nil, ErrNoOutput
	}

	var rows []*tasklistRow
	data := append([]byte(tasklistHeader), trimmed...)
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse tasklist output: %w", err)
	}

	procs := make([]ProcessObservation, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(row.PID))
		if err != nil {
			pid = 0
		}
		procs = append(procs, ProcessObservation{Name: name, PID: pid})
	}
	return procs, nil
}
