// Copyright (c) 2024 The Sockopen Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package systemd

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	selfPid := strconv.Itoa(os.Getpid())

	tests := []struct {
		name      string
		listenPid string
		listenFds string
		count     uint64
	}{
		{"no environment", "", "", 0},
		{"pid mismatch", "1", "4", 0},
		{"malformed pid", "banana", "4", 0},
		{"missing fds", selfPid, "", 0},
		{"malformed fds", selfPid, "many", 0},
		{"zero fds", selfPid, "0", 0},
		{"one fd", selfPid, "1", 1},
		{"several fds", selfPid, "5", 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LISTEN_PID", tt.listenPid)
			t.Setenv("LISTEN_FDS", tt.listenFds)
			Reset()
			defer Reset()

			start, count := Window()
			assert.EqualValues(t, ListenFdsStart, start)
			assert.EqualValues(t, tt.count, count)
		})
	}
}

func TestWindowIsCached(t *testing.T) {
	t.Setenv("LISTEN_PID", strconv.Itoa(os.Getpid()))
	t.Setenv("LISTEN_FDS", "2")
	Reset()
	defer Reset()

	_, count := Window()
	assert.EqualValues(t, 2, count)

	// The environment is read once; later changes must not show through.
	t.Setenv("LISTEN_FDS", "7")
	_, count = Window()
	assert.EqualValues(t, 2, count)
}
