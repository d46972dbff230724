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

// Package systemd discovers the descriptor window announced by the systemd
// socket activation protocol.
//
// A service manager that pre-opens sockets for this process passes them at
// file descriptors 3, 4, ... and announces how many there are through the
// LISTEN_FDS environment variable. LISTEN_PID names the process the window is
// intended for; if it is absent or names some other process, the window is
// treated as empty rather than as an error.
package systemd

import (
	"os"
	"strconv"
	"sync"

	"github.com/sockopen/sockopen/pkg/logging"
)

// ListenFdsStart is the first file descriptor number used by the socket
// activation protocol.
const ListenFdsStart = 3

var (
	windowOnce  sync.Once
	windowCount uint64
)

// Window returns the activation descriptor window as its first descriptor
// number and the count of descriptors in it. The count is zero when the
// process was not handed any activation sockets.
//
// The environment is consulted once; the result is cached for the lifetime of
// the process, since the window cannot change after the process has started.
func Window() (start, count uint64) {
	windowOnce.Do(func() {
		windowCount = readWindowCount()
		if windowCount > 0 {
			logging.Debugf("systemd activation window: %d socket(s) starting at fd %d", windowCount, ListenFdsStart)
		}
	})
	return ListenFdsStart, windowCount
}

func readWindowCount() uint64 {
	expectedPid, err := strconv.Atoi(os.Getenv("LISTEN_PID"))
	if err != nil || expectedPid != os.Getpid() {
		return 0
	}

	count, err := strconv.ParseUint(os.Getenv("LISTEN_FDS"), 10, 64)
	if err != nil || count < 1 {
		return 0
	}

	return count
}

// Reset discards the cached window so the next call to Window re-reads the
// environment. It exists for tests only.
func Reset() {
	windowOnce = sync.Once{}
	windowCount = 0
}
