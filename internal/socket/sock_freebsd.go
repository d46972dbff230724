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

//go:build freebsd

package socket

import (
	"os"

	"golang.org/x/sys/unix"
)

// MaxUnixPath is the longest Unix-domain socket path the kernel's sockaddr
// structure can hold, excluding the trailing NUL.
const MaxUnixPath = 103

// Protocol reports the transport protocol of fd. FreeBSD cannot answer this
// for an arbitrary existing socket.
func Protocol(uintptr) (proto int, ok bool, err error) {
	return 0, false, nil
}

// IsListening reports whether the stream socket fd is in a listening state,
// via SO_ACCEPTCONN.
func IsListening(fd uintptr) (listening bool, ok bool, err error) {
	v, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ACCEPTCONN)
	if err != nil {
		return false, true, os.NewSyscallError("getsockopt", err)
	}
	return v != 0, true, nil
}
