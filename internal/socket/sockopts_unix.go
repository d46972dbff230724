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

//go:build linux || freebsd || dragonfly || darwin

package socket

import (
	"os"

	"golang.org/x/sys/unix"
)

// SupportsReusePort reports whether the platform has the SO_REUSEPORT option.
const SupportsReusePort = true

// SetReuseAddr enables the SO_REUSEADDR option on fd. It must be applied
// before bind to have any effect on the bind itself.
func SetReuseAddr(fd uintptr) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

// SetReusePort enables the SO_REUSEPORT option on fd, allowing multiple
// processes to bind the same address and port.
func SetReusePort(fd uintptr) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1))
}

// SetIPv6Only restricts an IPv6 socket to IPv6 traffic only.
func SetIPv6Only(fd uintptr) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1))
}
