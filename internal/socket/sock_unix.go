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
	"net"
	"net/netip"
	"os"

	"golang.org/x/sys/unix"
)

const (
	FamilyIPv4 = unix.AF_INET
	FamilyIPv6 = unix.AF_INET6
	FamilyUnix = unix.AF_UNIX

	SysStream = unix.SOCK_STREAM
	SysDgram  = unix.SOCK_DGRAM

	// SupportsSystemd reports whether the parent process can control the
	// numeric values of inherited descriptors, which the socket activation
	// protocol requires.
	SupportsSystemd = true
)

// Startup prepares the host socket API for use. It is a no-op everywhere
// except Windows, where Winsock must be initialized once per process.
func Startup() {}

// New creates a socket of the given family, type, and protocol with
// close-on-exec set. proto 0 lets the operating system pick the default
// transport protocol for the family and type.
func New(family, sotype, proto int) (uintptr, error) {
	fd, err := sysSocket(family, sotype, proto)
	if err != nil {
		return 0, os.NewSyscallError("socket", err)
	}
	return uintptr(fd), nil
}

// Close releases the descriptor.
func Close(fd uintptr) error {
	return os.NewSyscallError("close", unix.Close(int(fd)))
}

// BindInet binds fd to an IP address and port.
func BindInet(fd uintptr, ap netip.AddrPort) error {
	return os.NewSyscallError("bind", unix.Bind(int(fd), addrPortToSockaddr(ap)))
}

// BindUnix binds fd to a Unix-domain socket path, creating the socket file.
func BindUnix(fd uintptr, path string) error {
	return os.NewSyscallError("bind", unix.Bind(int(fd), &unix.SockaddrUnix{Name: path}))
}

// Listen puts fd into a listening state with the given backlog.
func Listen(fd uintptr, backlog int) error {
	return os.NewSyscallError("listen", unix.Listen(int(fd), backlog))
}

// Dup duplicates fd into a fresh descriptor with close-on-exec set. The
// source descriptor is never closed or otherwise disturbed, so the same
// source can be duplicated any number of times.
func Dup(fd uintptr) (uintptr, error) {
	nfd, err := unix.FcntlInt(fd, unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return 0, os.NewSyscallError("fcntl", err)
	}
	return uintptr(nfd), nil
}

// Kind reports the raw socket type (SOCK_STREAM, SOCK_DGRAM, ...) of fd.
// This is the step that turns a descriptor of unknown provenance into either
// a known-good socket or an explicit error.
func Kind(fd uintptr) (int, error) {
	sotype, err := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	return sotype, nil
}

// MarkInheritable clears (or restores) the close-on-exec flag on fd so that
// child processes will (or will not) inherit it.
func MarkInheritable(fd uintptr, inheritable bool) error {
	flags, err := unix.FcntlInt(fd, unix.F_GETFD, 0)
	if err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	if inheritable {
		flags &^= unix.FD_CLOEXEC
	} else {
		flags |= unix.FD_CLOEXEC
	}
	_, err = unix.FcntlInt(fd, unix.F_SETFD, flags)
	return os.NewSyscallError("fcntl", err)
}

// Stdin returns the standard input descriptor. It cannot fail on Unix-like
// platforms; standard input is always descriptor 0.
func Stdin() (uintptr, error) { return 0, nil }

func addrPortToSockaddr(ap netip.AddrPort) unix.Sockaddr {
	ip := ap.Addr()
	if ip.Is4() || ip.Is4In6() {
		sa := &unix.SockaddrInet4{Port: int(ap.Port())}
		sa.Addr = ip.Unmap().As4()
		return sa
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port())}
	sa.Addr = ip.As16()
	if zone := ip.Zone(); zone != "" {
		if iface, err := net.InterfaceByName(zone); err == nil {
			sa.ZoneId = uint32(iface.Index)
		}
	}
	return sa
}
