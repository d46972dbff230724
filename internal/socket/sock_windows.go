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

//go:build windows

package socket

import (
	"net"
	"net/netip"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	FamilyIPv4 = windows.AF_INET
	FamilyIPv6 = windows.AF_INET6
	FamilyUnix = windows.AF_UNIX

	SysStream = windows.SOCK_STREAM
	SysDgram  = windows.SOCK_DGRAM

	// SupportsSystemd is false on Windows: the activation protocol requires
	// the first socket to be numbered 3, the second 4, and so on, and the
	// numeric values of SOCKET handles cannot be controlled like that.
	SupportsSystemd = false

	// SupportsReusePort is false on Windows; SO_REUSEPORT does not exist.
	SupportsReusePort = false

	// MaxUnixPath is the longest Unix-domain socket path the sockaddr
	// structure can hold, excluding the trailing NUL (UNIX_PATH_MAX is 108).
	MaxUnixPath = 107

	soAcceptConn   = 0x0002 // SO_ACCEPTCONN
	soProtocolInfo = 0x2005 // SO_PROTOCOL_INFOW

	// fromProtocolInfo tells WSASocket to take the family, type, and
	// protocol from the WSAPROTOCOL_INFOW argument.
	fromProtocolInfo = -1
)

var startupOnce sync.Once

// Startup initializes Winsock. Every socket call in the process fails until
// WSAStartup has been made once.
func Startup() {
	startupOnce.Do(func() {
		var data windows.WSAData
		_ = windows.WSAStartup(uint32(0x202), &data)
	})
}

// New creates a non-inheritable socket of the given family, type, and
// protocol. proto 0 lets Winsock pick the default transport protocol for the
// family and type.
func New(family, sotype, proto int) (uintptr, error) {
	Startup()
	h, err := windows.WSASocket(int32(family), int32(sotype), int32(proto),
		nil, 0, windows.WSA_FLAG_OVERLAPPED|windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		return 0, os.NewSyscallError("socket", err)
	}
	return uintptr(h), nil
}

// Close releases the socket handle.
func Close(fd uintptr) error {
	return os.NewSyscallError("closesocket", windows.Closesocket(windows.Handle(fd)))
}

// BindInet binds fd to an IP address and port.
func BindInet(fd uintptr, ap netip.AddrPort) error {
	return os.NewSyscallError("bind", windows.Bind(windows.Handle(fd), addrPortToSockaddr(ap)))
}

// BindUnix binds fd to a Unix-domain socket path, creating the socket file.
func BindUnix(fd uintptr, path string) error {
	return os.NewSyscallError("bind", windows.Bind(windows.Handle(fd), &windows.SockaddrUnix{Name: path}))
}

// Listen puts fd into a listening state with the given backlog.
func Listen(fd uintptr, backlog int) error {
	return os.NewSyscallError("listen", windows.Listen(windows.Handle(fd), backlog))
}

// Dup duplicates fd into a fresh non-inheritable socket handle. The source
// handle is never closed or otherwise disturbed, so the same source can be
// duplicated any number of times.
func Dup(fd uintptr) (uintptr, error) {
	Startup()
	var info windows.WSAProtocolInfo
	if err := windows.WSADuplicateSocket(windows.Handle(fd), windows.GetCurrentProcessId(), &info); err != nil {
		return 0, os.NewSyscallError("WSADuplicateSocketW", err)
	}
	h, err := windows.WSASocket(fromProtocolInfo, fromProtocolInfo, fromProtocolInfo,
		&info, 0, windows.WSA_FLAG_OVERLAPPED|windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		return 0, os.NewSyscallError("WSASocketW", err)
	}
	return uintptr(h), nil
}

// Kind reports the raw socket type (SOCK_STREAM, SOCK_DGRAM, ...) of fd.
func Kind(fd uintptr) (int, error) {
	info, err := protocolInfo(fd)
	if err != nil {
		return 0, err
	}
	return int(info.SocketType), nil
}

// Protocol reports the transport protocol of fd via SO_PROTOCOL_INFOW.
func Protocol(fd uintptr) (proto int, ok bool, err error) {
	info, err := protocolInfo(fd)
	if err != nil {
		return 0, true, err
	}
	return int(info.Protocol), true, nil
}

func protocolInfo(fd uintptr) (*windows.WSAProtocolInfo, error) {
	var info windows.WSAProtocolInfo
	l := int32(unsafe.Sizeof(info))
	err := windows.Getsockopt(windows.Handle(fd), windows.SOL_SOCKET, soProtocolInfo,
		(*byte)(unsafe.Pointer(&info)), &l)
	if err != nil {
		return nil, os.NewSyscallError("getsockopt", err)
	}
	return &info, nil
}

// IsListening reports whether the stream socket fd is in a listening state,
// via SO_ACCEPTCONN.
func IsListening(fd uintptr) (listening bool, ok bool, err error) {
	v, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, soAcceptConn)
	if err != nil {
		return false, true, os.NewSyscallError("getsockopt", err)
	}
	return v != 0, true, nil
}

// SetReuseAddr enables the SO_REUSEADDR option on fd.
func SetReuseAddr(fd uintptr) error {
	return os.NewSyscallError("setsockopt",
		windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1))
}

// SetReusePort always fails; Windows has no SO_REUSEPORT. The engine rejects
// the option before ever calling this.
func SetReusePort(uintptr) error {
	return os.NewSyscallError("setsockopt", windows.WSAEOPNOTSUPP)
}

// SetIPv6Only restricts an IPv6 socket to IPv6 traffic only.
func SetIPv6Only(fd uintptr) error {
	return os.NewSyscallError("setsockopt",
		windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, 1))
}

// MarkInheritable sets (or clears) HANDLE_FLAG_INHERIT on fd so that child
// processes created with bInheritHandles will (or will not) inherit it.
func MarkInheritable(fd uintptr, inheritable bool) error {
	var flags uint32
	if inheritable {
		flags = windows.HANDLE_FLAG_INHERIT
	}
	return os.NewSyscallError("SetHandleInformation",
		windows.SetHandleInformation(windows.Handle(fd), windows.HANDLE_FLAG_INHERIT, flags))
}

// Stdin returns the standard input handle. Unlike on Unix-like platforms,
// the console-subsystem lookup can fail.
func Stdin() (uintptr, error) {
	h, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return 0, os.NewSyscallError("GetStdHandle", err)
	}
	return uintptr(h), nil
}

func addrPortToSockaddr(ap netip.AddrPort) windows.Sockaddr {
	ip := ap.Addr()
	if ip.Is4() || ip.Is4In6() {
		sa := &windows.SockaddrInet4{Port: int(ap.Port())}
		sa.Addr = ip.Unmap().As4()
		return sa
	}
	sa := &windows.SockaddrInet6{Port: int(ap.Port())}
	sa.Addr = ip.As16()
	if zone := ip.Zone(); zone != "" {
		if iface, err := net.InterfaceByName(zone); err == nil {
			sa.ZoneId = uint32(iface.Index)
		}
	}
	return sa
}
