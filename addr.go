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

package sockopen

import (
	stderrors "errors"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sockopen/sockopen/internal/socket"
	"github.com/sockopen/sockopen/pkg/errors"
	"github.com/sockopen/sockopen/pkg/logging"
)

type addrKind uint8

const (
	addrNone addrKind = iota
	addrIP
	addrUnix
	addrInherit
	addrInheritStdin
	addrSystemd
)

// SocketAddr is the address to bind a socket to, or a description of an
// inherited socket to use. It is one of the three parameters to Open.
//
// A SocketAddr holds exactly one of five variants:
//
//   - an IP address with an optional port, e.g. "127.0.0.1:8080", "[::1]:443",
//     or "10.0.0.1" (the port is then taken from AppOptions.DefaultPort);
//   - a Unix-domain socket path, recognized by one of the prefixes "/", "\",
//     "./", ".\", or a drive letter followed by ":\", e.g. "./ctl.socket";
//   - a socket inherited from the parent process at a numeric descriptor or
//     handle, written "fd:N" or "socket:N" (the two prefixes are synonyms);
//   - the standard input as an inherited socket, written "stdin" (usable
//     with inetd-style sockets in wait mode);
//   - a socket inherited through systemd socket activation, written
//     "systemd:N" where N is a descriptor number starting at 3.
//
// SocketAddr values are comparable; comparison of the Unix-domain variant is
// by path string, without consulting the file system. The zero SocketAddr
// holds no variant and cannot be opened.
type SocketAddr struct {
	kind addrKind
	ip   netip.Addr
	port uint16
	// hasPort distinguishes port 0 from no port at all. A missing port is
	// substituted from the application's default at open time.
	hasPort bool
	path    string
	fd      uint64
}

// IPAddr returns the SocketAddr for an IP address and explicit port.
func IPAddr(ap netip.AddrPort) SocketAddr {
	return SocketAddr{kind: addrIP, ip: ap.Addr(), port: ap.Port(), hasPort: true}
}

// IPAddrNoPort returns the SocketAddr for an IP address with no port; the
// port is resolved against the application's default port at open time.
func IPAddrNoPort(ip netip.Addr) SocketAddr {
	return SocketAddr{kind: addrIP, ip: ip}
}

// UnixAddr returns the SocketAddr for a Unix-domain socket at path.
func UnixAddr(path string) SocketAddr {
	return SocketAddr{kind: addrUnix, path: path}
}

// InheritAddr returns the SocketAddr for a socket inherited from the parent
// process at the given descriptor or handle number. The number is taken on
// faith; its validity is only established when Open duplicates it.
func InheritAddr(socket uint64) SocketAddr {
	return SocketAddr{kind: addrInherit, fd: socket}
}

// InheritStdinAddr returns the SocketAddr for the standard input as an
// inherited socket. The actual handle is resolved at open time, not now.
func InheritStdinAddr() SocketAddr {
	return SocketAddr{kind: addrInheritStdin}
}

// SystemdAddr returns the SocketAddr for a socket inherited through systemd
// socket activation at the given descriptor number.
func SystemdAddr(socket uint64) SocketAddr {
	return SocketAddr{kind: addrSystemd, fd: socket}
}

// IsZero reports whether sa holds no variant.
func (sa SocketAddr) IsZero() bool { return sa.kind == addrNone }

// IsInherited reports whether sa is one of the inherited variants.
func (sa SocketAddr) IsInherited() bool {
	switch sa.kind {
	case addrInherit, addrInheritStdin, addrSystemd:
		return true
	}
	return false
}

// IP returns the IP address and true if sa is the IP variant.
func (sa SocketAddr) IP() (netip.Addr, bool) {
	return sa.ip, sa.kind == addrIP
}

// Port returns the port number and true if sa is the IP variant and carries
// an explicit port.
func (sa SocketAddr) Port() (uint16, bool) {
	return sa.port, sa.kind == addrIP && sa.hasPort
}

// Path returns the socket path and true if sa is the Unix-domain variant.
func (sa SocketAddr) Path() (string, bool) {
	return sa.path, sa.kind == addrUnix
}

// Socket returns the descriptor or handle number and true if sa is the
// "fd:"/"socket:" or "systemd:" variant.
func (sa SocketAddr) Socket() (uint64, bool) {
	return sa.fd, sa.kind == addrInherit || sa.kind == addrSystemd
}

// ResolvePath returns sa with a relative Unix-domain socket path resolved
// against base. Non-Unix variants and absolute paths are returned unchanged.
func (sa SocketAddr) ResolvePath(base string) SocketAddr {
	if sa.kind != addrUnix || filepath.IsAbs(sa.path) {
		return sa
	}
	sa.path = filepath.Join(base, sa.path)
	return sa
}

const (
	rawFdPrefix   = "fd:"
	rawSockPrefix = "socket:"
	systemdPrefix = "systemd:"
)

// Parse parses a socket address string. The recognized patterns, tried in
// order, are: the exact string "stdin"; "fd:N" or "socket:N"; "systemd:N";
// a Unix-domain socket path (see SocketAddr for the prefixes); and finally
// an IP address with optional port.
func Parse(s string) (SocketAddr, error) {
	if s == "stdin" {
		return InheritStdinAddr(), nil
	}

	for _, p := range [...]struct {
		prefix  string
		systemd bool
	}{
		{rawFdPrefix, false},
		{rawSockPrefix, false},
		{systemdPrefix, true},
	} {
		if !strings.HasPrefix(s, p.prefix) {
			continue
		}
		n, err := strconv.ParseUint(s[len(p.prefix):], 10, 64)
		if err != nil {
			return SocketAddr{}, &errors.InvalidSocketNumberError{Input: s, Err: err}
		}
		if p.systemd {
			return SystemdAddr(n), nil
		}
		return InheritAddr(n), nil
	}

	if isUnixPathSyntax(s) {
		return UnixAddr(s), nil
	}

	// Anything else must be an IP address: a bare address first, then an
	// address with a port.
	if ip, err := netip.ParseAddr(s); err == nil {
		return IPAddrNoPort(ip), nil
	}
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return SocketAddr{}, &errors.UnrecognizedAddressError{Input: s, Err: err}
	}
	return IPAddr(ap), nil
}

// isUnixPathSyntax reports whether s is written as a Unix-domain socket
// path. All of these patterns are recognized on all platforms, including the
// drive-letter pattern, which on non-Windows platforms names a relative path.
func isUnixPathSyntax(s string) bool {
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "\\") ||
		strings.HasPrefix(s, "./") || strings.HasPrefix(s, ".\\") {
		return true
	}
	return len(s) >= 3 && isASCIILetter(s[0]) && s[1] == ':' && s[2] == '\\'
}

func isASCIILetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// String formats sa in the syntax accepted by Parse. A Unix-domain path that
// lacks a recognized prefix is given a "./" prefix so the result parses back
// as the same variant. The inherited variant uses the "socket:" prefix on
// Windows and "fd:" elsewhere.
func (sa SocketAddr) String() string {
	switch sa.kind {
	case addrIP:
		if sa.hasPort {
			return netip.AddrPortFrom(sa.ip, sa.port).String()
		}
		return sa.ip.String()
	case addrUnix:
		if isUnixPathSyntax(sa.path) {
			return sa.path
		}
		return "./" + sa.path
	case addrInherit:
		return inheritDisplayPrefix + strconv.FormatUint(sa.fd, 10)
	case addrInheritStdin:
		return "stdin"
	case addrSystemd:
		return systemdPrefix + strconv.FormatUint(sa.fd, 10)
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (sa SocketAddr) MarshalText() ([]byte, error) {
	return []byte(sa.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so a SocketAddr can sit
// directly in a JSON or YAML configuration structure.
func (sa *SocketAddr) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*sa = parsed
	return nil
}

// Cleanup deletes the Unix-domain socket file at sa's path, if there is one.
// It does nothing if sa is not the Unix-domain variant, or if nothing exists
// at the path, or if the file at the path is not a Unix-domain socket.
//
// The check and the deletion are two separate steps, so a socket replaced
// with some other kind of file between them can still be deleted. The race
// is inherent to cleaning up by path and is accepted rather than papered
// over.
func (sa SocketAddr) Cleanup() error {
	if sa.kind != addrUnix {
		return nil
	}
	return cleanupUnixSocket(sa.path)
}

func cleanupUnixSocket(path string) error {
	isSock, err := socket.IsUnixSocket(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &errors.CleanupError{Path: path, Err: err}
	}
	if !isSock {
		return nil
	}

	if err := os.Remove(path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &errors.CleanupError{Path: path, Unlink: true, Err: err}
	}
	logging.Debugf("removed stale Unix-domain socket at %s", path)
	return nil
}
