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
	"net/netip"
	"os"
	"path/filepath"

	"github.com/sockopen/sockopen/internal/socket"
	"github.com/sockopen/sockopen/internal/systemd"
	"github.com/sockopen/sockopen/pkg/errors"
	"github.com/sockopen/sockopen/pkg/logging"
)

// Open acquires the socket described by addr: it creates and binds a fresh
// socket for the IP and Unix-domain variants, and duplicates and validates
// an existing descriptor for the inherited variants. A nil app is treated as
// NewAppOptions(Stream); a nil user as an all-defaults UserOptions.
//
// Inherited descriptors are duplicated, never adopted, so the same
// descriptor can be opened any number of times and each resulting Socket
// owns its own copy.
func Open(addr SocketAddr, app *AppOptions, user *UserOptions) (*Socket, error) {
	if app == nil {
		app = NewAppOptions(Stream)
	}
	if user == nil {
		user = new(UserOptions)
	}
	socket.Startup()

	switch addr.kind {
	case addrIP, addrUnix:
		return openNew(addr, app, user)
	case addrInherit:
		return openInherited(addr, uintptr(addr.fd), app, user)
	case addrInheritStdin:
		raw, err := socket.Stdin()
		if err != nil {
			return nil, &errors.OpenError{Op: errors.OpGetStdin, Err: err}
		}
		return openInherited(addr, raw, app, user)
	case addrSystemd:
		if !socket.SupportsSystemd {
			return nil, errors.ErrSystemdNotSupported
		}
		start, count := systemd.Window()
		if addr.fd < start || addr.fd >= start+count {
			return nil, errors.ErrInvalidSystemdFd
		}
		return openInherited(addr, uintptr(addr.fd), app, user)
	}
	return nil, errors.ErrInvalidAddr
}

// openNew creates, configures, binds, and possibly listens on a fresh
// socket. Everything that can be validated without a socket runs first, so
// a configuration mistake never leaves a stray socket file behind.
func openNew(addr SocketAddr, app *AppOptions, user *UserOptions) (*Socket, error) {
	path, isUnix := addr.Path()
	if isUnix && (path == "" || len(path) > socket.MaxUnixPath) {
		return nil, &errors.InvalidUnixPathError{Path: path}
	}

	var bindTo netip.AddrPort
	family := socket.FamilyUnix
	if ip, ok := addr.IP(); ok {
		family = socket.Family(ip)
		port, ok := addr.Port()
		if !ok {
			if app.DefaultPort == nil {
				return nil, errors.ErrPortRequired
			}
			port = *app.DefaultPort
		}
		bindTo = netip.AddrPortFrom(ip, port)
	}

	sec, err := prepareSecurity(path, isUnix, user)
	if err != nil {
		return nil, err
	}

	if user.IPSocketReusePort && (family == socket.FamilyUnix || !socket.SupportsReusePort) {
		return nil, &errors.InapplicableOptionError{Option: "ip_socket_reuse_port"}
	}
	if user.IPSocketV6Only && family != socket.FamilyIPv6 {
		return nil, &errors.InapplicableOptionError{Option: "ip_socket_v6_only"}
	}

	willListen := app.Kind == Stream && app.Listen
	backlog := DefaultListenBacklog
	if user.ListenSocketBacklog != nil {
		if !willListen {
			return nil, &errors.InapplicableOptionError{Option: "listen_socket_backlog"}
		}
		if backlog = *user.ListenSocketBacklog; backlog < 0 {
			backlog = 0
		}
	}

	fd, err := socket.New(family, sysKind(app.Kind), app.Protocol)
	if err != nil {
		return nil, &errors.OpenError{Op: errors.OpCreateSocket, Err: err}
	}
	sock := &Socket{fd: fd, addr: addr}
	ok := false
	defer func() {
		if !ok {
			sock.Close()
		}
	}()

	if isUnix {
		// Cleanup runs first; a path in a not-yet-existing directory is a
		// tolerated NotFound.
		if !user.UnixSocketNoUnlink {
			if err := cleanupUnixSocket(path); err != nil {
				return nil, err
			}
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &errors.OpenError{Op: errors.OpMkdirParents, Err: err}
			}
		}
	}

	if willListen && wantReuseAddr(family, app, fd) {
		if err := socket.SetReuseAddr(fd); err != nil {
			return nil, &errors.OpenError{Op: errors.OpSetSockOpt, Option: "SO_REUSEADDR", Err: err}
		}
	}
	if user.IPSocketReusePort {
		if err := socket.SetReusePort(fd); err != nil {
			return nil, &errors.OpenError{Op: errors.OpSetSockOpt, Option: "SO_REUSEPORT", Err: err}
		}
	}
	if user.IPSocketV6Only {
		if err := socket.SetIPv6Only(fd); err != nil {
			return nil, &errors.OpenError{Op: errors.OpSetSockOpt, Option: "IPV6_V6ONLY", Err: err}
		}
	}

	if app.BeforeBind != nil {
		if err := app.BeforeBind(sock); err != nil {
			return nil, &errors.OpenError{Op: errors.OpBeforeBind, Err: err}
		}
	}

	if isUnix {
		err = socket.BindUnix(fd, path)
	} else {
		err = socket.BindInet(fd, bindTo)
	}
	if err != nil {
		return nil, &errors.OpenError{Op: errors.OpBind, Err: err}
	}

	if err := sec.apply(); err != nil {
		return nil, err
	}

	if willListen {
		if err := socket.Listen(fd, backlog); err != nil {
			return nil, &errors.OpenError{Op: errors.OpListen, Err: err}
		}
	}

	logging.Debugf("opened new socket at %s", addr.String())
	ok = true
	return sock, nil
}

// openInherited validates an inherited descriptor and hands back a private
// duplicate of it. The descriptor named by the address is left untouched.
func openInherited(addr SocketAddr, raw uintptr, app *AppOptions, user *UserOptions) (*Socket, error) {
	// Options that configure socket creation cannot be honored on a socket
	// somebody else created, so they are rejected before the descriptor is
	// even looked at.
	if _, err := prepareSecurity("", false, user); err != nil {
		return nil, err
	}
	if user.IPSocketReusePort {
		return nil, &errors.InapplicableOptionError{Option: "ip_socket_reuse_port"}
	}
	if user.IPSocketV6Only {
		return nil, &errors.InapplicableOptionError{Option: "ip_socket_v6_only"}
	}
	if user.ListenSocketBacklog != nil {
		return nil, &errors.InapplicableOptionError{Option: "listen_socket_backlog"}
	}

	fd, err := socket.Dup(raw)
	if err != nil {
		return nil, &errors.OpenError{Op: errors.OpDupInherited, Err: err}
	}
	sock := &Socket{fd: fd, addr: addr}
	ok := false
	defer func() {
		if !ok {
			sock.Close()
		}
	}()

	sotype, err := socket.Kind(fd)
	if err != nil {
		return nil, &errors.OpenError{Op: errors.OpCheckInherited, Err: err}
	}
	if sotype != sysKind(app.Kind) {
		return nil, &errors.InheritWrongTypeError{
			Expected: app.Kind.String(),
			Actual:   socket.KindName(sotype),
		}
	}

	if app.Kind == Stream {
		// Not every platform can report the listening state; where it
		// cannot, the socket is taken at face value.
		listening, can, err := socket.IsListening(fd)
		if can {
			if err != nil {
				return nil, &errors.OpenError{Op: errors.OpCheckInherited, Err: err}
			}
			if listening != app.Listen {
				if app.Listen {
					return nil, errors.ErrInheritedIsNotListening
				}
				return nil, errors.ErrInheritedIsListening
			}
		}
	}

	logging.Debugf("duplicated inherited socket %s", addr.String())
	ok = true
	return sock, nil
}

// wantReuseAddr decides whether SO_REUSEADDR should be set on a fresh
// listening inet socket; the caller only asks for sockets that will listen.
// TCP listeners almost always want it, so the server can rebind its
// address while old connections linger in TIME_WAIT; most other sockets do
// not. The decision follows the application's declared protocol when there
// is one, otherwise the protocol the operating system actually picked, and
// as a last resort the socket kind. An approximation, usually but not
// always right; applications with firmer opinions can undo it in a
// BeforeBind hook.
func wantReuseAddr(family int, app *AppOptions, fd uintptr) bool {
	if app.Protocol != 0 {
		return app.Protocol == ProtocolTCP
	}
	if family == socket.FamilyUnix {
		return false
	}
	if proto, can, err := socket.Protocol(fd); can && err == nil {
		return proto == ProtocolTCP
	}
	return app.Kind == Stream
}

func sysKind(k Kind) int {
	if k == Datagram {
		return socket.SysDgram
	}
	return socket.SysStream
}
