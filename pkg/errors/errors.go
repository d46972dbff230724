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

// Package errors defines the errors raised while parsing socket addresses
// and opening sockets.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrPortRequired occurs when an IP socket address carries no port number
	// and the application defines no default port.
	ErrPortRequired = errors.New("sockopen: no port number specified and the application has no default port")
	// ErrInvalidSystemdFd occurs when a systemd socket address falls outside the
	// descriptor window announced by the LISTEN_PID and LISTEN_FDS environment variables.
	ErrInvalidSystemdFd = errors.New("sockopen: no such inherited socket (according to the LISTEN_PID and LISTEN_FDS environment variables)")
	// ErrSystemdNotSupported occurs when a systemd socket address is used on a
	// platform whose socket handles cannot be numbered by the parent process.
	ErrSystemdNotSupported = errors.New("sockopen: systemd socket inheritance is not supported on this platform")
	// ErrInheritedIsListening occurs when an inherited stream socket is in a
	// listening state but the application expected a non-listening one.
	ErrInheritedIsListening = errors.New("sockopen: the inherited socket was expected to not be in a listening state, but it is")
	// ErrInheritedIsNotListening occurs when an inherited stream socket is not in
	// a listening state but the application expected a listening one.
	ErrInheritedIsNotListening = errors.New("sockopen: the inherited socket was expected to be in a listening state, but it is not")
	// ErrNotSupported occurs when calling a method that has no implementation on
	// the current platform.
	ErrNotSupported = errors.New("sockopen: operation not supported on this platform")
	// ErrInvalidAddr occurs when opening a zero-valued socket address.
	ErrInvalidAddr = errors.New("sockopen: cannot open a zero-valued socket address")
)

// UnrecognizedAddressError occurs when a socket address string fits none of
// the recognized patterns. It wraps the diagnostic from the final attempt to
// parse the string as an IP address and port.
type UnrecognizedAddressError struct {
	Input string
	Err   error
}

func (e *UnrecognizedAddressError) Error() string {
	return fmt.Sprintf("sockopen: unrecognized socket address %q: must be an IP address and optional port, a Unix-domain socket path, \"stdin\", \"fd:N\", \"socket:N\", or \"systemd:N\"", e.Input)
}

func (e *UnrecognizedAddressError) Unwrap() error { return e.Err }

// InvalidSocketNumberError occurs when a socket address of the form "fd:N",
// "socket:N", or "systemd:N" carries an N that is not a valid unsigned integer.
type InvalidSocketNumberError struct {
	Input string
	Err   error
}

func (e *InvalidSocketNumberError) Error() string {
	return fmt.Sprintf("sockopen: invalid socket address %q: the part after the colon is not a valid socket number: %v", e.Input, e.Err)
}

func (e *InvalidSocketNumberError) Unwrap() error { return e.Err }

// InapplicableOptionError occurs when a user option is set that does not apply
// to the kind of socket being opened, or that the current platform cannot
// honor. Option holds the option's name as it appears in UserOptions
// documentation, such as "unix_socket_permissions".
type InapplicableOptionError struct {
	Option string
}

func (e *InapplicableOptionError) Error() string {
	return fmt.Sprintf("sockopen: the %s option is not applicable to this kind of socket", e.Option)
}

// PermissionsParseError occurs when a permissions string is neither an octal
// mode nor a combination of the letters 'u', 'g', and 'o'.
type PermissionsParseError struct {
	Input string
}

func (e *PermissionsParseError) Error() string {
	return fmt.Sprintf("sockopen: unrecognized permissions %q (only the letters 'u', 'g', and 'o', or an octal mode number, are recognized)", e.Input)
}

// InvalidUnixPathError occurs when a Unix-domain socket path is empty or too
// long for the operating system's sockaddr structure.
type InvalidUnixPathError struct {
	Path string
}

func (e *InvalidUnixPathError) Error() string {
	return fmt.Sprintf("sockopen: invalid Unix-domain socket path %q", e.Path)
}

// OwnerNotFoundError occurs when the user named by the unix_socket_owner
// option does not exist.
type OwnerNotFoundError struct {
	Name string
}

func (e *OwnerNotFoundError) Error() string {
	return fmt.Sprintf("sockopen: the unix_socket_owner option was used, but no user named %q was found", e.Name)
}

// GroupNotFoundError occurs when the group named by the unix_socket_group
// option does not exist.
type GroupNotFoundError struct {
	Name string
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("sockopen: the unix_socket_group option was used, but no group named %q was found", e.Name)
}

// InheritWrongTypeError occurs when an inherited socket exists but its type
// (stream or datagram) does not match what the application expects.
type InheritWrongTypeError struct {
	Expected string
	Actual   string
}

func (e *InheritWrongTypeError) Error() string {
	return fmt.Sprintf("sockopen: inherited socket has wrong type (expected %s, got %s)", e.Expected, e.Actual)
}

// Op names a step of socket acquisition.
type Op string

// The steps of socket acquisition that can fail with an OpenError.
const (
	OpCreateSocket   Op = "create socket"
	OpMkdirParents   Op = "create parent directories"
	OpSetSockOpt     Op = "set socket option"
	OpBeforeBind     Op = "run before-bind hook"
	OpBind           Op = "bind socket to address"
	OpLookupOwner    Op = "look up owner user ID"
	OpLookupGroup    Op = "look up group ID"
	OpSetOwner       Op = "set socket owner"
	OpSetPermissions Op = "set socket permissions"
	OpListen         Op = "make the socket listen"
	OpDupInherited   Op = "duplicate inherited socket"
	OpCheckInherited Op = "check type of inherited socket"
	OpGetStdin       Op = "get standard input handle"
)

// OpenError records a failed step of socket acquisition and the underlying
// operating system error. For the before-bind hook the wrapped error is
// reported as-is, without reclassification.
type OpenError struct {
	Op     Op
	Option string // socket option name, set when Op is OpSetSockOpt
	Err    error
}

func (e *OpenError) Error() string {
	switch e.Op {
	case OpSetSockOpt:
		return fmt.Sprintf("sockopen: couldn't set socket option %s: %v", e.Option, e.Err)
	case OpBeforeBind:
		return e.Err.Error()
	default:
		return fmt.Sprintf("sockopen: couldn't %s: %v", e.Op, e.Err)
	}
}

func (e *OpenError) Unwrap() error { return e.Err }

// CleanupError occurs when removing a stale Unix-domain socket fails. Unlink
// is false when the check for a stale socket failed, true when the removal
// itself failed.
type CleanupError struct {
	Path   string
	Unlink bool
	Err    error
}

func (e *CleanupError) Error() string {
	if e.Unlink {
		return fmt.Sprintf("sockopen: couldn't remove the stale Unix-domain socket at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("sockopen: couldn't check for a stale Unix-domain socket at %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
