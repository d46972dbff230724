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
	"io/fs"
	"strconv"

	"github.com/sockopen/sockopen/pkg/errors"
)

// Kind selects between stream and datagram sockets.
type Kind uint8

const (
	// Stream is a connection-oriented socket, i.e. SOCK_STREAM.
	Stream Kind = iota + 1
	// Datagram is a message-oriented socket, i.e. SOCK_DGRAM.
	Datagram
)

func (k Kind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Datagram:
		return "datagram"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IP protocol numbers for AppOptions.Protocol, from the IANA registry.
const (
	ProtocolTCP = 6
	ProtocolUDP = 17
)

// DefaultListenBacklog is the listen backlog used when UserOptions leaves
// ListenSocketBacklog unset.
const DefaultListenBacklog = 128

// UserOptions are the socket options under the control of whoever deploys
// the application, typically arriving next to the address string in a
// configuration file. Zero values mean "leave it alone".
//
// Every option here applies only to some address variants. Setting an option
// that does not apply to the address being opened is a configuration mistake
// and makes Open fail with an InapplicableOptionError, rather than silently
// ignoring the setting.
type UserOptions struct {
	// UnixSocketNoUnlink suppresses the deletion of a stale socket file
	// before binding a new Unix-domain socket. Only meaningful for the
	// path-based variant; unlike the options below, it is a behavior tweak
	// of socket creation and is never an inapplicability error on inherited
	// sockets.
	UnixSocketNoUnlink bool

	// UnixSocketPermissions sets the file mode of a newly bound Unix-domain
	// socket. Applies only when a path-based socket is created here.
	UnixSocketPermissions *Permissions

	// UnixSocketOwner and UnixSocketGroup set the owner and group of a newly
	// bound Unix-domain socket, by name or numeric ID. Apply only when a
	// path-based socket is created here, and usually require privilege.
	UnixSocketOwner string
	UnixSocketGroup string

	// IPSocketReusePort sets SO_REUSEPORT, allowing several processes to
	// bind the same IP address and port. Applies only to newly created
	// sockets, and only on platforms that have the option.
	IPSocketReusePort bool

	// IPSocketV6Only sets IPV6_V6ONLY, restricting a wildcard IPv6 socket
	// to IPv6 peers only. Applies only to newly created sockets.
	IPSocketV6Only bool

	// ListenSocketBacklog overrides the listen backlog. A negative value is
	// clamped to zero. Applies only to newly created listening sockets.
	ListenSocketBacklog *int
}

// AppOptions are the socket options fixed by the application itself, not
// open to deployment-time configuration.
type AppOptions struct {
	// Kind is the socket kind, Stream or Datagram. Inherited sockets are
	// checked against it.
	Kind Kind

	// Protocol is the IP protocol number to create inet sockets with, e.g.
	// ProtocolTCP. Zero lets the system pick the protocol implied by Kind.
	Protocol int

	// Listen makes newly created stream sockets listen after binding.
	// Inherited stream sockets are checked against it where the platform
	// can tell whether a socket is listening.
	Listen bool

	// DefaultPort supplies the port for IP addresses written without one.
	// When nil, such addresses fail to open with ErrPortRequired.
	DefaultPort *uint16

	// BeforeBind, when non-nil, runs on a newly created socket after its
	// options are set and right before bind, for any extra setsockopt calls
	// the application needs. It never runs for inherited sockets.
	BeforeBind func(*Socket) error
}

// NewAppOptions returns the AppOptions for an ordinary server socket of the
// given kind: listening enabled, protocol and default port unset.
func NewAppOptions(kind Kind) *AppOptions {
	return &AppOptions{Kind: kind, Listen: true}
}

// Permissions is a Unix file mode for a socket file, à la chmod.
type Permissions fs.FileMode

// ParsePermissions parses a socket file mode written either in octal, e.g.
// "660", or as a combination of the letters 'u', 'g' and 'o' granting
// read/write access to the owning user, the group, and others respectively.
// A single "-" means the same as the empty string: no access bits at all.
func ParsePermissions(s string) (Permissions, error) {
	if s == "-" {
		s = ""
	}
	if n, err := strconv.ParseUint(s, 8, 32); err == nil {
		if n > 0o7777 {
			return 0, &errors.PermissionsParseError{Input: s}
		}
		return Permissions(n), nil
	}
	var mode Permissions
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'u':
			mode |= 0o600
		case 'g':
			mode |= 0o060
		case 'o':
			mode |= 0o006
		default:
			return 0, &errors.PermissionsParseError{Input: s}
		}
	}
	return mode, nil
}

func (p Permissions) String() string {
	return strconv.FormatUint(uint64(p), 8)
}

// MarshalText implements encoding.TextMarshaler.
func (p Permissions) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Permissions) UnmarshalText(text []byte) error {
	parsed, err := ParsePermissions(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
