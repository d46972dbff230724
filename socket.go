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
	"github.com/sockopen/sockopen/internal/socket"
)

// Socket is an open socket descriptor or handle, as produced by Open. It is
// bound, configured, and (for listening stream sockets) already listening;
// what remains is to hand it to the I/O layer of the application, usually
// through Listener, PacketConn, or Conn.
type Socket struct {
	fd   uintptr
	addr SocketAddr
}

// Fd returns the raw descriptor or handle.
func (s *Socket) Fd() uintptr { return s.fd }

// Addr returns the address the socket was opened from.
func (s *Socket) Addr() SocketAddr { return s.addr }

// Close closes the socket. Harmless to call after the descriptor has been
// handed off through File, Listener, PacketConn, or Conn only if the caller
// has not kept using those; Close does not know about the duplicates.
func (s *Socket) Close() error {
	return socket.Close(s.fd)
}

// MarkInheritable sets or clears whether the socket survives into child
// processes, and returns the raw descriptor or handle to pass to the child.
// On Unix-like platforms this toggles FD_CLOEXEC; on Windows it toggles
// handle inheritance.
//
// The flag is read and written in two steps, so this must not race with
// other code spawning processes or toggling the same flag.
func MarkInheritable(s *Socket, inheritable bool) (uintptr, error) {
	if err := socket.MarkInheritable(s.fd, inheritable); err != nil {
		return 0, err
	}
	return s.fd, nil
}

// IsUnixSocket reports whether the file at path is a Unix-domain socket.
// A missing file is an error, not a false.
func IsUnixSocket(path string) (bool, error) {
	return socket.IsUnixSocket(path)
}
