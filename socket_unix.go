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

package sockopen

import (
	"net"
	"os"

	"github.com/sockopen/sockopen/internal/socket"
)

// File duplicates the socket into an *os.File. The Socket itself stays open
// and still owns its original descriptor; closing one does not close the
// other.
func (s *Socket) File() (*os.File, error) {
	dup, err := socket.Dup(s.fd)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(dup), s.addr.String()), nil
}

// Listener wraps the socket in a net.Listener via net.FileListener. The
// runtime takes its own duplicate of the descriptor, so the Socket can and
// should be closed once the listener is in hand.
func (s *Socket) Listener() (net.Listener, error) {
	f, err := s.File()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return net.FileListener(f)
}

// PacketConn wraps the socket in a net.PacketConn via net.FilePacketConn,
// for datagram sockets. Like Listener, it works on a duplicate.
func (s *Socket) PacketConn() (net.PacketConn, error) {
	f, err := s.File()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return net.FilePacketConn(f)
}

// Conn wraps the socket in a net.Conn via net.FileConn, for connected
// sockets such as an inetd wait-mode stdin. Like Listener, it works on a
// duplicate.
func (s *Socket) Conn() (net.Conn, error) {
	f, err := s.File()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return net.FileConn(f)
}
