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
	"net"
	"os"

	"github.com/sockopen/sockopen/pkg/errors"
)

// Socket handles on Windows are not file handles, so there is no road from
// a raw socket into the net package: os.NewFile plus net.FileListener only
// works on Unix-like platforms. Interop with net here means listening or
// dialing through the net package directly instead of going through Open.

// File is not supported on Windows.
func (s *Socket) File() (*os.File, error) {
	return nil, errors.ErrNotSupported
}

// Listener is not supported on Windows.
func (s *Socket) Listener() (net.Listener, error) {
	return nil, errors.ErrNotSupported
}

// PacketConn is not supported on Windows.
func (s *Socket) PacketConn() (net.PacketConn, error) {
	return nil, errors.ErrNotSupported
}

// Conn is not supported on Windows.
func (s *Socket) Conn() (net.Conn, error) {
	return nil, errors.ErrNotSupported
}
