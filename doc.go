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

// Package sockopen turns a socket address string into an open, bound,
// ready-to-use socket.
//
// A server that accepts its listening address as configuration usually wants
// more flexibility than "an IP and a port": a Unix-domain socket path with
// sane permissions, a descriptor inherited from a supervising process, a
// systemd activation slot, or plain old inetd-style stdin. Parse accepts all
// of those in one string syntax and Open acquires the socket, applying the
// options that the application fixes (AppOptions) and the options that the
// deployment configures (UserOptions):
//
//	addr, err := sockopen.Parse("./control.socket")
//	if err != nil {
//		...
//	}
//	sock, err := sockopen.Open(addr, sockopen.NewAppOptions(sockopen.Stream), nil)
//	if err != nil {
//		...
//	}
//	ln, err := sock.Listener()
//
// Open performs every step in a fixed order so that failure modes are
// predictable: names are resolved before anything touches the file system,
// socket options are set before bind, ownership and permissions are stamped
// on a Unix-domain socket between bind and listen, and stale socket files
// are removed (not merely reused) before binding their replacement.
//
// Options that cannot take effect on the socket being opened, such as file
// permissions on an inherited descriptor, are treated as configuration
// errors and fail the Open call rather than being ignored.
package sockopen
