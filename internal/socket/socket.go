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

// Package socket provides the raw socket primitives the acquisition engine
// is built on: creating, binding, listening, duplicating, and inspecting
// sockets by descriptor, with one implementation per target platform.
//
// Introspection of an existing socket is tri-state: functions that not every
// platform can answer return an ok flag, and ok == false means "this
// platform cannot tell", which is distinct from a negative answer.
package socket

import (
	"net/netip"
	"strconv"
)

// Family reports the address family an IP endpoint resolves to. An
// IPv4-mapped IPv6 address counts as IPv4.
func Family(ip netip.Addr) int {
	if ip.Is4() || ip.Is4In6() {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// KindName returns a human-readable name for a raw socket type value.
func KindName(sotype int) string {
	switch sotype {
	case SysStream:
		return "stream"
	case SysDgram:
		return "datagram"
	default:
		return "type " + strconv.Itoa(sotype)
	}
}
