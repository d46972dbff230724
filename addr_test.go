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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sockopen/sockopen/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  SocketAddr
	}{
		{"stdin", InheritStdinAddr()},
		{"fd:3", InheritAddr(3)},
		{"socket:3", InheritAddr(3)},
		{"fd:0", InheritAddr(0)},
		{"systemd:3", SystemdAddr(3)},
		{"/run/app.socket", UnixAddr("/run/app.socket")},
		{"./app.socket", UnixAddr("./app.socket")},
		{`.\app.socket`, UnixAddr(`.\app.socket`)},
		{`\\?\pipe\app`, UnixAddr(`\\?\pipe\app`)},
		{`C:\temp\app.socket`, UnixAddr(`C:\temp\app.socket`)},
		{"127.0.0.1", IPAddrNoPort(netip.MustParseAddr("127.0.0.1"))},
		{"127.0.0.1:8080", IPAddr(netip.MustParseAddrPort("127.0.0.1:8080"))},
		{"::1", IPAddrNoPort(netip.MustParseAddr("::1"))},
		{"[::1]:443", IPAddr(netip.MustParseAddrPort("[::1]:443"))},
		{"0.0.0.0:0", IPAddr(netip.MustParseAddrPort("0.0.0.0:0"))},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	var numErr *errors.InvalidSocketNumberError
	var unrecognized *errors.UnrecognizedAddressError

	for _, input := range []string{"fd:abc", "socket:", "systemd:-1", "fd:99999999999999999999999"} {
		_, err := Parse(input)
		assert.ErrorAs(t, err, &numErr, input)
	}

	for _, input := range []string{"nonsense", "999.1.1.1:2", "Stdin", "FD:3", "host.example.com:80", ""} {
		_, err := Parse(input)
		assert.ErrorAs(t, err, &unrecognized, input)
	}
}

// Formatting an address and parsing the result must yield the address back.
// The one wrinkle is a Unix-domain path with no recognizable prefix, which
// formats with "./" prepended; the normalized form then round-trips exactly.
func TestStringRoundTrip(t *testing.T) {
	addrs := []SocketAddr{
		InheritStdinAddr(),
		InheritAddr(0),
		InheritAddr(7),
		SystemdAddr(4),
		UnixAddr("/run/app.socket"),
		UnixAddr("./app.socket"),
		IPAddrNoPort(netip.MustParseAddr("10.1.2.3")),
		IPAddr(netip.MustParseAddrPort("10.1.2.3:80")),
		IPAddrNoPort(netip.MustParseAddr("fe80::1")),
		IPAddr(netip.MustParseAddrPort("[2001:db8::1]:443")),
	}
	for _, addr := range addrs {
		reparsed, err := Parse(addr.String())
		require.NoError(t, err, addr.String())
		assert.Equal(t, addr, reparsed)
	}
}

func TestStringNormalizesBarePath(t *testing.T) {
	bare := UnixAddr("app.socket")
	assert.Equal(t, "./app.socket", bare.String())

	normalized, err := Parse(bare.String())
	require.NoError(t, err)
	assert.Equal(t, UnixAddr("./app.socket"), normalized)
	assert.Equal(t, normalized, mustParse(t, normalized.String()))
}

func TestAccessors(t *testing.T) {
	ap := netip.MustParseAddrPort("127.0.0.1:8080")

	addr := IPAddr(ap)
	ip, ok := addr.IP()
	assert.True(t, ok)
	assert.Equal(t, ap.Addr(), ip)
	port, ok := addr.Port()
	assert.True(t, ok)
	assert.Equal(t, uint16(8080), port)
	assert.False(t, addr.IsInherited())
	assert.False(t, addr.IsZero())

	_, ok = IPAddrNoPort(ap.Addr()).Port()
	assert.False(t, ok)

	path, ok := UnixAddr("/x").Path()
	assert.True(t, ok)
	assert.Equal(t, "/x", path)

	n, ok := InheritAddr(5).Socket()
	assert.True(t, ok)
	assert.Equal(t, uint64(5), n)
	assert.True(t, InheritAddr(5).IsInherited())
	assert.True(t, InheritStdinAddr().IsInherited())
	assert.True(t, SystemdAddr(3).IsInherited())

	_, ok = InheritStdinAddr().Socket()
	assert.False(t, ok)

	assert.True(t, SocketAddr{}.IsZero())
}

func TestResolvePath(t *testing.T) {
	rel := UnixAddr("app.socket").ResolvePath("/run/app")
	path, _ := rel.Path()
	assert.Equal(t, filepath.Join("/run/app", "app.socket"), path)

	abs := UnixAddr("/tmp/app.socket").ResolvePath("/run/app")
	path, _ = abs.Path()
	assert.Equal(t, "/tmp/app.socket", path)

	ip := IPAddrNoPort(netip.MustParseAddr("::1"))
	assert.Equal(t, ip, ip.ResolvePath("/run/app"))
}

func TestTextMarshaling(t *testing.T) {
	text, err := UnixAddr("/run/app.socket").MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "/run/app.socket", string(text))

	var addr SocketAddr
	require.NoError(t, addr.UnmarshalText([]byte("systemd:3")))
	assert.Equal(t, SystemdAddr(3), addr)

	err = addr.UnmarshalText([]byte("bogus"))
	assert.Error(t, err)
	assert.Equal(t, SystemdAddr(3), addr, "a failed unmarshal must not clobber the value")
}

func mustParse(t *testing.T, s string) SocketAddr {
	t.Helper()
	addr, err := Parse(s)
	require.NoError(t, err)
	return addr
}
