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

package socket

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestNewBindListen(t *testing.T) {
	fd, err := New(FamilyIPv4, SysStream, 0)
	require.NoError(t, err)
	defer Close(fd)

	require.NoError(t, BindInet(fd, netip.MustParseAddrPort("127.0.0.1:0")))
	require.NoError(t, Listen(fd, 1))

	sotype, err := Kind(fd)
	require.NoError(t, err)
	assert.Equal(t, SysStream, sotype)
}

func TestDupIsIndependent(t *testing.T) {
	fd, err := New(FamilyIPv4, SysDgram, 0)
	require.NoError(t, err)

	dup, err := Dup(fd)
	require.NoError(t, err)
	defer Close(dup)

	require.NoError(t, Close(fd))

	// The duplicate outlives its source.
	sotype, err := Kind(dup)
	require.NoError(t, err)
	assert.Equal(t, SysDgram, sotype)

	// A fresh duplicate carries close-on-exec.
	flags, err := unix.FcntlInt(dup, unix.F_GETFD, 0)
	require.NoError(t, err)
	assert.NotZero(t, flags&unix.FD_CLOEXEC)
}

func TestBindUnixCreatesSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sock")
	fd, err := New(FamilyUnix, SysStream, 0)
	require.NoError(t, err)
	defer Close(fd)

	require.NoError(t, BindUnix(fd, path))

	isSock, err := IsUnixSocket(path)
	require.NoError(t, err)
	assert.True(t, isSock)

	notSock := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notSock, nil, 0o644))
	isSock, err = IsUnixSocket(notSock)
	require.NoError(t, err)
	assert.False(t, isSock)
}

func TestFamily(t *testing.T) {
	assert.Equal(t, FamilyIPv4, Family(netip.MustParseAddr("127.0.0.1")))
	assert.Equal(t, FamilyIPv4, Family(netip.MustParseAddr("::ffff:10.0.0.1")))
	assert.Equal(t, FamilyIPv6, Family(netip.MustParseAddr("::1")))
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "stream", KindName(SysStream))
	assert.Equal(t, "datagram", KindName(SysDgram))
	assert.Equal(t, "type 3", KindName(3))
}
