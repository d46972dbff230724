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
	stderrors "errors"
	"io/fs"
	"os"
	osuser "os/user"
	"strconv"

	"github.com/sockopen/sockopen/pkg/errors"
)

// preparedSecurity holds the ownership and mode to stamp onto a freshly
// bound Unix-domain socket file. Name lookups happen in prepareSecurity,
// before the socket even exists, so a typo in a user or group name is
// reported without leaving a half-configured socket file behind.
type preparedSecurity struct {
	path string
	uid  int // -1 leaves the owner unchanged
	gid  int // -1 leaves the group unchanged
	mode *Permissions
}

func prepareSecurity(path string, havePath bool, user *UserOptions) (preparedSecurity, error) {
	if !havePath {
		if user.UnixSocketPermissions != nil {
			return preparedSecurity{}, &errors.InapplicableOptionError{Option: "unix_socket_permissions"}
		}
		if user.UnixSocketOwner != "" {
			return preparedSecurity{}, &errors.InapplicableOptionError{Option: "unix_socket_owner"}
		}
		if user.UnixSocketGroup != "" {
			return preparedSecurity{}, &errors.InapplicableOptionError{Option: "unix_socket_group"}
		}
		return preparedSecurity{uid: -1, gid: -1}, nil
	}

	sec := preparedSecurity{path: path, uid: -1, gid: -1, mode: user.UnixSocketPermissions}
	if user.UnixSocketOwner != "" {
		uid, err := lookupUID(user.UnixSocketOwner)
		if err != nil {
			return preparedSecurity{}, err
		}
		sec.uid = uid
	}
	if user.UnixSocketGroup != "" {
		gid, err := lookupGID(user.UnixSocketGroup)
		if err != nil {
			return preparedSecurity{}, err
		}
		sec.gid = gid
	}
	return sec, nil
}

func lookupUID(name string) (int, error) {
	if uid, err := strconv.Atoi(name); err == nil {
		return uid, nil
	}
	u, err := osuser.Lookup(name)
	if err != nil {
		var unknown osuser.UnknownUserError
		if stderrors.As(err, &unknown) {
			return 0, &errors.OwnerNotFoundError{Name: name}
		}
		return 0, &errors.OpenError{Op: errors.OpLookupOwner, Err: err}
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, &errors.OpenError{Op: errors.OpLookupOwner, Err: err}
	}
	return uid, nil
}

func lookupGID(name string) (int, error) {
	if gid, err := strconv.Atoi(name); err == nil {
		return gid, nil
	}
	g, err := osuser.LookupGroup(name)
	if err != nil {
		var unknown osuser.UnknownGroupError
		if stderrors.As(err, &unknown) {
			return 0, &errors.GroupNotFoundError{Name: name}
		}
		return 0, &errors.OpenError{Op: errors.OpLookupGroup, Err: err}
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, &errors.OpenError{Op: errors.OpLookupGroup, Err: err}
	}
	return gid, nil
}

// apply runs after bind and before listen: ownership first, so the mode is
// never loosened on a file still owned by the wrong principal.
func (sec preparedSecurity) apply() error {
	if sec.uid != -1 || sec.gid != -1 {
		if err := os.Chown(sec.path, sec.uid, sec.gid); err != nil {
			return &errors.OpenError{Op: errors.OpSetOwner, Err: err}
		}
	}
	if sec.mode != nil {
		if err := os.Chmod(sec.path, fs.FileMode(*sec.mode)); err != nil {
			return &errors.OpenError{Op: errors.OpSetPermissions, Err: err}
		}
	}
	return nil
}
