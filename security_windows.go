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
	"github.com/sockopen/sockopen/pkg/errors"
)

// Windows has no chmod/chown story for Unix-domain socket files, so the
// three security options are inapplicable on every address, not only the
// inherited ones.
type preparedSecurity struct{}

func prepareSecurity(_ string, _ bool, user *UserOptions) (preparedSecurity, error) {
	if user.UnixSocketPermissions != nil {
		return preparedSecurity{}, &errors.InapplicableOptionError{Option: "unix_socket_permissions"}
	}
	if user.UnixSocketOwner != "" {
		return preparedSecurity{}, &errors.InapplicableOptionError{Option: "unix_socket_owner"}
	}
	if user.UnixSocketGroup != "" {
		return preparedSecurity{}, &errors.InapplicableOptionError{Option: "unix_socket_group"}
	}
	return preparedSecurity{}, nil
}

func (preparedSecurity) apply() error { return nil }
