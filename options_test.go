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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sockopen/sockopen/pkg/errors"
)

func TestParsePermissions(t *testing.T) {
	tests := []struct {
		input string
		want  Permissions
	}{
		{"644", 0o644},
		{"660", 0o660},
		{"7777", 0o7777},
		{"0", 0},
		{"", 0},
		{"-", 0},
		{"u", 0o600},
		{"g", 0o060},
		{"o", 0o006},
		{"ug", 0o660},
		{"ugo", 0o666},
		{"ou", 0o606},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePermissions(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	var parseErr *errors.PermissionsParseError
	for _, input := range []string{"77777", "x", "rw", "u+g", "0o644", "--"} {
		_, err := ParsePermissions(input)
		assert.ErrorAs(t, err, &parseErr, input)
	}
}

func TestPermissionsText(t *testing.T) {
	p := Permissions(0o640)
	text, err := p.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "640", string(text))

	var back Permissions
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, p, back)
}

func TestNewAppOptions(t *testing.T) {
	app := NewAppOptions(Datagram)
	assert.Equal(t, Datagram, app.Kind)
	assert.True(t, app.Listen)
	assert.Zero(t, app.Protocol)
	assert.Nil(t, app.DefaultPort)
	assert.Nil(t, app.BeforeBind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "stream", Stream.String())
	assert.Equal(t, "datagram", Datagram.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
