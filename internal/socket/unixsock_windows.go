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

//go:build windows

package socket

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	// Unix-domain sockets appear in the Windows file system as reparse
	// points carrying this tag.
	ioReparseTagAfUnix = 0x80000023

	fileAttributeTagInfoClass = 9 // FileAttributeTagInfo
)

type fileAttributeTagInfo struct {
	FileAttributes uint32
	ReparseTag     uint32
}

// IsUnixSocket reports whether the file at path is a Unix-domain socket.
// When nothing exists at path, the error satisfies
// errors.Is(err, fs.ErrNotExist).
func IsUnixSocket(path string) (bool, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, err
	}

	// Open with zero desired access: that succeeds even for exclusively
	// locked files, and FILE_FLAG_OPEN_REPARSE_POINT keeps the reparse point
	// itself from being resolved.
	h, err := windows.CreateFile(p, 0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT, 0)
	if err != nil {
		return false, err
	}
	defer windows.CloseHandle(h)

	var info fileAttributeTagInfo
	err = windows.GetFileInformationByHandleEx(h, fileAttributeTagInfoClass,
		(*byte)(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)))
	if err != nil {
		return false, err
	}

	return info.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 &&
		info.ReparseTag == ioReparseTagAfUnix, nil
}
