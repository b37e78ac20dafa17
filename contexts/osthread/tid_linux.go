// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package osthreadcontext

import "golang.org/x/sys/unix"

// threadID returns the id of the calling OS thread.
func threadID() int {
	return unix.Gettid()
}
