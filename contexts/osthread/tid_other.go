// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package osthreadcontext

// threadID returns the id of the calling OS thread, or -1 where the host
// does not expose one.
func threadID() int {
	return -1
}
