// Copyright 2025 Brian Wang <wangbuke@gmail.com>
// SPDX-License-Identifier: Apache-2.0

package osthreadcontext

import "log/slog"

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger used to report context pinning events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}
