// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package cache

import "time"

// Options configures an AccountCache.
type Options struct {
	// MaxAccounts bounds how many account graphs stay in memory.
	// Zero means no bound.
	MaxAccounts int

	// TTL is how long a loaded graph is served before it is reloaded.
	// Zero disables expiry.
	TTL time.Duration
}

// DefaultOptions returns the server defaults.
func DefaultOptions() Options {
	return Options{
		MaxAccounts: 128,
		TTL:         30 * time.Minute,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithMaxAccounts sets the in-memory account bound.
func WithMaxAccounts(n int) Option {
	return func(o *Options) {
		o.MaxAccounts = n
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.TTL = ttl
	}
}
