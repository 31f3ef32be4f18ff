// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL-safe category slugs from display names.
package slug

import (
	"regexp"
	"strings"
)

// nonAlphanumeric matches every run of characters that may not appear in a
// slug. Each run is replaced by a single hyphen, so "Rock & Roll" and
// "Frontend/Backend" both keep a separator where the punctuation was.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Derive creates a URL-safe slug from the given name: lowercase, with every
// run of non-alphanumeric characters collapsed to one hyphen.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Derive(name string) string {
	result := strings.ToLower(name)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Valid reports whether s is already a well-formed slug, i.e. deriving a
// slug from it changes nothing and it is not empty.
func Valid(s string) bool {
	return s != "" && Derive(s) == s
}
