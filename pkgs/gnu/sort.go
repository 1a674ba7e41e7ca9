// Package gnu orders upstream release strings the way GNU sort -V does.
package gnu

/* Compare file names containing version numbers.

   Copyright (C) 1995 Ian Jackson <iwj10@cus.cam.ac.uk>
   Copyright (C) 2001 Anthony Towns <aj@azure.humbug.org.au>
   Copyright (C) 2008-2025 Free Software Foundation, Inc.

   This file is free software: you can redistribute it and/or modify
   it under the terms of the GNU Lesser General Public License as
   published by the Free Software Foundation, either version 3 of the
   License, or (at your option) any later version.

   This file is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Lesser General Public License for more details.

   You should have received a copy of the GNU Lesser General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.  */

import (
	"sort"
	"strings"

	"github.com/goplus/leveldb-build/pkgs/mod/module"
)

var _ module.VersionComparator = Compare

// Compare orders two release strings, returning -1, 0 or 1. Runs of digits
// compare by value, so "1.1.10.1" sorts after "1.1.9", and '~' sorts before
// anything, so "1.2~rc1" sorts before "1.2".
func Compare(a, b string) int {
	switch c := compare(a, b); {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

// Sort orders vers oldest first using cmp, or Compare if cmp is nil.
func Sort(vers []string, cmp module.VersionComparator) {
	if cmp == nil {
		cmp = Compare
	}
	sort.SliceStable(vers, func(i, j int) bool {
		return cmp(vers[i], vers[j]) < 0
	})
}

// IsRelease reports whether v is a dotted numeric release such as "1.22"
// or "1.1.10.1".
func IsRelease(v string) bool {
	if v == "" {
		return false
	}
	for _, part := range strings.Split(v, ".") {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			if !isDigit(part[i]) {
				return false
			}
		}
	}
	return true
}

func compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		// non-digit prefix
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ca, cb := order(at(a, i)), order(at(b, j))
			if ca != cb {
				return ca - cb
			}
			i++
			j++
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		// digit run: the longer one wins, else the first differing digit
		diff := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if diff == 0 {
				diff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if diff != 0 {
			return diff
		}
	}
	return 0
}

func at(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// order ranks a byte outside a digit run: end of string and digits first,
// then letters, then everything else; '~' ranks below all of them.
func order(c byte) int {
	switch {
	case isDigit(c), c == 0:
		return 0
	case isAlpha(c):
		return int(c)
	case c == '~':
		return -1
	}
	return int(c) + 256
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
