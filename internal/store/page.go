// Copyright 2026 The Timesheet Authors
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

package store

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page selects a zero-based window of a listing.
type Page struct {
	Number int
	Size   int
	// Unpaged returns every matching row. Only internal aggregates use it.
	Unpaged bool
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Unpaged {
		return Page{Unpaged: true}
	}
	if p.Number < 0 {
		p.Number = 0
	}
	switch {
	case p.Size <= 0:
		p.Size = DefaultPageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	if p.Unpaged {
		return 0
	}
	return p.Number * p.Size
}

// Window applies the page to n rows and returns the [lo, hi) bounds.
func (p Page) Window(n int) (int, int) {
	if p.Unpaged {
		return 0, n
	}
	lo := min(p.Offset(), n)
	return lo, min(lo+p.Size, n)
}

// All selects every row.
var All = Page{Unpaged: true}

// Result is one page of a tenant-scoped listing.
type Result[E any] struct {
	Items []E
	Total int
	Page  Page
}

// TotalPages returns the number of pages of Page.Size needed for Total.
func (r Result[E]) TotalPages() int {
	if r.Page.Unpaged {
		return 1
	}
	if r.Page.Size <= 0 {
		return 0
	}
	return (r.Total + r.Page.Size - 1) / r.Page.Size
}
