// Package web holds the console's HTML templates.
package web

import "embed"

// Templates holds layout.html plus one file per page. Each page defines a
// "content" template rendered inside the layout.
//
//go:embed templates/*.html
var Templates embed.FS
