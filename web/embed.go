// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the stylesheets and scripts served under /static/.
func StaticFS() fs.FS { return mustSub("static") }

// TemplatesFS returns the page templates.
func TemplatesFS() fs.FS { return mustSub("templates") }

// mustSub panics only if dir was not embedded, which the go:embed
// directive above rules out at build time.
func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
