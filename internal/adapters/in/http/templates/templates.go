// internal/adapters/in/http/templates/templates.go
package templates

import (
	"embed"
	"html/template"
)

//go:embed index.html
var files embed.FS

// Index is the single portal page.
var Index = template.Must(template.ParseFS(files, "index.html"))
