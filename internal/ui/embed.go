// Package ui holds the HTML pages served by the honeypot: the chat landing
// page and the API tester.
package ui

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	IndexPage  = "index.html"
	TesterPage = "test.html"
)

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
