// Package web holds the HTML templates, embedded into the binary.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	html "github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templates embed.FS

// Engine returns a template engine over the embedded templates.
func Engine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("price", func(v float64) string { return fmt.Sprintf("₹%.2f", v) })
	engine.AddFunc("date", func(t time.Time) string { return t.Local().Format("02 Jan 2006, 15:04") })
	return engine
}
