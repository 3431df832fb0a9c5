package render

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// Templates parses the console templates; "page" is the full screen and
// "rows" the table body fragment.
func Templates() *template.Template {
	return template.Must(template.New("console").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))
}
