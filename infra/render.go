package infra

import (
	"os"

	"github.com/unrolled/render"
)

type Render = *render.Render

// NewRender creates renderer of api replies.
// Replies are indented in development environment.
func NewRender() Render {
	dev := os.Getenv("GO_ENV") == "development"
	return render.New(render.Options{
		IndentJSON:    dev,
		IndentXML:     dev,
		IsDevelopment: dev,
	})
}
