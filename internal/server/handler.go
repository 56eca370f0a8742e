package server

import (
	"net/http"

	"go.uber.org/fx"
)

// HttpHandler binds a handler to a ServeMux pattern, such as
// "GET /health" or "/rpc".
type HttpHandler struct {
	Pattern string
	Handler http.Handler
}

type HttpHandlerResult struct {
	fx.Out

	Handler *HttpHandler `group:"handlers"`
}

func AsHttpHandler(
	pattern string,
	handler http.Handler,
) HttpHandlerResult {
	return HttpHandlerResult{
		Handler: &HttpHandler{
			Pattern: pattern,
			Handler: handler,
		},
	}
}
