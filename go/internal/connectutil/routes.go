package connectutil

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Routes collects the unary handlers of one service under its path prefix.
type Routes struct {
	service string
	mux     *http.ServeMux
}

func NewRoutes(service string) *Routes {
	return &Routes{service: service, mux: http.NewServeMux()}
}

// Unary registers fn as service/method.
func Unary[Req, Res any](r *Routes, method string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error)) {
	procedure := Procedure(r.service, method)
	r.mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, HandlerOptions()...))
}

// Handler returns the path prefix and handler to mount on a server mux.
func (r *Routes) Handler() (string, http.Handler) {
	return "/" + r.service + "/", r.mux
}
