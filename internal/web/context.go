package web

import (
	"context"
	"net/http"
)

// detach returns a context with the request's values (request id, user id)
// that is not cancelled when the client goes away. File reads and batch
// inserts are never cancelled halfway.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
