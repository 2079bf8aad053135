package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by feature handlers that attach their routes to the
// application router.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
