package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by each HTTP-facing context (availability, sessions,
// recurring) so the application can mount them all on one router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
