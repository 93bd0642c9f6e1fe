package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/evyataryagoni/geolegacy/internal/handler"
)

// SetupRoutes configures the /v1 API
//
//	GET /v1/lookup?ip=<ip>[&db=<name>]
//	GET /v1/databases
func SetupRoutes(lookupHandler *handler.LookupHandler) chi.Router {
	r := chi.NewRouter()

	r.Get("/lookup", lookupHandler.Lookup)
	r.Get("/databases", lookupHandler.Databases)

	return r
}
