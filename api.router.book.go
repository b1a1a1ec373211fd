package main

import (
	"github.com/julienschmidt/httprouter"
)

// BookRoutePrefixes lists the mount points of the books api. Both
// serve the same handlers.
var BookRoutePrefixes = []string{"/books", "/api/books"}

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", withRoute("/", m.public(api.Index)))
	router.GET("/status", withRoute("/status", m.public(api.Status)))
	for _, prefix := range BookRoutePrefixes {
		router.GET(prefix, withRoute(prefix, m.public(api.GetAllBooks)))
		router.GET(prefix+"/available", withRoute(prefix+"/available", m.public(api.GetAvailableBooks)))
		router.POST(prefix, withRoute(prefix, m.public(api.CreateBook)))
		router.PUT(prefix+"/:id", withRoute(prefix+"/:id", m.public(api.UpdateBook)))
		router.DELETE(prefix+"/:id", withRoute(prefix+"/:id", m.public(api.DeleteOneBook)))
	}
	return router
}
