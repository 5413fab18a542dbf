// Package server exposes a rest.Service over HTTP with gin.
//
// For a URL prefix P the routes are:
//
//	GET    P:resource        list
//	POST   P:resource        create
//	GET    P:resource/:id    fetch
//	PUT    P:resource/:id    update
//	DELETE P:resource/:id    delete
//	POST   P:resource/:id    update or delete, chosen by the _method form field
//
// Every route first resolves the request; entity routes then load the
// document. A request naming no registered resource falls through and
// ends with 404.
//
// Flash messages survive the redirect in the docrest_flash cookie and are
// handed to the next rendered view under "flash".
package server
