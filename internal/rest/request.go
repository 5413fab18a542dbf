package rest

import (
	"net/http"

	"github.com/roach88/docrest/internal/store"
)

// ValuesField is the body field holding submitted document values.
const ValuesField = "newResource"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Request is the transport-independent input of an action.
type Request struct {
	// ResourceName is the name used in the URL, singular or plural.
	ResourceName string

	// ID is the entity id for entity routes.
	ID string

	// Values holds the submitted newResource fields.
	Values map[string]any

	// HasValues reports whether newResource was present in the body.
	HasValues bool

	// XHR reports whether the client asked for a JSON response.
	XHR bool

	// HTTP is the underlying request, handed to hooks. May be nil.
	HTTP *http.Request

	// Doc is the entity loaded by LoadEntity.
	Doc *store.Document
}

// Responder produces the response of an action.
type Responder interface {
	// Render renders an HTML view.
	Render(view string, data map[string]any)

	// Send writes a JSON body.
	Send(body any)

	// Redirect sends the client to url.
	Redirect(url string)

	// Flash stores a message for the next rendered page.
	Flash(kind, message string)

	// Fail hands err to the upstream error handler.
	Fail(err error)
}
