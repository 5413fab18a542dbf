// Package rest implements the CRUD actions served for every resource.
//
// Each action follows one recipe: resolve the resource, build the hook
// Info, run the primary hooks, perform the store operation, run the
// success hooks, then render or redirect. Failures at any of those steps
// take the same branch: the error hooks run and the cause is rendered
// wrapped in an ActionError ("Unable to save the record: ...").
//
// Actions are transport independent. They read a Request and answer
// through a Responder; internal/server adapts both to gin.
package rest
