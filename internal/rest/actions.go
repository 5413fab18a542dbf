package rest

import (
	"context"

	"github.com/roach88/docrest/internal/intercept"
	"github.com/roach88/docrest/internal/resource"
)

// Every action returns false when req names no registered resource. The
// caller then passes the request on; nothing was written to w.

// List renders every document of the collection. The get hooks run once
// per document before rendering.
func (s *Service) List(ctx context.Context, req *Request, w Responder) bool {
	res, ok := s.registry.Lookup(req.ResourceName)
	if !ok {
		return false
	}

	docs, err := res.Model.Find().Sort(res.Sort).Exec(ctx)
	if err != nil {
		s.renderError(res, req, w, err)
		return true
	}

	info := &intercept.Info{Docs: docs}
	if err := s.wait(ctx, req, intercept.EventGetCollection, info); err != nil {
		s.renderError(res, req, w, err)
		return true
	}

	s.renderCollection(res, req, w, docs)
	return true
}

// Create inserts a document built from req.Values and redirects to the
// collection.
func (s *Service) Create(ctx context.Context, req *Request, w Responder) bool {
	res, ok := s.registry.Lookup(req.ResourceName)
	if !ok {
		return false
	}

	info := &intercept.Info{Values: req.Values}
	if !req.HasValues {
		s.fail(ctx, res, req, w, ActionInsert, intercept.EventPostError, info, errNothingSubmitted())
		return true
	}

	if err := s.wait(ctx, req, intercept.EventPost, info); err != nil {
		s.fail(ctx, res, req, w, ActionInsert, intercept.EventPostError, info, err)
		return true
	}

	doc := res.Model.New(info.Values)
	info.Doc = doc
	if err := res.Model.Save(ctx, doc); err != nil {
		s.fail(ctx, res, req, w, ActionInsert, intercept.EventPostError, info, err)
		return true
	}

	if err := s.wait(ctx, req, intercept.EventPostSuccess, info); err != nil {
		s.fail(ctx, res, req, w, ActionInsert, intercept.EventPostError, info, err)
		return true
	}

	s.succeed(res, req, w, doc, "Successfully created the record.", s.CollectionURL(req.ResourceName))
	return true
}

// LoadEntity loads the document named by req.ID into req.Doc. It is the
// guard in front of the entity actions.
//
// When loading fails the client is sent back to the collection and
// req.Doc stays nil; the caller must not run the entity action.
func (s *Service) LoadEntity(ctx context.Context, req *Request, w Responder) bool {
	res, ok := s.registry.Lookup(req.ResourceName)
	if !ok {
		return false
	}

	doc, err := res.Model.FindOne(ctx, req.ID)
	if err != nil {
		s.logger.Debug("entity not loaded", "resource", res.SingularName, "id", req.ID, "error", err)
		s.bounce(res, req, w, err)
		return true
	}
	req.Doc = doc
	return true
}

// Fetch renders the loaded entity after its get hooks.
func (s *Service) Fetch(ctx context.Context, req *Request, w Responder) bool {
	res, ok := s.registry.Lookup(req.ResourceName)
	if !ok {
		return false
	}
	if !s.ensureDoc(ctx, res, req, w) {
		return true
	}

	info := &intercept.Info{Doc: req.Doc}
	if err := s.wait(ctx, req, intercept.EventGet, info); err != nil {
		s.bounce(res, req, w, err)
		return true
	}

	s.renderEntity(res, req, w, info.Doc)
	return true
}

// Update applies req.Values to the loaded entity and saves it.
func (s *Service) Update(ctx context.Context, req *Request, w Responder) bool {
	res, ok := s.registry.Lookup(req.ResourceName)
	if !ok {
		return false
	}
	if !s.ensureDoc(ctx, res, req, w) {
		return true
	}

	info := &intercept.Info{Doc: req.Doc, Values: req.Values}
	if !req.HasValues {
		s.fail(ctx, res, req, w, ActionSave, intercept.EventPutError, info, errNothingSubmitted())
		return true
	}

	if err := s.wait(ctx, req, intercept.EventPut, info); err != nil {
		s.fail(ctx, res, req, w, ActionSave, intercept.EventPutError, info, err)
		return true
	}

	req.Doc.Apply(info.Values)
	if err := res.Model.Save(ctx, req.Doc); err != nil {
		s.fail(ctx, res, req, w, ActionSave, intercept.EventPutError, info, err)
		return true
	}

	if err := s.wait(ctx, req, intercept.EventPutSuccess, info); err != nil {
		s.fail(ctx, res, req, w, ActionSave, intercept.EventPutError, info, err)
		return true
	}

	url := s.CollectionURL(req.ResourceName)
	if res.SingleView {
		url = s.EntityURL(req.ResourceName, req.Doc.ID)
	}
	s.succeed(res, req, w, req.Doc, "Successfully updated the record.", url)
	return true
}

// Delete removes the loaded entity.
func (s *Service) Delete(ctx context.Context, req *Request, w Responder) bool {
	res, ok := s.registry.Lookup(req.ResourceName)
	if !ok {
		return false
	}
	if !s.ensureDoc(ctx, res, req, w) {
		return true
	}

	info := &intercept.Info{Doc: req.Doc}
	if err := s.wait(ctx, req, intercept.EventDelete, info); err != nil {
		s.fail(ctx, res, req, w, ActionDelete, intercept.EventDeleteError, info, err)
		return true
	}

	if err := res.Model.Remove(ctx, req.Doc); err != nil {
		s.fail(ctx, res, req, w, ActionDelete, intercept.EventDeleteError, info, err)
		return true
	}

	if err := s.wait(ctx, req, intercept.EventDeleteSuccess, info); err != nil {
		s.fail(ctx, res, req, w, ActionDelete, intercept.EventDeleteError, info, err)
		return true
	}

	s.succeed(res, req, w, req.Doc, "Successfully deleted the record.", s.CollectionURL(req.ResourceName))
	return true
}

// ensureDoc loads req.Doc when the guard did not run. Returns false when
// a response was already written.
func (s *Service) ensureDoc(ctx context.Context, res *resource.Resource, req *Request, w Responder) bool {
	if req.Doc != nil {
		return true
	}
	doc, err := res.Model.FindOne(ctx, req.ID)
	if err != nil {
		s.bounce(res, req, w, err)
		return false
	}
	req.Doc = doc
	return true
}

// bounce reports err and sends the client back to the collection.
func (s *Service) bounce(res *resource.Resource, req *Request, w Responder, err error) {
	if s.xhr(res, req) {
		w.Send(map[string]any{"error": causeOf(err).Error()})
		return
	}
	w.Flash(FlashError, causeOf(err).Error())
	w.Redirect(s.CollectionURL(req.ResourceName))
}
