package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/roach88/docrest/internal/rest"
)

// XHRHeader marks requests that want JSON responses.
const XHRHeader = "X-Requested-With"

// payload is the JSON body shape of create and update.
type payload struct {
	NewResource map[string]any `json:"newResource"`
}

// newRequest adapts a gin request. Submitted values are read from a JSON
// body {"newResource": {...}} or from form fields newResource[name].
func newRequest(c *gin.Context) *rest.Request {
	req := &rest.Request{
		ResourceName: c.Param("resource"),
		ID:           c.Param("id"),
		XHR:          isXHR(c),
		HTTP:         c.Request,
	}

	switch c.Request.Method {
	case "POST", "PUT":
	default:
		return req
	}

	if c.ContentType() == binding.MIMEJSON {
		var body payload
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return req
		}
		if body.NewResource != nil {
			req.Values = body.NewResource
			req.HasValues = true
		}
		return req
	}

	if form, ok := c.GetPostFormMap(rest.ValuesField); ok {
		req.Values = make(map[string]any, len(form))
		for k, v := range form {
			req.Values[k] = v
		}
		req.HasValues = true
	}
	return req
}

func isXHR(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader(XHRHeader), "XMLHttpRequest")
}
