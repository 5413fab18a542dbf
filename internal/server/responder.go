package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FlashCookie carries flash messages across a redirect.
const FlashCookie = "docrest_flash"

// FlashMessage is one flash entry handed to views under "flash".
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// responder implements rest.Responder on a gin context.
type responder struct {
	c       *gin.Context
	html    bool
	onFail  ErrorHandler
	pending []FlashMessage
}

// Render renders view with data plus the flash messages of the previous
// request. Without templates the data is written as JSON.
func (r *responder) Render(view string, data map[string]any) {
	if flashes := append(r.consumeFlash(), r.pending...); len(flashes) > 0 {
		data["flash"] = flashes
	}
	r.pending = nil
	if !r.html {
		r.c.JSON(http.StatusOK, data)
		return
	}
	r.c.HTML(http.StatusOK, view, data)
}

func (r *responder) Send(body any) {
	r.c.JSON(http.StatusOK, body)
}

// Redirect answers with 303 so browsers follow up with GET after a PUT,
// POST or DELETE.
func (r *responder) Redirect(url string) {
	r.writeFlash()
	r.c.Redirect(http.StatusSeeOther, url)
}

func (r *responder) Flash(kind, message string) {
	r.pending = append(r.pending, FlashMessage{Kind: kind, Message: message})
}

func (r *responder) Fail(err error) {
	_ = r.c.Error(err)
	r.onFail(r.c, err)
}

func (r *responder) writeFlash() {
	if len(r.pending) == 0 {
		return
	}
	raw, err := json.Marshal(r.pending)
	if err != nil {
		return
	}
	r.pending = nil
	r.c.SetSameSite(http.SameSiteLaxMode)
	r.c.SetCookie(FlashCookie, base64.RawURLEncoding.EncodeToString(raw), 0, "/", "", false, true)
}

// consumeFlash reads and clears the flash cookie.
func (r *responder) consumeFlash() []FlashMessage {
	value, err := r.c.Cookie(FlashCookie)
	if err != nil || value == "" {
		return nil
	}
	r.c.SetCookie(FlashCookie, "", -1, "/", "", false, true)
	return DecodeFlash(value)
}

// DecodeFlash parses a flash cookie value. Malformed values yield nil.
func DecodeFlash(value string) []FlashMessage {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []FlashMessage
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil
	}
	return flashes
}
