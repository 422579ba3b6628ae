package server

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"optional": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.DateOnly)
	},
	"timestamp": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
}).ParseFS(templateFiles, "templates/*.tmpl"))

type pageHandler struct {
	contacts Contacts
}

// index renders the table of all contacts, newest first.
//
//	> curl http://localhost:8080/
func (h *pageHandler) index(c *gin.Context) {
	ctx := c.Request.Context()
	contacts, err := h.contacts.List(ctx, model.Page{})
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "could not list contacts", "error", err)
		c.HTML(http.StatusInternalServerError, "error.tmpl", gin.H{"Message": "The contacts could not be loaded."})
		return
	}
	c.HTML(http.StatusOK, "index.tmpl", gin.H{"Contacts": contacts})
}
