package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contact-manager/internal/logger"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/service"
)

type apiHandler struct {
	contacts Contacts
}

// findContacts responds with the list of all contacts as JSON, newest first.
//
// The URL parameter 'limit' specifies how many contacts are returned. The URL parameter 'offset'
// specifies how many items from the sorted list are skipped in the beginning. Together with the
// 'limit' parameter, one can implement paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/api/contacts"
//	> curl "http://localhost:8080/api/contacts?limit=20&offset=60"
func (h *apiHandler) findContacts(c *gin.Context) {
	page, ok := parseLimitAndOffset(c)
	if !ok {
		return
	}
	contacts, err := h.contacts.List(c.Request.Context(), page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// parseLimitAndOffset inspects the URL parameters and determines limit and offset of the result
// set. A missing limit means all contacts.
func parseLimitAndOffset(c *gin.Context) (page model.Page, success bool) {
	if limit := c.Query("limit"); limit != "" {
		limitAsInt, errConv := strconv.Atoi(limit)
		if errConv != nil || limitAsInt < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return model.Page{}, false
		}
		page.Limit = limitAsInt
	}
	if offset := c.Query("offset"); offset != "" {
		offsetAsInt, errConv := strconv.Atoi(offset)
		if errConv != nil || offsetAsInt < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid offset parameter"})
			return model.Page{}, false
		}
		page.Offset = offsetAsInt
	}
	return page, true
}

// parseID reads the id parameter of the request URL. Non-numeric ids cannot match any contact and
// are answered with NOT FOUND right away.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56
func (h *apiHandler) findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := h.contacts.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// createContact inserts the contact specified in the request's JSON into the database. It responds
// with the full contact data including the newly assigned id and both timestamps. An id in the
// request body is ignored.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"name": "Hans Wurst", "mobilePhone": "0815", "birthDate": "1969-03-02"}'
func (h *apiHandler) createContact(c *gin.Context) {
	var input model.Contact
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/contacts/%d", contact.Id))
	c.IndentedJSON(http.StatusCreated, contact)
}

// updateContactByID replaces name, mobile phone, job title and birth date of the contact whose ID
// value matches the id parameter of the request URL. The body must carry the same id. It responds
// with the new version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"id": 56, "name": "Hans Wurst", "mobilePhone": "81970"}'
func (h *apiHandler) updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input model.Contact
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), id, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact updated", "contact": contact})
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request URL
// from the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "DELETE"
func (h *apiHandler) deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.contacts.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

// writeError answers a failed request. Validation errors carry their message to the client,
// everything unexpected is logged and hidden behind a generic message.
func writeError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": validationErr.Message})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	default:
		ctx := c.Request.Context()
		logger.FromContext(ctx).ErrorContext(ctx, "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
