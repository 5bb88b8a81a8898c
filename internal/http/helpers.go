package http

import (
	"errors"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/staffmanager/internal/audit"
	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/services"
)

func init() {
	// Report validation failures by their JSON or form field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// PaginatedResponse wraps one page of a listing.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

const (
	codeInvalid  = "invalid_argument"
	codeNotFound = "not_found"
)

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: codeInvalid})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: codeNotFound})
}

// respondInternalError logs err under what and answers with a bare 500.
func respondInternalError(c *gin.Context, err error, what string) {
	log.Printf("Internal error (%s): %v", what, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondBindError answers a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	details := validationDetails(err)
	if details == nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Code: codeInvalid, Details: details})
}

// validationDetails lists the broken rule per field, e.g. {"email": "email"},
// or returns nil when err is not a validation failure.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = strings.TrimSuffix(fe.Tag()+"="+fe.Param(), "=")
	}
	return details
}

// serviceErrors maps service sentinels to status and code. Order matters:
// the specific conflicts wrap ErrConflict.
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNotFound, http.StatusNotFound, codeNotFound},
	{services.ErrInvalidArgument, http.StatusBadRequest, codeInvalid},
	{services.ErrDuplicateLink, http.StatusConflict, "duplicate_link"},
	{services.ErrStaleUpdate, http.StatusConflict, "stale_update"},
	{services.ErrAlreadyReturned, http.StatusConflict, "already_returned"},
	{services.ErrConflict, http.StatusConflict, "conflict"},
}

func serviceErrorStatus(err error) (int, string) {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			return se.status, se.code
		}
	}
	return http.StatusInternalServerError, ""
}

// respondServiceError answers with the status matching err. Unknown errors
// are logged and hidden.
func respondServiceError(c *gin.Context, err error, what string) {
	status, code := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, what)
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func parseID(c *gin.Context, name, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// parseIDParam reads a path id, answering 400 when it is not a number.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	return parseID(c, name, c.Param(name))
}

// parseQueryID reads a required query id.
func parseQueryID(c *gin.Context, name string) (uint, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		respondBadRequest(c, name+" is required")
		return 0, false
	}
	return parseID(c, name, raw)
}

// actorFrom identifies the caller for audit records.
func actorFrom(c *gin.Context) audit.Actor {
	return audit.Actor{
		UserID:    auth.GetUserID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
