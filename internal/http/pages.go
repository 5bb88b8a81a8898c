package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/services"
)

// render executes a named template with the auth data every layout needs.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Auth"] = CurrentViewer(c)
	c.HTML(status, name, data)
}

func renderError(c *gin.Context, status int, message string) {
	render(c, status, "error", gin.H{
		"Title":  "Error",
		"Status": status,
		"Error":  message,
	})
}

// redirectToError logs an unexpected failure and sends the browser to the
// generic error page.
func redirectToError(c *gin.Context, err error, context string) {
	log.Printf("Page error (%s): %v", context, err)
	c.Redirect(http.StatusSeeOther, "/error")
}

// renderServiceError shows expected service failures in place and hides
// everything else behind /error.
func renderServiceError(c *gin.Context, err error, context string) {
	status, _ := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		redirectToError(c, err, context)
		return
	}
	renderError(c, status, errorMessage(err))
}

// errorMessage turns a bind or service error into one line for a form.
func errorMessage(err error) string {
	if details := validationDetails(err); details != nil {
		fields := make([]string, 0, len(details))
		for field, rule := range details {
			fields = append(fields, field+" ("+rule+")")
		}
		sort.Strings(fields)
		return "Please check: " + strings.Join(fields, ", ")
	}
	switch {
	case errors.Is(err, services.ErrStaleUpdate):
		return "This record was changed by someone else. Reload it and try again."
	case errors.Is(err, services.ErrDuplicateLink):
		return "The employee is already assigned to that shift."
	case errors.Is(err, services.ErrAlreadyReturned):
		return "This book has already been returned."
	}
	return err.Error()
}

// parsePageID reads :id for page routes, rendering a 404 page when it is
// not a number.
func parsePageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		renderError(c, http.StatusNotFound, "Page not found")
		return 0, false
	}
	return uint(id), true
}

func itemPath(base string, id uint) string {
	return base + "/" + strconv.FormatUint(uint64(id), 10)
}

// pageForm is a submitted HTML form that converts into a record.
type pageForm[P any] interface {
	entity() (P, error)
}

// pageResource serves the server-rendered CRUD pages of one record type.
// Templates are looked up as <tmpl>_index, <tmpl>_details and <tmpl>_form;
// the delete confirmation is shared.
//
//	GET  <path>              index
//	GET  <path>/new          blank form
//	POST <path>              create, then redirect to details
//	GET  <path>/:id          details
//	GET  <path>/:id/edit     filled form
//	POST <path>/:id/edit     update
//	GET  <path>/:id/delete   confirm
//	POST <path>/:id/delete   delete, then redirect to index
type pageResource[T any, P services.Entity[T], F pageForm[P]] struct {
	kind  string
	path  string
	tmpl  string
	title string
	svc   crudService[T, P]
	audit Auditor
	name  func(P) string

	// fill builds the edit form from a stored record.
	fill func(P) F
	// blank builds the form for a new record; the zero form when nil.
	blank func(c *gin.Context) F
	// create replaces svc.Create when set.
	create func(ctx context.Context, entity P) (P, error)
	// keep copies fields the form cannot set from the stored record.
	keep func(stored, incoming P)
	// removed runs after a successful delete.
	removed func(P)
	// options adds select choices to form pages.
	options func(c *gin.Context, data gin.H) error
	// details adds related records to the details page.
	details func(c *gin.Context, item P, data gin.H) error
}

func (p *pageResource[T, P, F]) register(g gin.IRoutes) {
	g.GET(p.path, p.Index)
	g.GET(p.path+"/new", p.New)
	g.POST(p.path, p.Create)
	g.GET(p.path+"/:id", p.Details)
	g.GET(p.path+"/:id/edit", p.Edit)
	g.POST(p.path+"/:id/edit", p.Update)
	g.GET(p.path+"/:id/delete", p.ConfirmDelete)
	g.POST(p.path+"/:id/delete", p.Delete)
}

func (p *pageResource[T, P, F]) Index(c *gin.Context) {
	items, err := p.svc.List(c.Request.Context())
	if err != nil {
		redirectToError(c, err, "list "+p.kind)
		return
	}
	render(c, http.StatusOK, p.tmpl+"_index", gin.H{
		"Title": p.title,
		"Path":  p.path,
		"Items": items,
	})
}

func (p *pageResource[T, P, F]) Details(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	item, err := p.svc.Get(c.Request.Context(), id)
	if err != nil {
		renderServiceError(c, err, "get "+p.kind)
		return
	}

	data := gin.H{
		"Title": p.name(item),
		"Path":  p.path,
		"Item":  item,
	}
	if p.details != nil {
		if err := p.details(c, item, data); err != nil {
			redirectToError(c, err, p.kind+" details")
			return
		}
	}
	render(c, http.StatusOK, p.tmpl+"_details", data)
}

func (p *pageResource[T, P, F]) New(c *gin.Context) {
	var form F
	if p.blank != nil {
		form = p.blank(c)
	}
	p.renderForm(c, http.StatusOK, form, 0, "")
}

func (p *pageResource[T, P, F]) Edit(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	item, err := p.svc.Get(c.Request.Context(), id)
	if err != nil {
		renderServiceError(c, err, "edit "+p.kind)
		return
	}
	p.renderForm(c, http.StatusOK, p.fill(item), id, "")
}

// renderForm shows the create form when id is zero and the edit form otherwise.
func (p *pageResource[T, P, F]) renderForm(c *gin.Context, status int, form F, id uint, message string) {
	data := gin.H{
		"Path":    p.path,
		"Form":    form,
		"Error":   message,
		"Editing": id != 0,
		"Action":  p.path,
		"Title":   "New " + p.kind,
	}
	if id != 0 {
		data["Action"] = itemPath(p.path, id) + "/edit"
		data["Title"] = "Edit " + p.kind
		data["ID"] = id
	}
	if p.options != nil {
		if err := p.options(c, data); err != nil {
			redirectToError(c, err, p.kind+" form")
			return
		}
	}
	render(c, status, p.tmpl+"_form", data)
}

// formFailed re-renders the form for errors the user can fix.
func (p *pageResource[T, P, F]) formFailed(c *gin.Context, form F, id uint, err error, context string) {
	status, _ := serviceErrorStatus(err)
	if validationDetails(err) != nil {
		status = http.StatusBadRequest
	}
	switch status {
	case http.StatusBadRequest, http.StatusConflict:
		p.renderForm(c, status, form, id, errorMessage(err))
	case http.StatusNotFound:
		renderError(c, status, errorMessage(err))
	default:
		redirectToError(c, err, context)
	}
}

func (p *pageResource[T, P, F]) Create(c *gin.Context) {
	var form F
	if err := c.ShouldBind(&form); err != nil {
		p.formFailed(c, form, 0, err, "create "+p.kind)
		return
	}
	entity, err := form.entity()
	if err != nil {
		p.formFailed(c, form, 0, err, "create "+p.kind)
		return
	}

	create := p.svc.Create
	if p.create != nil {
		create = p.create
	}
	created, err := create(c.Request.Context(), entity)
	if err != nil {
		p.formFailed(c, form, 0, err, "create "+p.kind)
		return
	}

	p.audit.LogCreate(actorFrom(c), p.kind, created.GetID(), p.name(created))
	c.Redirect(http.StatusSeeOther, itemPath(p.path, created.GetID()))
}

func (p *pageResource[T, P, F]) Update(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	var form F
	if err := c.ShouldBind(&form); err != nil {
		p.formFailed(c, form, id, err, "update "+p.kind)
		return
	}
	incoming, err := form.entity()
	if err != nil {
		p.formFailed(c, form, id, err, "update "+p.kind)
		return
	}
	incoming.SetID(id)

	ctx := c.Request.Context()
	if p.keep != nil {
		stored, err := p.svc.Get(ctx, id)
		if err != nil {
			p.formFailed(c, form, id, err, "update "+p.kind)
			return
		}
		p.keep(stored, incoming)
	}

	updated, err := p.svc.Update(ctx, id, incoming)
	if err != nil {
		p.formFailed(c, form, id, err, "update "+p.kind)
		return
	}

	p.audit.LogUpdate(actorFrom(c), p.kind, id, p.name(updated), updated.CurrentVersion())
	c.Redirect(http.StatusSeeOther, itemPath(p.path, id))
}

func (p *pageResource[T, P, F]) ConfirmDelete(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	item, err := p.svc.Get(c.Request.Context(), id)
	if err != nil {
		renderServiceError(c, err, "delete "+p.kind)
		return
	}
	render(c, http.StatusOK, "delete", gin.H{
		"Title":  "Delete " + p.kind,
		"Kind":   p.kind,
		"Name":   p.name(item),
		"Action": itemPath(p.path, id) + "/delete",
		"Cancel": itemPath(p.path, id),
	})
}

func (p *pageResource[T, P, F]) Delete(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	removed, err := p.svc.Remove(c.Request.Context(), id)
	if err != nil {
		renderServiceError(c, err, "delete "+p.kind)
		return
	}

	p.audit.LogDelete(actorFrom(c), p.kind, id, p.name(removed), removed)
	if p.removed != nil {
		p.removed(removed)
	}
	c.Redirect(http.StatusSeeOther, p.path)
}
