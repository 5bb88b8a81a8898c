package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/entities"
	"github.com/mrlokans/staffmanager/internal/images"
	"github.com/mrlokans/staffmanager/internal/services"
)

// multipartOverhead is allowed on top of the image size limit for the
// multipart envelope and other form fields.
const multipartOverhead = 1 << 20

// imageOwner attaches stored photos to one record type. The record keeps
// the relative path; the file lives in the image store.
type imageOwner[T any, P services.Entity[T]] struct {
	kind     string
	page     string
	category images.Category
	svc      crudService[T, P]
	path     func(P) *string
	store    *images.Store
	audit    Auditor
}

// attach stores the upload, points the record at it and removes the file
// it replaced.
func (o *imageOwner[T, P]) attach(ctx context.Context, id uint, filename string, r io.Reader) (P, error) {
	owner, err := o.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rel, err := o.store.Save(o.category, filename, r)
	if err != nil {
		return nil, err
	}

	previous := *o.path(owner)
	*o.path(owner) = rel
	updated, err := o.svc.Update(ctx, id, owner)
	if err != nil {
		if delErr := o.store.Delete(rel); delErr != nil {
			log.Printf("Failed to remove unused image %s: %v", rel, delErr)
		}
		return nil, err
	}

	o.discard(previous)
	return updated, nil
}

// detach clears the record's photo and deletes the file.
func (o *imageOwner[T, P]) detach(ctx context.Context, id uint) (P, error) {
	owner, err := o.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *o.path(owner)
	if previous == "" {
		return owner, nil
	}

	*o.path(owner) = ""
	updated, err := o.svc.Update(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	o.discard(previous)
	return updated, nil
}

func (o *imageOwner[T, P]) discard(relPath string) {
	discardImage(o.store, relPath)
}

// discardImage deletes a file no record points at any more. Failures are
// logged; the orphan image task catches anything left behind.
func discardImage(store *images.Store, relPath string) {
	if store == nil || relPath == "" {
		return
	}
	if err := store.Delete(relPath); err != nil {
		log.Printf("Warning: failed to delete image %s: %v", relPath, err)
	}
}

// dropImage returns a delete hook that removes the deleted record's photo.
func dropImage[P any](store *images.Store, path func(P) *string) func(P) {
	if store == nil {
		return nil
	}
	return func(removed P) { discardImage(store, *path(removed)) }
}

func bookImage(b *entities.Book) *string         { return &b.ImagePath }
func memberImage(m *entities.Member) *string     { return &m.ImagePath }
func employeeImage(e *entities.Employee) *string { return &e.ImagePath }

// receive stores the multipart "image" field on record id and audits the
// outcome.
func (o *imageOwner[T, P]) receive(c *gin.Context, id uint) (P, error) {
	limitBody(c, o.store.MaxBytes())
	header, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	updated, err := o.attach(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			o.audit.LogUpload(actorFrom(c), o.kind, id, header.Filename, err)
		}
		return nil, err
	}
	o.audit.LogUpload(actorFrom(c), o.kind, id, *o.path(updated), nil)
	return updated, nil
}

// imageRoutes is what the router mounts for each image owner.
type imageRoutes interface {
	Upload(c *gin.Context)
	Remove(c *gin.Context)
	UploadForm(c *gin.Context)
	RemoveForm(c *gin.Context)
}

// Upload handles POST /api/<kind>s/:id/image with a multipart "image" field.
func (o *imageOwner[T, P]) Upload(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	updated, err := o.receive(c, id)
	if err != nil {
		respondUploadError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Remove handles DELETE /api/<kind>s/:id/image
func (o *imageOwner[T, P]) Remove(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := o.detach(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "remove image")
		return
	}
	o.audit.LogUpload(actorFrom(c), o.kind, id, "", nil)
	c.Status(http.StatusNoContent)
}

// UploadForm handles POST <page>/:id/image from the details page.
func (o *imageOwner[T, P]) UploadForm(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	if _, err := o.receive(c, id); err != nil {
		status := uploadErrorStatus(err)
		if status == http.StatusInternalServerError {
			redirectToError(c, err, "image upload")
			return
		}
		renderError(c, status, uploadErrorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, o.page+"/"+strconv.FormatUint(uint64(id), 10))
}

// RemoveForm handles POST <page>/:id/image/delete from the details page.
func (o *imageOwner[T, P]) RemoveForm(c *gin.Context) {
	id, ok := parsePageID(c)
	if !ok {
		return
	}
	if _, err := o.detach(c.Request.Context(), id); err != nil {
		renderServiceError(c, err, "remove image")
		return
	}
	o.audit.LogUpload(actorFrom(c), o.kind, id, "", nil)
	c.Redirect(http.StatusSeeOther, o.page+"/"+strconv.FormatUint(uint64(id), 10))
}

func limitBody(c *gin.Context, maxBytes int64) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
	}
}

// uploadErrorStatus maps upload and image store errors onto HTTP statuses.
func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, images.ErrTooLarge),
		strings.Contains(err.Error(), "request body too large"):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, images.ErrUnsupportedType), errors.Is(err, images.ErrUndecodable):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, images.ErrEmpty), errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return http.StatusBadRequest
	}
	status, _ := serviceErrorStatus(err)
	return status
}

func uploadErrorMessage(err error) string {
	switch uploadErrorStatus(err) {
	case http.StatusRequestEntityTooLarge:
		return images.ErrTooLarge.Error()
	case http.StatusBadRequest:
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "choose an image to upload"
		}
	}
	return err.Error()
}

func respondUploadError(c *gin.Context, err error) {
	switch status := uploadErrorStatus(err); status {
	case http.StatusInternalServerError:
		respondInternalError(c, err, "image upload")
	case http.StatusRequestEntityTooLarge:
		c.JSON(status, ErrorResponse{Error: uploadErrorMessage(err), Code: "too_large"})
	case http.StatusUnsupportedMediaType:
		c.JSON(status, ErrorResponse{Error: uploadErrorMessage(err), Code: "unsupported_media_type"})
	default:
		_, code := serviceErrorStatus(err)
		c.JSON(status, ErrorResponse{Error: uploadErrorMessage(err), Code: code})
	}
}

func newBookImages(svc *services.BookService, store *images.Store, a Auditor) *imageOwner[entities.Book, *entities.Book] {
	return &imageOwner[entities.Book, *entities.Book]{
		kind:     "book",
		page:     "/books",
		category: images.Books,
		svc:      svc,
		path:     bookImage,
		store:    store,
		audit:    auditorOrNop(a),
	}
}

func newMemberImages(svc *services.MemberService, store *images.Store, a Auditor) *imageOwner[entities.Member, *entities.Member] {
	return &imageOwner[entities.Member, *entities.Member]{
		kind:     "member",
		page:     "/members",
		category: images.Members,
		svc:      svc,
		path:     memberImage,
		store:    store,
		audit:    auditorOrNop(a),
	}
}

func newEmployeeImages(svc *services.EmployeeService, store *images.Store, a Auditor) *imageOwner[entities.Employee, *entities.Employee] {
	return &imageOwner[entities.Employee, *entities.Employee]{
		kind:     "employee",
		page:     "/employees",
		category: images.Employees,
		svc:      svc,
		path:     employeeImage,
		store:    store,
		audit:    auditorOrNop(a),
	}
}
