package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/services"
)

// crudService is the part of services.CRUD the handlers use.
type crudService[T any, P services.Entity[T]] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id uint) (P, error)
	Create(ctx context.Context, entity P) (P, error)
	Update(ctx context.Context, id uint, entity P) (P, error)
	Remove(ctx context.Context, id uint) (P, error)
}

// entityRequest is a request body that converts into a record.
type entityRequest[P any] interface {
	entity() P
}

// resource serves JSON CRUD for one record type:
//
//	GET    <path>      list
//	POST   <path>      create, 201
//	GET    <path>/:id  get
//	PUT    <path>/:id  full replace, body id must equal :id
//	DELETE <path>/:id  delete, 204
type resource[T any, P services.Entity[T], R entityRequest[P]] struct {
	kind  string
	svc   crudService[T, P]
	audit Auditor
	name  func(P) string

	// create replaces svc.Create when set.
	create func(ctx context.Context, entity P) (P, error)
	// keep copies fields the request cannot set from the stored record.
	keep func(stored, incoming P)
	// removed runs after a successful delete.
	removed func(P)
}

func (r *resource[T, P, R]) register(g gin.IRoutes, path string) {
	g.GET(path, r.List)
	g.POST(path, r.Create)
	g.GET(path+"/:id", r.Get)
	g.PUT(path+"/:id", r.Update)
	g.DELETE(path+"/:id", r.Delete)
}

func (r *resource[T, P, R]) List(c *gin.Context) {
	items, err := r.svc.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list "+r.kind)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (r *resource[T, P, R]) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := r.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get "+r.kind)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r *resource[T, P, R]) Create(c *gin.Context) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	create := r.svc.Create
	if r.create != nil {
		create = r.create
	}
	created, err := create(c.Request.Context(), req.entity())
	if err != nil {
		respondServiceError(c, err, "create "+r.kind)
		return
	}

	r.audit.LogCreate(actorFrom(c), r.kind, created.GetID(), r.name(created))
	c.JSON(http.StatusCreated, created)
}

func (r *resource[T, P, R]) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	incoming := req.entity()
	if r.keep != nil {
		stored, err := r.svc.Get(ctx, id)
		if err != nil {
			respondServiceError(c, err, "update "+r.kind)
			return
		}
		r.keep(stored, incoming)
	}

	updated, err := r.svc.Update(ctx, id, incoming)
	if err != nil {
		respondServiceError(c, err, "update "+r.kind)
		return
	}

	r.audit.LogUpdate(actorFrom(c), r.kind, id, r.name(updated), updated.CurrentVersion())
	c.JSON(http.StatusOK, updated)
}

func (r *resource[T, P, R]) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	removed, err := r.svc.Remove(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "delete "+r.kind)
		return
	}

	r.audit.LogDelete(actorFrom(c), r.kind, id, r.name(removed), removed)
	if r.removed != nil {
		r.removed(removed)
	}
	c.Status(http.StatusNoContent)
}
