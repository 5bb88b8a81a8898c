package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/staffmanager/internal/audit"
	dbaudit "github.com/mrlokans/staffmanager/internal/database/audit"
	"github.com/mrlokans/staffmanager/internal/entities"
)

func setupAuditServer(t *testing.T) (*testServer, *audit.Service) {
	t.Helper()
	var service *audit.Service
	ts := setupTestServerWith(t, func(cfg *RouterConfig) {
		archiver := audit.NewArchiver(filepath.Join(t.TempDir(), "archive"))
		service = audit.NewService(dbaudit.NewRepository(cfg.Database.DB), archiver)
		cfg.Auditor = service
		cfg.Audit = service
	})
	return ts, service
}

func TestAuditAPI_RecordsChanges(t *testing.T) {
	ts, service := setupAuditServer(t)

	w := ts.do(t, "POST", "/api/books", gin.H{"title": "Lavinia", "author": "Ursula K. Le Guin"})
	require.Equal(t, http.StatusCreated, w.Code)
	book := decode[entities.Book](t, w)

	w = ts.do(t, "DELETE", fmt.Sprintf("/api/books/%d", book.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	service.Wait()

	w = ts.do(t, "GET", "/api/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Data  []entities.AuditEvent `json:"data"`
		Total int64                 `json:"total"`
	}](t, w)
	assert.Equal(t, int64(2), page.Total)

	w = ts.do(t, "GET", "/api/audit?type=delete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	deletes := decode[struct {
		Data []entities.AuditEvent `json:"data"`
	}](t, w)
	require.Len(t, deletes.Data, 1)
	assert.Equal(t, "book", deletes.Data[0].EntityType)
	assert.Contains(t, string(deletes.Data[0].Metadata), "archive")

	w = ts.do(t, "GET", fmt.Sprintf("/api/audit/book/%d", book.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]entities.AuditEvent](t, w)
	require.Len(t, history, 2)
	assert.Equal(t, entities.AuditEventCreate, history[0].EventType)
	assert.Equal(t, entities.AuditEventDelete, history[1].EventType)
}

func TestAuditPage(t *testing.T) {
	ts, service := setupAuditServer(t)
	ts.do(t, "POST", "/api/members", gin.H{"first_name": "Therru", "last_name": "Gont"})
	service.Wait()

	w := ts.do(t, "GET", "/audit", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Created member: Therru Gont")
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, totalPages(0, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
}
