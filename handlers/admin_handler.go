package handlers

import (
	"errors"
	"net/http"
	"strings"

	"fira-backend/models"
	"fira-backend/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles HTTP requests for the admin backend
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ImportPairs handles POST /api/admin/import/pairs
func (h *AdminHandler) ImportPairs(c *gin.Context) {
	count, err := h.adminService.ImportPairs(c.Request.Context(), c.Request.Body)
	if err != nil {
		h.importError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"imported": count},
	})
}

// ImportDocuments handles POST /api/admin/import/documents
func (h *AdminHandler) ImportDocuments(c *gin.Context) {
	count, err := h.adminService.ImportDocuments(c.Request.Context(), c.Request.Body)
	if err != nil {
		h.importError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"imported": count},
	})
}

// ImportQueries handles POST /api/admin/import/queries
func (h *AdminHandler) ImportQueries(c *gin.Context) {
	count, err := h.adminService.ImportQueries(c.Request.Context(), c.Request.Body)
	if err != nil {
		h.importError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"imported": count},
	})
}

// ExportJudgements handles GET /api/admin/export/judgements
func (h *AdminHandler) ExportJudgements(c *gin.Context) {
	archiveSnapshot := c.Query("archive") == "true"

	data, err := h.adminService.ExportJudgements(c.Request.Context(), archiveSnapshot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EXPORT_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="judgements.tsv"`)
	c.Data(http.StatusOK, "text/tab-separated-values", data)
}

// GetArchivedExport handles GET /api/admin/export/archive/*key
func (h *AdminHandler) GetArchivedExport(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	snapshot, err := h.adminService.ArchivedExport(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrNoArchive) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ARCHIVE_UNAVAILABLE",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No archived export with this key",
			},
		})
		return
	}
	defer snapshot.Close()

	c.Header("Content-Disposition", `attachment; filename="judgements.tsv"`)
	c.DataFromReader(http.StatusOK, -1, "text/tab-separated-values", snapshot, nil)
}

// GetConfig handles GET /api/admin/config
func (h *AdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.adminService.GetConfig(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Annotation config not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cfg,
	})
}

// UpdateConfig handles PUT /api/admin/config
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	var cfg models.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.adminService.UpdateConfig(c.Request.Context(), &cfg); err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CONFIG",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cfg,
	})
}

func (h *AdminHandler) importError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrMalformedImport) || errors.Is(err, service.ErrEmptyImport) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_IMPORT",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "IMPORT_FAILED",
			"message": err.Error(),
		},
	})
}
