package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fira-backend/models"
	"fira-backend/service"

	"github.com/gin-gonic/gin"
)

// JudgementHandler handles HTTP requests for the annotator workflow
type JudgementHandler struct {
	preloadService   *service.PreloadService
	judgementService *service.JudgementService
}

// NewJudgementHandler creates a new judgement handler
func NewJudgementHandler(preloadService *service.PreloadService, judgementService *service.JudgementService) *JudgementHandler {
	return &JudgementHandler{
		preloadService:   preloadService,
		judgementService: judgementService,
	}
}

// Preload handles POST /api/pool
func (h *JudgementHandler) Preload(c *gin.Context) {
	user := CurrentUser(c)

	result, err := h.preloadService.Preload(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) ||
			errors.Is(err, service.ErrConfigNotFound) ||
			errors.Is(err, service.ErrVersionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRELOAD_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Submit handles PUT /api/judgements/:id
func (h *JudgementHandler) Submit(c *gin.Context) {
	user := CurrentUser(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid judgement ID format",
			},
		})
		return
	}

	var sub models.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	judgement, err := h.judgementService.Submit(c.Request.Context(), user.ID, id, sub)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJudgementNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Judgement not found",
				},
			})
		case errors.Is(err, service.ErrNotJudgementOwner):
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Judgement belongs to a different user",
				},
			})
		case errors.Is(err, service.ErrPositionOutOfBounds):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "POSITION_OUT_OF_BOUNDS",
					"message": err.Error(),
				},
			})
		case errors.Is(err, service.ErrSubmissionConflict):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONFLICT",
					"message": err.Error(),
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SUBMIT_FAILED",
					"message": err.Error(),
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    judgement,
	})
}

// SubmitFeedbackRequest represents the request body for feedback
type SubmitFeedbackRequest struct {
	Text string `json:"text" binding:"required"`
}

// SubmitFeedback handles POST /api/feedback
func (h *JudgementHandler) SubmitFeedback(c *gin.Context) {
	user := CurrentUser(c)

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	feedback, err := h.judgementService.SubmitFeedback(c.Request.Context(), user.ID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrEmptyFeedback) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_REQUEST",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FEEDBACK_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    feedback,
	})
}
