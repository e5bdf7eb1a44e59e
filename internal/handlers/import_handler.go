package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"office-management-backend/internal/middleware"
	"office-management-backend/internal/services/importer"
)

type ImportHandler struct {
	service        *importer.Service
	maxUploadBytes int64
}

func NewImportHandler(service *importer.Service, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Upload stages a client import: the file is validated in full, persisted to
// the blob store and recorded as a pending job. Nothing is written to the
// client table until the operator confirms.
func (h *ImportHandler) Upload(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}
	defer file.Close()

	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File exceeds the upload size limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" && ext != ".xls" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Only .csv, .xlsx and .xls files are supported"})
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not read uploaded file"})
		return
	}

	result, err := h.service.UploadAndPreview(c.Request.Context(), importer.Actor{
		UserID:   ident.UserID,
		OfficeID: ident.OfficeID,
	}, importer.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        buf.Bytes(),
	})
	if err != nil {
		var parseErr *importer.ParseError
		if errors.As(err, &parseErr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Error processing file upload", "error": parseErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error processing file upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"job":        result.Job,
			"validation": result.Validation,
		},
	})
}

// Confirm executes a staged import under the requested merge policy.
func (h *ImportHandler) Confirm(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)

	var payload struct {
		ImportJobID string `json:"import_job_id" binding:"required"`
		ImportMode  string `json:"import_mode" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide valid import_job_id and import_mode"})
		return
	}

	jobID, err := uuid.Parse(payload.ImportJobID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid import job ID"})
		return
	}
	mode, err := importer.ParseMode(payload.ImportMode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide valid import_job_id and import_mode"})
		return
	}

	counts, err := h.service.Confirm(c.Request.Context(), importer.Actor{
		UserID:   ident.UserID,
		OfficeID: ident.OfficeID,
	}, jobID, mode)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Import job not found"})
		case errors.Is(err, importer.ErrJobNotPending):
			c.JSON(http.StatusConflict, gin.H{"message": "Import job has already been processed"})
		case errors.Is(err, importer.ErrDuplicateKey):
			c.JSON(http.StatusConflict, gin.H{"message": "A concurrent import created a conflicting PAN; please retry"})
		default:
			var parseErr *importer.ParseError
			if errors.As(err, &parseErr) {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Error confirming import", "error": parseErr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error confirming import"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": counts})
}

// GetJob reports a job's progress and status.
func (h *ImportHandler) GetJob(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid import job ID"})
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), importer.Actor{
		UserID:   ident.UserID,
		OfficeID: ident.OfficeID,
	}, jobID)
	if err != nil {
		if errors.Is(err, importer.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Import job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching import job"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         job.Status,
		"total_rows":     job.TotalRows,
		"processed_rows": job.ProcessedRows,
		"metadata":       job.Metadata,
	})
}
