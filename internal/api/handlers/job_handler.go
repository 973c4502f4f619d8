// internal/api/handlers/job_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"logiledger-api-server/internal/service"
)

// maxInvoiceFileSize bounds multipart invoice uploads.
const maxInvoiceFileSize = 10 << 20

type JobHandler struct {
	Jobs *service.JobService
}

type UploadInvoiceRequest struct {
	InvoiceData map[string]interface{} `json:"invoiceData"`
}

func (h *JobHandler) ListAwarded(c *gin.Context) {
	jobs, err := h.Jobs.ListAwarded(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "list awarded jobs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": orEmpty(jobs)})
}

func (h *JobHandler) ListForCompany(c *gin.Context) {
	jobs, err := h.Jobs.ListForCompany(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err, "list company jobs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": orEmpty(jobs)})
}

func (h *JobHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Status is required")
		return
	}

	job, err := h.Jobs.UpdateStatus(c.Request.Context(), currentUser(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "update job status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     job,
		"message": fmt.Sprintf("Job status updated to %s", job.Status),
	})
}

func (h *JobHandler) UploadInvoice(c *gin.Context) {
	var req UploadInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindingMessage(err))
		return
	}
	if req.InvoiceData == nil {
		badRequest(c, "Invoice data is required")
		return
	}

	job, err := h.Jobs.UploadInvoice(c.Request.Context(), currentUser(c), c.Param("id"), req.InvoiceData)
	if err != nil {
		respondError(c, err, "upload invoice")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     job,
		"message": "Invoice uploaded successfully",
	})
}

// UploadInvoiceFile stores a multipart "file" through the configured object store.
func (h *JobHandler) UploadInvoiceFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxInvoiceFileSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Invoice file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open uploaded file: %w", err), "upload invoice file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	job, err := h.Jobs.AttachInvoiceFile(c.Request.Context(), currentUser(c), c.Param("id"), fileHeader.Filename, contentType, file)
	if err != nil {
		respondError(c, err, "upload invoice file")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job":     job,
		"message": "Invoice file uploaded successfully",
	})
}
