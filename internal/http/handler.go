package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/eforms/internal/http/middleware"
	"github.com/nurpe/eforms/internal/model"
	"github.com/nurpe/eforms/internal/service"
	"github.com/nurpe/eforms/internal/validation"
)

const attachmentsField = "attachments"

type Handler struct {
	forms     *service.FormService
	uploadDir string
	maxBytes  int64
	now       func() time.Time
	log       zerolog.Logger
}

type HandlerOptions struct {
	UploadDir string
	MaxBytes  int64
}

func NewHandler(forms *service.FormService, opts HandlerOptions, log zerolog.Logger) *Handler {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	return &Handler{
		forms:     forms,
		uploadDir: opts.UploadDir,
		maxBytes:  opts.MaxBytes,
		now:       time.Now,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.POST("/submit-form", h.submitForm)
	api.POST("/validate", h.validateForm)
	api.GET("/form-status/:reference", h.formStatus)
	api.GET("/forms", h.listForms)
	api.PUT("/forms/:id/status", h.updateStatus)
	api.GET("/forms/by-reference/:reference/pdf", h.orderPDF)
	api.GET("/forms/by-reference/:reference/xml", h.orderXML)
	api.GET("/report-data", h.reportData)
	api.GET("/report.pdf", h.reportPDF)
	api.GET("/report.xlsx", h.reportExcel)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) submitForm(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	fields, err := h.readFields(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "Cererea depășește dimensiunea maximă permisă"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Date invalide", "error": err.Error()})
		return
	}

	files, saved, err := h.saveAttachments(c)
	if err != nil {
		h.removeFiles(saved)
		h.log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("save attachments failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Eroare la salvarea fișierelor"})
		return
	}

	result, err := h.forms.Submit(c.Request.Context(), service.SubmitInput{Fields: fields, Files: files})
	if err != nil {
		h.removeFiles(saved)
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Formularul a fost trimis cu succes",
		"formId":    result.ID,
		"reference": result.Reference,
	})
}

func (h *Handler) validateForm(c *gin.Context) {
	fields, err := h.readFields(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Date invalide", "error": err.Error()})
		return
	}
	errs := h.forms.ValidateOnly(fields)
	if len(errs) > 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "valid": false, "errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": true, "errors": []validation.FieldError{}})
}

// readFields accepts multipart, urlencoded and JSON bodies.
func (h *Handler) readFields(c *gin.Context) (map[string]string, error) {
	contentType := c.ContentType()
	switch {
	case contentType == gin.MIMEJSON:
		// Numbers stay json.Number so amounts keep every digit.
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		var body map[string]any
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		fields := make(map[string]string, len(body))
		for k, v := range body {
			fields[k] = stringify(v)
		}
		return fields, nil
	case strings.HasPrefix(contentType, gin.MIMEMultipartPOSTForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		return firstValues(form.Value), nil
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		return firstValues(c.Request.PostForm), nil
	}
}

func firstValues(values map[string][]string) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// saveAttachments stores uploaded files as <unix millis>-<short id>-<original name>.
func (h *Handler) saveAttachments(c *gin.Context) ([]model.Attachment, []string, error) {
	if c.Request.MultipartForm == nil {
		return []model.Attachment{}, nil, nil
	}
	headers := c.Request.MultipartForm.File[attachmentsField]
	files := make([]model.Attachment, 0, len(headers))
	saved := make([]string, 0, len(headers))
	for _, fh := range headers {
		original := filepath.Base(fh.Filename)
		if original == "." || original == string(filepath.Separator) {
			original = "fisier"
		}
		name := fmt.Sprintf("%d-%s-%s", h.now().UnixMilli(), uuid.NewString()[:8], original)
		dst := filepath.Join(h.uploadDir, name)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			return nil, saved, err
		}
		saved = append(saved, dst)
		files = append(files, model.Attachment{Filename: name, OriginalName: fh.Filename, Size: fh.Size})
	}
	return files, saved, nil
}

func (h *Handler) removeFiles(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.log.Warn().Err(err).Str("path", p).Msg("remove attachment failed")
		}
	}
}

func (h *Handler) formStatus(c *gin.Context) {
	view, err := h.forms.GetStatus(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "form": view})
}

func (h *Handler) listForms(c *gin.Context) {
	page, err := parseIntQuery(c, "page", 1)
	if err != nil {
		h.handleError(c, err)
		return
	}
	limit, err := parseIntQuery(c, "limit", 10)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.forms.List(c.Request.Context(), service.ListQuery{
		Page:     page,
		Limit:    limit,
		Status:   c.Query("status"),
		DateFrom: c.Query("dateFrom"),
		DateTo:   c.Query("dateTo"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "forms": result.Forms, "pagination": result.Pagination})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "ID invalid"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Status invalid"})
		return
	}

	updated, err := h.forms.UpdateStatus(c.Request.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status actualizat cu succes", "form": updated})
}

func (h *Handler) reportData(c *gin.Context) {
	bundle, err := h.forms.Report(c.Request.Context(), c.Query("dateFrom"), c.Query("dateTo"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": bundle})
}

func (h *Handler) reportPDF(c *gin.Context) {
	result, err := h.forms.ReportPDF(c.Request.Context(), c.Query("dateFrom"), c.Query("dateTo"))
	h.sendFile(c, result, err)
}

func (h *Handler) reportExcel(c *gin.Context) {
	result, err := h.forms.ReportExcel(c.Request.Context(), c.Query("dateFrom"), c.Query("dateTo"))
	h.sendFile(c, result, err)
}

func (h *Handler) orderPDF(c *gin.Context) {
	result, err := h.forms.OrderPDF(c.Request.Context(), c.Param("reference"))
	h.sendFile(c, result, err)
}

func (h *Handler) orderXML(c *gin.Context) {
	result, err := h.forms.OrderXML(c.Request.Context(), c.Param("reference"))
	h.sendFile(c, result, err)
}

func (h *Handler) sendFile(c *gin.Context, result *service.FileResult, err error) {
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var fieldErrs validation.Errors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Date invalide", "errors": fieldErrs})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Status invalid"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Parametri invalizi", "error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Formularul nu a fost găsit"})
	case errors.Is(err, service.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Nu există date pentru raportare în perioada selectată"})
	default:
		h.log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Eroare internă a serverului"})
	}
}

func parseIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, key)
	}
	return n, nil
}
