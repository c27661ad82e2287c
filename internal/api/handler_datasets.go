package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"table-timeline-backend/internal/ingest"
	"table-timeline-backend/internal/model"
	"table-timeline-backend/internal/parse"
	"table-timeline-backend/internal/store"
)

type datasetResponse struct {
	Role      string    `json:"role"`
	Revision  string    `json:"revision"`
	FileName  string    `json:"file_name"`
	Source    string    `json:"source"`
	RowCount  int       `json:"row_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newDatasetResponse(d *model.Dataset) datasetResponse {
	return datasetResponse{
		Role:      d.Role,
		Revision:  d.Revision,
		FileName:  d.FileName,
		Source:    d.Source,
		RowCount:  d.RowCount,
		UpdatedAt: d.UpdatedAt,
	}
}

func roleParam(c *gin.Context) (store.Role, bool) {
	role, err := store.ParseRole(c.Param("role"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "role must be maps or reservations"})
		return "", false
	}
	return role, true
}

// PutDataset handles PUT /api/datasets/{role}. The body is either raw CSV or
// a multipart form with the CSV in the "file" field.
func (h *Handler) PutDataset(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileName, content, err := h.readUpload(c, role)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes)})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset, _, err := h.importer.Import(c.Request.Context(), role, fileName, store.SourceUpload, content)
	switch {
	case errors.Is(err, ingest.ErrEmptyDataset), errors.Is(err, parse.ErrMalformedInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to store dataset"})
		return
	}

	c.JSON(http.StatusOK, newDatasetResponse(dataset))
}

func (h *Handler) readUpload(c *gin.Context, role store.Role) (string, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		header, err := c.FormFile("file")
		if err != nil {
			return "", "", fmt.Errorf("missing file field: %w", err)
		}
		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			return "", "", fmt.Errorf("file %q is not a .csv file", header.Filename)
		}
		f, err := header.Open()
		if err != nil {
			return "", "", fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		body, err := io.ReadAll(f)
		if err != nil {
			return "", "", err
		}
		return filepath.Base(header.Filename), string(body), nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", "", err
	}
	fileName := c.Query("filename")
	if fileName == "" {
		fileName = string(role) + ".csv"
	}
	return fileName, string(body), nil
}

type datasetRowsResponse struct {
	datasetResponse
	Rows []parse.Row `json:"rows"`
}

// GetDataset handles GET /api/datasets/{role}.
func (h *Handler) GetDataset(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}

	dataset, rows, err := h.importer.Load(c.Request.Context(), role)
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no %s dataset uploaded", role)})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dataset"})
		return
	}
	if rows == nil {
		rows = []parse.Row{}
	}

	c.JSON(http.StatusOK, datasetRowsResponse{
		datasetResponse: newDatasetResponse(dataset),
		Rows:            rows,
	})
}

// DeleteDataset handles DELETE /api/datasets/{role}.
func (h *Handler) DeleteDataset(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}

	if err := h.importer.Clear(c.Request.Context(), role); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete dataset"})
		return
	}
	c.Status(http.StatusNoContent)
}

type historyResponse struct {
	Revision   string    `json:"revision"`
	FileName   string    `json:"file_name"`
	Source     string    `json:"source"`
	RowCount   int       `json:"row_count"`
	UploadedAt time.Time `json:"uploaded_at"`
	ReplacedAt time.Time `json:"replaced_at"`
}

// GetDatasetHistory handles GET /api/datasets/{role}/history.
func (h *Handler) GetDatasetHistory(c *gin.Context) {
	role, ok := roleParam(c)
	if !ok {
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, 100)
	}

	records, err := h.store.History(c.Request.Context(), role, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	response := make([]historyResponse, 0, len(records))
	for _, r := range records {
		response = append(response, historyResponse{
			Revision:   r.Revision,
			FileName:   r.FileName,
			Source:     r.Source,
			RowCount:   r.RowCount,
			UploadedAt: r.UploadedAt,
			ReplacedAt: r.ReplacedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}
