package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fileharbor/internal/entity"
)

// readMultipartFile 把 multipart 文件读入内存成 IncomingFile。
func readMultipartFile(header *multipart.FileHeader) (*entity.IncomingFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	return &entity.IncomingFile{
		Data:         data,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         int64(len(data)),
	}, nil
}

func parsePublicFlag(c *gin.Context) bool {
	raw := strings.TrimSpace(c.DefaultPostForm("is_public", c.Query("is_public")))
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

func (h *HTTPHandler) UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, ErrCodeMissingField, "file is required")
		return
	}

	file, err := readMultipartFile(header)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "failed to read uploaded file")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	record, err := h.storageService.Upload(ctx, file, parsePublicFlag(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *HTTPHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid multipart payload")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		BadRequest(c, ErrCodeMissingField, "files is required")
		return
	}

	files := make([]*entity.IncomingFile, 0, len(headers))
	for _, header := range headers {
		file, err := readMultipartFile(header)
		if err != nil {
			BadRequest(c, ErrCodeInvalidRequest, "failed to read uploaded file "+header.Filename)
			return
		}
		files = append(files, file)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
	defer cancel()

	result, err := h.storageService.UploadMany(ctx, files, parsePublicFlag(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if len(result.Uploaded) == 0 {
		status = http.StatusBadRequest
	} else if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

func (h *HTTPHandler) ListFiles(c *gin.Context) {
	var query entity.FileQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	resp, err := h.storageService.ListFiles(ctx, &query)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) GetFile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid file id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	file, err := h.storageService.GetFile(ctx, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *HTTPHandler) GetFileURL(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid file id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	url, err := h.storageService.FileURL(ctx, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *HTTPHandler) DeleteFile(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid file id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.storageService.SoftDelete(ctx, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) CleanupFiles(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	resp, err := h.storageService.SweepOrphaned(ctx)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
