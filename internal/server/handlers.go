package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tsawler/slidetag"
	"github.com/tsawler/slidetag/format"
)

// handleUpload stores an uploaded document under a generated name.
func (s *Server) handleUpload(c *gin.Context) {
	fh, ok := s.formFile(c)
	if !ok {
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !format.Allowed(ext) {
		handleError(c, NewAppError(http.StatusBadRequest, msgInvalidType, nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	var body io.Reader = f
	if s.opts.SniffContent {
		data, err := io.ReadAll(f)
		if err != nil {
			handleError(c, err)
			return
		}
		if !format.Matches(fh.Filename, data) {
			handleError(c, NewAppError(http.StatusBadRequest, msgInvalidType, nil))
			return
		}
		body = bytes.NewReader(data)
	}

	name, err := s.store.Save(fh.Filename, body)
	if err != nil {
		handleError(c, err)
		return
	}

	s.logger.Info("file uploaded", "original", fh.Filename, "stored", name, "size", fh.Size)
	c.JSON(http.StatusOK, gin.H{"message": msgUploaded, "fileName": name})
}

// handleExtract extracts an uploaded presentation without storing it.
func (s *Server) handleExtract(c *gin.Context) {
	fh, ok := s.formFile(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		handleError(c, fmt.Errorf("%w: %v", slidetag.ErrInvalidInput, err))
		return
	}

	res, err := s.svc.Extract(c.Request.Context(), fh.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleDownload returns a stored upload.
func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("name")
	path, err := s.store.Path(name)
	if err != nil {
		handleError(c, err)
		return
	}
	c.FileAttachment(path, name)
}

// handleExtractStored extracts a previously uploaded presentation.
func (s *Server) handleExtractStored(c *gin.Context) {
	path, err := s.store.Path(c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}

	res, err := s.svc.ExtractFile(c.Request.Context(), path)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleTags returns the label to tag mapping in effect.
func (s *Server) handleTags(c *gin.Context) {
	r := s.svc.Resolver()
	m := r.Mapping()
	out := make(map[string]string, len(m))
	for label, tag := range m {
		out[label] = tag.String()
	}
	c.JSON(http.StatusOK, gin.H{"tags": out, "count": r.Len()})
}

// handleResolve resolves a single label.
func (s *Server) handleResolve(c *gin.Context) {
	label, ok := c.GetQuery("label")
	if !ok {
		handleError(c, NewAppError(http.StatusBadRequest, "Missing label parameter", nil))
		return
	}
	_, mapped := s.svc.Resolver().Lookup(label)
	c.JSON(http.StatusOK, gin.H{"label": label, "tag": s.svc.Resolve(label), "mapped": mapped})
}

// formFile returns the "file" form part, writing the error response itself
// when there is none.
func (s *Server) formFile(c *gin.Context) (*multipart.FileHeader, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, fmt.Errorf("%w: request body over %d bytes", slidetag.ErrTooLarge, tooLarge.Limit))
			return nil, false
		}
		handleError(c, NewAppError(http.StatusBadRequest, msgNoFile, err))
		return nil, false
	}
	if fh.Size == 0 {
		handleError(c, NewAppError(http.StatusBadRequest, msgNoFile, nil))
		return nil, false
	}
	if s.opts.MaxUploadBytes > 0 && fh.Size > s.opts.MaxUploadBytes {
		handleError(c, fmt.Errorf("%w: %d bytes (max %d)", slidetag.ErrTooLarge, fh.Size, s.opts.MaxUploadBytes))
		return nil, false
	}
	return fh, true
}

// handleError writes err as a JSON error response. Details are only shown
// for client errors.
func handleError(c *gin.Context, err error) {
	appErr := MapError(err)
	body := gin.H{"error": appErr.Message}
	if appErr.Code < http.StatusInternalServerError && appErr.Err != nil {
		body["detail"] = appErr.Err.Error()
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}
