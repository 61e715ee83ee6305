// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"promptlib/internal/imaging"
	"promptlib/internal/metrics"
	"promptlib/internal/models"
)

const (
	// maxWorkflowBody bounds the JSON form payload. Images travel inline
	// as data URLs, so it must fit MaxWorkflowImages of them.
	maxWorkflowBody = models.MaxWorkflowImages*(imaging.MaxImageBytes*4/3+1024) + 64<<10

	// maxWorkflowFile bounds an uploaded workflow definition.
	maxWorkflowFile = 2 << 20

	// multipartOverhead is headroom for multipart boundaries and headers.
	multipartOverhead = 64 << 10
)

// Workflows serves the helper endpoints behind the workflow editor form.
type Workflows struct{}

// NewWorkflows creates the workflow handlers.
func NewWorkflows() *Workflows {
	return &Workflows{}
}

// Validate normalizes and checks a workflow form submission.
func (h *Workflows) Validate(w http.ResponseWriter, r *http.Request) {
	var in models.WorkflowInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkflowBody))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in.Normalize()
	if msg := in.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	writeSuccess(w, in)
}

type imageResult struct {
	DataURL string `json:"dataUrl"`
	imaging.Info
}

// EncodeImage turns an uploaded preview image into a data URL.
func (h *Workflows) EncodeImage(w http.ResponseWriter, r *http.Request) {
	data, filename, status := readUpload(w, r, imaging.MaxImageBytes)
	switch status {
	case 0:
	case http.StatusRequestEntityTooLarge:
		writeError(w, status, "图片大小不能超过 5MB")
		return
	default:
		writeError(w, status, "请选择图片文件")
		return
	}

	info, err := imaging.Inspect(data, filename)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "图片大小不能超过 5MB")
		return
	case err != nil:
		slog.Debug("rejected workflow image", "filename", filename, "error", err)
		writeError(w, http.StatusBadRequest, "请选择图片文件")
		return
	}

	metrics.WorkflowImagesEncodedTotal.Inc()
	writeSuccess(w, imageResult{
		DataURL: imaging.DataURL(info.ContentType, data),
		Info:    info,
	})
}

// ReadWorkflowFile returns the text content of an uploaded workflow
// definition so the form can embed it.
func (h *Workflows) ReadWorkflowFile(w http.ResponseWriter, r *http.Request) {
	data, _, status := readUpload(w, r, maxWorkflowFile)
	switch status {
	case 0:
	case http.StatusRequestEntityTooLarge:
		writeError(w, status, "工作流文件过大")
		return
	default:
		writeError(w, status, "请选择工作流文件")
		return
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" || !utf8.ValidString(text) {
		writeError(w, http.StatusBadRequest, "工作流文件无效")
		return
	}
	writeSuccess(w, map[string]string{"workflowJson": text})
}

// readUpload reads the multipart "file" field. A non-zero status means the
// request was rejected.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (data []byte, filename string, status int) {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, "", http.StatusRequestEntityTooLarge
		}
		return nil, "", http.StatusBadRequest
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest
	}
	defer file.Close()

	if header.Size > limit {
		return nil, "", http.StatusRequestEntityTooLarge
	}

	data, err = io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", http.StatusBadRequest
	}
	if int64(len(data)) > limit {
		return nil, "", http.StatusRequestEntityTooLarge
	}
	return data, header.Filename, 0
}
