package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"opsdesk/internal/model"
	"opsdesk/internal/service"
	serviceMocks "opsdesk/internal/service/mocks"
)

func policyForm(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("title", "Leave Policy")
	writer.WriteField("category", "hr")
	if withFile {
		part, _ := writer.CreateFormFile("file", "leave.pdf")
		part.Write([]byte("%PDF-1.4"))
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestUploadPolicy(t *testing.T) {
	svc := new(serviceMocks.MockPolicyService)
	app := newApp(adminActor)
	app.Post("/policies", UploadPolicy(svc))

	t.Run("success", func(t *testing.T) {
		body, ct := policyForm(t, true)
		match := mock.MatchedBy(func(in service.PolicyUpload) bool {
			return in.Title == "Leave Policy" && in.Category == "hr" && in.Filename == "leave.pdf" && in.Size == 8
		})
		expected := &model.Policy{ID: uuid.New().String(), Title: "Leave Policy"}
		svc.On("Upload", mock.Anything, adminActor, match, mock.Anything).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/policies", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Policy
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
	})

	t.Run("no file", func(t *testing.T) {
		body, ct := policyForm(t, false)
		req := httptest.NewRequest(http.MethodPost, "/policies", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		body, ct := policyForm(t, true)
		svc.On("Upload", mock.Anything, adminActor, mock.Anything, mock.Anything).Return(nil, errors.New("upload failed")).Once()

		req := httptest.NewRequest(http.MethodPost, "/policies", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
	svc.AssertExpectations(t)
}

func TestPolicyDownload(t *testing.T) {
	svc := new(serviceMocks.MockPolicyService)
	app := newApp(employeeActor)
	app.Get("/policies/:id/download", PolicyDownload(svc))

	t.Run("link", func(t *testing.T) {
		id := uuid.New().String()
		exp := time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC)
		svc.On("DownloadURL", mock.Anything, id).Return(&service.DownloadLink{URL: "http://minio/x", ExpiresAt: exp}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/policies/"+id+"/download", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var link service.DownloadLink
		json.NewDecoder(resp.Body).Decode(&link)
		assert.Equal(t, "http://minio/x", link.URL)
		assert.True(t, exp.Equal(link.ExpiresAt))
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		svc.On("DownloadURL", mock.Anything, id).Return(nil, service.ErrPolicyNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/policies/"+id+"/download", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	svc.AssertExpectations(t)
}

func TestPolicyFile(t *testing.T) {
	svc := new(serviceMocks.MockPolicyService)
	app := newApp(employeeActor)
	app.Get("/policies/:id/file", PolicyFile(svc))

	t.Run("streams attachment", func(t *testing.T) {
		id := uuid.New().String()
		svc.On("Open", mock.Anything, id).Return(&service.PolicyFile{
			Policy:      &model.Policy{ID: id, Filename: "leave.pdf"},
			Body:        io.NopCloser(strings.NewReader("%PDF-1.4")),
			Size:        8,
			ContentType: "application/pdf",
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/policies/"+id+"/file", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, `attachment; filename="leave.pdf"`, resp.Header.Get("Content-Disposition"))
		b, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "%PDF-1.4", string(b))
	})

	t.Run("missing object", func(t *testing.T) {
		id := uuid.New().String()
		svc.On("Open", mock.Anything, id).Return(nil, service.ErrPolicyNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/policies/"+id+"/file", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/policies/nope/file", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	svc.AssertExpectations(t)
}

func TestDeletePolicy(t *testing.T) {
	svc := new(serviceMocks.MockPolicyService)
	app := newApp(adminActor)
	app.Delete("/policies/:id", DeletePolicy(svc))

	id := uuid.New().String()
	svc.On("Delete", mock.Anything, id).Return(nil).Once()

	resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/policies/"+id, nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	svc.AssertExpectations(t)
}
