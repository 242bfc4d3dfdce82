package handler

import (
	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/service"
)

// ListPolicies returns a page of policy documents, optionally by category.
//
// @Summary List policies
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} service.ListResult[model.Policy]
// @Router /policies [get]
func ListPolicies(svc service.PolicyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.List(c.UserContext(), c.Query("category"), limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadPolicy stores a policy document (multipart/form-data, fields: file, title, category, description).
//
// @Summary Upload policy
// @Tags policies
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Document"
// @Param title formData string true "Title"
// @Param category formData string false "Category"
// @Param description formData string false "Description"
// @Success 201 {object} model.Policy
// @Failure 400 {object} errorPayload
// @Router /policies [post]
func UploadPolicy(svc service.PolicyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		in := service.PolicyUpload{
			Title:       c.FormValue("title"),
			Category:    c.FormValue("category"),
			Description: c.FormValue("description"),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}
		p, err := svc.Upload(c.UserContext(), actor(c), in, f)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GetPolicy returns policy metadata.
//
// @Summary Get policy
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Success 200 {object} model.Policy
// @Failure 404 {object} errorPayload
// @Router /policies/{id} [get]
func GetPolicy(svc service.PolicyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(p)
	}
}

// PolicyDownload returns a short-lived presigned URL for the file.
//
// @Summary Policy download link
// @Tags policies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Success 200 {object} service.DownloadLink
// @Router /policies/{id}/download [get]
func PolicyDownload(svc service.PolicyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		link, err := svc.DownloadURL(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(link)
	}
}

// PolicyFile streams the stored document as an attachment.
//
// @Summary Download policy file
// @Tags policies
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Success 200 {file} file
// @Router /policies/{id}/file [get]
func PolicyFile(svc service.PolicyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		f, err := svc.Open(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		c.Attachment(f.Policy.Filename)
		c.Set(fiber.HeaderContentType, f.ContentType)
		// fasthttp closes the body once it has been written.
		return c.SendStream(f.Body, int(f.Size))
	}
}

// DeletePolicy removes the file and its metadata.
//
// @Summary Delete policy
// @Tags policies
// @Security BearerAuth
// @Param id path string true "Policy ID"
// @Success 204
// @Router /policies/{id} [delete]
func DeletePolicy(svc service.PolicyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
