package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/qore-hq/qore-backend/httperr"
	authmw "github.com/qore-hq/qore-backend/middleware/auth"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/activitylog"
	"github.com/qore-hq/qore-backend/services/files"
)

type FileHandler struct {
	files    *files.Service
	activity *activitylog.Service
}

func NewFileHandler(filesSvc *files.Service, activity *activitylog.Service) *FileHandler {
	return &FileHandler{files: filesSvc, activity: activity}
}

func (h *FileHandler) record(c echo.Context, action, fileName string) {
	var actorID *uint
	if actor := authmw.GetEmployee(c); actor != nil {
		actorID = &actor.ID
	}
	h.activity.Record(activitylog.Entry{
		EmployeeID: actorID,
		Action:     action,
		EntityType: "File",
		New:        map[string]any{"fileName": fileName},
		IPAddress:  c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
	})
}

func targetEmployeeID(c echo.Context) uint {
	if raw := c.FormValue("employeeId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			return uint(id)
		}
	}
	if actor := authmw.GetEmployee(c); actor != nil {
		return actor.ID
	}
	return 0
}

func openUpload(header *multipart.FileHeader) (files.Upload, func(), error) {
	src, err := header.Open()
	if err != nil {
		return files.Upload{}, nil, err
	}
	upload := files.Upload{
		OriginalName: header.Filename,
		Size:         header.Size,
		Reader:       src,
	}
	return upload, func() { _ = src.Close() }, nil
}

func mapFileError(err error) error {
	switch {
	case errors.Is(err, files.ErrUnsupportedType):
		return httperr.Validation("Unsupported file type", nil)
	case errors.Is(err, files.ErrFileTooLarge):
		return httperr.Validation("File exceeds the size limit", nil)
	case errors.Is(err, files.ErrInvalidFileName):
		return httperr.Validation("Invalid file name", nil)
	case errors.Is(err, files.ErrTooManyFiles):
		return httperr.Validation("Too many files in one upload", nil)
	case errors.Is(err, files.ErrFileNotFound):
		return httperr.NotFound("File")
	default:
		return httperr.Internal(err)
	}
}

func (h *FileHandler) UploadPhoto(c echo.Context) error {
	header, err := c.FormFile("photo")
	if err != nil {
		return httperr.Validation("Photo file is required", nil)
	}

	upload, cleanup, err := openUpload(header)
	if err != nil {
		return httperr.Internal(err)
	}
	defer cleanup()

	record, err := h.files.SavePhoto(targetEmployeeID(c), upload)
	if err != nil {
		return mapFileError(err)
	}

	h.record(c, models.ActionFileUpload, record.FileName)

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "file": record})
}

func (h *FileHandler) UploadDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return httperr.Validation("Document files are required", nil)
	}
	headers := form.File["documents"]
	if len(headers) == 0 {
		return httperr.Validation("Document files are required", nil)
	}

	uploads := make([]files.Upload, 0, len(headers))
	cleanups := make([]func(), 0, len(headers))
	defer func() {
		for _, cleanup := range cleanups {
			cleanup()
		}
	}()

	for _, header := range headers {
		upload, cleanup, err := openUpload(header)
		if err != nil {
			return httperr.Internal(err)
		}
		cleanups = append(cleanups, cleanup)
		uploads = append(uploads, upload)
	}

	saved, err := h.files.SaveDocuments(targetEmployeeID(c), uploads)
	if err != nil {
		return mapFileError(err)
	}

	for _, record := range saved {
		h.record(c, models.ActionFileUpload, record.FileName)
	}

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "files": saved})
}

func (h *FileHandler) Download(c echo.Context) error {
	record, path, err := h.files.Resolve(c.Param("filename"))
	if err != nil {
		return mapFileError(err)
	}

	c.Response().Header().Set(echo.HeaderContentType, record.MimeType)
	return c.Attachment(path, record.OriginalName)
}

func (h *FileHandler) Delete(c echo.Context) error {
	fileName := c.Param("filename")
	if err := h.files.Delete(fileName); err != nil {
		return mapFileError(err)
	}

	h.record(c, models.ActionFileDelete, fileName)

	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "File deleted"})
}

func (h *FileHandler) ListForEmployee(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	records, err := h.files.ListForEmployee(id)
	if err != nil {
		return httperr.Internal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "files": records})
}
