package rest

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/interface/api/rest/dto/file"
	"filedrive/internal/interface/api/rest/middleware"
	"filedrive/internal/interface/api/rest/validator"
)

// UploadLimits bounds what upload handlers accept and where they buffer it.
// TmpDir must be on the same filesystem as the blob store.
type UploadLimits struct {
	TmpDir   string
	MaxBytes int64
}

type FileController struct {
	fileService ports.FileService
	logger      *zap.Logger
	limits      UploadLimits
}

func NewFileController(
	r *gin.Engine,
	fileService ports.FileService,
	logger *zap.Logger,
	authService ports.Auth,
	limits UploadLimits,
) *FileController {
	fc := &FileController{
		fileService: fileService,
		logger:      logger,
		limits:      limits,
	}

	authed := middleware.AuthMiddleware(authService)
	optional := middleware.OptionalAuth(authService)

	r.GET(RouteFiles, authed, fc.GetFilesHandler)
	r.POST(RouteFiles, authed, fc.UploadFileHandler)
	r.GET(RouteFile, optional, fc.GetFileHandler)
	r.GET(RouteFileContent, optional, fc.GetFileContentHandler)
	r.PUT(RouteFileVisibility, authed, fc.SetVisibilityHandler)
	r.DELETE(RouteFile, authed, fc.DeleteFileHandler)

	return fc
}

func (fc *FileController) GetFilesHandler(c *gin.Context) {
	sort := validator.ValidateSort(c.Query("sort"))

	files, err := fc.fileService.List(c.Request.Context(), middleware.UserName(c), sort)
	if err != nil {
		respondError(c, fc.logger, "List", err)
		return
	}

	c.JSON(http.StatusOK, file.ResponseData{
		Data: file.ToResponseFiles(files),
	})
}

func (fc *FileController) UploadFileHandler(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	if err := precheckSize(c, fc.limits.MaxBytes, u.AvailableBytes()); err != nil {
		respondError(c, fc.logger, "precheckSize", err)
		return
	}

	in, _, err := receiveUpload(c, fc.limits.TmpDir, fc.limits.MaxBytes)
	if err != nil {
		respondError(c, fc.logger, "receiveUpload", err)
		return
	}

	f, err := fc.fileService.Upload(c.Request.Context(), u.Name, in)
	if err != nil {
		respondError(c, fc.logger, "Upload", err)
		return
	}

	c.JSON(http.StatusCreated, file.ToResponseFile(f))
}

func (fc *FileController) GetFileHandler(c *gin.Context) {
	id := c.Param("file_id")
	if !validator.IsFileID(id) {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid file_id"},
		)
		return
	}

	f, err := fc.fileService.Get(c.Request.Context(), middleware.UserName(c), id)
	if err != nil {
		respondError(c, fc.logger, "Get", err)
		return
	}

	c.JSON(http.StatusOK, file.ToResponseFile(f))
}

// GetFileContentHandler serves the blob as an attachment unless
// ?disposition=inline is given.
func (fc *FileController) GetFileContentHandler(c *gin.Context) {
	id := c.Param("file_id")
	if !validator.IsFileID(id) {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid file_id"},
		)
		return
	}

	f, rc, err := fc.fileService.Open(c.Request.Context(), middleware.UserName(c), id)
	if err != nil {
		respondError(c, fc.logger, "Open", err)
		return
	}
	defer rc.Close()

	disposition := "attachment"
	if c.Query("disposition") == "inline" {
		disposition = "inline"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, f.Size, contentType, rc, map[string]string{
		"Content-Disposition":    mime.FormatMediaType(disposition, map[string]string{"filename": f.DownloadName()}),
		"X-Content-Type-Options": "nosniff",
	})
}

func (fc *FileController) SetVisibilityHandler(c *gin.Context) {
	var req file.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsPublic == nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "is_public is required"},
		)
		return
	}

	f, err := fc.fileService.SetVisibility(c.Request.Context(), middleware.UserName(c), c.Param("file_id"), *req.IsPublic)
	if err != nil {
		respondError(c, fc.logger, "SetVisibility", err)
		return
	}

	c.JSON(http.StatusOK, file.ToResponseFile(f))
}

func (fc *FileController) DeleteFileHandler(c *gin.Context) {
	if err := fc.fileService.Delete(c.Request.Context(), middleware.UserName(c), c.Param("file_id")); err != nil {
		respondError(c, fc.logger, "Delete", err)
		return
	}

	c.Status(http.StatusNoContent)
}
