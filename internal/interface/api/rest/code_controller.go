package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/common"
	"filedrive/internal/interface/api/rest/dto/code"
	"filedrive/internal/interface/api/rest/dto/file"
	"filedrive/internal/interface/api/rest/middleware"
)

type CodeController struct {
	codeService ports.UploadCodeService
	fileService ports.FileService
	logger      *zap.Logger
	limits      UploadLimits
}

func NewCodeController(
	r *gin.Engine,
	codeService ports.UploadCodeService,
	fileService ports.FileService,
	logger *zap.Logger,
	authService ports.Auth,
	limiter *middleware.IPRateLimiter,
	limits UploadLimits,
) *CodeController {
	cc := &CodeController{
		codeService: codeService,
		fileService: fileService,
		logger:      logger,
		limits:      limits,
	}

	authed := middleware.AuthMiddleware(authService)
	r.GET(RouteToken, authed, cc.GetCodeHandler)
	r.POST(RouteTokenRenew, authed, cc.RenewCodeHandler)
	r.POST(RouteTokenUpload, middleware.RateLimitMiddleware(limiter), cc.UploadWithCodeHandler)

	return cc
}

func (cc *CodeController) GetCodeHandler(c *gin.Context) {
	cc.respondCode(c, middleware.UserName(c))
}

func (cc *CodeController) RenewCodeHandler(c *gin.Context) {
	name := middleware.UserName(c)
	if err := cc.codeService.Renew(c.Request.Context(), name); err != nil {
		respondError(c, cc.logger, "Renew", err)
		return
	}

	cc.respondCode(c, name)
}

func (cc *CodeController) respondCode(c *gin.Context, name string) {
	value, left, err := cc.codeService.Current(c.Request.Context(), name)
	if err != nil {
		respondError(c, cc.logger, "Current", err)
		return
	}

	c.JSON(http.StatusOK, code.Response{
		Code:             value,
		ExpiresInSeconds: int64(left.Seconds()),
	})
}

// UploadWithCodeHandler takes a multipart "token" field next to "file".
// The uploader is unknown until the token is read, so only the global
// size limit is prechecked.
func (cc *CodeController) UploadWithCodeHandler(c *gin.Context) {
	if err := precheckSize(c, cc.limits.MaxBytes, -1); err != nil {
		respondError(c, cc.logger, "precheckSize", err)
		return
	}

	in, fields, err := receiveUpload(c, cc.limits.TmpDir, cc.limits.MaxBytes)
	if err != nil {
		respondError(c, cc.logger, "receiveUpload", err)
		return
	}

	f, err := cc.fileService.UploadWithCode(c.Request.Context(), fields["token"], in)
	if errors.Is(err, common.ErrCodeNotFound) {
		c.JSON(http.StatusForbidden, gin.H{"error": "upload code is invalid or expired"})
		return
	}
	if err != nil {
		respondError(c, cc.logger, "UploadWithCode", err)
		return
	}

	c.JSON(http.StatusCreated, file.ToResponseFile(f))
}
