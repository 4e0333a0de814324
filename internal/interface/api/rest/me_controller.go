package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	"filedrive/internal/interface/api/rest/dto/user"
	"filedrive/internal/interface/api/rest/middleware"
	"filedrive/internal/interface/api/rest/validator"
)

type MeController struct {
	userService ports.UserService
	logger      *zap.Logger
}

func NewMeController(
	r *gin.Engine,
	userService ports.UserService,
	logger *zap.Logger,
	authService ports.Auth,
) *MeController {
	mc := &MeController{
		userService: userService,
		logger:      logger,
	}

	authed := middleware.AuthMiddleware(authService)
	r.GET(RouteMe, authed, mc.GetMeHandler)
	r.PUT(RouteMePassword, authed, mc.ChangePasswordHandler)

	return mc
}

func (mc *MeController) GetMeHandler(c *gin.Context) {
	u, err := mc.userService.GetUser(c.Request.Context(), middleware.UserName(c))
	if err != nil {
		respondError(c, mc.logger, "GetUser", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(u))
}

// ChangePasswordHandler ends every session of the caller, including the
// one making the request.
func (mc *MeController) ChangePasswordHandler(c *gin.Context) {
	var req user.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidatePassword(req, true); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	name := middleware.UserName(c)
	if err := mc.userService.ChangePassword(c.Request.Context(), name, name, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, mc.logger, "ChangePassword", err)
		return
	}

	c.Status(http.StatusNoContent)
}
