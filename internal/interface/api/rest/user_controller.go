package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filedrive/internal/application/ports"
	domain "filedrive/internal/domain/user"
	"filedrive/internal/interface/api/rest/dto/user"
	"filedrive/internal/interface/api/rest/middleware"
	"filedrive/internal/interface/api/rest/validator"
)

type UserController struct {
	userService ports.UserService
	logger      *zap.Logger
}

func NewUserController(
	r *gin.Engine,
	userService ports.UserService,
	logger *zap.Logger,
	authService ports.Auth,
) *UserController {
	uc := &UserController{
		userService: userService,
		logger:      logger,
	}

	admin := r.Group(RouteUsers, middleware.AuthMiddleware(authService), middleware.AdminOnly())
	admin.GET("", uc.GetUsersHandler)
	admin.POST("", uc.CreateUserHandler)
	admin.GET("/:user_id", uc.GetUserHandler)
	admin.PUT("/:user_id/limits", uc.ChangeLimitsHandler)
	admin.PUT("/:user_id/admin", uc.SetAdminHandler)
	admin.PUT("/:user_id/password", uc.ChangePasswordHandler)
	admin.DELETE("/:user_id", uc.DeleteUserHandler)

	return uc
}

func (uc *UserController) GetUsersHandler(c *gin.Context) {
	users := uc.userService.ListUsers(c.Request.Context())

	c.JSON(http.StatusOK, user.ResponseData{
		Data: user.ToResponseUsers(users),
	})
}

func (uc *UserController) GetUserHandler(c *gin.Context) {
	u, err := uc.userService.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, uc.logger, "GetUser", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(u))
}

func (uc *UserController) CreateUserHandler(c *gin.Context) {
	var req user.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateUser(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	u, err := uc.userService.CreateUser(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		respondError(c, uc.logger, "CreateUser", err)
		return
	}

	c.JSON(http.StatusCreated, user.ToResponseUser(u))
}

// ChangeLimitsHandler keeps the current value of an omitted limit.
func (uc *UserController) ChangeLimitsHandler(c *gin.Context) {
	var req user.LimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidateLimits(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	current, err := uc.userService.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, uc.logger, "GetUser", err)
		return
	}
	limits := domain.Limits{Quota: current.Quota, MaxFiles: current.MaxFiles}
	if req.Quota != nil {
		limits.Quota = *req.Quota
	}
	if req.MaxFiles != nil {
		limits.MaxFiles = *req.MaxFiles
	}

	u, err := uc.userService.ChangeLimits(c.Request.Context(), middleware.UserName(c), current.Name, limits)
	if err != nil {
		respondError(c, uc.logger, "ChangeLimits", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(u))
}

func (uc *UserController) SetAdminHandler(c *gin.Context) {
	var req user.AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsAdmin == nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "is_admin is required"},
		)
		return
	}

	u, err := uc.userService.SetAdmin(c.Request.Context(), middleware.UserName(c), c.Param("user_id"), *req.IsAdmin)
	if err != nil {
		respondError(c, uc.logger, "SetAdmin", err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponseUser(u))
}

func (uc *UserController) ChangePasswordHandler(c *gin.Context) {
	var req user.PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid json"},
		)
		return
	}

	if errs := validator.ValidatePassword(req, false); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	err := uc.userService.ChangePassword(
		c.Request.Context(), middleware.UserName(c), c.Param("user_id"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, uc.logger, "ChangePassword", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (uc *UserController) DeleteUserHandler(c *gin.Context) {
	if err := uc.userService.DeleteUser(c.Request.Context(), middleware.UserName(c), c.Param("user_id")); err != nil {
		respondError(c, uc.logger, "DeleteUser", err)
		return
	}

	c.Status(http.StatusNoContent)
}
