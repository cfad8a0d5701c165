package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"shoplist-backend/internal/application"
	"shoplist-backend/pkg/response"
	"shoplist-backend/pkg/validation"
)

// 5 MiB cap matches what the web client enforces before upload.
const maxAvatarSize = 5 << 20

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name *string `json:"name" binding:"omitempty,max=100"`
	Bio  *string `json:"bio" binding:"omitempty,max=500"`
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *UserHandler) fail(c *gin.Context, err error, op string) {
	status, msg := userMessage(err)
	if status == http.StatusInternalServerError {
		h.Logger.WithError(err).Error(op + " failed")
	}
	response.Error[any](c, status, msg, nil)
}

// GetUsers lists every registered profile, pending ones included, so
// administrators can review and approve accounts.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Svc.Users(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list users")
		return
	}
	response.Success(c, http.StatusOK, users, "users", nil)
}

func (h *UserHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.SetUserActive(c.Request.Context(), c.Param("uid"), *req.Active); err != nil {
		h.fail(c, err, "set user active")
		return
	}
	msg := "Account deactivated."
	if *req.Active {
		msg = "Account approved."
	}
	response.Success[any](c, http.StatusOK, gin.H{"active": *req.Active}, msg, nil)
}

func (h *UserHandler) GetMe(c *gin.Context) {
	profile, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		h.fail(c, err, "get profile")
		return
	}
	response.Success(c, http.StatusOK, profile, "profile", nil)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString("userID")
	err := h.Svc.UpdateProfileDocument(c.Request.Context(), uid, application.ProfilePatch{
		Name: req.Name,
		Bio:  req.Bio,
	})
	if err != nil {
		h.fail(c, err, "update profile")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "Profile updated.", nil)
}

// UploadAvatar stores the image and patches the profile's photoURL, so the
// denormalized photo shows up on the next lists or items snapshot.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if file.Size > maxAvatarSize {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "Avatar must be 5MB or smaller.", nil)
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusBadRequest, "Avatar must be an image.", nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, err, "open avatar upload")
		return
	}
	defer src.Close()

	uid := c.GetString("userID")
	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, src, file.Size,
		filepath.Base(file.Filename), contentType, nil)
	if err != nil {
		h.fail(c, err, "upload avatar")
		return
	}
	if err := h.Svc.UpdateProfileDocument(c.Request.Context(), uid, application.ProfilePatch{PhotoURL: &url}); err != nil {
		h.fail(c, err, "save avatar url")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"photoURL": url}, "Avatar updated.", nil)
}
