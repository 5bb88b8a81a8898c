package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/database/users"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// ProfileController lets a signed-in user manage their password and API token.
type ProfileController struct {
	authService *auth.Service
}

func NewProfileController(authService *auth.Service) *ProfileController {
	return &ProfileController{
		authService: authService,
	}
}

// ProfilePage renders the user profile page.
func (pc *ProfileController) ProfilePage(c *gin.Context) {
	pc.renderProfile(c, http.StatusOK, gin.H{})
}

func (pc *ProfileController) renderProfile(c *gin.Context, status int, data gin.H) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		c.Redirect(http.StatusFound, "/login?next=/profile")
		return
	}

	user, err := pc.authService.GetUserByID(userID)
	if err != nil {
		redirectToError(c, err, "load profile")
		return
	}

	data["Title"] = "Profile"
	data["User"] = user
	data["HasToken"] = user.TokenHash != ""
	render(c, status, "profile", data)
}

// ChangePassword handles POST /profile/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	currentPassword := c.PostForm("current_password")
	newPassword := c.PostForm("new_password")

	if newPassword != c.PostForm("confirm_password") {
		pc.renderProfile(c, http.StatusBadRequest, gin.H{"PasswordError": "New passwords do not match"})
		return
	}

	err := pc.authService.ChangePassword(auth.GetUserID(c), currentPassword, newPassword)
	switch {
	case err == nil:
		pc.renderProfile(c, http.StatusOK, gin.H{"PasswordChanged": true})
	case errors.Is(err, auth.ErrInvalidPassword):
		pc.renderProfile(c, http.StatusBadRequest, gin.H{"PasswordError": "Current password is incorrect"})
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
		pc.renderProfile(c, http.StatusBadRequest, gin.H{"PasswordError": err.Error()})
	default:
		redirectToError(c, err, "change password")
	}
}

// GenerateToken handles POST /profile/token. The token is shown once.
func (pc *ProfileController) GenerateToken(c *gin.Context) {
	token, err := pc.authService.GenerateToken(auth.GetUserID(c))
	if err != nil {
		redirectToError(c, err, "generate token")
		return
	}
	pc.renderProfile(c, http.StatusOK, gin.H{"Token": token})
}

// RevokeToken handles POST /profile/token/revoke
func (pc *ProfileController) RevokeToken(c *gin.Context) {
	if err := pc.authService.RevokeToken(auth.GetUserID(c)); err != nil {
		redirectToError(c, err, "revoke token")
		return
	}
	c.Redirect(http.StatusSeeOther, "/profile")
}

// UserAdmin is the user store behind /api/users.
type UserAdmin interface {
	ListUsers() ([]entities.User, error)
	SetRole(id uint, role entities.UserRole) error
	DeleteUser(id uint) error
}

// UsersController lets administrators list users, change roles and remove accounts.
type UsersController struct {
	users UserAdmin
	audit Auditor
}

func NewUsersController(store UserAdmin, auditor Auditor) *UsersController {
	return &UsersController{users: store, audit: auditorOrNop(auditor)}
}

type RoleRequest struct {
	Role entities.UserRole `json:"role" binding:"required,oneof=Admin Staff"`
}

// List handles GET /api/users
func (uc *UsersController) List(c *gin.Context) {
	list, err := uc.users.ListUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, list)
}

// SetRole handles PUT /api/users/:id/role
func (uc *UsersController) SetRole(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := uc.users.SetRole(id, req.Role); err != nil {
		respondUserError(c, err)
		return
	}
	uc.audit.LogUpdate(actorFrom(c), "user", id, "role "+string(req.Role), 0)
	c.JSON(http.StatusOK, gin.H{"id": id, "role": req.Role})
}

// Delete handles DELETE /api/users/:id
func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if id == auth.GetUserID(c) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "cannot delete the signed-in account", Code: "conflict"})
		return
	}

	if err := uc.users.DeleteUser(id); err != nil {
		respondUserError(c, err)
		return
	}
	uc.audit.LogDelete(actorFrom(c), "user", id, strconv.FormatUint(uint64(id), 10), nil)
	c.Status(http.StatusNoContent)
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "user")
	case errors.Is(err, users.ErrInvalidRole):
		respondBadRequest(c, err.Error())
	case errors.Is(err, users.ErrLastAdmin):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "last_admin"})
	default:
		respondInternalError(c, err, "user admin")
	}
}
