package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/application/identity"
)

// UserHandler handles admin user management HTTP requests
type UserHandler struct {
	BaseHandler
	userService *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identity.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Matches name and email"
// @Param        role query string false "Role" Enums(customer, admin)
// @Param        status query string false "Status" Enums(active, blocked)
// @Success      200 {object} dto.Response{data=[]identity.UserDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var filter identity.UserListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	respondPage(&h.BaseHandler, c, page)
}

// Get godoc
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// UpdateRole godoc
// @Summary      Change a user's role
// @Description  Admins cannot change their own role and the last admin cannot be demoted
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body identity.UpdateRoleInput true "Role"
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	actorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateRoleInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), actorID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Block godoc
// @Summary      Block a user
// @Description  Blocked users cannot sign in and their sessions are revoked
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/block [post]
func (h *UserHandler) Block(c *gin.Context) {
	actorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Block(c.Request.Context(), actorID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Unblock godoc
// @Summary      Unblock a user
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identity.UserDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id}/unblock [post]
func (h *UserHandler) Unblock(c *gin.Context) {
	actorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Unblock(c.Request.Context(), actorID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// Delete godoc
// @Summary      Delete a user
// @Tags         admin
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actorID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), actorID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
