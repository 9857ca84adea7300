package handlers

import (
	"github.com/basicblog/gateway/internal/services"
	"github.com/basicblog/gateway/internal/types"
	"github.com/basicblog/gateway/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BlogHandler handles blog and comment routes
type BlogHandler struct {
	DB *gorm.DB
}

type createBlogInput struct {
	Title    string `json:"title"`
	BlogText string `json:"blogText"`
}

type addCommentInput struct {
	// BlogID is accepted for POST /comments form-style payloads; ignored on
	// the /Blog/:id/comments route where the path wins.
	BlogID      types.FlexUint64 `json:"blogId"`
	Username    string           `json:"username"`
	CommentText string           `json:"commentText"`
}

// List handles GET /Blog
// @Summary List blogs
// @Tags Blog
// @Produce json
// @Success 200 {array} models.Blog
// @Router /Blog [get]
func (h *BlogHandler) List(c *fiber.Ctx) error {
	blogs, err := services.ListBlogs(h.DB)
	if err != nil {
		return err
	}
	return c.JSON(blogs)
}

// Get handles GET /Blog/:id
// @Summary Get one blog
// @Tags Blog
// @Produce json
// @Param id path int true "Blog ID"
// @Success 200 {object} models.Blog
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /Blog/{id} [get]
func (h *BlogHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	blog, err := services.GetBlog(h.DB, id)
	if err != nil {
		return err
	}
	return c.JSON(blog)
}

// Create handles POST /Blog
// @Summary Create a blog owned by the caller
// @Tags Blog
// @Accept json
// @Produce json
// @Param body body createBlogInput true "Blog"
// @Success 201 {object} models.Blog
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /Blog [post]
func (h *BlogHandler) Create(c *fiber.Ctx) error {
	var input createBlogInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}

	blog, err := services.CreateBlog(h.DB, getPrincipal(c).UserID, input.Title, input.BlogText)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, blog, fiber.StatusCreated)
}

// Delete handles DELETE /Blog/:id
// @Summary Delete a blog and its comments
// @Tags Blog
// @Produce json
// @Param id path int true "Blog ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /Blog/{id} [delete]
func (h *BlogHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := services.DeleteBlog(h.DB, id, getPrincipal(c)); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, 1)
}

// ListComments handles GET /Blog/:id/comments
// @Summary List comments of a blog
// @Tags Blog
// @Produce json
// @Param id path int true "Blog ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /Blog/{id}/comments [get]
func (h *BlogHandler) ListComments(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	comments, err := services.ListComments(h.DB, id)
	if err != nil {
		return err
	}
	return c.JSON(comments)
}

// AddComment handles POST /Blog/:id/comments
// @Summary Add a comment to a blog
// @Tags Blog
// @Accept json
// @Produce json
// @Param id path int true "Blog ID"
// @Param body body addCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /Blog/{id}/comments [post]
func (h *BlogHandler) AddComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var input addCommentInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}

	comment, err := services.AddComment(h.DB, id, input.Username, input.CommentText)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, comment, fiber.StatusCreated)
}

// AddCommentByBody handles POST /comments, the legacy form-post shape where
// the blog id travels in the body (as a number or string).
// @Summary Add a comment, blog id in body
// @Tags Blog
// @Accept json
// @Produce json
// @Param body body addCommentInput true "Comment"
// @Success 201 {object} models.Comment
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /comments [post]
func (h *BlogHandler) AddCommentByBody(c *fiber.Ctx) error {
	var input addCommentInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("invalid request body: %v", err)
	}
	if input.BlogID == 0 {
		return types.NewValidationError("blogId is required")
	}

	comment, err := services.AddComment(h.DB, uint64(input.BlogID), input.Username, input.CommentText)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, comment, fiber.StatusCreated)
}

// DeleteComment handles DELETE /Blog/:id/comments/:commentId
// @Summary Delete one comment
// @Tags Blog
// @Produce json
// @Param id path int true "Blog ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /Blog/{id}/comments/{commentId} [delete]
func (h *BlogHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return err
	}
	if err := services.DeleteComment(h.DB, id, commentID, getPrincipal(c)); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, 1)
}
