// content_service.go
//
// An authenticating request gateway and content store for the BasicBlog backend
// Copyright (c) 2026 BasicBlog Gateway contributors
//
// This file is part of basicblog-gateway.
// basicblog-gateway is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// basicblog-gateway is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with basicblog-gateway.
// If not, see <https://www.gnu.org/licenses/>.

package services

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/basicblog/gateway/internal/models"
	"github.com/basicblog/gateway/internal/types"
	"gorm.io/gorm"
)

// maxTitleLength is the schema limit on blog titles.
const maxTitleLength = 255

// CreateBlog validates and persists a new blog owned by ownerID.
func CreateBlog(db *gorm.DB, ownerID, title, text string) (*models.Blog, error) {
	if strings.TrimSpace(title) == "" {
		return nil, types.NewValidationError("title must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, types.NewValidationError("title must not exceed %d characters", maxTitleLength)
	}
	if strings.TrimSpace(text) == "" {
		return nil, types.NewValidationError("blog text must not be empty")
	}

	blog := models.Blog{
		Title:     title,
		BlogText:  text,
		CreatedOn: time.Now().UTC(),
		OwnerID:   ownerID,
	}
	if err := db.Create(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

// GetBlog fetches a single blog by id.
func GetBlog(db *gorm.DB, id uint64) (*models.Blog, error) {
	var blog models.Blog
	err := db.Where("id = ?", id).First(&blog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewNotFoundError("blog %d not found", id)
		}
		return nil, err
	}
	return &blog, nil
}

// ListBlogs returns all blogs, newest first.
func ListBlogs(db *gorm.DB) ([]models.Blog, error) {
	var blogs []models.Blog
	if err := db.Order("created_on DESC").Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

// ListComments returns all comments of a blog, oldest first.
func ListComments(db *gorm.DB, blogID uint64) ([]models.Comment, error) {
	if _, err := GetBlog(db, blogID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := db.Where("blog_id = ?", blogID).Order("time_commented ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment validates and attaches a comment to an existing blog. The
// author is a free-text display name.
func AddComment(db *gorm.DB, blogID uint64, username, text string) (*models.Comment, error) {
	if strings.TrimSpace(username) == "" {
		return nil, types.NewValidationError("comment username must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, types.NewValidationError("comment text must not be empty")
	}

	if _, err := GetBlog(db, blogID); err != nil {
		return nil, err
	}

	comment := models.Comment{
		CommentText:   text,
		Username:      username,
		TimeCommented: time.Now().UTC(),
		BlogID:        blogID,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}
