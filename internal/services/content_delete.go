// content_delete.go
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

	"github.com/basicblog/gateway/internal/models"
	"github.com/basicblog/gateway/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// adminRole grants delete rights over content not owned by the principal.
const adminRole = "admin"

// DeleteBlog deletes a blog and all of its comments in one transaction.
// Only the owner or an admin principal may delete. The blog row is locked
// before the cascade so concurrent deletes cannot partially interleave.
func DeleteBlog(db *gorm.DB, id uint64, requester *types.Principal) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var blog models.Blog
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&blog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewNotFoundError("blog %d not found", id)
			}
			return err
		}

		if blog.OwnerID != requester.UserID && !requester.HasRole(adminRole) {
			return types.NewForbiddenError("only the owner or an admin may delete this blog")
		}

		if err := tx.Where("blog_id = ?", blog.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&blog).Error
	})
}

// DeleteComment removes a single comment from a blog. Only the blog owner
// or an admin principal may delete comments.
func DeleteComment(db *gorm.DB, blogID, commentID uint64, requester *types.Principal) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var blog models.Blog
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", blogID).
			First(&blog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewNotFoundError("blog %d not found", blogID)
			}
			return err
		}

		if blog.OwnerID != requester.UserID && !requester.HasRole(adminRole) {
			return types.NewForbiddenError("only the owner or an admin may delete comments on this blog")
		}

		result := tx.Where("id = ? AND blog_id = ?", commentID, blogID).Delete(&models.Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("comment %d not found on blog %d", commentID, blogID)
		}
		return nil
	})
}

// DeleteUser deletes a user and cascades to all owned blogs, their
// comments, and the user's sessions, atomically. A partial cascade rolls
// back entirely.
func DeleteUser(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewNotFoundError("user %s not found", id)
			}
			return err
		}

		ownedBlogs := tx.Model(&models.Blog{}).Select("id").Where("owner_id = ?", user.ID)
		if err := tx.Where("blog_id IN (?)", ownedBlogs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&models.Blog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}
