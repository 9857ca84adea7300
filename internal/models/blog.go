package models

import (
	"time"
)

// Blog is a post owned by exactly one user. Deleting the owner deletes the
// blog; deleting the blog deletes its comments. The cascade is declared at
// the schema level and also executed explicitly inside the delete
// transactions in services, so it holds even on databases where the
// generated constraint is missing.
type Blog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	BlogText  string    `gorm:"type:text;not null" json:"blogText"`
	CreatedOn time.Time `json:"createdOn"`
	OwnerID   string    `gorm:"type:char(36);not null;index" json:"ownerId"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []Comment `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// Comment belongs to exactly one blog. The author is a free-text display
// name, not necessarily a registered user.
type Comment struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentText   string    `gorm:"type:text;not null" json:"commentText"`
	Username      string    `gorm:"size:255;not null" json:"username"`
	TimeCommented time.Time `json:"timeCommented"`
	BlogID        uint64    `gorm:"not null;index" json:"blogId"`
}

// TableName overrides the table name for Blog
func (Blog) TableName() string {
	return "blogs"
}

// TableName overrides the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
