package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an actor in one of four roles. Role is fixed at creation. A FROZEN
// user cannot author new submissions or initiate purchases.
type User struct {
	UserID           uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Fullname         string         `gorm:"column:fullname;not null" json:"fullname"`
	UserName         string         `gorm:"column:user_name;not null" json:"user_name"`
	Email            string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash     string         `gorm:"column:password_hash;not null" json:"-"`
	Role             string         `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Status           string         `gorm:"column:status;type:varchar(16);not null;default:'ACTIVE'" json:"status"`
	TrustScore       int            `gorm:"column:trust_score;not null;default:50" json:"trust_score"`
	Earnings         float64        `gorm:"column:earnings;type:decimal(18,2);not null;default:0" json:"earnings"`
	CreditsPurchased float64        `gorm:"column:credits_purchased;type:decimal(18,2);not null;default:0" json:"credits_purchased"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "Users"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}
