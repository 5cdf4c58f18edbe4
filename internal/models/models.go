package models

import (
	"time"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `gorm:"not null"                  json:"description"`
	Price       float64 `gorm:"not null"                  json:"price"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	Count       uint    `json:"count"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url"`
	Role         string `gorm:"not null;default:customer" json:"role"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"          json:"id"`
	Token     string    `gorm:"unique;not null"     json:"token"`
	UserID    uint      `gorm:"index;not null"      json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"            json:"expires_at"`
	Revoked   bool      `gorm:"default:false"       json:"revoked"`
}

// CartItem keeps at most one row per (user, product); quantity changes
// replace the row's quantity rather than appending rows.
type CartItem struct {
	ID        uint `gorm:"primaryKey"                                  json:"id"`
	UserID    uint `gorm:"index;uniqueIndex:idx_cart_user_product"     json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_user_product"  json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"                  json:"quantity"`
}

type WishlistItem struct {
	ID        uint `gorm:"primaryKey"                                  json:"id"`
	UserID    uint `gorm:"index;uniqueIndex:idx_wish_user_product"     json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_wish_user_product"  json:"product_id"`
}
