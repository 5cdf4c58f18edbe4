package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avelasov/techstore/internal/models"
)

// GormStore serves the store interfaces from Postgres. One cart row per
// (user, product) is enforced with an upsert on the unique index.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) ListCartLines(ctx context.Context, userID uint) ([]CartLine, error) {
	var lines []CartLine
	err := s.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("cart_items.product_id, cart_items.quantity, products.name, products.price, products.image_url").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Order("cart_items.id").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *GormStore) CountCartLines(ctx context.Context, userID uint) (int, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return int(n), err
}

func (s *GormStore) AddCartLine(ctx context.Context, userID, productID, quantity uint) error {
	if quantity == 0 {
		return fmt.Errorf("quantity must be positive: %w", ErrRejected)
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %d not found: %w", productID, ErrRejected)
		}
		return err
	}

	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"quantity": quantity}),
		}).
		Create(&item).Error
}

func (s *GormStore) RemoveCartLine(ctx context.Context, userID, productID uint) error {
	// Deleting an absent line is a no-op success.
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

func (s *GormStore) ListWishlist(ctx context.Context, userID uint) ([]WishlistEntry, error) {
	var entries []WishlistEntry
	err := s.DB.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Select("wishlist_items.product_id, products.name, products.price, products.image_url, products.rating").
		Joins("JOIN products ON products.id = wishlist_items.product_id").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.id").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormStore) CountWishlist(ctx context.Context, userID uint) (int, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return int(n), err
}

func (s *GormStore) ToggleWishlist(ctx context.Context, userID, productID uint) (bool, error) {
	nowPresent := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.WishlistItem
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
		if err == nil {
			return tx.Delete(&item).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %d not found: %w", productID, ErrRejected)
			}
			return err
		}
		nowPresent = true
		return tx.Create(&models.WishlistItem{UserID: userID, ProductID: productID}).Error
	})
	if err != nil {
		return false, err
	}
	return nowPresent, nil
}

func (s *GormStore) GetRole(ctx context.Context, userID uint) (string, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *GormStore) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &Profile{Name: user.Name, Email: user.Email, AvatarURL: user.AvatarURL}, nil
}
