package account

import (
	"context"
	"slices"

	"github.com/fjod/techmart/internal/domain"
)

func (s *Service) AddToWishlist(ctx context.Context, id domain.ProductID) ([]domain.ProductID, error) {
	u, err := s.UpdateProfile(ctx, func(u *domain.User) error {
		if slices.Contains(u.Wishlist, id) {
			return ErrAlreadyInWishlist
		}
		u.Wishlist = append(u.Wishlist, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.Wishlist, nil
}

// RemoveFromWishlist succeeds when id is not on the list.
func (s *Service) RemoveFromWishlist(ctx context.Context, id domain.ProductID) ([]domain.ProductID, error) {
	u, err := s.UpdateProfile(ctx, func(u *domain.User) error {
		u.Wishlist = slices.DeleteFunc(u.Wishlist, func(w domain.ProductID) bool { return w == id })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.Wishlist, nil
}

func (s *Service) Wishlist(ctx context.Context) []domain.ProductID {
	u, ok := s.CurrentUser(ctx)
	if !ok || u.Wishlist == nil {
		return []domain.ProductID{}
	}
	return u.Wishlist
}
