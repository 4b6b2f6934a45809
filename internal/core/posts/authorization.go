package posts

import "Pressroom/internal/core/users"

// OwnerOrAdmin lets authors modify their own posts and lets admins do anything
type OwnerOrAdmin struct{}

// NewOwnerOrAdmin creates the default authorization policy
func NewOwnerOrAdmin() Authorizer {
	return OwnerOrAdmin{}
}

// CanModify allows the post author and admins
func (OwnerOrAdmin) CanModify(viewer users.Identity, authorID int64) bool {
	if viewer.IsAnonymous() {
		return false
	}
	return viewer.Admin || viewer.UserID == authorID
}

// CanListAllUnpublished allows admins only
func (OwnerOrAdmin) CanListAllUnpublished(viewer users.Identity) bool {
	return !viewer.IsAnonymous() && viewer.Admin
}
