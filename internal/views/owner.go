package views

import "github.com/vidtube/backend/internal/models"

// OwnerColumns scans the owner projection of a view. Embed it in a row type
// next to the view model.
type OwnerColumns struct {
	OwnerID               *string `db:"owner_id"`
	OwnerUsername         *string `db:"owner_username"`
	OwnerFullName         *string `db:"owner_full_name"`
	OwnerAvatar           *string `db:"owner_avatar"`
	OwnerSubscribersCount *int64  `db:"owner_subscribers_count"`
	OwnerIsSubscribed     *bool   `db:"owner_is_subscribed"`
}

// Owner returns nil when the owner reference did not resolve.
func (c OwnerColumns) Owner() *models.Owner {
	if c.OwnerID == nil {
		return nil
	}
	return &models.Owner{
		ID:               *c.OwnerID,
		Username:         deref(c.OwnerUsername),
		FullName:         deref(c.OwnerFullName),
		Avatar:           deref(c.OwnerAvatar),
		SubscribersCount: c.OwnerSubscribersCount,
		IsSubscribed:     c.OwnerIsSubscribed,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
