package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/views"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, avatar_public_id,
        cover_image_url, cover_image_public_id, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record. A taken username or email yields ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := exec(ctx, r.pool, "users.create", `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, avatar_public_id,
            cover_image_url, cover_image_public_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password, user.Avatar.URL, user.Avatar.PublicID,
		user.CoverImage.URL, user.CoverImage.PublicID, user.CreatedAt, user.UpdatedAt)
	return err
}

// FindByID fetches a user by id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "users.find_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByLogin fetches a user whose email or username equals identifier.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, "users.find_by_login", `SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1 LIMIT 1`, identifier)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, op, sql string, arg string) (models.User, error) {
	var user models.User
	err := queryRow(ctx, r.pool, op, sql, []any{arg},
		&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.Avatar.URL, &user.Avatar.PublicID, &user.CoverImage.URL, &user.CoverImage.PublicID,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateAccount changes the display name and email of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string, at time.Time) error {
	return execOne(ctx, r.pool, "users.update_account", `
        UPDATE users SET full_name = $2, email = $3, updated_at = $4 WHERE id = $1
    `, id, fullName, email, at)
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return execOne(ctx, r.pool, "users.update_password", `
        UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
    `, id, passwordHash, at)
}

// ReplaceAvatar stores a new avatar and returns the one it replaced.
func (r *PostgresUserRepository) ReplaceAvatar(ctx context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error) {
	return r.replaceAsset(ctx, id, "avatar", asset)
}

// ReplaceCoverImage stores a new cover image and returns the one it replaced.
func (r *PostgresUserRepository) ReplaceCoverImage(ctx context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error) {
	return r.replaceAsset(ctx, id, "cover_image", asset)
}

func (r *PostgresUserRepository) replaceAsset(ctx context.Context, id, column string, asset models.MediaAsset) (models.MediaAsset, error) {
	var previous models.MediaAsset
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`SELECT %[1]s_url, %[1]s_public_id FROM users WHERE id = $1 FOR UPDATE`, column), id)
		if err := row.Scan(&previous.URL, &previous.PublicID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE users SET %[1]s_url = $2, %[1]s_public_id = $3, updated_at = $4 WHERE id = $1`, column),
			id, asset.URL, asset.PublicID, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.MediaAsset{}, mapError("users.replace_"+column, err)
	}
	return previous, nil
}

// Channel loads the stored fields of username's channel.
func (r *PostgresUserRepository) Channel(ctx context.Context, username string) (models.Channel, error) {
	q := views.Query{Spec: channelSpec(username)}
	return oneView(ctx, r.pool, "users.channel", q, identity[models.Channel])
}

// ChannelStats counts the channel's subscriptions at read time and reports
// whether viewer subscribes to it.
func (r *PostgresUserRepository) ChannelStats(ctx context.Context, channelID, viewer string) (models.ChannelStats, error) {
	q := views.Query{Spec: channelStatsSpec(channelID, viewer)}
	return oneView(ctx, r.pool, "users.channel_stats", q, identity[models.ChannelStats])
}

// WatchHistory lists the videos userID watched, most recent first.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string, params pagination.Params) (pagination.Page[models.VideoView], error) {
	q := views.Query{Spec: watchHistorySpec(userID)}
	return listView(ctx, r.pool, "users.watch_history", q, params, videoRow.view)
}

// Delete removes the user and everything they own or reference, returning
// the media assets that are no longer referenced.
func (r *PostgresUserRepository) Delete(ctx context.Context, id string) ([]models.MediaAsset, error) {
	return deleteCascade(ctx, r.pool, entityUser, id)
}

// SaveRefreshToken implements auth.SessionStore.
func (r *PostgresUserRepository) SaveRefreshToken(ctx context.Context, userID, digest string) error {
	return execOne(ctx, r.pool, "users.save_refresh_token", `
        UPDATE users SET refresh_token_hash = $2 WHERE id = $1
    `, userID, digest)
}

// RotateRefreshToken implements auth.SessionStore with a single compare-and-set.
func (r *PostgresUserRepository) RotateRefreshToken(ctx context.Context, userID, current, next string) error {
	tag, err := exec(ctx, r.pool, "users.rotate_refresh_token", `
        UPDATE users SET refresh_token_hash = $3
        WHERE id = $1 AND refresh_token_hash = $2 AND refresh_token_hash <> ''
    `, userID, current, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// ClearRefreshToken implements auth.SessionStore.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := exec(ctx, r.pool, "users.clear_refresh_token", `
        UPDATE users SET refresh_token_hash = '' WHERE id = $1
    `, userID)
	return err
}

var _ auth.SessionStore = (*PostgresUserRepository)(nil)
