package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate username, got %v", err)
	}

	for _, login := range []string{"alice", "alice@example.com"} {
		fetched, err := repo.FindByLogin(ctx, login)
		if err != nil {
			t.Fatalf("find by login %q: %v", login, err)
		}
		if fetched.ID != user.ID || fetched.Password != user.Password {
			t.Fatalf("unexpected user fetched: %+v", fetched)
		}
	}

	if err := repo.UpdateAccount(ctx, user.ID, "Alice Liddell", "liddell@example.com", time.Now().UTC()); err != nil {
		t.Fatalf("update account: %v", err)
	}
	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.FullName != "Alice Liddell" || fetched.Email != "liddell@example.com" {
		t.Fatalf("expected updated fields to persist, got %+v", fetched)
	}

	previous, err := repo.ReplaceAvatar(ctx, user.ID, models.MediaAsset{URL: "https://cdn/new.png", PublicID: "new.png"})
	if err != nil {
		t.Fatalf("replace avatar: %v", err)
	}
	if previous != user.Avatar {
		t.Fatalf("expected previous avatar %+v, got %+v", user.Avatar, previous)
	}

	if err := repo.UpdatePassword(ctx, uuid.NewString(), "hash", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}
}

func TestPostgresUserRepository_RefreshTokenCompareAndRotate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "owner")

	if err := repo.SaveRefreshToken(ctx, user.ID, "digest-1"); err != nil {
		t.Fatalf("save refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "digest-1", "digest-2"); err != nil {
		t.Fatalf("rotate refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "digest-1", "digest-3"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound replaying a rotated token, got %v", err)
	}

	if err := repo.ClearRefreshToken(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, user.ID, "", "digest-4"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}
}

func TestPostgresVideoRepository_PaginatesTwelveVideos(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	owner := createTestUser(t, NewPostgresUserRepository(testPool), "owner")
	repo := NewPostgresVideoRepository(testPool)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		createTestVideo(t, repo, owner.ID, fmt.Sprintf("video %02d", i), base.Add(time.Duration(i)*time.Minute), true)
	}

	page, err := repo.List(ctx, VideoListFilter{}, ListOptions{Page: pagination.Params{Page: 3, Limit: 5}})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(page.Docs) != 2 || page.TotalDocs != 12 || page.TotalPages != 3 {
		t.Fatalf("unexpected page: docs=%d total=%d pages=%d", len(page.Docs), page.TotalDocs, page.TotalPages)
	}
	if page.HasNextPage || !page.HasPrevPage {
		t.Fatalf("expected hasNext=false hasPrev=true, got %v %v", page.HasNextPage, page.HasPrevPage)
	}
	// newest first, so the last page holds the two oldest
	if page.Docs[0].Title != "video 01" || page.Docs[1].Title != "video 00" {
		t.Fatalf("unexpected order on last page: %q, %q", page.Docs[0].Title, page.Docs[1].Title)
	}
	if page.Docs[0].Owner == nil || page.Docs[0].Owner.Username != "owner" {
		t.Fatalf("expected owner to be projected, got %+v", page.Docs[0].Owner)
	}
}

func TestPostgresVideoRepository_PagesPartitionTies(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	owner := createTestUser(t, NewPostgresUserRepository(testPool), "owner")
	repo := NewPostgresVideoRepository(testPool)

	// identical timestamps force the id tie-break to decide the order
	at := time.Now().UTC().Truncate(time.Second)
	want := map[string]bool{}
	for i := 0; i < 7; i++ {
		want[createTestVideo(t, repo, owner.ID, fmt.Sprintf("tie %d", i), at, true).ID] = true
	}

	seen := map[string]int{}
	for p := 1; p <= 3; p++ {
		page, err := repo.List(ctx, VideoListFilter{}, ListOptions{Page: pagination.Params{Page: p, Limit: 3}})
		if err != nil {
			t.Fatalf("list page %d: %v", p, err)
		}
		for _, v := range page.Docs {
			seen[v.ID]++
		}
	}

	if len(seen) != len(want) {
		t.Fatalf("expected %d distinct videos across pages, got %d", len(want), len(seen))
	}
	for id, n := range seen {
		if !want[id] || n != 1 {
			t.Fatalf("video %s seen %d times", id, n)
		}
	}
}

func TestPostgresVideoRepository_VisibilityAndOwnerless(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "owner")
	viewer := createTestUser(t, users, "viewer")
	repo := NewPostgresVideoRepository(testPool)

	draft := createTestVideo(t, repo, owner.ID, "draft", time.Now().UTC(), false)
	orphan := createTestVideo(t, repo, "", "orphan", time.Now().UTC(), true)

	if _, err := repo.Detail(ctx, draft.ID, viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected draft hidden from other viewers, got %v", err)
	}
	if _, err := repo.Detail(ctx, draft.ID, owner.ID); err != nil {
		t.Fatalf("expected draft visible to owner: %v", err)
	}

	view, err := repo.Detail(ctx, orphan.ID, "")
	if err != nil {
		t.Fatalf("detail of ownerless video: %v", err)
	}
	if view.Owner != nil || view.IsLiked {
		t.Fatalf("expected no owner and isLiked=false, got %+v", view)
	}

	if err := repo.RecordView(ctx, orphan.ID, viewer.ID); err != nil {
		t.Fatalf("record view: %v", err)
	}
	if err := repo.RecordView(ctx, draft.ID, viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound recording a view of a hidden draft, got %v", err)
	}

	history, err := users.WatchHistory(ctx, viewer.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history.Docs) != 1 || history.Docs[0].ID != orphan.ID || history.Docs[0].Views != 1 {
		t.Fatalf("unexpected watch history: %+v", history.Docs)
	}
}

func TestPostgresLikeRepository_ToggleAlternates(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "owner")
	viewer := createTestUser(t, users, "viewer")
	videos := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videos, owner.ID, "clip", time.Now().UTC(), true)

	likes := NewPostgresLikeRepository(testPool)
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}

	for i, want := range []bool{true, false, true} {
		got, err := likes.Toggle(ctx, target, viewer.ID)
		if err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("toggle %d: expected %v, got %v", i, want, got)
		}
	}

	view, err := videos.Detail(ctx, video.ID, viewer.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if view.LikesCount != 1 || !view.IsLiked {
		t.Fatalf("expected likesCount=1 isLiked=true, got %d %v", view.LikesCount, view.IsLiked)
	}

	anon, err := videos.Detail(ctx, video.ID, "")
	if err != nil {
		t.Fatalf("anonymous detail: %v", err)
	}
	if anon.IsLiked {
		t.Fatalf("expected isLiked=false for anonymous viewer")
	}

	liked, err := videos.LikedBy(ctx, viewer.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if liked.TotalDocs != 1 || liked.Docs[0].ID != video.ID {
		t.Fatalf("unexpected liked videos: %+v", liked.Docs)
	}

	if _, err := likes.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetTweet, ID: uuid.NewString()}, viewer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound toggling a missing tweet, got %v", err)
	}
}

func TestPostgresLikeRepository_DraftsResolveForOwnerOnly(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "owner")
	stranger := createTestUser(t, users, "stranger")
	draft := createTestVideo(t, NewPostgresVideoRepository(testPool), owner.ID, "draft", time.Now().UTC(), false)

	likes := NewPostgresLikeRepository(testPool)
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: draft.ID}

	if _, err := likes.Toggle(ctx, target, stranger.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound liking another user's draft, got %v", err)
	}
	if on, err := likes.Toggle(ctx, target, owner.ID); err != nil || !on {
		t.Fatalf("owner like: on=%v err=%v", on, err)
	}
}

func TestPostgresLikeRepository_ConcurrentTogglesNeverDuplicate(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	owner := createTestUser(t, users, "owner")
	viewer := createTestUser(t, users, "viewer")
	video := createTestVideo(t, NewPostgresVideoRepository(testPool), owner.ID, "clip", time.Now().UTC(), true)

	likes := NewPostgresLikeRepository(testPool)
	target := models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := likes.Toggle(ctx, target, viewer.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent toggle: %v", err)
	}

	var count int
	if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE target_id = $1 AND liked_by = $2`, video.ID, viewer.ID).Scan(&count); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count > 1 {
		t.Fatalf("expected at most one like record, got %d", count)
	}
}

func TestPostgresCommentRepository_DeleteRemovesLikes(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	author := createTestUser(t, users, "author")
	viewer := createTestUser(t, users, "viewer")
	video := createTestVideo(t, NewPostgresVideoRepository(testPool), author.ID, "clip", time.Now().UTC(), true)

	comments := NewPostgresCommentRepository(testPool)
	comment := models.Comment{
		ID:        uuid.NewString(),
		OwnerID:   author.ID,
		VideoID:   video.ID,
		Content:   "Great video",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := comments.Create(ctx, comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	likes := NewPostgresLikeRepository(testPool)
	if liked, err := likes.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID}, viewer.ID); err != nil || !liked {
		t.Fatalf("like comment: liked=%v err=%v", liked, err)
	}

	page, err := comments.ListForVideo(ctx, video.ID, viewer.ID, ListOptions{Page: pagination.Params{Page: 1, Limit: 10}})
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(page.Docs) != 1 || page.Docs[0].LikesCount != 1 || !page.Docs[0].IsLiked || page.Docs[0].Owner.Username != "author" {
		t.Fatalf("unexpected comment view: %+v", page.Docs)
	}

	if err := comments.Delete(ctx, comment.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := comments.Delete(ctx, comment.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}

	var count int
	if err := testPool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE target_id = $1`, comment.ID).Scan(&count); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected likes of deleted comment to be removed, got %d", count)
	}
}

func TestPostgresSubscriptionRepository_ToggleAndViews(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	channel := createTestUser(t, users, "channel")
	fan := createTestUser(t, users, "fan")
	latest := createTestVideo(t, NewPostgresVideoRepository(testPool), channel.ID, "latest", time.Now().UTC(), true)

	subs := NewPostgresSubscriptionRepository(testPool)
	if on, err := subs.Toggle(ctx, fan.ID, channel.ID); err != nil || !on {
		t.Fatalf("subscribe: on=%v err=%v", on, err)
	}
	if on, err := subs.Toggle(ctx, channel.ID, fan.ID); err != nil || !on {
		t.Fatalf("subscribe back: on=%v err=%v", on, err)
	}

	found, err := users.Channel(ctx, "Channel")
	if err != nil || found.ID != channel.ID {
		t.Fatalf("channel: %+v err=%v", found, err)
	}
	stats, err := users.ChannelStats(ctx, channel.ID, fan.ID)
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	if stats.SubscribersCount != 1 || stats.ChannelsSubscribedToCount != 1 || !stats.IsSubscribed {
		t.Fatalf("unexpected channel stats: %+v", stats)
	}
	if anon, err := users.ChannelStats(ctx, channel.ID, ""); err != nil || anon.IsSubscribed {
		t.Fatalf("anonymous stats: %+v err=%v", anon, err)
	}

	subscribers, err := subs.Subscribers(ctx, channel.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if len(subscribers.Docs) != 1 || !subscribers.Docs[0].SubscribedToSubscriber || subscribers.Docs[0].Subscriber.ID != fan.ID {
		t.Fatalf("unexpected subscribers: %+v", subscribers.Docs)
	}

	channels, err := subs.SubscribedChannels(ctx, fan.ID, pagination.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("subscribed channels: %v", err)
	}
	if len(channels.Docs) != 1 || channels.Docs[0].LatestVideo == nil || *channels.Docs[0].LatestVideo != latest.ID {
		t.Fatalf("unexpected subscribed channels: %+v", channels.Docs)
	}

	if on, err := subs.Toggle(ctx, fan.ID, channel.ID); err != nil || on {
		t.Fatalf("unsubscribe: on=%v err=%v", on, err)
	}
	if _, err := subs.Toggle(ctx, fan.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound subscribing to a missing channel, got %v", err)
	}
}

func TestPostgresPlaylistRepository_AddRemoveAndDetail(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	owner := createTestUser(t, NewPostgresUserRepository(testPool), "owner")
	videos := NewPostgresVideoRepository(testPool)
	first := createTestVideo(t, videos, owner.ID, "first", time.Now().UTC(), true)
	second := createTestVideo(t, videos, owner.ID, "second", time.Now().UTC().Add(-time.Hour), true)

	repo := NewPostgresPlaylistRepository(testPool)
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        "Favourites",
		Description: "best of",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	for _, id := range []string{second.ID, first.ID} {
		if err := repo.AddVideo(ctx, playlist.ID, id); err != nil {
			t.Fatalf("add video %s: %v", id, err)
		}
	}
	if err := repo.AddVideo(ctx, playlist.ID, first.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict adding a video twice, got %v", err)
	}

	detail, err := repo.Detail(ctx, playlist.ID, "")
	if err != nil {
		t.Fatalf("playlist detail: %v", err)
	}
	if detail.TotalVideos != 2 || len(detail.Videos) != 2 || detail.Videos[0].ID != second.ID {
		t.Fatalf("unexpected playlist detail: total=%d videos=%+v", detail.TotalVideos, detail.Videos)
	}

	draft := createTestVideo(t, videos, owner.ID, "draft", time.Now().UTC(), false)
	if err := repo.AddVideo(ctx, playlist.ID, draft.ID); err != nil {
		t.Fatalf("add draft: %v", err)
	}
	anonymous, err := repo.Detail(ctx, playlist.ID, "")
	if err != nil {
		t.Fatalf("anonymous detail: %v", err)
	}
	if anonymous.TotalVideos != int64(len(anonymous.Videos)) || anonymous.TotalVideos != 2 {
		t.Fatalf("totals count hidden videos: total=%d videos=%d", anonymous.TotalVideos, len(anonymous.Videos))
	}
	mine, err := repo.Detail(ctx, playlist.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner detail: %v", err)
	}
	if mine.TotalVideos != 3 || len(mine.Videos) != 3 {
		t.Fatalf("expected owner to see the draft: total=%d videos=%d", mine.TotalVideos, len(mine.Videos))
	}
	if err := repo.RemoveVideo(ctx, playlist.ID, draft.ID); err != nil {
		t.Fatalf("remove draft: %v", err)
	}

	if err := repo.RemoveVideo(ctx, playlist.ID, second.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}
	if err := repo.RemoveVideo(ctx, playlist.ID, second.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing an absent video, got %v", err)
	}

	if _, err := videos.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	detail, err = repo.Detail(ctx, playlist.ID, "")
	if err != nil {
		t.Fatalf("playlist detail after delete: %v", err)
	}
	if detail.TotalVideos != 0 {
		t.Fatalf("expected deleted video to leave the playlist, got %d", detail.TotalVideos)
	}
}

func TestPostgresUserRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	gone := createTestUser(t, users, "gone")
	other := createTestUser(t, users, "other")

	videos := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, videos, gone.ID, "clip", time.Now().UTC(), true)
	otherVideo := createTestVideo(t, videos, other.ID, "kept", time.Now().UTC(), true)

	comments := NewPostgresCommentRepository(testPool)
	onOwnVideo := models.Comment{ID: uuid.NewString(), OwnerID: other.ID, VideoID: video.ID, Content: "hi", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	onOtherVideo := models.Comment{ID: uuid.NewString(), OwnerID: gone.ID, VideoID: otherVideo.ID, Content: "yo", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	for _, c := range []models.Comment{onOwnVideo, onOtherVideo} {
		if err := comments.Create(ctx, c); err != nil {
			t.Fatalf("create comment: %v", err)
		}
	}

	likes := NewPostgresLikeRepository(testPool)
	if _, err := likes.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetVideo, ID: otherVideo.ID}, gone.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := NewPostgresSubscriptionRepository(testPool).Toggle(ctx, other.ID, gone.ID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	assets, err := users.Delete(ctx, gone.ID)
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if len(assets) != 4 {
		t.Fatalf("expected avatar, cover, video and thumbnail assets, got %+v", assets)
	}

	for table, query := range map[string]string{
		"videos":        `SELECT COUNT(*) FROM videos WHERE owner_id = $1`,
		"comments":      `SELECT COUNT(*) FROM comments`,
		"likes":         `SELECT COUNT(*) FROM likes WHERE liked_by = $1`,
		"subscriptions": `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`,
	} {
		var count int
		args := []any{gone.ID}
		if table == "comments" {
			args = nil
		}
		if err := testPool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("expected no %s left, got %d", table, count)
		}
	}

	if _, err := videos.FindByID(ctx, otherVideo.ID); err != nil {
		t.Fatalf("expected other user's video to survive: %v", err)
	}
	if _, err := users.Delete(ctx, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, playlist_videos, playlists, subscriptions, likes, tweets, comments, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      username + "@example.com",
		FullName:   username,
		Password:   "password-hash",
		Avatar:     models.MediaAsset{URL: "https://cdn/" + username + ".png", PublicID: username + ".png"},
		CoverImage: models.MediaAsset{URL: "https://cdn/" + username + "-cover.png", PublicID: username + "-cover.png"},
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

// createTestVideo stores a video; an empty ownerID leaves the owner unset.
func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, at time.Time, published bool) models.Video {
	t.Helper()
	id := uuid.NewString()
	video := models.Video{
		ID:          id,
		OwnerID:     ownerID,
		VideoFile:   models.MediaAsset{URL: "https://cdn/" + id + ".mp4", PublicID: id + ".mp4"},
		Thumbnail:   models.MediaAsset{URL: "https://cdn/" + id + ".jpg", PublicID: id + ".jpg"},
		Title:       title,
		Description: "about " + title,
		Duration:    12.5,
		IsPublished: published,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}
