package repositories

import (
	"strings"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/views"
)

// Row types pair a view model with the owner projection; convert methods
// attach the owner sub-object, leaving it nil when the owner is gone.

type videoRow struct {
	models.VideoView
	views.OwnerColumns
}

func (r videoRow) view() models.VideoView {
	v := r.VideoView
	v.Owner = r.OwnerColumns.Owner()
	return v
}

type commentRow struct {
	models.CommentView
	views.OwnerColumns
}

func (r commentRow) view() models.CommentView {
	c := r.CommentView
	c.Owner = r.OwnerColumns.Owner()
	return c
}

type tweetRow struct {
	models.TweetView
	views.OwnerColumns
}

func (r tweetRow) view() models.TweetView {
	t := r.TweetView
	t.Owner = r.OwnerColumns.Owner()
	return t
}

type subscriberRow struct {
	models.Subscriber
	views.OwnerColumns
}

func (r subscriberRow) view() models.Subscriber {
	s := r.Subscriber
	s.Subscriber = r.OwnerColumns.Owner()
	return s
}

type subscribedChannelRow struct {
	models.SubscribedChannel
	views.OwnerColumns
}

func (r subscribedChannelRow) view() models.SubscribedChannel {
	s := r.SubscribedChannel
	s.Channel = r.OwnerColumns.Owner()
	return s
}

type playlistRow struct {
	models.PlaylistView
	views.OwnerColumns
}

func (r playlistRow) view() models.PlaylistView {
	p := r.PlaylistView
	p.Owner = r.OwnerColumns.Owner()
	return p
}

func identity[T any](v T) T { return v }

var (
	videoSortKeys = map[string]string{
		"createdAt": "v.created_at",
		"views":     "v.views",
		"duration":  "v.duration",
		"title":     "v.title",
	}
	createdAtSortKeys = func(alias string) map[string]string {
		return map[string]string{"createdAt": alias + ".created_at"}
	}
)

func videoColumns() []views.Column {
	return []views.Column{
		{Expr: "v.id", As: "id"},
		{Expr: "v.video_url"},
		{Expr: "v.thumbnail_url"},
		{Expr: "v.title"},
		{Expr: "v.description"},
		{Expr: "v.duration"},
		{Expr: "v.views"},
		{Expr: "v.is_published"},
		{Expr: "v.created_at"},
		{Expr: "v.updated_at"},
	}
}

func likesCount(kind, localKey string) views.Count {
	return views.Count{
		As:         "likes_count",
		Table:      "likes",
		ForeignKey: "target_id",
		LocalKey:   localKey,
		Where:      "x.target_kind = '" + kind + "'",
	}
}

func likedFlag(kind, localKey, viewer string) views.Flag {
	return views.Flag{
		As:            "is_liked",
		Table:         "likes",
		ForeignKey:    "target_id",
		LocalKey:      localKey,
		SubjectColumn: "liked_by",
		Subject:       viewer,
		Where:         "x.target_kind = '" + kind + "'",
	}
}

func subscribersCount(as, localKey string) views.Count {
	return views.Count{As: as, Table: "subscriptions", ForeignKey: "channel_id", LocalKey: localKey}
}

// videoVisibility admits published videos, plus the viewer's own unpublished ones.
func videoVisibility(viewer string) views.Filter {
	if viewer == "" {
		return views.Filter{Expr: "v.is_published"}
	}
	return views.Filter{Expr: "v.is_published OR v.owner_id = ?", Args: []any{viewer}}
}

func videoBase(viewer string) views.Spec {
	return views.Spec{
		Table:   "videos",
		Alias:   "v",
		Columns: videoColumns(),
		Owner:   &views.Owner{ForeignKey: "v.owner_id"},
		Counts:  []views.Count{likesCount(models.LikeTargetVideo, "v.id")},
		Flags:   []views.Flag{likedFlag(models.LikeTargetVideo, "v.id", viewer)},
	}
}

// VideoListFilter narrows the public video listing.
type VideoListFilter struct {
	Query   string
	OwnerID string
	Viewer  string
}

func videoListSpec(f VideoListFilter) views.Spec {
	spec := videoBase(f.Viewer)
	spec.SortKeys = videoSortKeys

	if f.OwnerID != "" {
		spec.Filters = append(spec.Filters, views.Filter{Expr: "v.owner_id = ?", Args: []any{f.OwnerID}})
	}
	// Owners see their own drafts only when listing their own channel.
	if f.OwnerID == "" || f.OwnerID != f.Viewer {
		spec.Filters = append(spec.Filters, views.Filter{Expr: "v.is_published"})
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		spec.Filters = append(spec.Filters, views.Filter{
			Expr: "v.title ILIKE ? OR v.description ILIKE ?",
			Args: []any{pattern, pattern},
		})
	}
	return spec
}

func videoDetailSpec(videoID, viewer string) views.Spec {
	spec := videoBase(viewer)
	spec.Counts = append(spec.Counts, subscribersCount("owner_subscribers_count", views.OwnerAlias+".id"))
	spec.Flags = append(spec.Flags, views.Flag{
		As:            "owner_is_subscribed",
		Table:         "subscriptions",
		ForeignKey:    "channel_id",
		LocalKey:      views.OwnerAlias + ".id",
		SubjectColumn: "subscriber_id",
		Subject:       viewer,
	})
	spec.Filters = []views.Filter{{Expr: "v.id = ?", Args: []any{videoID}}, videoVisibility(viewer)}
	return spec
}

func likedVideosSpec(actor string) views.Spec {
	spec := videoBase(actor)
	spec.Joins = []views.Join{{
		Clause: "JOIN likes l ON l.target_id = v.id AND l.target_kind = 'video' AND l.liked_by = ?",
		Args:   []any{actor},
	}}
	spec.Filters = []views.Filter{videoVisibility(actor)}
	spec.DefaultSort = views.Sort{Key: "likedAt", Expr: "l.created_at", Desc: true}
	return spec
}

func watchHistorySpec(userID string) views.Spec {
	spec := videoBase(userID)
	spec.Joins = []views.Join{{
		Clause: "JOIN watch_history h ON h.video_id = v.id AND h.user_id = ?",
		Args:   []any{userID},
	}}
	spec.Filters = []views.Filter{videoVisibility(userID)}
	spec.DefaultSort = views.Sort{Key: "watchedAt", Expr: "h.watched_at", Desc: true}
	return spec
}

func playlistVideosSpec(playlistID, viewer string) views.Spec {
	spec := videoBase(viewer)
	spec.Joins = []views.Join{{
		Clause: "JOIN playlist_videos pv ON pv.video_id = v.id AND pv.playlist_id = ?",
		Args:   []any{playlistID},
	}}
	spec.Filters = []views.Filter{videoVisibility(viewer)}
	spec.DefaultSort = views.Sort{Key: "position", Expr: "pv.position"}
	return spec
}

func commentsSpec(videoID, viewer string) views.Spec {
	return views.Spec{
		Table: "comments",
		Alias: "c",
		Columns: []views.Column{
			{Expr: "c.id", As: "id"},
			{Expr: "c.content"},
			{Expr: "c.video_id"},
			{Expr: "c.created_at"},
			{Expr: "c.updated_at"},
		},
		Owner:    &views.Owner{ForeignKey: "c.owner_id"},
		Counts:   []views.Count{likesCount(models.LikeTargetComment, "c.id")},
		Flags:    []views.Flag{likedFlag(models.LikeTargetComment, "c.id", viewer)},
		Filters:  []views.Filter{{Expr: "c.video_id = ?", Args: []any{videoID}}},
		SortKeys: createdAtSortKeys("c"),
	}
}

func tweetsSpec(ownerID, viewer string) views.Spec {
	return views.Spec{
		Table: "tweets",
		Alias: "t",
		Columns: []views.Column{
			{Expr: "t.id", As: "id"},
			{Expr: "t.content"},
			{Expr: "t.created_at"},
			{Expr: "t.updated_at"},
		},
		Owner:    &views.Owner{ForeignKey: "t.owner_id"},
		Counts:   []views.Count{likesCount(models.LikeTargetTweet, "t.id")},
		Flags:    []views.Flag{likedFlag(models.LikeTargetTweet, "t.id", viewer)},
		Filters:  []views.Filter{{Expr: "t.owner_id = ?", Args: []any{ownerID}}},
		SortKeys: createdAtSortKeys("t"),
	}
}

func channelSpec(username string) views.Spec {
	return views.Spec{
		Table: "users",
		Alias: "u",
		Columns: []views.Column{
			{Expr: "u.id", As: "id"},
			{Expr: "u.username"},
			{Expr: "u.full_name"},
			{Expr: "u.email"},
			{Expr: "u.avatar_url"},
			{Expr: "u.cover_image_url"},
			{Expr: "u.created_at"},
		},
		Filters: []views.Filter{{Expr: "u.username = ?", Args: []any{strings.ToLower(strings.TrimSpace(username))}}},
	}
}

func channelStatsSpec(channelID, viewer string) views.Spec {
	return views.Spec{
		Table: "users",
		Alias: "u",
		Counts: []views.Count{
			subscribersCount("subscribers_count", "u.id"),
			{As: "channels_subscribed_to_count", Table: "subscriptions", ForeignKey: "subscriber_id", LocalKey: "u.id"},
		},
		Flags: []views.Flag{{
			As:            "is_subscribed",
			Table:         "subscriptions",
			ForeignKey:    "channel_id",
			LocalKey:      "u.id",
			SubjectColumn: "subscriber_id",
			Subject:       viewer,
		}},
		Filters: []views.Filter{{Expr: "u.id = ?", Args: []any{channelID}}},
	}
}

func subscribersSpec(channelID string) views.Spec {
	return views.Spec{
		Table:   "subscriptions",
		Alias:   "s",
		Columns: []views.Column{{Expr: "s.id", As: "id"}, {Expr: "s.created_at"}},
		Owner:   &views.Owner{ForeignKey: "s.subscriber_id"},
		Counts:  []views.Count{subscribersCount("subscribers_count", "s.subscriber_id")},
		// Whether the channel follows its subscriber back.
		Flags: []views.Flag{{
			As:            "subscribed_to_subscriber",
			Table:         "subscriptions",
			ForeignKey:    "channel_id",
			LocalKey:      "s.subscriber_id",
			SubjectColumn: "subscriber_id",
			Subject:       channelID,
		}},
		Filters:  []views.Filter{{Expr: "s.channel_id = ?", Args: []any{channelID}}},
		SortKeys: createdAtSortKeys("s"),
	}
}

func subscribedChannelsSpec(subscriberID string) views.Spec {
	return views.Spec{
		Table: "subscriptions",
		Alias: "s",
		Columns: []views.Column{
			{Expr: "s.id", As: "id"},
			{Expr: "s.created_at"},
			{
				Expr: "(SELECT lv.id FROM videos lv WHERE lv.owner_id = s.channel_id AND lv.is_published ORDER BY lv.created_at DESC LIMIT 1)",
				As:   "latest_video_id",
			},
		},
		Owner:    &views.Owner{ForeignKey: "s.channel_id"},
		Counts:   []views.Count{subscribersCount("owner_subscribers_count", views.OwnerAlias+".id")},
		Filters:  []views.Filter{{Expr: "s.subscriber_id = ?", Args: []any{subscriberID}}},
		SortKeys: createdAtSortKeys("s"),
	}
}

// playlistSpec aggregates only the playlist videos viewer may see.
func playlistSpec(viewer string) views.Spec {
	visible, args := "tv.is_published", []any(nil)
	if viewer != "" {
		visible, args = "(tv.is_published OR tv.owner_id = ?)", []any{viewer}
	}

	return views.Spec{
		Table: "playlists",
		Alias: "p",
		Columns: []views.Column{
			{Expr: "p.id", As: "id"},
			{Expr: "p.name"},
			{Expr: "p.description"},
			{Expr: "p.created_at"},
			{Expr: "p.updated_at"},
			{
				Expr: "(SELECT COALESCE(SUM(tv.views), 0) FROM playlist_videos tp JOIN videos tv ON tv.id = tp.video_id WHERE tp.playlist_id = p.id AND " + visible + ")::BIGINT",
				As:   "total_views",
				Args: args,
			},
		},
		Owner: &views.Owner{ForeignKey: "p.owner_id"},
		Counts: []views.Count{{
			As:         "total_videos",
			Table:      "playlist_videos",
			ForeignKey: "playlist_id",
			LocalKey:   "p.id",
			Where:      "EXISTS (SELECT 1 FROM videos tv WHERE tv.id = x.video_id AND " + visible + ")",
			Args:       args,
		}},
		SortKeys: map[string]string{"createdAt": "p.created_at", "name": "p.name"},
	}
}

func userPlaylistsSpec(ownerID, viewer string) views.Spec {
	spec := playlistSpec(viewer)
	spec.Filters = []views.Filter{{Expr: "p.owner_id = ?", Args: []any{ownerID}}}
	return spec
}

func playlistDetailSpec(playlistID, viewer string) views.Spec {
	spec := playlistSpec(viewer)
	spec.Filters = []views.Filter{{Expr: "p.id = ?", Args: []any{playlistID}}}
	return spec
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
