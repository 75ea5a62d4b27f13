package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// DevPassword is the password of every seeded account.
const DevPassword = "password123"

func newSeedCmd() *cobra.Command {
	var opts SeedOptions

	cmd := &cobra.Command{
		Use:   "seed <name>",
		Short: "Load demo data",
		Long: "Load demo data. \"dev\" generates fake users, videos and activity through the\n" +
			"repositories; any other name applies <seed_dir>/<name>_seed.sql.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.Users, "users", 8, "number of users to create")
	cmd.Flags().IntVar(&opts.VideosPerUser, "videos", 3, "videos per user")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one from the clock)")
	return cmd
}

func runSeed(ctx context.Context, out io.Writer, name string, opts SeedOptions) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if name == "dev" {
		seeder := NewSeeder(SeedStores{
			Users:         repositories.NewPostgresUserRepository(pool),
			Videos:        repositories.NewPostgresVideoRepository(pool),
			Comments:      repositories.NewPostgresCommentRepository(pool),
			Tweets:        repositories.NewPostgresTweetRepository(pool),
			Likes:         repositories.NewPostgresLikeRepository(pool),
			Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
			Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		}, opts)
		summary, err := seeder.Run(ctx)
		if err != nil {
			return err
		}
		logger.Info("seeded development data", "users", summary.Users, "videos", summary.Videos)
		fmt.Fprintf(out, "seeded %d users, %d videos, %d comments, %d tweets (password %q)\n",
			summary.Users, summary.Videos, summary.Comments, summary.Tweets, DevPassword)
		return nil
	}

	seedDir, err := absolute(cfg.SeedDir)
	if err != nil {
		return err
	}
	seedName := name
	if !strings.HasSuffix(seedName, ".sql") {
		seedName = fmt.Sprintf("%s_seed.sql", seedName)
	}
	contents, err := os.ReadFile(filepath.Join(seedDir, seedName))
	if err != nil {
		return fmt.Errorf("read seed %s: %w", seedName, err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", seedName, err)
	}

	fmt.Fprintf(out, "applied seed %s\n", seedName)
	return nil
}

// SeedOptions sizes the generated data set.
type SeedOptions struct {
	Users         int
	VideosPerUser int
	Seed          int64
}

// SeedStores are the write paths the seeder goes through.
type SeedStores struct {
	Users interface {
		Create(ctx context.Context, user models.User) error
	}
	Videos interface {
		Create(ctx context.Context, video models.Video) error
	}
	Comments interface {
		Create(ctx context.Context, comment models.Comment) error
	}
	Tweets interface {
		Create(ctx context.Context, tweet models.Tweet) error
	}
	Likes interface {
		Toggle(ctx context.Context, target models.LikeTarget, actor string) (bool, error)
	}
	Subscriptions interface {
		Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	}
	Playlists interface {
		Create(ctx context.Context, playlist models.Playlist) error
		AddVideo(ctx context.Context, playlistID, videoID string) error
	}
}

// SeedSummary counts what a seeding run created.
type SeedSummary struct {
	Users         int
	Videos        int
	Comments      int
	Tweets        int
	Likes         int
	Subscriptions int
	Playlists     int
}

// Seeder generates a connected graph of demo data with gofakeit.
type Seeder struct {
	stores SeedStores
	opts   SeedOptions
	faker  *gofakeit.Faker
	now    func() time.Time
}

// NewSeeder constructs a Seeder. A zero opts.Seed seeds from the clock.
func NewSeeder(stores SeedStores, opts SeedOptions) *Seeder {
	if opts.Users <= 0 {
		opts.Users = 8
	}
	if opts.VideosPerUser < 0 {
		opts.VideosPerUser = 0
	}
	return &Seeder{stores: stores, opts: opts, faker: gofakeit.New(opts.Seed), now: time.Now}
}

// Run creates users first, then their videos, tweets and playlists, then the
// activity between them: comments, likes and subscriptions.
func (s *Seeder) Run(ctx context.Context) (SeedSummary, error) {
	var summary SeedSummary

	hash, err := bcrypt.GenerateFromPassword([]byte(DevPassword), bcrypt.DefaultCost)
	if err != nil {
		return summary, fmt.Errorf("hash seed password: %w", err)
	}

	users := make([]models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user := s.user(i, string(hash))
		if err := s.stores.Users.Create(ctx, user); err != nil {
			return summary, fmt.Errorf("seed user %s: %w", user.Username, err)
		}
		users = append(users, user)
		summary.Users++
	}

	var videos []models.Video
	for _, owner := range users {
		for i := 0; i < s.opts.VideosPerUser; i++ {
			video := s.video(owner.ID)
			if err := s.stores.Videos.Create(ctx, video); err != nil {
				return summary, fmt.Errorf("seed video: %w", err)
			}
			videos = append(videos, video)
			summary.Videos++
		}

		tweet := models.Tweet{ID: uuid.NewString(), OwnerID: owner.ID, Content: s.faker.Sentence(12)}
		tweet.CreatedAt = s.past()
		tweet.UpdatedAt = tweet.CreatedAt
		if err := s.stores.Tweets.Create(ctx, tweet); err != nil {
			return summary, fmt.Errorf("seed tweet: %w", err)
		}
		summary.Tweets++
	}

	for i, actor := range users {
		for j := 1; j <= 2 && j < len(users); j++ {
			channel := users[(i+j)%len(users)]
			if _, err := s.stores.Subscriptions.Toggle(ctx, actor.ID, channel.ID); err != nil {
				return summary, fmt.Errorf("seed subscription: %w", err)
			}
			summary.Subscriptions++
		}

		for _, video := range s.sample(videos, 3) {
			comment := models.Comment{
				ID:      uuid.NewString(),
				OwnerID: actor.ID,
				VideoID: video.ID,
				Content: s.faker.Sentence(8),
			}
			comment.CreatedAt = s.past()
			comment.UpdatedAt = comment.CreatedAt
			if err := s.stores.Comments.Create(ctx, comment); err != nil {
				return summary, fmt.Errorf("seed comment: %w", err)
			}
			summary.Comments++

			if _, err := s.stores.Likes.Toggle(ctx, models.LikeTarget{Kind: models.LikeTargetVideo, ID: video.ID}, actor.ID); err != nil {
				return summary, fmt.Errorf("seed like: %w", err)
			}
			summary.Likes++
		}

		if picks := s.sample(videos, 2); len(picks) > 0 {
			if err := s.playlist(ctx, actor.ID, picks); err != nil {
				return summary, err
			}
			summary.Playlists++
		}
	}

	return summary, nil
}

func (s *Seeder) user(i int, hash string) models.User {
	id := uuid.NewString()
	username := fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i)
	created := s.past()
	return models.User{
		ID:         id,
		Username:   username,
		Email:      username + "@example.com",
		FullName:   s.faker.Name(),
		Avatar:     models.MediaAsset{URL: "https://picsum.photos/seed/" + id + "/256/256", PublicID: "seed/avatar-" + id},
		CoverImage: models.MediaAsset{URL: "https://picsum.photos/seed/cover-" + id + "/1280/320", PublicID: "seed/cover-" + id},
		Password:   hash,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func (s *Seeder) video(ownerID string) models.Video {
	id := uuid.NewString()
	created := s.past()
	return models.Video{
		ID:          id,
		OwnerID:     ownerID,
		VideoFile:   models.MediaAsset{URL: "https://media.example.com/seed/" + id + ".mp4", PublicID: "seed/" + id + ".mp4"},
		Thumbnail:   models.MediaAsset{URL: "https://picsum.photos/seed/thumb-" + id + "/640/360", PublicID: "seed/thumb-" + id},
		Title:       strings.TrimSuffix(s.faker.Sentence(5), "."),
		Description: s.faker.Paragraph(1, 3, 12, " "),
		Duration:    float64(s.faker.Number(30, 1800)),
		Views:       int64(s.faker.Number(0, 5000)),
		IsPublished: s.faker.Number(0, 9) > 0,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func (s *Seeder) playlist(ctx context.Context, ownerID string, videos []models.Video) error {
	created := s.past()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        s.faker.HipsterWord() + " mix",
		Description: s.faker.Sentence(6),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if err := s.stores.Playlists.Create(ctx, playlist); err != nil {
		return fmt.Errorf("seed playlist: %w", err)
	}
	for _, v := range videos {
		if err := s.stores.Playlists.AddVideo(ctx, playlist.ID, v.ID); err != nil {
			return fmt.Errorf("seed playlist entry: %w", err)
		}
	}
	return nil
}

// sample picks up to n distinct videos.
func (s *Seeder) sample(videos []models.Video, n int) []models.Video {
	if n > len(videos) {
		n = len(videos)
	}
	picked := make([]models.Video, 0, n)
	for _, i := range s.faker.Rand.Perm(len(videos))[:n] {
		picked = append(picked, videos[i])
	}
	return picked
}

// past returns a timestamp spread over the last 90 days.
func (s *Seeder) past() time.Time {
	back := time.Duration(s.faker.Number(0, 90*24*60)) * time.Minute
	return s.now().UTC().Add(-back).Truncate(time.Microsecond)
}
