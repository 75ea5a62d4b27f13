package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/pagination"
	"github.com/vidtube/backend/internal/repositories"
)

const (
	aliceID = "11111111-1111-4111-8111-111111111111"
	bobID   = "22222222-2222-4222-8222-222222222222"
	videoID = "33333333-3333-4333-8333-333333333333"
	otherID = "44444444-4444-4444-8444-444444444444"
)

var fixedNow = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// events records the order in which collaborators were called.
type events []string

func (e *events) add(s string) {
	if e != nil {
		*e = append(*e, s)
	}
}

type userStoreStub struct {
	users   map[string]models.User
	created []models.User
	deleted []models.MediaAsset
	stats   func(channelID, viewer string) models.ChannelStats
}

func newUserStore(users ...models.User) *userStoreStub {
	s := &userStoreStub{users: map[string]models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userStoreStub) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (s *userStoreStub) Create(_ context.Context, user models.User) error {
	s.created = append(s.created, user)
	s.users[user.ID] = user
	return nil
}

func (s *userStoreStub) FindByLogin(_ context.Context, identifier string) (models.User, error) {
	for _, u := range s.users {
		if u.Email == identifier || u.Username == identifier {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *userStoreStub) UpdateAccount(_ context.Context, id, fullName, email string, at time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.FullName, u.Email, u.UpdatedAt = fullName, email, at
	s.users[id] = u
	return nil
}

func (s *userStoreStub) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Password, u.UpdatedAt = passwordHash, at
	s.users[id] = u
	return nil
}

func (s *userStoreStub) ReplaceAvatar(_ context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error) {
	u, ok := s.users[id]
	if !ok {
		return models.MediaAsset{}, repositories.ErrNotFound
	}
	previous := u.Avatar
	u.Avatar = asset
	s.users[id] = u
	return previous, nil
}

func (s *userStoreStub) ReplaceCoverImage(_ context.Context, id string, asset models.MediaAsset) (models.MediaAsset, error) {
	u, ok := s.users[id]
	if !ok {
		return models.MediaAsset{}, repositories.ErrNotFound
	}
	previous := u.CoverImage
	u.CoverImage = asset
	s.users[id] = u
	return previous, nil
}

func (s *userStoreStub) Channel(_ context.Context, username string) (models.Channel, error) {
	for _, u := range s.users {
		if u.Username == username {
			return models.Channel{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar.URL}, nil
		}
	}
	return models.Channel{}, repositories.ErrNotFound
}

func (s *userStoreStub) ChannelStats(_ context.Context, channelID, viewer string) (models.ChannelStats, error) {
	if _, ok := s.users[channelID]; !ok {
		return models.ChannelStats{}, repositories.ErrNotFound
	}
	if s.stats != nil {
		return s.stats(channelID, viewer), nil
	}
	return models.ChannelStats{}, nil
}

func (s *userStoreStub) WatchHistory(_ context.Context, _ string, params pagination.Params) (pagination.Page[models.VideoView], error) {
	return pagination.NewPage[models.VideoView](nil, 0, params), nil
}

func (s *userStoreStub) Delete(_ context.Context, id string) ([]models.MediaAsset, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delete(s.users, id)
	return append([]models.MediaAsset{u.Avatar}, s.deleted...), nil
}

type sessionStub struct {
	issued  []string
	revoked []string
	refresh map[string]string
}

func (s *sessionStub) Issue(_ context.Context, userID string) (models.SessionTokens, error) {
	s.issued = append(s.issued, userID)
	return models.SessionTokens{
		AccessToken:      "access-" + userID,
		AccessExpiresAt:  fixedNow.Add(time.Hour),
		RefreshToken:     "refresh-" + userID,
		RefreshExpiresAt: fixedNow.Add(24 * time.Hour),
	}, nil
}

func (s *sessionStub) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	userID, ok := s.refresh[refreshToken]
	if !ok {
		return models.SessionTokens{}, auth.ErrSessionNotFound
	}
	return s.Issue(ctx, userID)
}

func (s *sessionStub) Revoke(_ context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

type mediaStub struct {
	log *events
	err error
}

func (m *mediaStub) Upload(_ context.Context, localPath string) (models.MediaAsset, error) {
	name := filepath.Base(localPath)
	m.log.add("upload")
	_ = os.Remove(localPath)
	if m.err != nil {
		return models.MediaAsset{}, m.err
	}
	return models.MediaAsset{URL: "https://media.test/" + name, PublicID: name}, nil
}

type janitorStub struct {
	log       *events
	discarded []models.MediaAsset
}

func (j *janitorStub) Discard(_ context.Context, assets ...models.MediaAsset) {
	for _, a := range assets {
		if a.PublicID == "" {
			continue
		}
		j.log.add("discard:" + a.PublicID)
		j.discarded = append(j.discarded, a)
	}
}

type proberStub float64

func (p proberStub) DurationOrZero(_ context.Context, path string) float64 {
	if _, err := os.Stat(path); err != nil {
		return 0
	}
	return float64(p)
}

type videoStoreStub struct {
	log       *events
	videos    map[string]models.Video
	updateErr error
	views     []string
	lastList  repositories.VideoListFilter
}

func newVideoStore(log *events, videos ...models.Video) *videoStoreStub {
	s := &videoStoreStub{log: log, videos: map[string]models.Video{}}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *videoStoreStub) Create(_ context.Context, video models.Video) error {
	s.log.add("create")
	s.videos[video.ID] = video
	return nil
}

func (s *videoStoreStub) FindByID(_ context.Context, id string) (models.Video, error) {
	v, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return v, nil
}

func (s *videoStoreStub) List(_ context.Context, filter repositories.VideoListFilter, opts repositories.ListOptions) (pagination.Page[models.VideoView], error) {
	s.lastList = filter
	return pagination.NewPage[models.VideoView](nil, 0, opts.Page), nil
}

func (s *videoStoreStub) Detail(_ context.Context, id, viewer string) (models.VideoView, error) {
	v, ok := s.videos[id]
	if !ok || (!v.IsPublished && v.OwnerID != viewer) {
		return models.VideoView{}, repositories.ErrNotFound
	}
	return models.VideoView{ID: v.ID, Title: v.Title, Views: v.Views, IsPublished: v.IsPublished}, nil
}

func (s *videoStoreStub) RecordView(_ context.Context, id, viewer string) error {
	v, ok := s.videos[id]
	if !ok || (!v.IsPublished && v.OwnerID != viewer) {
		return repositories.ErrNotFound
	}
	v.Views++
	s.videos[id] = v
	s.views = append(s.views, viewer)
	return nil
}

func (s *videoStoreStub) Update(_ context.Context, video models.Video) error {
	s.log.add("update")
	if s.updateErr != nil {
		return s.updateErr
	}
	s.videos[video.ID] = video
	return nil
}

func (s *videoStoreStub) TogglePublished(_ context.Context, id string) (bool, error) {
	v, ok := s.videos[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	v.IsPublished = !v.IsPublished
	s.videos[id] = v
	return v.IsPublished, nil
}

func (s *videoStoreStub) Delete(_ context.Context, id string) ([]models.MediaAsset, error) {
	v, ok := s.videos[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delete(s.videos, id)
	return []models.MediaAsset{v.VideoFile, v.Thumbnail}, nil
}

func (s *videoStoreStub) LikedBy(_ context.Context, _ string, params pagination.Params) (pagination.Page[models.VideoView], error) {
	return pagination.NewPage[models.VideoView](nil, 0, params), nil
}

// envelope mirrors the response envelope for decoding in tests.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()

	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.StatusCode != rec.Code {
		t.Fatalf("envelope status %d does not match response status %d", env.StatusCode, rec.Code)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status: got %d want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a form with the given text fields and files, where
// files maps a field name to its file name.
func multipartRequest(t *testing.T, method, target string, fields, files map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(strings.Repeat("x", 16))); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func asActor(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithActor(req.Context(), userID))
}

var errBoom = errors.New("boom")
