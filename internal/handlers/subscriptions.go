package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/response"
)

// SubscriptionHandler toggles channel subscriptions and lists both sides of them.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserFinder
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := auth.ActorFromContext(ctx)

	channelID, err := pathID(r, "channelId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if channelID == actor {
		fail(w, r, apperr.InvalidArgument("You cannot subscribe to your own channel"), "")
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		fail(w, r, err, "Channel not found")
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, actor, channelID)
	if err != nil {
		fail(w, r, err, "Channel not found")
		return
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	response.JSON(ctx, w, http.StatusOK, map[string]any{"channelId": channelID, "subscribed": subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathID(r, "channelId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		fail(w, r, err, "Channel not found")
		return
	}

	page, err := h.Subscriptions.Subscribers(ctx, channelID, pageParams(r))
	if err != nil {
		fail(w, r, err, "")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if _, err := h.Users.FindByID(ctx, subscriberID); err != nil {
		fail(w, r, err, "User not found")
		return
	}

	page, err := h.Subscriptions.SubscribedChannels(ctx, subscriberID, pageParams(r))
	if err != nil {
		fail(w, r, err, "")
		return
	}
	response.JSON(ctx, w, http.StatusOK, page, "Subscribed channels fetched successfully")
}
