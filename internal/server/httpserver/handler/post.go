package handler

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/postvote-go/internal/core/domain"
	"github.com/yndnr/postvote-go/internal/core/service"
	"github.com/yndnr/postvote-go/internal/telemetry/metric"
)

var postsCreated = func(m *metric.Registry) *prometheus.CounterVec { return m.PostsCreated }

// handleCreatePost handles POST /posts.
func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	userID, token := Credentials(r)

	post, err := h.posts.CreatePost(r.Context(), &service.CreatePostRequest{
		UserID: userID,
		Token:  token,
		Title:  req.Title,
		Body:   req.Body,
	})
	h.countResult(postsCreated, err)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, postToResponse(post))
}

// handleGetPost handles GET /posts/{id}.
func (h *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, postToResponse(post))
}

// handleVote handles POST /posts/{id}/votes.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	userID, token := Credentials(r)

	resp, err := h.posts.CastVote(r.Context(), &service.CastVoteRequest{
		UserID:    userID,
		Token:     token,
		PostID:    r.PathValue("id"),
		Direction: req.Direction,
	})
	if h.metrics != nil {
		h.metrics.Votes.WithLabelValues(voteLabel(req.Direction), metric.Result(err)).Inc()
	}
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, VoteResponse{
		PostID:    resp.PostID,
		State:     string(resp.State),
		Upvotes:   resp.Upvotes,
		Downvotes: resp.Downvotes,
		Score:     resp.Upvotes - resp.Downvotes,
	})
}

// voteLabel keeps the direction label bounded.
func voteLabel(direction string) string {
	dir, err := domain.ParseVoteDirection(direction)
	if err != nil {
		return "invalid"
	}
	return string(dir)
}

func postToResponse(p *domain.Post) PostResponse {
	return PostResponse{
		ID:         p.ID,
		Title:      p.Title,
		Body:       p.Body,
		AuthorID:   p.AuthorID,
		Upvoters:   orEmpty(p.Upvoters),
		Downvoters: orEmpty(p.Downvoters),
		Upvotes:    len(p.Upvoters),
		Downvotes:  len(p.Downvoters),
		Score:      p.Score(),
		CreatedAt:  time.UnixMilli(p.CreatedAt).UTC(),
		Version:    p.Version,
	}
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
