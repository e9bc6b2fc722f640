package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// CredentialsRequest is the request body for POST /users and POST /sessions.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is the response body for POST /users and POST /sessions.
type SessionResponse struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyRequest is the request body for POST /sessions/verify.
// Empty fields fall back to the request's credential headers.
type VerifyRequest struct {
	UserID string `json:"user_id,omitempty"`
	Token  string `json:"token,omitempty"`
}

// VerifyResponse is the response body for POST /sessions/verify.
type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// CreatePostRequest is the request body for POST /posts.
type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"author_id"`
	Upvoters   []string  `json:"upvoters"`
	Downvoters []string  `json:"downvoters"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
	Version    uint64    `json:"version"`
}

// VoteRequest is the request body for POST /posts/{id}/votes.
type VoteRequest struct {
	Direction string `json:"direction"`
}

// VoteResponse is the response body for POST /posts/{id}/votes.
type VoteResponse struct {
	PostID    string `json:"post_id"`
	State     string `json:"state"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version,omitempty"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}
