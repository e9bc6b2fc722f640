package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/postvote-go/internal/cli/output"
)

// sessionView is the data of POST /users and POST /sessions.
type sessionView struct {
	UserID    string    `json:"user_id" yaml:"user_id"`
	Token     string    `json:"token" yaml:"token"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

func (v *sessionView) Table() *output.Table {
	return output.KeyValue(
		"USER ID", v.UserID,
		"TOKEN", v.Token,
		"EXPIRES", output.FormatTime(v.ExpiresAt),
	)
}

// verifyView is the data of POST /sessions/verify.
type verifyView struct {
	Valid  bool   `json:"valid" yaml:"valid"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (v *verifyView) Table() *output.Table {
	return output.KeyValue(
		"VALID", strconv.FormatBool(v.Valid),
		"REASON", v.Reason,
	)
}

// postView is the data of the post endpoints.
type postView struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Body       string    `json:"body" yaml:"body"`
	AuthorID   string    `json:"author_id" yaml:"author_id"`
	Upvoters   []string  `json:"upvoters" yaml:"upvoters"`
	Downvoters []string  `json:"downvoters" yaml:"downvoters"`
	Upvotes    int       `json:"upvotes" yaml:"upvotes"`
	Downvotes  int       `json:"downvotes" yaml:"downvotes"`
	Score      int       `json:"score" yaml:"score"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Version    uint64    `json:"version" yaml:"version"`
}

func (v *postView) Table() *output.Table {
	return output.KeyValue(
		"ID", v.ID,
		"TITLE", v.Title,
		"BODY", v.Body,
		"AUTHOR", v.AuthorID,
		"UPVOTES", strconv.Itoa(v.Upvotes),
		"DOWNVOTES", strconv.Itoa(v.Downvotes),
		"SCORE", strconv.Itoa(v.Score),
		"UPVOTERS", strings.Join(v.Upvoters, ","),
		"DOWNVOTERS", strings.Join(v.Downvoters, ","),
		"CREATED", output.FormatTime(v.CreatedAt),
	)
}

// voteView is the data of POST /posts/{id}/votes.
type voteView struct {
	PostID    string `json:"post_id" yaml:"post_id"`
	State     string `json:"state" yaml:"state"`
	Upvotes   int    `json:"upvotes" yaml:"upvotes"`
	Downvotes int    `json:"downvotes" yaml:"downvotes"`
	Score     int    `json:"score" yaml:"score"`
}

func (v *voteView) Table() *output.Table {
	t := &output.Table{Headers: []string{"POST", "STATE", "UPVOTES", "DOWNVOTES", "SCORE"}}
	t.AddRow(v.PostID, v.State, strconv.Itoa(v.Upvotes), strconv.Itoa(v.Downvotes), strconv.Itoa(v.Score))
	return t
}

// healthView is the data of GET /health and GET /ready.
type healthView struct {
	Status  string `json:"status" yaml:"status"`
	Time    string `json:"time" yaml:"time"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (v *healthView) Table() *output.Table {
	return output.KeyValue(
		"STATUS", v.Status,
		"VERSION", v.Version,
		"BACKEND", v.Backend,
		"TIME", v.Time,
		"ERROR", v.Error,
	)
}
