package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Post constraints.
const (
	MaxTitleLength = 300
	MaxBodyLength  = 40000
)

// VoteDirection is the direction of a vote request.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// ParseVoteDirection converts a user supplied string into a VoteDirection.
func ParseVoteDirection(s string) (VoteDirection, error) {
	switch VoteDirection(strings.ToLower(strings.TrimSpace(s))) {
	case VoteUp:
		return VoteUp, nil
	case VoteDown:
		return VoteDown, nil
	}
	return "", ErrInvalidArgument.WithDetails("direction must be \"up\" or \"down\"")
}

// VoteState is a user's standing on a post after a vote is applied.
type VoteState string

const (
	VoteStateNone VoteState = "none"
	VoteStateUp   VoteState = "up"
	VoteStateDown VoteState = "down"
)

// Post is a titled text entry with its voter sets.
//
// A user id is in at most one of Upvoters and Downvoters. Both slices are kept
// sorted and free of duplicates.
type Post struct {
	ID         string   `json:"id" dynamodbav:"id"`
	Title      string   `json:"title" dynamodbav:"title"`
	Body       string   `json:"body" dynamodbav:"body"`
	AuthorID   string   `json:"author_id" dynamodbav:"author_id"`
	Upvoters   []string `json:"upvoters" dynamodbav:"upvoters"`
	Downvoters []string `json:"downvoters" dynamodbav:"downvoters"`
	CreatedAt  int64    `json:"created_at" dynamodbav:"created_at"`
	Version    uint64   `json:"version" dynamodbav:"version"`
}

// NewPost creates a Post with a generated ID and empty voter sets.
func NewPost(title, body, authorID string) *Post {
	return &Post{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(title),
		Body:       body,
		AuthorID:   authorID,
		Upvoters:   []string{},
		Downvoters: []string{},
		CreatedAt:  time.Now().UnixMilli(),
		Version:    1,
	}
}

// Validate checks the post content.
func (p *Post) Validate() error {
	var violations []string
	if p.Title == "" {
		violations = append(violations, "title is required")
	}
	if utf8.RuneCountInString(p.Title) > MaxTitleLength {
		violations = append(violations, "title exceeds 300 characters")
	}
	if utf8.RuneCountInString(p.Body) > MaxBodyLength {
		violations = append(violations, "body exceeds 40000 characters")
	}
	if p.AuthorID == "" {
		violations = append(violations, "author_id is required")
	}
	if len(violations) > 0 {
		return ErrPostValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// ApplyVote applies the vote toggle for userID and returns the resulting state.
//
// The user is first removed from the opposite set. Then, if already present in
// the set matching dir, the vote is withdrawn; otherwise it is recorded.
func (p *Post) ApplyVote(userID string, dir VoteDirection) VoteState {
	same, opposite := &p.Upvoters, &p.Downvoters
	state := VoteStateUp
	if dir == VoteDown {
		same, opposite = &p.Downvoters, &p.Upvoters
		state = VoteStateDown
	}

	*opposite = removeMember(*opposite, userID)
	if hasMember(*same, userID) {
		*same = removeMember(*same, userID)
		return VoteStateNone
	}
	*same = addMember(*same, userID)
	return state
}

// Score returns upvotes minus downvotes.
func (p *Post) Score() int {
	return len(p.Upvoters) - len(p.Downvoters)
}

// IncrVersion increments the version number for optimistic locking.
func (p *Post) IncrVersion() {
	p.Version++
}

// GetVersion implements cmap.Versioned.
func (p *Post) GetVersion() uint64 {
	return p.Version
}

// SetVersion implements cmap.Versioned.
func (p *Post) SetVersion(v uint64) {
	p.Version = v
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Upvoters = slices.Clone(p.Upvoters)
	c.Downvoters = slices.Clone(p.Downvoters)
	if c.Upvoters == nil {
		c.Upvoters = []string{}
	}
	if c.Downvoters == nil {
		c.Downvoters = []string{}
	}
	return &c
}

func hasMember(set []string, id string) bool {
	_, found := slices.BinarySearch(set, id)
	return found
}

func addMember(set []string, id string) []string {
	i, found := slices.BinarySearch(set, id)
	if found {
		return set
	}
	return slices.Insert(set, i, id)
}

func removeMember(set []string, id string) []string {
	i, found := slices.BinarySearch(set, id)
	if !found {
		return set
	}
	return slices.Delete(set, i, i+1)
}
