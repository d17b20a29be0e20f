// Package domain defines the persistence models for the publishing queue,
// per-account tweet drafts, and the recurring tip feed. These types map 1:1
// onto the JSON documents on disk and form the core data layer of the
// publishing backend.
package domain

import "time"

// Platform identifies a supported social network target.
type Platform string

// Supported platforms. The set is closed; anything else fails validation.
const (
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

// ValidPlatform reports whether p is one of the supported platforms.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformTwitter, PlatformInstagram, PlatformFacebook:
		return true
	}
	return false
}

// PostKind is the content shape of a queued post.
type PostKind string

// Supported content shapes.
const (
	KindFeed   PostKind = "feed"
	KindReel   PostKind = "reel"
	KindStory  PostKind = "story"
	KindThread PostKind = "thread"
	KindPoll   PostKind = "poll"
)

// ValidKind reports whether k is one of the supported content shapes.
func ValidKind(k PostKind) bool {
	switch k {
	case KindFeed, KindReel, KindStory, KindThread, KindPoll:
		return true
	}
	return false
}

// Status is the lifecycle state of a queued post.
type Status string

// Lifecycle states. "rejected" and "posted" are terminal for the default
// flow; a failed dispatch leaves the post in "scheduled" for retry.
const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusScheduled Status = "scheduled"
	StatusPosted    Status = "posted"
)

// ValidStatus reports whether s is one of the defined lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusScheduled, StatusPosted:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transition in the default flow.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPosted
}

// Post is the publishable unit flowing through the approval queue.
//
// Fields:
//   - ID: opaque unique id (post-<epochMillis>-<token>), immutable once assigned.
//   - Platform / Kind: target network and content shape.
//   - Status: current lifecycle state, always one of the defined states.
//   - ScheduledTime: target publish time; a past-due value means "ready now".
//   - Caption: required text body. MediaURLs keep their order; hashtags and
//     mentions are sets (order irrelevant).
//   - CreatedAt: set once at creation, immutable.
//   - ApprovedAt / ApprovedBy: set only on the transition into "approved".
//   - PostedAt / PlatformPostID / PlatformURL: set only on dispatch success.
//   - LastError: last dispatch failure; cleared by a successful publish,
//     retained across failed attempts for diagnosis.
type Post struct {
	ID             string     `json:"id"`
	Platform       Platform   `json:"platform"`
	Kind           PostKind   `json:"type"`
	Status         Status     `json:"status"`
	ScheduledTime  time.Time  `json:"scheduledTime"`
	Caption        string     `json:"caption"`
	MediaURLs      []string   `json:"mediaUrls,omitempty"`
	Hashtags       []string   `json:"hashtags,omitempty"`
	Mentions       []string   `json:"mentions,omitempty"`
	Link           string     `json:"link,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ApprovedAt     *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy     string     `json:"approvedBy,omitempty"`
	PostedAt       *time.Time `json:"postedAt,omitempty"`
	PlatformPostID string     `json:"postId,omitempty"`
	PlatformURL    string     `json:"postUrl,omitempty"`
	LastError      string     `json:"error,omitempty"`
}

// Draft is a per-account text draft (tweet drafts). Its ID carries a numeric
// suffix that is monotonically increasing per account, not globally
// (e.g. cmo-1, cmo-2 alongside brand-1).
type Draft struct {
	ID           string     `json:"id"`
	Account      string     `json:"account"`
	Text         string     `json:"text"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	Posted       bool       `json:"posted"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Tip is one unit of the recurring content feed. Tips are consumed strictly
// in stored order: the dispatcher always publishes the first tip with
// Posted=false and never reorders the feed.
type Tip struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Posted   bool       `json:"posted"`
	PostedAt *time.Time `json:"postedAt,omitempty"`
}

// DispatchRecord is one entry of the rolling dispatch log.
type DispatchRecord struct {
	Timestamp time.Time `json:"timestamp"`
	PostID    string    `json:"postId"`
	Platform  Platform  `json:"platform"`
	Success   bool      `json:"success"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	DryRun    bool      `json:"dryRun,omitempty"`
}
