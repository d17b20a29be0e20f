// Package publish hides the social platform APIs behind a uniform
// capability-set contract. The queue service and dispatcher depend only on
// the Publisher interface; a concrete adapter exists per platform (twitter
// via the bird CLI, instagram and facebook via the Meta Graph API).
//
// Adapters treat partial success as total failure: if a media upload
// succeeds but the caption post fails, the caller sees one *PublishError
// and the item stays retryable. No adapter attempts rollback.
package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/courtlab/go-publish-backend/internal/domain"
)

// ErrPublish is the sentinel matched by every *PublishError.
var ErrPublish = errors.New("publish failed")

// PublishError reports a failed platform call, carrying the platform's raw
// error message for the item's lastError field.
type PublishError struct {
	Platform domain.Platform
	Message  string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

// Is makes every *PublishError match ErrPublish under errors.Is.
func (e *PublishError) Is(target error) bool { return target == ErrPublish }

// Content is the platform-independent payload of one publish attempt.
type Content struct {
	Kind      domain.PostKind
	Caption   string
	MediaURLs []string
	Hashtags  []string
	Link      string
}

// Result is the platform's acknowledgment of a successful publish.
type Result struct {
	PlatformPostID string
	PlatformURL    string
}

// Publisher posts content to one platform. Implementations must honor the
// context deadline: a timed-out call is a failure, never a success.
type Publisher interface {
	Publish(ctx context.Context, content Content) (*Result, error)
}

// Liker is the optional "like" capability.
type Liker interface {
	Like(ctx context.Context, targetID string) (actionID string, err error)
}

// Commenter is the optional "comment" capability.
type Commenter interface {
	Comment(ctx context.Context, targetID, message string) (actionID string, err error)
}

// Follower is the optional "follow" capability.
type Follower interface {
	Follow(ctx context.Context, targetID string) (actionID string, err error)
}

// Registry resolves a platform to its configured publisher.
type Registry map[domain.Platform]Publisher

// For returns the publisher for a platform, or a *PublishError when the
// platform has no adapter registered.
func (r Registry) For(platform domain.Platform) (Publisher, error) {
	if p, ok := r[platform]; ok && p != nil {
		return p, nil
	}
	return nil, &PublishError{Platform: platform, Message: "no publisher configured for platform"}
}
