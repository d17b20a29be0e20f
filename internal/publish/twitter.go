// Twitter adapter.
//
// Posting goes through the bird CLI rather than the official API. The
// credentials (AUTH_TOKEN, CT0) come from configuration and are injected
// into the child process environment only; they never appear in command
// arguments, logs, or any persisted document.
package publish

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/courtlab/go-publish-backend/internal/config"
	"github.com/courtlab/go-publish-backend/internal/domain"
)

// tweetIDRE extracts the status id from bird's stdout (a status URL).
var tweetIDRE = regexp.MustCompile(`status/(\d+)`)

// runCommand is swappable in tests to avoid requiring the bird binary.
type runCommand func(ctx context.Context, name string, env []string, args ...string) (stdout, stderr string, err error)

// TwitterPublisher posts tweets via the bird CLI.
type TwitterPublisher struct {
	cfg config.TwitterConfig
	run runCommand
}

// NewTwitterPublisher returns a Publisher for twitter. It fails at publish
// time, not construction time, when credentials are missing, so a partially
// configured deployment can still serve the other platforms.
func NewTwitterPublisher(cfg config.TwitterConfig) *TwitterPublisher {
	return &TwitterPublisher{cfg: cfg, run: execCommand}
}

// execCommand runs the binary with the extra environment appended.
func execCommand(ctx context.Context, name string, env []string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.String(), errb.String(), err
}

// Publish posts the caption (with hashtags appended) as a tweet, attaching
// the first media url when present.
func (p *TwitterPublisher) Publish(ctx context.Context, content Content) (*Result, error) {
	if p.cfg.AuthToken == "" || p.cfg.CT0 == "" {
		return nil, &PublishError{Platform: domain.PlatformTwitter, Message: "twitter credentials not configured"}
	}

	text := content.Caption
	if len(content.Hashtags) > 0 {
		text += "\n\n" + strings.Join(content.Hashtags, " ")
	}

	args := []string{"tweet", text}
	if len(content.MediaURLs) > 0 {
		args = append(args, "--media", content.MediaURLs[0])
	}

	env := []string{
		"AUTH_TOKEN=" + p.cfg.AuthToken,
		"CT0=" + p.cfg.CT0,
	}

	stdout, stderr, err := p.run(ctx, p.cfg.BirdPath, env, args...)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		if ctx.Err() != nil {
			msg = "publish timed out: " + msg
		}
		return nil, &PublishError{Platform: domain.PlatformTwitter, Message: msg}
	}
	if stderr != "" && !strings.Contains(strings.ToLower(stderr), "success") {
		return nil, &PublishError{Platform: domain.PlatformTwitter, Message: strings.TrimSpace(stderr)}
	}

	res := &Result{}
	if m := tweetIDRE.FindStringSubmatch(stdout); m != nil {
		res.PlatformPostID = m[1]
		res.PlatformURL = "https://twitter.com/i/web/status/" + m[1]
	}
	return res, nil
}
