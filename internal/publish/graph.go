// Meta Graph API adapters for Instagram and Facebook.
//
// Instagram publishing is the Graph API's two-step dance: create a media
// container, then publish it. Either step failing yields a single
// *PublishError; a dangling container is harmless and expires server-side,
// so no rollback is attempted. Facebook posts go directly to the page feed
// (or /photos when media is attached).
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/courtlab/go-publish-backend/internal/config"
	"github.com/courtlab/go-publish-backend/internal/domain"
)

// graphClient issues form-encoded calls against the Graph API and decodes
// the {"id": ...} / {"error": {"message": ...}} response envelope.
type graphClient struct {
	cfg    config.GraphConfig
	client *http.Client
}

func newGraphClient(cfg config.GraphConfig) *graphClient {
	return &graphClient{cfg: cfg, client: &http.Client{Timeout: 60 * time.Second}}
}

// graphResponse is the subset of the Graph envelope the adapters need.
type graphResponse struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// call POSTs (or GETs with empty params==nil semantics via method) one Graph
// edge and returns the decoded envelope. The access token rides in the form
// body, never in the URL, to keep it out of proxy and server logs.
func (g *graphClient) call(ctx context.Context, method, path string, params url.Values) (*graphResponse, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", g.cfg.AccessToken)

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + path
	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var out graphResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("graph response status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%s", out.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("graph response status %d", resp.StatusCode)
	}
	return &out, nil
}

// captionWithTags appends the hashtag block to the caption the way the
// dashboards compose it.
func captionWithTags(content Content) string {
	caption := content.Caption
	if len(content.Hashtags) > 0 {
		caption += "\n\n" + strings.Join(content.Hashtags, " ")
	}
	return caption
}

// InstagramPublisher publishes feed images, reels, and stories to an
// Instagram business account.
type InstagramPublisher struct {
	graph *graphClient
}

// NewInstagramPublisher returns a Publisher for instagram.
func NewInstagramPublisher(cfg config.GraphConfig) *InstagramPublisher {
	return &InstagramPublisher{graph: newGraphClient(cfg)}
}

// Publish runs the container + publish two-step. Any step failing (or the
// content lacking required media) is one *PublishError.
func (p *InstagramPublisher) Publish(ctx context.Context, content Content) (*Result, error) {
	cfg := p.graph.cfg
	if cfg.AccessToken == "" || cfg.InstagramAccountID == "" {
		return nil, &PublishError{Platform: domain.PlatformInstagram, Message: "instagram credentials not configured"}
	}
	if len(content.MediaURLs) == 0 {
		return nil, &PublishError{Platform: domain.PlatformInstagram, Message: "instagram requires at least one media url"}
	}

	params := url.Values{}
	params.Set("caption", captionWithTags(content))
	switch content.Kind {
	case domain.KindReel:
		params.Set("media_type", "REELS")
		params.Set("video_url", content.MediaURLs[0])
	case domain.KindStory:
		params.Set("media_type", "STORIES")
		params.Set("image_url", content.MediaURLs[0])
	default:
		params.Set("image_url", content.MediaURLs[0])
	}

	container, err := p.graph.call(ctx, http.MethodPost, "/"+cfg.InstagramAccountID+"/media", params)
	if err != nil {
		return nil, &PublishError{Platform: domain.PlatformInstagram, Message: "create container: " + err.Error()}
	}

	pub := url.Values{}
	pub.Set("creation_id", container.ID)
	published, err := p.graph.call(ctx, http.MethodPost, "/"+cfg.InstagramAccountID+"/media_publish", pub)
	if err != nil {
		return nil, &PublishError{Platform: domain.PlatformInstagram, Message: "publish container: " + err.Error()}
	}

	res := &Result{PlatformPostID: published.ID}
	// Permalink lookup is best-effort; the post id alone is enough.
	if got, err := p.graph.call(ctx, http.MethodGet, "/"+published.ID, url.Values{"fields": {"permalink"}}); err == nil {
		res.PlatformURL = got.Permalink
	}
	return res, nil
}

// Comment posts a comment under an Instagram media object.
func (p *InstagramPublisher) Comment(ctx context.Context, targetID, message string) (string, error) {
	params := url.Values{}
	params.Set("message", message)
	out, err := p.graph.call(ctx, http.MethodPost, "/"+targetID+"/comments", params)
	if err != nil {
		return "", &PublishError{Platform: domain.PlatformInstagram, Message: err.Error()}
	}
	return out.ID, nil
}

// FacebookPublisher publishes text, link, and photo posts to a Facebook page.
type FacebookPublisher struct {
	graph *graphClient
}

// NewFacebookPublisher returns a Publisher for facebook.
func NewFacebookPublisher(cfg config.GraphConfig) *FacebookPublisher {
	return &FacebookPublisher{graph: newGraphClient(cfg)}
}

// Publish posts to the page feed, or to /photos when media is attached.
func (p *FacebookPublisher) Publish(ctx context.Context, content Content) (*Result, error) {
	cfg := p.graph.cfg
	if cfg.AccessToken == "" || cfg.PageID == "" {
		return nil, &PublishError{Platform: domain.PlatformFacebook, Message: "facebook credentials not configured"}
	}

	params := url.Values{}
	edge := "/" + cfg.PageID + "/feed"
	if len(content.MediaURLs) > 0 {
		edge = "/" + cfg.PageID + "/photos"
		params.Set("url", content.MediaURLs[0])
		params.Set("caption", captionWithTags(content))
	} else {
		params.Set("message", captionWithTags(content))
		if content.Link != "" {
			params.Set("link", content.Link)
		}
	}

	out, err := p.graph.call(ctx, http.MethodPost, edge, params)
	if err != nil {
		return nil, &PublishError{Platform: domain.PlatformFacebook, Message: err.Error()}
	}
	return &Result{
		PlatformPostID: out.ID,
		PlatformURL:    "https://www.facebook.com/" + out.ID,
	}, nil
}

// Like likes a page post.
func (p *FacebookPublisher) Like(ctx context.Context, targetID string) (string, error) {
	out, err := p.graph.call(ctx, http.MethodPost, "/"+targetID+"/likes", url.Values{})
	if err != nil {
		return "", &PublishError{Platform: domain.PlatformFacebook, Message: err.Error()}
	}
	if out.ID == "" {
		return targetID, nil
	}
	return out.ID, nil
}

// Comment posts a comment under a page post.
func (p *FacebookPublisher) Comment(ctx context.Context, targetID, message string) (string, error) {
	params := url.Values{}
	params.Set("message", message)
	out, err := p.graph.call(ctx, http.MethodPost, "/"+targetID+"/comments", params)
	if err != nil {
		return "", &PublishError{Platform: domain.PlatformFacebook, Message: err.Error()}
	}
	return out.ID, nil
}

// NewRegistry builds the platform → publisher map from configuration.
// Every platform gets an adapter; adapters whose credentials are missing
// fail at publish time with a descriptive *PublishError, matching how the
// dashboards surface "not configured" per platform.
func NewRegistry(twitter config.TwitterConfig, graph config.GraphConfig) Registry {
	return Registry{
		domain.PlatformTwitter:   NewTwitterPublisher(twitter),
		domain.PlatformInstagram: NewInstagramPublisher(graph),
		domain.PlatformFacebook:  NewFacebookPublisher(graph),
	}
}
