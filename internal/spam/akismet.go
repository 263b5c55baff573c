package spam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const akismetURL = "https://rest.akismet.com"

// Akismet asks the Akismet comment-check endpoint about signups.
type Akismet struct {
	client *resty.Client
	key    string
	blog   string
}

func NewAkismet(key, blog string) *Akismet {
	return &Akismet{
		client: resty.New().
			SetBaseURL(akismetURL).
			SetTimeout(5 * time.Second).
			SetHeader("User-Agent", "soundshare/1.0"),
		key:  key,
		blog: blog,
	}
}

// WithBaseURL points the client elsewhere; used against test servers.
func (a *Akismet) WithBaseURL(url string) *Akismet {
	a.client.SetBaseURL(url)
	return a
}

func (a *Akismet) IsSpam(ctx context.Context, c Candidate) (bool, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_key":              a.key,
			"blog":                 a.blog,
			"user_ip":              c.RemoteIP,
			"user_agent":           c.UserAgent,
			"referrer":             c.Referrer,
			"comment_type":         "signup",
			"comment_author":       c.Login,
			"comment_author_email": c.Email,
			"comment_content":      c.Content,
		}).
		Post("/1.1/comment-check")
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("%w: akismet status %d", ErrUnavailable, resp.StatusCode())
	}

	switch strings.TrimSpace(resp.String()) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: akismet: %s", ErrUnavailable, resp.Header().Get("X-akismet-debug-help"))
	}
}
