package spam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/soundshare-api/internal/config"
)

func akismetServer(t *testing.T, body string, status int) (*httptest.Server, *url.Values) {
	t.Helper()
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/comment-check", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		if body == "invalid" {
			w.Header().Set("X-akismet-debug-help", "bad key")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &form
}

func TestAkismet_Verdicts(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		spam    bool
		wantErr bool
	}{
		{"spam", "true", http.StatusOK, true, false},
		{"ham", "false", http.StatusOK, false, false},
		{"invalid key", "invalid", http.StatusOK, false, true},
		{"server error", "", http.StatusInternalServerError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, form := akismetServer(t, tt.body, tt.status)
			checker := NewAkismet("key123", "https://soundshare.test").WithBaseURL(srv.URL)

			isSpam, err := checker.IsSpam(context.Background(), Candidate{
				Login:    "viagra-seller",
				Email:    "spam@example.com",
				RemoteIP: "10.0.0.1",
			})

			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.spam, isSpam)
			assert.Equal(t, "key123", form.Get("api_key"))
			assert.Equal(t, "signup", form.Get("comment_type"))
			assert.Equal(t, "viagra-seller", form.Get("comment_author"))
			assert.Equal(t, "10.0.0.1", form.Get("user_ip"))
		})
	}
}

func TestOpenAIModeration(t *testing.T) {
	flagged := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/moderations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if flagged {
			_, _ = w.Write([]byte(`{"id":"modr-1","model":"omni-moderation-latest","results":[{"flagged":true}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"modr-2","model":"omni-moderation-latest","results":[{"flagged":false}]}`))
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	checker := NewOpenAIModerationWithConfig(cfg)

	isSpam, err := checker.IsSpam(context.Background(), Candidate{Login: "x", Content: "buy now"})
	require.NoError(t, err)
	assert.True(t, isSpam)

	flagged = false
	isSpam, err = checker.IsSpam(context.Background(), Candidate{Login: "x", Content: "I make folk music"})
	require.NoError(t, err)
	assert.False(t, isSpam)
}

func TestGuard_FailurePolicy(t *testing.T) {
	broken := Static{Err: errors.New("timeout")}

	log, hook := test.NewNullLogger()
	closed := NewGuard(broken, false, log).Check(context.Background(), Candidate{Login: "a"})
	assert.Equal(t, Verdict{Spam: true, Degraded: true}, closed)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	open := NewGuard(broken, true, log).Check(context.Background(), Candidate{Login: "a"})
	assert.Equal(t, Verdict{Spam: false, Degraded: true}, open)

	healthy := NewGuard(Static{Spam: true}, false, log).Check(context.Background(), Candidate{})
	assert.Equal(t, Verdict{Spam: true}, healthy)
}

func TestNew(t *testing.T) {
	c, err := New(config.SpamConfig{Provider: "none"})
	require.NoError(t, err)
	assert.IsType(t, Static{}, c)

	c, err = New(config.SpamConfig{Provider: "akismet", AkismetKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Akismet{}, c)

	c, err = New(config.SpamConfig{Provider: "openai", OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIModeration{}, c)

	_, err = New(config.SpamConfig{Provider: "akismet"})
	assert.Error(t, err)
	_, err = New(config.SpamConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
