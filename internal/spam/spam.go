package spam

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/soundshare-api/internal/config"
)

// ErrUnavailable is returned when the oracle could not give a verdict.
var ErrUnavailable = errors.New("spam oracle unavailable")

// Candidate is what the oracle judges: a signup or a profile edit.
type Candidate struct {
	Login     string
	Email     string
	Content   string
	RemoteIP  string
	UserAgent string
	Referrer  string
}

// Checker is an opaque spam oracle.
type Checker interface {
	IsSpam(ctx context.Context, candidate Candidate) (bool, error)
}

// Static always answers with the same verdict.
type Static struct {
	Spam bool
	Err  error
}

func (s Static) IsSpam(context.Context, Candidate) (bool, error) {
	return s.Spam, s.Err
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, candidate Candidate) (bool, error)

func (f CheckerFunc) IsSpam(ctx context.Context, candidate Candidate) (bool, error) {
	return f(ctx, candidate)
}

// Guard applies the failure policy on top of a Checker. With FailOpen unset,
// an oracle failure counts as spam.
type Guard struct {
	checker  Checker
	failOpen bool
	log      logrus.FieldLogger
}

func NewGuard(checker Checker, failOpen bool, log logrus.FieldLogger) *Guard {
	return &Guard{checker: checker, failOpen: failOpen, log: log}
}

// Verdict is the guarded answer. Degraded is set when the oracle failed and
// the policy decided instead.
type Verdict struct {
	Spam     bool
	Degraded bool
}

func (g *Guard) Check(ctx context.Context, candidate Candidate) Verdict {
	isSpam, err := g.checker.IsSpam(ctx, candidate)
	if err == nil {
		return Verdict{Spam: isSpam}
	}

	entry := g.log.WithError(err).WithField("login", candidate.Login)
	if g.failOpen {
		entry.Warn("spam oracle failed, letting candidate through")
		return Verdict{Spam: false, Degraded: true}
	}
	entry.Warn("spam oracle failed, treating candidate as spam pending review")
	return Verdict{Spam: true, Degraded: true}
}

// New builds the Checker named by cfg.Provider.
func New(cfg config.SpamConfig) (Checker, error) {
	switch cfg.Provider {
	case "", "none":
		return Static{}, nil
	case "akismet":
		if cfg.AkismetKey == "" {
			return nil, fmt.Errorf("akismet provider requires AKISMET_KEY")
		}
		return NewAkismet(cfg.AkismetKey, cfg.AkismetBlog), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		return NewOpenAIModeration(cfg.OpenAIAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown spam provider %q", cfg.Provider)
	}
}
