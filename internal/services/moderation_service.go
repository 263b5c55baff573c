package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/notify"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"github.com/yukikurage/soundshare-api/internal/spam"
	"gorm.io/gorm"
)

// DestroyOutcome is where the actor ends up after a destroy request.
type DestroyOutcome string

const (
	// OutcomeDenied: nothing changed. Callers must not tell the actor why.
	OutcomeDenied DestroyOutcome = "denied"
	// OutcomeModeratorReturn: a moderator removed someone else and goes back to the landing page.
	OutcomeModeratorReturn DestroyOutcome = "moderator_return"
	// OutcomeLoggedOut: the actor removed their own account and is logged out.
	OutcomeLoggedOut DestroyOutcome = "logged_out"
)

// DestroyResult describes a processed destroy request. Report is nil when
// the cascade was queued or nothing happened.
type DestroyResult struct {
	Outcome DestroyOutcome
	Report  *cascade.Report
	Queued  bool
}

// ModerationService removes accounts: on request by their owner or a
// moderator, and when they turn out to be spam after signup.
type ModerationService struct {
	userRepo   repository.UserRepository
	runner     *CascadeRunner
	guard      *spam.Guard
	dispatcher notify.Dispatcher
	async      bool
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewModerationService creates a ModerationService. With async set, the
// account is soft-deleted immediately and the rest of the cascade is queued
// on the dispatcher for RunWorker.
func NewModerationService(userRepo repository.UserRepository, runner *CascadeRunner, guard *spam.Guard, dispatcher notify.Dispatcher, async bool, log logrus.FieldLogger) *ModerationService {
	return &ModerationService{
		userRepo:   userRepo,
		runner:     runner,
		guard:      guard,
		dispatcher: dispatcher,
		async:      async,
		log:        log,
		now:        time.Now,
	}
}

// CanDestroy reports whether actor may remove target: themself, or anyone
// when actor is a moderator.
func CanDestroy(actor, target *models.User) bool {
	if actor == nil || target == nil || actor.IsDeleted() {
		return false
	}
	return actor.ID == target.ID || actor.IsModerator
}

// DestroyUser removes the account with the given login on behalf of actorID.
// Unauthorized requests yield OutcomeDenied with no error; an unknown target
// yields ErrUserNotFound.
func (s *ModerationService) DestroyUser(ctx context.Context, actorID uint64, targetLogin string) (*DestroyResult, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &DestroyResult{Outcome: OutcomeDenied}, nil
		}
		return nil, fmt.Errorf("failed to find actor: %w", err)
	}

	target, err := s.userRepo.FindByLogin(targetLogin, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"actor_id": actor.ID, "user_id": target.ID})
	if !CanDestroy(actor, target) {
		log.Info("destroy request denied")
		return &DestroyResult{Outcome: OutcomeDenied}, nil
	}

	outcome := OutcomeModeratorReturn
	if actor.ID == target.ID {
		outcome = OutcomeLoggedOut
	}

	result, err := s.remove(ctx, target, actor.ID)
	if err != nil {
		return nil, err
	}
	result.Outcome = outcome
	log.WithField("outcome", outcome).Info("account removed")
	return result, nil
}

// FlagSpam marks an existing account as spam and removes it with everything
// it owns. Only moderators may flag.
func (s *ModerationService) FlagSpam(ctx context.Context, actorID uint64, targetLogin string) (*DestroyResult, error) {
	actor, err := s.userRepo.FindByID(actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &DestroyResult{Outcome: OutcomeDenied}, nil
		}
		return nil, fmt.Errorf("failed to find actor: %w", err)
	}
	if !actor.IsModerator {
		return &DestroyResult{Outcome: OutcomeDenied}, nil
	}

	target, err := s.userRepo.FindByLogin(targetLogin, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	result, err := s.flagAndRemove(ctx, target, actor.ID)
	if err != nil {
		return nil, err
	}
	result.Outcome = OutcomeModeratorReturn
	return result, nil
}

// ProfileInput carries a profile edit and the request it came from.
type ProfileInput struct {
	Bio       string
	RemoteIP  string
	UserAgent string
}

// ProfileResult is the outcome of a profile edit. LoggedOut is set when the
// edit was judged spam and the account removed.
type ProfileResult struct {
	User      *models.User
	LoggedOut bool
}

// UpdateProfile stores a new bio after asking the spam oracle about it. A
// spam verdict flags and removes the account instead.
func (s *ModerationService) UpdateProfile(ctx context.Context, userID uint64, input ProfileInput) (*ProfileResult, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	verdict := s.guard.Check(ctx, spam.Candidate{
		Login:     user.Login,
		Email:     user.Email,
		Content:   input.Bio,
		RemoteIP:  input.RemoteIP,
		UserAgent: input.UserAgent,
	})
	if verdict.Spam {
		if _, err := s.flagAndRemove(ctx, user, user.ID); err != nil {
			return nil, err
		}
		return &ProfileResult{LoggedOut: true}, nil
	}

	if err := s.userRepo.UpdateColumns(user.ID, map[string]interface{}{"bio": input.Bio}); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	user.Bio = input.Bio
	return &ProfileResult{User: user}, nil
}

// CascadeByLogin removes an account without an actor. It is the operator
// path and also finishes cascades of already deleted accounts.
func (s *ModerationService) CascadeByLogin(ctx context.Context, login string) (*cascade.Report, error) {
	user, err := s.userRepo.FindByLogin(login, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return s.runner.RunUser(ctx, user.ID)
}

// InspectUser looks an account up by login for operators. withDeleted
// includes soft-deleted accounts.
func (s *ModerationService) InspectUser(login string, withDeleted bool) (*models.User, error) {
	user, err := s.userRepo.FindByLogin(login, withDeleted)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *ModerationService) flagAndRemove(ctx context.Context, user *models.User, actorID uint64) (*DestroyResult, error) {
	if err := s.userRepo.UpdateColumns(user.ID, map[string]interface{}{"is_spam": true}); err != nil {
		return nil, fmt.Errorf("failed to flag user: %w", err)
	}
	user.IsSpam = true
	s.log.WithFields(logrus.Fields{"actor_id": actorID, "user_id": user.ID}).Warn("account flagged as spam")
	return s.remove(ctx, user, actorID)
}

// remove runs the cascade now, or in async mode soft-deletes the user row
// so it disappears from every read and queues the rest.
func (s *ModerationService) remove(ctx context.Context, user *models.User, actorID uint64) (*DestroyResult, error) {
	if !s.async {
		report, err := s.runner.RunUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &DestroyResult{Report: report}, nil
	}

	at := s.now()
	err := s.userRepo.UpdateColumns(user.ID, map[string]interface{}{"deleted_at": at})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", cascade.ErrTransient, err)
	}
	user.MarkDeleted(at)

	s.dispatcher.Dispatch(ctx, notify.TopicCascadeRequested, notify.Event{
		UserID:  user.ID,
		ActorID: actorID,
		Login:   user.Login,
	})
	return &DestroyResult{Queued: true}, nil
}

// RunWorker consumes queued cascade requests until ctx ends. A request whose
// cascade fails is delivered again; the cascade picks up where the marked
// root left off.
func (s *ModerationService) RunWorker(ctx context.Context, subscriber message.Subscriber, opts ...notify.ConsumeOption) error {
	return notify.Consume(ctx, subscriber, notify.TopicCascadeRequested, s.handleCascadeRequest, s.log, opts...)
}

func (s *ModerationService) handleCascadeRequest(ctx context.Context, event notify.Event) error {
	_, err := s.runner.RunUser(ctx, event.UserID)
	if errors.Is(err, cascade.ErrRootNotFound) || errors.Is(err, cascade.ErrInvariantViolation) {
		return notify.Permanent(err)
	}
	return err
}
