package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/notify"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"github.com/yukikurage/soundshare-api/internal/spam"
	"github.com/yukikurage/soundshare-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrLoginTaken             = errors.New("login or email already taken")
	ErrInvalidLogin           = errors.New("login must be 3-40 letters, digits, dashes or underscores")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrPasswordTooShort       = errors.New("password too short")
	ErrInvalidCredentials     = errors.New("invalid login or password")
	ErrNotActivated           = errors.New("account not activated")
	ErrInvalidActivationToken = errors.New("invalid activation token")
	ErrUserNotFound           = errors.New("user not found")
	ErrFailedToHashPassword   = errors.New("failed to hash password")
	ErrFailedToCreateUser     = errors.New("failed to create user")
)

var loginPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SignupOutcome is the terminal state of a signup attempt.
type SignupOutcome string

const (
	// SignupCreated: account stored, pending activation.
	SignupCreated SignupOutcome = "created"
	// SignupDeniedSpam: account stored as spam and soft-deleted; the caller ends logged out.
	SignupDeniedSpam SignupOutcome = "denied_spam"
	// SignupBot: honeypot tripped; nothing stored, the caller is told it worked.
	SignupBot SignupOutcome = "bot"
)

// SignupObserver is told the outcome of every signup.
type SignupObserver interface {
	ObserveSignup(outcome string)
}

// AuthService handles signup, activation and login.
type AuthService struct {
	userRepo   repository.UserRepository
	guard      *spam.Guard
	dispatcher notify.Dispatcher
	observer   SignupObserver
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewAuthService creates a new AuthService. observer may be nil.
func NewAuthService(userRepo repository.UserRepository, guard *spam.Guard, dispatcher notify.Dispatcher, observer SignupObserver, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		guard:      guard,
		dispatcher: dispatcher,
		observer:   observer,
		log:        log,
		now:        time.Now,
	}
}

// SignupInput represents the required information to create a new user.
// Honeypot is a form field hidden from humans.
type SignupInput struct {
	Login     string
	Email     string
	Password  string
	Honeypot  string
	RemoteIP  string
	UserAgent string
	Referrer  string
}

// SignupResult carries the outcome and, unless a bot was caught, the stored user.
type SignupResult struct {
	User    *models.User
	Outcome SignupOutcome
}

// Signup validates the input, consults the spam oracle once and stores the
// user. A spam verdict stores the user already soft-deleted; there is
// nothing else to delete yet.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	if strings.TrimSpace(input.Honeypot) != "" {
		s.log.WithField("remote_ip", input.RemoteIP).Info("signup honeypot tripped")
		s.observe(SignupBot)
		return &SignupResult{Outcome: SignupBot}, nil
	}

	login := strings.TrimSpace(input.Login)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if len(login) < constants.MinLoginLength || len(login) > constants.MaxLoginLength || !loginPattern.MatchString(login) {
		return nil, ErrInvalidLogin
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	taken, err := s.userRepo.ExistsWithLoginOrEmail(login, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check login: %w", err)
	}
	if taken {
		return nil, ErrLoginTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	token, err := utils.GeneratePerishableToken()
	if err != nil {
		return nil, ErrFailedToCreateUser
	}

	user := &models.User{
		Login:           login,
		Email:           email,
		PasswordHash:    string(hashedPassword),
		PerishableToken: token,
		CurrentLoginIP:  input.RemoteIP,
	}

	verdict := s.guard.Check(ctx, spam.Candidate{
		Login:     login,
		Email:     email,
		RemoteIP:  input.RemoteIP,
		UserAgent: input.UserAgent,
		Referrer:  input.Referrer,
	})

	outcome := SignupCreated
	if verdict.Spam {
		user.IsSpam = true
		user.PerishableToken = ""
		user.MarkDeleted(s.now())
		outcome = SignupDeniedSpam
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
	}

	log := s.log.WithFields(logrus.Fields{"user_id": user.ID, "login": user.Login})
	if outcome == SignupDeniedSpam {
		log.WithField("degraded", verdict.Degraded).Warn("signup denied as spam")
	} else {
		log.Info("user signed up")
		s.dispatcher.Dispatch(ctx, notify.TopicUserSignup, notify.Event{
			UserID: user.ID,
			Login:  user.Login,
			Email:  user.Email,
			Token:  user.PerishableToken,
		})
	}

	s.observe(outcome)
	return &SignupResult{User: user, Outcome: outcome}, nil
}

// Activate marks the account behind token as active and rotates the token.
func (s *AuthService) Activate(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidActivationToken
	}

	user, err := s.userRepo.FindByPerishableToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidActivationToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	next, err := utils.GeneratePerishableToken()
	if err != nil {
		return nil, fmt.Errorf("failed to rotate token: %w", err)
	}

	activatedAt := s.now()
	if err := s.userRepo.UpdateColumns(user.ID, map[string]interface{}{
		"activated_at":     activatedAt,
		"perishable_token": next,
	}); err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	user.ActivatedAt = &activatedAt
	user.PerishableToken = next

	s.dispatcher.Dispatch(ctx, notify.TopicUserActivated, notify.Event{
		UserID: user.ID,
		Login:  user.Login,
		Email:  user.Email,
	})

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Login    string
	Password string
	RemoteIP string
}

// Login verifies credentials of a live, activated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByLogin(strings.TrimSpace(input.Login), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActivated() {
		return nil, ErrNotActivated
	}

	if input.RemoteIP != "" && input.RemoteIP != user.CurrentLoginIP {
		if err := s.userRepo.UpdateColumns(user.ID, map[string]interface{}{"current_login_ip": input.RemoteIP}); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to record login ip")
		} else {
			user.CurrentLoginIP = input.RemoteIP
		}
	}

	return user, nil
}

// GetUser retrieves a live user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (s *AuthService) observe(outcome SignupOutcome) {
	if s.observer != nil {
		s.observer.ObserveSignup(string(outcome))
	}
}
