package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/models"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"github.com/yukikurage/soundshare-api/internal/spam"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound     = errors.New("comment not found")
	ErrCommentableNotFound = errors.New("commented item not found")
	ErrInvalidCommentable  = errors.New("comments can be left on assets or topics")
	ErrInvalidCommentBody  = errors.New("comment body must not be empty or too long")
	ErrDuplicateComment    = errors.New("this comment was already posted")
	ErrGuestCommentNeedsIP = errors.New("guest comments need a remote address")
)

// CommentService manages comments on assets and topics.
type CommentService struct {
	commentRepo repository.CommentRepository
	assetRepo   repository.AssetRepository
	topicRepo   repository.TopicRepository
	userRepo    repository.UserRepository
	guard       *spam.Guard
	runner      *CascadeRunner
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	assetRepo repository.AssetRepository,
	topicRepo repository.TopicRepository,
	userRepo repository.UserRepository,
	guard *spam.Guard,
	runner *CascadeRunner,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		assetRepo:   assetRepo,
		topicRepo:   topicRepo,
		userRepo:    userRepo,
		guard:       guard,
		runner:      runner,
	}
}

// CreateCommentInput describes a new comment. CommenterID is nil for guests.
type CreateCommentInput struct {
	CommentableType models.CommentableType
	CommentableID   uint64
	CommenterID     *uint64
	RemoteIP        string
	UserAgent       string
	Body            string
	IsPrivate       bool
}

// CreateComment stores a comment. The comment is attributed to the owner of
// the commentable; spam verdicts keep it stored but hidden.
func (s *CommentService) CreateComment(ctx context.Context, input CreateCommentInput) (*models.Comment, error) {
	if !input.CommentableType.Valid() {
		return nil, ErrInvalidCommentable
	}
	body := strings.TrimSpace(input.Body)
	if body == "" || len(body) > constants.MaxCommentLength {
		return nil, ErrInvalidCommentBody
	}
	if input.CommenterID == nil && input.RemoteIP == "" {
		return nil, ErrGuestCommentNeedsIP
	}

	ownerID, err := s.commentableOwner(input.CommentableType, input.CommentableID)
	if err != nil {
		return nil, err
	}

	duplicate, err := s.commentRepo.ExistsDuplicate(input.CommentableType, input.CommentableID, body, input.RemoteIP)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicates: %w", err)
	}
	if duplicate {
		return nil, ErrDuplicateComment
	}

	candidate := spam.Candidate{Content: body, RemoteIP: input.RemoteIP, UserAgent: input.UserAgent}
	var commenter *models.User
	if input.CommenterID != nil {
		commenter, err = s.userRepo.FindByID(*input.CommenterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to find commenter: %w", err)
		}
		candidate.Login = commenter.Login
		candidate.Email = commenter.Email
	}

	comment := &models.Comment{
		CommentableType: input.CommentableType,
		CommentableID:   input.CommentableID,
		CommenterID:     input.CommenterID,
		UserID:          ownerID,
		RemoteIP:        input.RemoteIP,
		Body:            body,
		IsPrivate:       input.IsPrivate,
		IsSpam:          s.guard.Check(ctx, candidate).Spam,
		Commenter:       commenter,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListCommentsInput selects the comments of one commentable.
type ListCommentsInput struct {
	CommentableType models.CommentableType
	CommentableID   uint64
	ViewerID        *uint64
	Page            int
	PageSize        int
}

// ListComments lists visible comments. Private comments are shown to the
// commentable owner and to moderators.
func (s *CommentService) ListComments(input ListCommentsInput) ([]models.Comment, int64, error) {
	if !input.CommentableType.Valid() {
		return nil, 0, ErrInvalidCommentable
	}

	ownerID, err := s.commentableOwner(input.CommentableType, input.CommentableID)
	if err != nil {
		return nil, 0, err
	}

	includePrivate := false
	if input.ViewerID != nil {
		includePrivate = *input.ViewerID == ownerID || s.isModerator(*input.ViewerID)
	}

	comments, total, err := s.commentRepo.List(repository.CommentFilter{
		CommentableType: input.CommentableType,
		CommentableID:   input.CommentableID,
		IncludePrivate:  includePrivate,
		Page:            input.Page,
		PageSize:        input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// DeleteComment soft-deletes one comment. The commenter, the owner of the
// commented item and moderators may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint64) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	isCommenter := comment.CommenterID != nil && *comment.CommenterID == actorID
	if !isCommenter && comment.UserID != actorID && !s.isModerator(actorID) {
		return ErrCommentNotFound
	}

	_, err = s.runner.Run(ctx, cascade.Node{Kind: models.KindComment, ID: comment.ID})
	return err
}

func (s *CommentService) commentableOwner(kind models.CommentableType, id uint64) (uint64, error) {
	var (
		ownerID uint64
		err     error
	)

	switch kind {
	case models.CommentableAsset:
		var asset *models.Asset
		if asset, err = s.assetRepo.FindByID(id); err == nil {
			ownerID = asset.UserID
		}
	case models.CommentableTopic:
		var topic *models.Topic
		if topic, err = s.topicRepo.FindByID(id); err == nil {
			ownerID = topic.UserID
		}
	default:
		return 0, ErrInvalidCommentable
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrCommentableNotFound
		}
		return 0, fmt.Errorf("failed to find commented item: %w", err)
	}
	return ownerID, nil
}

func (s *CommentService) isModerator(userID uint64) bool {
	user, err := s.userRepo.FindByID(userID)
	return err == nil && user.IsModerator
}
