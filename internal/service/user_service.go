package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"yapa/internal/domain"
	"yapa/internal/repository"
	"yapa/internal/storage"
	"yapa/internal/validation"
)

var (
	// ErrInvalidEmail indicates that no account uses the given email.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidPassword indicates the password does not match the account.
	ErrInvalidPassword = errors.New("invalid password")
)

const sniffLen = 3072

var avatarTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// TokenIssuer produces the bearer token stored with a new account.
type TokenIssuer interface {
	Issue(firstName, lastName, email string) (string, error)
}

// AvatarUpload is a single uploaded image.
type AvatarUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, form validation.Registration) (*domain.User, error)
	CreateSuperuser(ctx context.Context, form validation.Registration) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID int64, upload AvatarUpload) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// UserServiceConfig tunes hashing cost and upload limits.
type UserServiceConfig struct {
	PasswordCost   int
	MaxAvatarBytes int64
}

type userService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	media  storage.Service
	logger logrus.FieldLogger
	cfg    UserServiceConfig
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, media storage.Service, logger logrus.FieldLogger, cfg UserServiceConfig) UserService {
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	if cfg.MaxAvatarBytes <= 0 {
		cfg.MaxAvatarBytes = 5 << 20
	}
	return &userService{
		users:  users,
		tokens: tokens,
		media:  media,
		logger: logger,
		cfg:    cfg,
	}
}

func (s *userService) Register(ctx context.Context, form validation.Registration) (*domain.User, error) {
	return s.create(ctx, form, false)
}

func (s *userService) CreateSuperuser(ctx context.Context, form validation.Registration) (*domain.User, error) {
	return s.create(ctx, form, true)
}

func (s *userService) create(ctx context.Context, form validation.Registration, superuser bool) (*domain.User, error) {
	form.Normalize()
	form.Email = domain.NormalizeEmail(form.Email)

	var errs validation.Errors
	if err := form.Validate(); err != nil {
		list, ok := validation.As(err)
		if !ok {
			return nil, err
		}
		errs = list
	}

	// fast path only; the unique constraint below is authoritative
	if !errs.Has("email") {
		exists, err := s.users.ExistsByEmail(ctx, form.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			errs.Add(validation.ScopeForm, "email", validation.MsgEmailTaken)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.cfg.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := s.tokens.Issue(form.FirstName, form.LastName, form.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	user := &domain.User{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: string(hash),
		Token:        token,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, validation.Errors{validation.NewFieldError(validation.ScopeForm, "email", validation.MsgEmailTaken)}
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "superuser": superuser}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return sanitizeUser(user), nil
}

// UpdateAvatar stores the new image, records it, and only then removes the
// previous file.
func (s *userService) UpdateAvatar(ctx context.Context, userID int64, upload AvatarUpload) (*domain.User, error) {
	if upload.Body == nil {
		return nil, avatarError("field required")
	}
	if upload.Size > s.cfg.MaxAvatarBytes {
		return nil, avatarError(fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxAvatarBytes))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, avatarError("file is empty")
	}
	mime := mimetype.Detect(head)
	if !mimetype.EqualsAny(mime.String(), avatarTypes...) {
		return nil, avatarError("upload a valid image")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Avatar

	key := fmt.Sprintf("avatars/%d/%s%s", user.ID, uuid.NewString(), mime.Extension())
	err = s.media.Put(ctx, storage.Object{
		Key:         key,
		Body:        io.MultiReader(bytes.NewReader(head), upload.Body),
		Size:        upload.Size,
		ContentType: mime.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	if err := s.users.UpdateAvatar(ctx, user.ID, key); err != nil {
		if delErr := s.media.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.WithError(delErr).WithField("key", key).Warn("remove orphaned avatar")
		}
		return nil, err
	}
	user.Avatar = key

	if previous != "" && previous != key {
		if err := s.media.Delete(ctx, previous); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id": user.ID,
				"key":     previous,
			}).Warn("remove previous avatar")
		}
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i := range users {
		out[i] = *sanitizeUser(&users[i])
	}
	return out, nil
}

func avatarError(msg string) error {
	return validation.Errors{validation.NewFieldError(validation.ScopeFile, "avatar", msg)}
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
