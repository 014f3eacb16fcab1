package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffee-shop/internal/auth"
	"coffee-shop/internal/coupon"
	"coffee-shop/internal/events"
	"coffee-shop/internal/model"
	"coffee-shop/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// memberService implements MemberService.
type memberService struct {
	memberRepo repository.MemberRepository
	txManager  repository.TxManager
	issuer     coupon.Issuer
	recorder   events.Recorder
	tokens     *auth.TokenManager
	logger     zerolog.Logger
}

// NewMemberService creates a new member service.
func NewMemberService(
	memberRepo repository.MemberRepository,
	txManager repository.TxManager,
	issuer coupon.Issuer,
	recorder events.Recorder,
	tokens *auth.TokenManager,
	logger zerolog.Logger,
) MemberService {
	return &memberService{
		memberRepo: memberRepo,
		txManager:  txManager,
		issuer:     issuer,
		recorder:   recorder,
		tokens:     tokens,
		logger:     logger.With().Str("service", "member").Logger(),
	}
}

// Register creates a member, then issues the welcome coupon. A failure after
// the member is stored is logged and does not fail the registration.
func (s *memberService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	member := &model.Member{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         model.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = runInTx(ctx, s.txManager, s.logger, func(ctx context.Context, tx pgx.Tx) error {
		return s.memberRepo.Create(ctx, tx, member)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("member_id", member.ID.String()).Msg("member registered")

	s.welcome(ctx, member)

	return s.authenticate(member)
}

// welcome issues the welcome coupon and records the registration event.
func (s *memberService) welcome(ctx context.Context, member *model.Member) {
	err := runInTx(ctx, s.txManager, s.logger, func(ctx context.Context, tx pgx.Tx) error {
		c, err := s.issuer.IssueWelcome(ctx, tx, member.Email)
		if err != nil {
			return err
		}
		return s.recorder.RecordMemberRegistered(ctx, tx, member, c.Code)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", member.ID.String()).Msg("failed to welcome new member")
	}
}

// Login checks credentials and returns an access token.
func (s *memberService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Email and password are required")
	}

	member, err := s.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up member")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	if member == nil || !auth.CheckPassword(member.PasswordHash, req.Password) {
		s.logger.Debug().Str("email", email).Msg("login rejected")
		return nil, model.ErrInvalidCredentials
	}

	return s.authenticate(member)
}

// Me returns the authenticated member.
func (s *memberService) Me(ctx context.Context, p model.Principal) (*model.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, p.MemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, model.ErrMemberNotFound
	}
	return member, nil
}

func (s *memberService) authenticate(member *model.Member) (*model.AuthResponse, error) {
	token, expires, err := s.tokens.Issue(member)
	if err != nil {
		s.logger.Error().Err(err).Str("member_id", member.ID.String()).Msg("failed to issue token")
		return nil, err
	}
	return &model.AuthResponse{
		Token:     token,
		ExpiresAt: expires,
		Member:    *member,
	}, nil
}
