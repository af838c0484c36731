// Package elevation issues short-lived tokens that let an admin act on behalf
// of another user. Each issued token is audit logged, and every action taken
// with it still records the admin as the actor.
package elevation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/services/audit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "tourneypay-elevation"

type Config struct {
	Secret       string
	TTL          time.Duration
	PasscodeHash string
	Now          func() time.Time
}

type Token struct {
	Token        string    `json:"token"`
	ID           string    `json:"jti"`
	TargetUserID uint      `json:"target_user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type Service struct {
	store repositories.Store
	cfg   Config
}

func NewService(store repositories.Store, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{store: store, cfg: cfg}
}

// Issue checks the admin passcode and returns a token scoped to targetUserID.
func (s *Service) Issue(ctx context.Context, actor audit.Actor, targetUserID uint, passcode string) (*Token, error) {
	if s.cfg.PasscodeHash == "" || s.cfg.Secret == "" {
		log.Println("⚠️ Elevation requested but no passcode hash or secret is configured")
		return nil, appErrors.ErrInvalidPasscode
	}
	if targetUserID == 0 || targetUserID == actor.ID {
		return nil, appErrors.ErrInvalidRequest.WithMessage("target user must be another user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasscodeHash), []byte(passcode)); err != nil {
		return nil, appErrors.ErrInvalidPasscode
	}

	now := s.cfg.Now()
	expiresAt := now.Add(s.cfg.TTL)
	jti := uuid.NewString()

	claims := models.ElevationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(targetUserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ActorID:      actor.ID,
		TargetUserID: targetUserID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign elevation token: %w", err)
	}

	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		return audit.Record(ctx, tx, actor, audit.Entry{
			Action:     models.AuditUserImpersonate,
			EntityType: models.EntityUser,
			EntityID:   targetUserID,
			Details: map[string]interface{}{
				"jti":        jti,
				"expires_at": expiresAt.UTC().Format(time.RFC3339),
			},
		}, now)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Elevation token %s issued to %d for user %d", jti, actor.ID, targetUserID)
	return &Token{Token: signed, ID: jti, TargetUserID: targetUserID, ExpiresAt: expiresAt}, nil
}

// Verify parses an elevation token and returns its claims.
func (s *Service) Verify(tokenStr string) (*models.ElevationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.ElevationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.cfg.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, appErrors.ErrInvalidToken.WithMessage("invalid elevation token: %v", err)
	}

	claims, ok := token.Claims.(*models.ElevationClaims)
	if !ok || !token.Valid || claims.TargetUserID == 0 {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

// HashPasscode returns the bcrypt hash to configure as ADMIN_PASSCODE_HASH.
func HashPasscode(passcode string) (string, error) {
	if len(passcode) < 8 {
		return "", errors.New("passcode must be at least 8 characters long")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(hash), nil
}
