// Package checkin issues and verifies the rotating codes members show at a
// branch kiosk. Each member's TOTP secret is derived from a server key, so no
// per-member secret is stored.
package checkin

import (
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/tendant/gym-access/pkg/domain"
	"golang.org/x/crypto/hkdf"
)

const (
	secretLen     = 20
	defaultPeriod = 30 * time.Second
	codeSkew      = 1 // accept the previous and next code for clock drift
	infoPrefix    = "gym-access/checkin/v1/"
)

// Config holds check-in code configuration.
type Config struct {
	// Key is the server secret codes are derived from (at least 32 bytes).
	Key []byte
	// Period is how long a code stays current (default: 30s).
	Period time.Duration
}

// Service issues and verifies member check-in codes.
type Service struct {
	key    []byte
	period uint
}

// Code is a check-in code with the instant it rotates.
type Code struct {
	Value     string
	ExpiresAt time.Time
}

// NewService creates a check-in code service.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Key) < 32 {
		return nil, errors.New("checkin: key must be at least 32 bytes")
	}
	if cfg.Period <= 0 {
		cfg.Period = defaultPeriod
	}
	if cfg.Period < time.Second {
		return nil, errors.New("checkin: period must be at least one second")
	}
	return &Service{
		key:    cfg.Key,
		period: uint(cfg.Period / time.Second),
	}, nil
}

// Generate returns the code for userID current at now.
func (s *Service) Generate(userID uuid.UUID, now time.Time) (*Code, error) {
	secret, err := s.secretFor(userID)
	if err != nil {
		return nil, err
	}

	value, err := totp.GenerateCodeCustom(secret, now, s.validateOpts())
	if err != nil {
		return nil, fmt.Errorf("failed to generate check-in code: %w", err)
	}

	step := int64(s.period)
	expires := time.Unix((now.Unix()/step+1)*step, 0).In(now.Location())
	return &Code{Value: value, ExpiresAt: expires}, nil
}

// Verify checks code for userID at now. Returns domain.ErrInvalidCheckinCode
// when the code does not match.
func (s *Service) Verify(userID uuid.UUID, code string, now time.Time) error {
	secret, err := s.secretFor(userID)
	if err != nil {
		return err
	}

	valid, err := totp.ValidateCustom(code, secret, now, s.validateOpts())
	if err != nil {
		if errors.Is(err, otp.ErrValidateInputInvalidLength) {
			return domain.ErrInvalidCheckinCode
		}
		return fmt.Errorf("failed to validate check-in code: %w", err)
	}
	if !valid {
		return domain.ErrInvalidCheckinCode
	}
	return nil
}

func (s *Service) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    s.period,
		Skew:      codeSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// secretFor derives the base32 TOTP secret of a member.
func (s *Service) secretFor(userID uuid.UUID) (string, error) {
	r := hkdf.New(sha256.New, s.key, nil, []byte(infoPrefix+userID.String()))
	raw := make([]byte, secretLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", fmt.Errorf("failed to derive check-in secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}
