package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/logger"
)

const qrCodeSize = 256

// MFASetup holds the material a client needs to enroll an authenticator app
type MFASetup struct {
	Secret          string
	ProvisioningURI string
	QRCodePNG       string // base64-encoded PNG
}

// SetupMFA generates a fresh TOTP secret for the user and returns the
// enrollment material. The secret is persisted immediately but stays
// unconfirmed until VerifyMFA succeeds; calling SetupMFA again before
// confirmation replaces it.
func (s *Service) SetupMFA(ctx context.Context, userID uuid.UUID) (*MFASetup, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.UserNotFoundError()
	}

	if user.MFAEnrolled() {
		return nil, apperrors.ConflictError("two-factor authentication is already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, apperrors.InternalError("failed to generate TOTP secret")
	}

	if err := s.userRepo.SetTOTPSecret(ctx, userID, key.Secret()); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	img, err := key.Image(qrCodeSize, qrCodeSize)
	if err != nil {
		return nil, apperrors.InternalError("failed to render QR code")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.InternalError("failed to encode QR code")
	}

	return &MFASetup{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCodePNG:       base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyMFA confirms enrollment by checking a code against the pending
// secret. On success the secret becomes the user's active second factor and
// every future login requires a code.
func (s *Service) VerifyMFA(ctx context.Context, userID uuid.UUID, code string) error {
	if !validTOTPFormat(code) {
		return apperrors.ValidationError("totp_code must be 6 digits")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperrors.UserNotFoundError()
	}

	if user.TOTPSecret == nil {
		return apperrors.InvalidInputError("no pending two-factor setup for this account")
	}
	if user.TOTPVerified {
		return apperrors.ConflictError("two-factor authentication is already enabled")
	}

	if !s.verifyTOTP(*user.TOTPSecret, code) {
		return apperrors.InvalidTOTPCodeError()
	}

	if err := s.userRepo.ConfirmTOTP(ctx, userID); err != nil {
		return apperrors.DatabaseError(err)
	}

	logger.Info("two-factor authentication enabled", zap.String("user_id", userID.String()))

	return nil
}

func (s *Service) verifyTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}
