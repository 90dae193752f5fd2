package services

import (
	"context"
	"errors"

	"cloud.google.com/go/auth/credentials/idtoken"
)

var ErrSocialTokenInvalid = errors.New("invalid social identity token")

// SocialIdentity is the subset of provider claims used to sign users in.
type SocialIdentity struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Picture   string
}

type SocialVerifier interface {
	Verify(ctx context.Context, token string) (*SocialIdentity, error)
}

// GoogleVerifier checks Google ID tokens against the app's OAuth client id.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier returns nil when no client id is configured.
func NewGoogleVerifier(clientID string) SocialVerifier {
	if clientID == "" {
		return nil
	}
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*SocialIdentity, error) {
	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, ErrSocialTokenInvalid
	}
	claim := func(key string) string {
		s, _ := payload.Claims[key].(string)
		return s
	}
	return &SocialIdentity{
		Subject:   payload.Subject,
		Email:     claim("email"),
		FirstName: claim("given_name"),
		LastName:  claim("family_name"),
		Picture:   claim("picture"),
	}, nil
}
