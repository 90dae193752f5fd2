package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/config"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/store"
	"github.com/vnkhanh/prince-music-backend/ws"
)

const sideEffectTimeout = 30 * time.Second

// Container carries the collaborators handlers need. Optional gateways
// (Payment, Social) are nil when not configured.
type Container struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *zap.Logger
	Tokens   *TokenService
	Store    store.Store
	Mailer   Mailer
	Uploader Uploader
	Payment  PaymentGateway
	Social   SocialVerifier
	Hub      *ws.Hub

	wg sync.WaitGroup
}

// NewContainer wires the production collaborators from cfg.
func NewContainer(cfg *config.Config, db *gorm.DB, logger *zap.Logger, st store.Store) (*Container, error) {
	tokens, err := NewTokenService(cfg.JWT)
	if err != nil {
		return nil, err
	}
	uploader, err := NewUploader(cfg.Upload, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Container{
		Config:   cfg,
		DB:       db,
		Logger:   logger,
		Tokens:   tokens,
		Store:    st,
		Mailer:   NewSMTPMailer(cfg.SMTP, logger),
		Uploader: uploader,
		Payment:  NewPaymentGateway(cfg.Payment),
		Social:   NewGoogleVerifier(cfg.Google.ClientID),
		Hub:      ws.NewHub(),
	}, nil
}

// Go runs fn in the background; failures are logged and never reach the
// request that triggered them.
func (c *Container) Go(what string, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.Logger.Error("background task panicked", zap.String("task", what), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			c.Logger.Warn("background task failed", zap.String("task", what), zap.Error(err))
		}
	}()
}

// Wait blocks until queued background work has finished.
func (c *Container) Wait() {
	c.wg.Wait()
}

// SendEmail renders a template and delivers it in the background.
func (c *Container) SendEmail(to, template string, data map[string]interface{}) {
	if c.Mailer == nil {
		return
	}
	c.Go("email:"+template, func(ctx context.Context) error {
		msg, err := RenderEmail(template, to, data)
		if err != nil {
			return err
		}
		return c.Mailer.Send(ctx, msg)
	})
}

// Notify stores a notification for userID and pushes it to open sockets.
func (c *Container) Notify(db *gorm.DB, userID uuid.UUID, kind, title, message, relatedURL string) {
	n := &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	}
	if relatedURL != "" {
		n.RelatedURL = &relatedURL
	}
	if err := db.Create(n).Error; err != nil {
		c.Logger.Warn("store notification", zap.String("userId", userID.String()), zap.Error(err))
		return
	}
	c.PushNotification(db, n)
}

// PushNotification sends n and the fresh unread count to the recipient.
func (c *Container) PushNotification(db *gorm.DB, n *models.Notification) {
	if c.Hub == nil {
		return
	}
	uid := n.UserID.String()
	if !c.Hub.IsOnline(uid) {
		return
	}
	if err := c.Hub.SendJSON(uid, map[string]interface{}{
		"type":         "notification",
		"notification": n,
	}); err != nil {
		c.Logger.Warn("push notification", zap.Error(err))
	}
	c.PushBadge(db, n.UserID)
}

func (c *Container) PushBadge(db *gorm.DB, userID uuid.UUID) {
	if c.Hub == nil || !c.Hub.IsOnline(userID.String()) {
		return
	}
	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		c.Logger.Warn("count unread notifications", zap.Error(err))
		return
	}
	_ = c.Hub.SendBadgeUpdate(userID.String(), unread)
}

// NotifyMusician notifies the account linked to a public musician id, if any.
func (c *Container) NotifyMusician(db *gorm.DB, musicianID uint, kind, title, message, relatedURL string) {
	var m models.Musician
	if err := db.Select("id", "user_id").Where("musician_id = ?", musicianID).First(&m).Error; err != nil {
		return
	}
	if m.UserID == nil {
		return
	}
	c.Notify(db, *m.UserID, kind, title, message, relatedURL)
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrAccountBlocked     = errors.New("account is blocked")
)

// ResolveSession validates an access token and loads the account behind it.
// Revoked tokens, tokens issued before the user's logout-all watermark and
// deactivated or blocked accounts are refused. Store failures fail open.
func (c *Container) ResolveSession(ctx context.Context, db *gorm.DB, token string) (*models.User, *Claims, error) {
	claims, err := c.Tokens.ValidateAccess(token)
	if err != nil {
		return nil, nil, err
	}
	if c.Store != nil {
		revoked, err := c.Store.IsRevoked(ctx, token)
		if err != nil {
			c.Logger.Warn("revocation lookup failed", zap.Error(err))
		} else if revoked {
			return nil, nil, ErrRevokedToken
		}
	}

	var user models.User
	if err := db.WithContext(ctx).First(&user, "id = ?", claims.UserID()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	if claims.IssuedBefore(user.TokensValidAfter) {
		return nil, nil, ErrRevokedToken
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDeactivated
	}
	if user.IsBlocked {
		return nil, nil, ErrAccountBlocked
	}
	return &user, claims, nil
}

// AuthenticateSocket resolves a websocket token with the same checks the
// HTTP middleware applies.
func (c *Container) AuthenticateSocket(token string) (string, error) {
	user, _, err := c.ResolveSession(context.Background(), c.DB, token)
	if err != nil {
		return "", err
	}
	return user.ID.String(), nil
}
