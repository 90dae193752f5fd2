package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

const bcryptCost = 12

// timeNow is the clock used by handlers; tests move it.
var timeNow = time.Now

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		utils.Fail(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		utils.Fail(c, err)
		return false
	}
	return true
}

// paramUUID parses a uuid path parameter; malformed ids are reported as
// missing resources.
func paramUUID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.Fail(c, utils.NewNotFoundError(resource+" not found"))
		return uuid.Nil, false
	}
	return id, true
}

func paramMusicianID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		utils.Fail(c, utils.NewValidationError("Invalid musician ID"))
		return 0, false
	}
	return uint(n), true
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, utils.NewValidationError("Invalid date: " + s)
}

func isAdmin(u *models.User) bool {
	return u != nil && u.Role == models.RoleAdmin
}

// ownsMusicianID reports whether u is the musician with the public id.
func ownsMusicianID(u *models.User, musicianID uint) bool {
	return u != nil && u.Role == models.RoleMusician && u.MusicianID != nil && *u.MusicianID == musicianID
}

// currentMusician loads the musician profile linked to the signed-in user.
func currentMusician(c *gin.Context, db *gorm.DB) (*models.Musician, error) {
	user := middleware.CurrentUser(c)
	if user == nil || user.MusicianID == nil {
		return nil, utils.NewNotFoundError("Musician profile not found")
	}
	var m models.Musician
	if err := db.Where("musician_id = ?", *user.MusicianID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Musician profile not found")
		}
		return nil, err
	}
	return &m, nil
}

// activeMusician returns the active musician with the public id.
func activeMusician(db *gorm.DB, musicianID uint) (*models.Musician, error) {
	var m models.Musician
	err := db.Where("musician_id = ? AND is_active = ?", musicianID, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("Musician not found or inactive")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike lowercases s and escapes LIKE wildcards for use with likeEscape.
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// likeEscape goes after every LIKE built from escapeLike or likePattern.
const likeEscape = ` ESCAPE '\'`

func likePattern(s string) string {
	return "%" + escapeLike(s) + "%"
}
