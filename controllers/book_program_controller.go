package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/utils"
)

type LocationInput struct {
	Address         string   `json:"address" binding:"max=500"`
	Lat             *float64 `json:"lat" binding:"required,min=-90,max=90"`
	Lng             *float64 `json:"lng" binding:"required,min=-180,max=180"`
	SelectedFromMap bool     `json:"selectedFromMap"`
}

type ContactInput struct {
	CountryCode string `json:"countryCode" binding:"omitempty,countrycode"`
	Phone       string `json:"phone" binding:"required"`
}

type BookProgramInput struct {
	MusicianID     uint          `json:"musicianId" binding:"required,min=1"`
	NumberOfPeople string        `json:"numberOfPeople" binding:"required,oneof=upto-250 250-500 500-1000 1000+"`
	ProgramType    string        `json:"programType" binding:"required,oneof=indoor outdoor"`
	Location       LocationInput `json:"location"`
	ContactNumber  ContactInput  `json:"contactNumber"`
	ProgramDate    string        `json:"programDate" binding:"required"`
}

// UpdateBookProgramInput carries the fields a musician may change.
type UpdateBookProgramInput struct {
	BookingStatus  *models.BookingStatus `json:"bookingStatus" binding:"omitempty,oneof=pending accepted rejected completed"`
	NumberOfPeople *string               `json:"numberOfPeople" binding:"omitempty,oneof=upto-250 250-500 500-1000 1000+"`
	ProgramType    *string               `json:"programType" binding:"omitempty,oneof=indoor outdoor"`
	Location       *LocationInput        `json:"location"`
	ContactNumber  *ContactInput         `json:"contactNumber"`
	ProgramDate    *string               `json:"programDate"`
}

func (in LocationInput) model() models.ProgramLocation {
	return models.ProgramLocation{
		Address:         strings.TrimSpace(in.Address),
		Lat:             *in.Lat,
		Lng:             *in.Lng,
		SelectedFromMap: in.SelectedFromMap,
	}
}

func (in ContactInput) model() (models.ContactNumber, error) {
	cc := in.CountryCode
	if cc == "" {
		cc = "+91"
	}
	digits, err := utils.ValidatePhone(in.Phone, cc)
	if err != nil {
		return models.ContactNumber{}, err
	}
	return models.ContactNumber{CountryCode: cc, Phone: digits}, nil
}

func CreateBookProgram(c *gin.Context) {
	var input BookProgramInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)

	programDate, err := parseDate(input.ProgramDate)
	if err != nil {
		utils.Fail(c, utils.NewValidationError("Invalid programDate"))
		return
	}
	contact, err := input.ContactNumber.model()
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if _, err := activeMusician(db, input.MusicianID); err != nil {
		utils.Fail(c, err)
		return
	}

	booking := models.BookProgram{
		UserID:         user.ID,
		MusicianID:     input.MusicianID,
		NumberOfPeople: input.NumberOfPeople,
		ProgramType:    input.ProgramType,
		Location:       input.Location.model(),
		ContactNumber:  contact,
		ProgramDate:    programDate,
		BookingStatus:  models.BookingPending,
	}
	if err := db.Create(&booking).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	svc.NotifyMusician(db, input.MusicianID, models.NotifyBooking, "New program booking",
		fmt.Sprintf("%s booked an %s program on %s.", user.FullName(), booking.ProgramType, programDate.Format("2006-01-02")),
		"/book-programs/"+booking.ID.String())

	utils.Success(c, http.StatusCreated, "Program booked successfully", gin.H{"booking": booking})
}

// GetBookPrograms lists bookings visible to the caller. Musicians only see
// bookings addressed to them and users only their own.
func GetBookPrograms(c *gin.Context) {
	p, err := utils.ParsePagination(c, 20, 100)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	var query struct {
		MusicianID uint   `form:"musicianId" binding:"omitempty,min=1"`
		Status     string `form:"status" binding:"omitempty,oneof=pending accepted rejected completed"`
	}
	if !bindQuery(c, &query) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)

	q := db.Model(&models.BookProgram{})
	switch {
	case isAdmin(user):
		if query.MusicianID != 0 {
			q = q.Where("musician_id = ?", query.MusicianID)
		}
	case user.Role == models.RoleMusician && user.MusicianID != nil:
		q = q.Where("musician_id = ?", *user.MusicianID)
	default:
		q = q.Where("user_id = ?", user.ID)
		if query.MusicianID != 0 {
			q = q.Where("musician_id = ?", query.MusicianID)
		}
	}
	if query.Status != "" {
		q = q.Where("booking_status = ?", query.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	var bookings []models.BookProgram
	if err := q.Order("created_at DESC").Offset(p.Offset()).Limit(p.Limit).Find(&bookings).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Bookings fetched successfully", gin.H{
		"bookings":   bookings,
		"pagination": p.Meta(total),
	})
}

func findBooking(c *gin.Context, db *gorm.DB) (*models.BookProgram, bool) {
	id, ok := paramUUID(c, "id", "Booking")
	if !ok {
		return nil, false
	}
	var booking models.BookProgram
	if err := db.First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = utils.NewNotFoundError("Booking not found")
		}
		utils.Fail(c, err)
		return nil, false
	}
	return &booking, true
}

func GetBookProgram(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)
	booking, ok := findBooking(c, db)
	if !ok {
		return
	}
	if booking.UserID != user.ID && !ownsMusicianID(user, booking.MusicianID) && !isAdmin(user) {
		utils.Fail(c, utils.NewForbiddenError("Not authorized to view this booking"))
		return
	}
	utils.Success(c, http.StatusOK, "Booking retrieved successfully", gin.H{"booking": booking})
}

func UpdateBookProgram(c *gin.Context) {
	var input UpdateBookProgramInput
	if !bindJSON(c, &input) {
		return
	}
	db := c.MustGet("db").(*gorm.DB)
	svc := middleware.GetServices(c)
	user := middleware.CurrentUser(c)
	booking, ok := findBooking(c, db)
	if !ok {
		return
	}
	if !ownsMusicianID(user, booking.MusicianID) {
		utils.Fail(c, utils.NewForbiddenError("Not authorized to update this booking"))
		return
	}

	statusChanged := false
	if input.BookingStatus != nil && *input.BookingStatus != booking.BookingStatus {
		booking.BookingStatus = *input.BookingStatus
		statusChanged = true
	}
	if input.NumberOfPeople != nil {
		booking.NumberOfPeople = *input.NumberOfPeople
	}
	if input.ProgramType != nil {
		booking.ProgramType = *input.ProgramType
	}
	if input.ProgramDate != nil {
		d, err := parseDate(*input.ProgramDate)
		if err != nil {
			utils.Fail(c, utils.NewValidationError("Invalid programDate"))
			return
		}
		booking.ProgramDate = d
	}
	if input.Location != nil {
		if input.Location.Lat == nil || input.Location.Lng == nil {
			utils.Fail(c, utils.NewValidationError("Invalid location"))
			return
		}
		booking.Location = input.Location.model()
	}
	if input.ContactNumber != nil {
		contact, err := input.ContactNumber.model()
		if err != nil {
			utils.Fail(c, err)
			return
		}
		booking.ContactNumber = contact
	}

	if err := db.Save(booking).Error; err != nil {
		utils.Fail(c, err)
		return
	}

	if statusChanged {
		svc.Notify(db, booking.UserID, models.NotifyBookingStatus, "Booking "+string(booking.BookingStatus),
			fmt.Sprintf("Your program booking for %s is now %s.", booking.ProgramDate.Format("2006-01-02"), booking.BookingStatus),
			"/book-programs/"+booking.ID.String())
	}
	utils.Success(c, http.StatusOK, "Booking updated successfully", gin.H{"booking": booking})
}

func DeleteBookProgram(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)
	user := middleware.CurrentUser(c)
	booking, ok := findBooking(c, db)
	if !ok {
		return
	}
	if booking.UserID != user.ID && !ownsMusicianID(user, booking.MusicianID) {
		utils.Fail(c, utils.NewForbiddenError("Not authorized to delete this booking"))
		return
	}
	if err := db.Delete(booking).Error; err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Booking deleted", nil)
}
