package records

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"servis-kayit-backend/internal/database"
	"servis-kayit-backend/internal/logger"
	"servis-kayit-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	msgConnectionFailed = "Database connection failed"
	msgMissingData      = "Missing data in request"
	msgInvalidDate      = "Invalid date format, expected YYYY-MM-DD"
	msgNotFound         = "Record not found"
	msgFetchFailed      = "Failed to fetch records"
	msgAddFailed        = "Failed to add record"
	msgUpdateFailed     = "Failed to update record"
	msgDeleteFailed     = "Failed to delete record"
)

// RecordRequest is the create/update body. Every field is required; pointers
// distinguish an absent (or null) key from a zero value.
type RecordRequest struct {
	Date          *string          `json:"date" validate:"required"`
	CarNo         *string          `json:"carNo" validate:"required"`
	Model         *string          `json:"model" validate:"required"`
	TreatmentName *string          `json:"treatmentName" validate:"required"`
	RoNo          *string          `json:"roNo" validate:"required"`
	InvoiceNo     *string          `json:"invoiceNo" validate:"required"`
	Adviser       *string          `json:"adviser" validate:"required"`
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	Discount      *decimal.Decimal `json:"discount" validate:"required"`
}

type RecordResponse struct {
	SrNo          uint    `json:"sr_no"`
	Date          string  `json:"date"`
	CarNo         string  `json:"car_no"`
	Model         string  `json:"model"`
	TreatmentName string  `json:"treatment_name"`
	RoNo          string  `json:"ro_no"`
	InvoiceNo     string  `json:"invoice_no"`
	Adviser       string  `json:"adviser"`
	Amount        float64 `json:"amount"`
	Discount      float64 `json:"discount"`
	FinalAmount   float64 `json:"final_amount"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Hata loglarında json alan adları görünsün
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ToResponse maps a stored row to its JSON shape, deriving final_amount.
func ToResponse(r models.ServiceRecord) RecordResponse {
	return RecordResponse{
		SrNo:          r.SrNo,
		Date:          time.Time(r.Date).Format(models.DateLayout),
		CarNo:         r.CarNo,
		Model:         r.Model,
		TreatmentName: r.TreatmentName,
		RoNo:          r.RoNo,
		InvoiceNo:     r.InvoiceNo,
		Adviser:       r.Adviser,
		Amount:        r.Amount.InexactFloat64(),
		Discount:      r.Discount.InexactFloat64(),
		FinalAmount:   r.FinalAmount().InexactFloat64(),
	}
}

// GET /api/records?date=&adviser=&model=
func ListRecordsHandler(store Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return err
		}

		rows, err := store.List(c.UserContext(), filter)
		if err != nil {
			return failure(c, log, err, msgFetchFailed)
		}

		res := make([]RecordResponse, 0, len(rows))
		for _, r := range rows {
			res = append(res, ToResponse(r))
		}
		return c.JSON(res)
	}
}

// POST /api/records
func CreateRecordHandler(store Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields, err := parseFields(c, log)
		if err != nil {
			return err
		}

		rec, err := store.Create(c.UserContext(), fields)
		if err != nil {
			return failure(c, log, err, msgAddFailed)
		}

		return c.Status(fiber.StatusCreated).JSON(ToResponse(*rec))
	}
}

// PUT /api/records/:id
func UpdateRecordHandler(store Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}

		fields, err := parseFields(c, log)
		if err != nil {
			return err
		}

		if err := store.Update(c.UserContext(), id, fields); err != nil {
			return failure(c, log, err, msgUpdateFailed)
		}

		return c.JSON(MessageResponse{Message: "Record updated successfully"})
	}
}

// DELETE /api/records/:id
func DeleteRecordHandler(store Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := recordID(c)
		if err != nil {
			return err
		}

		if err := store.Delete(c.UserContext(), id); err != nil {
			return failure(c, log, err, msgDeleteFailed)
		}

		return c.JSON(MessageResponse{Message: "Record deleted successfully"})
	}
}

// parseFilter reads the optional date, adviser and model query parameters.
func parseFilter(c *fiber.Ctx) (Filter, error) {
	var filter Filter
	if dateStr := strings.TrimSpace(c.Query("date")); dateStr != "" {
		d, err := parseDate(dateStr)
		if err != nil {
			return Filter{}, fiber.NewError(fiber.StatusBadRequest, msgInvalidDate)
		}
		filter.Date = &d
	}
	filter.Adviser = c.Query("adviser")
	filter.Model = c.Query("model")
	return filter, nil
}

// recordID reads a positive numeric :id within the int4 range of sr_no.
// Anything else cannot name a record.
func recordID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 || id > math.MaxInt32 {
		return 0, fiber.NewError(fiber.StatusNotFound, msgNotFound)
	}
	return uint(id), nil
}

func parseFields(c *fiber.Ctx, log *zap.Logger) (Fields, error) {
	var body RecordRequest
	if err := c.BodyParser(&body); err != nil {
		logger.FromCtx(c, log).Info("istek gövdesi çözümlenemedi", zap.Error(err))
		return Fields{}, fiber.NewError(fiber.StatusBadRequest, msgMissingData)
	}

	if err := validate.Struct(&body); err != nil {
		logger.FromCtx(c, log).Info("eksik alan", zap.Strings("fields", missingFields(err)))
		return Fields{}, fiber.NewError(fiber.StatusBadRequest, msgMissingData)
	}

	date, err := parseDate(*body.Date)
	if err != nil {
		return Fields{}, fiber.NewError(fiber.StatusBadRequest, msgInvalidDate)
	}

	return Fields{
		Date:          date,
		CarNo:         *body.CarNo,
		Model:         *body.Model,
		TreatmentName: *body.TreatmentName,
		RoNo:          *body.RoNo,
		InvoiceNo:     *body.InvoiceNo,
		Adviser:       *body.Adviser,
		Amount:        *body.Amount,
		Discount:      *body.Discount,
	}, nil
}

// failure logs the cause and maps it onto a client-safe error.
func failure(c *fiber.Ctx, log *zap.Logger, err error, fallback string) error {
	l := logger.FromCtx(c, log)
	switch {
	case errors.Is(err, database.ErrConnection):
		l.Error("veritabanı bağlantısı kurulamadı", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, msgConnectionFailed)
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, msgNotFound)
	default:
		l.Error(fallback, zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

func parseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

func missingFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return names
}
