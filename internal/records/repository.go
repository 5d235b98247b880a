package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"servis-kayit-backend/internal/database"
	"servis-kayit-backend/internal/metrics"
	"servis-kayit-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrQuery       = errors.New("query failed")
	ErrPersistence = errors.New("persistence failed")
)

// Filter narrows List. Zero values impose no constraint.
type Filter struct {
	Date    *datatypes.Date
	Adviser string
	Model   string
}

// Fields are the nine caller-supplied columns of a record.
type Fields struct {
	Date          datatypes.Date
	CarNo         string
	Model         string
	TreatmentName string
	RoNo          string
	InvoiceNo     string
	Adviser       string
	Amount        decimal.Decimal
	Discount      decimal.Decimal
}

// Store is what the HTTP layer needs from the repository.
type Store interface {
	List(ctx context.Context, f Filter) ([]models.ServiceRecord, error)
	Create(ctx context.Context, f Fields) (*models.ServiceRecord, error)
	Update(ctx context.Context, id uint, f Fields) error
	Delete(ctx context.Context, id uint) error
}

type Repository struct {
	provider *database.Provider
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewRepository(provider *database.Provider, m *metrics.Metrics, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{provider: provider, metrics: m, log: log}
}

var _ Store = (*Repository)(nil)

// List returns matching records ordered by sr_no ascending.
func (r *Repository) List(ctx context.Context, f Filter) (records []models.ServiceRecord, err error) {
	defer func() { r.observe("list", err) }()

	conn, err := r.provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.release(conn)

	q := conn.DB.Model(&models.ServiceRecord{})
	if f.Date != nil {
		q = q.Where("date = ?", *f.Date)
	}
	if f.Adviser != "" {
		q = q.Where(`adviser LIKE ? ESCAPE '\'`, containsPattern(f.Adviser))
	}
	if f.Model != "" {
		q = q.Where(`model LIKE ? ESCAPE '\'`, containsPattern(f.Model))
	}

	records = make([]models.ServiceRecord, 0)
	if err := q.Order("sr_no ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return records, nil
}

// Create inserts a row and returns it as stored. On Postgres this is a single
// INSERT ... RETURNING * statement; other dialects read the row back inside
// the same transaction.
func (r *Repository) Create(ctx context.Context, f Fields) (rec *models.ServiceRecord, err error) {
	defer func() { r.observe("create", err) }()

	conn, err := r.provider.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.release(conn)

	row := f.toModel()
	err = conn.DB.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			return tx.Clauses(clause.Returning{}).Create(&row).Error
		}
		// SQLite RETURNING kolon tiplerini vermiyor, aynı transaction içinde tekrar oku
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Take(&row, "sr_no = ?", row.SrNo).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return &row, nil
}

// Update replaces all nine columns of the row with the given sr_no.
func (r *Repository) Update(ctx context.Context, id uint, f Fields) (err error) {
	defer func() { r.observe("update", err) }()

	conn, err := r.provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.release(conn)

	return r.write(conn, func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&models.ServiceRecord{}).
			Where("sr_no = ?", id).
			Updates(f.columns())
	})
}

// Delete removes the row with the given sr_no.
func (r *Repository) Delete(ctx context.Context, id uint) (err error) {
	defer func() { r.observe("delete", err) }()

	conn, err := r.provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.release(conn)

	return r.write(conn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("sr_no = ?", id).Delete(&models.ServiceRecord{})
	})
}

// write runs stmt in a transaction. Zero affected rows roll back and report
// ErrNotFound; any other failure is ErrPersistence.
func (r *Repository) write(conn *database.Conn, stmt func(tx *gorm.DB) *gorm.DB) error {
	err := conn.DB.Transaction(func(tx *gorm.DB) error {
		res := stmt(tx)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}

func (r *Repository) release(conn *database.Conn) {
	if err := conn.Close(); err != nil {
		r.log.Warn("veritabanı bağlantısı kapatılamadı", zap.Error(err))
	}
}

func (r *Repository) observe(op string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, database.ErrConnection):
		outcome = metrics.OutcomeConnection
	default:
		outcome = metrics.OutcomeError
	}
	r.metrics.ObserveOperation(op, outcome)
}

func (f Fields) toModel() models.ServiceRecord {
	return models.ServiceRecord{
		Date:          f.Date,
		CarNo:         f.CarNo,
		Model:         f.Model,
		TreatmentName: f.TreatmentName,
		RoNo:          f.RoNo,
		InvoiceNo:     f.InvoiceNo,
		Adviser:       f.Adviser,
		Amount:        f.Amount,
		Discount:      f.Discount,
	}
}

func (f Fields) columns() map[string]interface{} {
	return map[string]interface{}{
		"date":           f.Date,
		"car_no":         f.CarNo,
		"model":          f.Model,
		"treatment_name": f.TreatmentName,
		"ro_no":          f.RoNo,
		"invoice_no":     f.InvoiceNo,
		"adviser":        f.Adviser,
		"amount":         f.Amount,
		"discount":       f.Discount,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern that matches s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
