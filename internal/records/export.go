package records

import (
	"servis-kayit-backend/internal/logger"
	"servis-kayit-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	exportSheet    = "Records"
	exportFilename = "service-records.xlsx"
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	msgExportFailed = "Failed to export records"
)

var exportHeader = []interface{}{
	"Sr No", "Date", "Car No", "Model", "Treatment", "RO No",
	"Invoice No", "Adviser", "Amount", "Discount", "Final Amount",
}

// GET /api/records/export?date=&adviser=&model=
func ExportRecordsHandler(store Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := parseFilter(c)
		if err != nil {
			return err
		}

		rows, err := store.List(c.UserContext(), filter)
		if err != nil {
			return failure(c, log, err, msgFetchFailed)
		}

		data, err := buildWorkbook(rows)
		if err != nil {
			logger.FromCtx(c, log).Error("excel dosyası oluşturulamadı", zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, msgExportFailed)
		}

		c.Attachment(exportFilename)
		c.Set(fiber.HeaderContentType, xlsxMIME)
		return c.Send(data)
	}
}

// buildWorkbook writes one header row followed by one row per record, in the
// same order and with the same derived final amount as the list endpoint.
func buildWorkbook(rows []models.ServiceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}

	for i, r := range rows {
		res := ToResponse(r)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			res.SrNo, res.Date, res.CarNo, res.Model, res.TreatmentName, res.RoNo,
			res.InvoiceNo, res.Adviser, res.Amount, res.Discount, res.FinalAmount,
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
