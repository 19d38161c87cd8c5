// Package slip confirms that an uploaded bank-transfer slip actually belongs
// to an order. OCR output is untrusted free text; every field the verifier
// needs is recovered by pattern matching and cross-checked against the order.
package slip

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"foodcourt/internal/apperr"
	"foodcourt/internal/models"
	"foodcourt/internal/ocr"
)

// Status tags the verification outcome so callers can branch
// deterministically instead of digging through logs.
type Status string

const (
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
	StatusErrored  Status = "errored"
)

// Extraction holds the fields recovered from the slip text
type Extraction struct {
	Amount    decimal.Decimal `json:"slipPrice"`
	Timestamp time.Time       `json:"slipDate"`
	RefCode   string          `json:"refCode"`
}

// Result is the tagged verification outcome. Reason is set on rejection,
// Err on an engine or lookup failure.
type Result struct {
	Status    Status     `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	Err       error      `json:"-"`
	Extracted Extraction `json:"extracted"`
}

var (
	// amount followed by a Thai currency marker
	pricePattern = regexp.MustCompile(`(\d[\d,]*(?:\.\d{1,2})?)\s*(?:บาท|THB|฿)`)
	// day, abbreviated Thai month, Buddhist-era year, then HH:MM
	datePattern = regexp.MustCompile(`(\d{1,2})\s*(ม\.ค\.|ก\.พ\.|มี\.ค\.|เม\.ย\.|พ\.ค\.|มิ\.ย\.|ก\.ค\.|ส\.ค\.|ก\.ย\.|ต\.ค\.|พ\.ย\.|ธ\.ค\.)\s*(\d{2,4})\s+(\d{1,2}):(\d{2})`)
	// transfer reference codes are upper-case alphanumeric, 4+ characters
	refPattern = regexp.MustCompile(`[A-Z0-9]{4,}`)
)

// thaiMonths maps abbreviated Thai month names to calendar months
var thaiMonths = map[string]time.Month{
	"ม.ค.":  time.January,
	"ก.พ.":  time.February,
	"มี.ค.": time.March,
	"เม.ย.": time.April,
	"พ.ค.":  time.May,
	"มิ.ย.": time.June,
	"ก.ค.":  time.July,
	"ส.ค.":  time.August,
	"ก.ย.":  time.September,
	"ต.ค.":  time.October,
	"พ.ย.":  time.November,
	"ธ.ค.":  time.December,
}

// buddhistEraOffset converts Buddhist-era years to the common era
const buddhistEraOffset = 543

var bangkok = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}()

// Verifier validates slip images against orders
type Verifier struct {
	db            *gorm.DB
	engine        ocr.Engine
	language      string
	timeTolerance time.Duration

	// enforceDuplicateRef rejects reference-code collisions within the same
	// calendar day; when false a collision is logged but the slip passes.
	enforceDuplicateRef bool
}

// NewVerifier builds a slip verifier
func NewVerifier(db *gorm.DB, engine ocr.Engine, language string, timeTolerance time.Duration, enforceDuplicateRef bool) *Verifier {
	return &Verifier{
		db:                  db,
		engine:              engine,
		language:            language,
		timeTolerance:       timeTolerance,
		enforceDuplicateRef: enforceDuplicateRef,
	}
}

func rejected(reason string, extracted Extraction) Result {
	return Result{Status: StatusRejected, Reason: reason, Extracted: extracted}
}

func errored(err error) Result {
	return Result{Status: StatusErrored, Err: err}
}

// Verify checks a slip image against the order: the transferred amount must
// equal the order total exactly, the transfer timestamp must fall within the
// tolerance window of the order's placement time, and a reference code must
// be present and unique among the day's orders.
func (v *Verifier) Verify(ctx context.Context, orderID uint, image []byte) Result {
	var order models.Order
	if err := v.db.First(&order, orderID).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return errored(apperr.NotFound("order", orderID))
		}
		return errored(err)
	}

	text, err := v.engine.ExtractText(ctx, image, v.language)
	if err != nil {
		return errored(apperr.External("ocr", err))
	}

	var extracted Extraction

	amount, ok := extractAmount(text)
	if !ok {
		return rejected("no transfer amount found on slip", extracted)
	}
	extracted.Amount = amount
	if !amount.Equal(order.TotalPrice) {
		return rejected(
			fmt.Sprintf("slip amount %s does not match order total %s", amount, order.TotalPrice),
			extracted,
		)
	}

	slipTime, ok := extractTimestamp(text, order.OrderAt)
	if !ok {
		return rejected("no transfer timestamp found on slip", extracted)
	}
	extracted.Timestamp = slipTime
	diff := order.OrderAt.Sub(slipTime)
	if diff < 0 {
		diff = -diff
	}
	if diff > v.timeTolerance {
		return rejected(
			fmt.Sprintf("slip time %s is %s away from order time, tolerance is %s",
				slipTime.Format("15:04"), diff.Round(time.Minute), v.timeTolerance),
			extracted,
		)
	}

	refCode := refPattern.FindString(text)
	if refCode == "" {
		return rejected("no reference code found on slip", extracted)
	}
	extracted.RefCode = refCode

	dup, err := v.refCodeUsedToday(order.ID, refCode, order.OrderAt)
	if err != nil {
		return errored(err)
	}
	if dup {
		if v.enforceDuplicateRef {
			return rejected(
				fmt.Sprintf("reference code %s was already used by another order today", refCode),
				extracted,
			)
		}
		log.Printf("slip: reference code %s reused on order %d, duplicate enforcement is off", refCode, order.ID)
	}

	return Result{Status: StatusVerified, Extracted: extracted}
}

// VerifyReference is the stricter confirmation path: it only checks that the
// expected 4-character reference fragment appears anywhere in the slip text,
// case-insensitively.
func (v *Verifier) VerifyReference(ctx context.Context, image []byte, expected string) (bool, error) {
	if len(expected) != 4 {
		return false, apperr.Validation("expected reference fragment must be exactly 4 characters")
	}

	text, err := v.engine.ExtractText(ctx, image, v.language)
	if err != nil {
		return false, apperr.External("ocr", err)
	}

	return strings.Contains(strings.ToUpper(text), strings.ToUpper(expected)), nil
}

// refCodeUsedToday reports whether another order of the same calendar day
// carries the same reference code.
func (v *Verifier) refCodeUsedToday(orderID uint, refCode string, orderAt time.Time) (bool, error) {
	local := orderAt.In(bangkok)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, bangkok)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := v.db.Model(&models.Order{}).
		Where("ref_code = ? AND id <> ? AND order_at >= ? AND order_at < ?", refCode, orderID, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// extractAmount finds the first money amount followed by a currency marker
func extractAmount(text string) (decimal.Decimal, bool) {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// extractTimestamp finds a Thai-calendar date ("15 ม.ค. 2567 14:30") and
// converts it to a common-era time in the business timezone. Two-digit years
// borrow the century from the reference time's Buddhist-era year.
func extractTimestamp(text string, reference time.Time) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day := atoi(m[1])
	month, ok := thaiMonths[m[2]]
	if !ok {
		return time.Time{}, false
	}
	year := atoi(m[3])
	hour := atoi(m[4])
	minute := atoi(m[5])

	if year < 100 {
		refBE := reference.In(bangkok).Year() + buddhistEraOffset
		year += refBE - refBE%100
	}
	year -= buddhistEraOffset

	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	return time.Date(year, month, day, hour, minute, 0, 0, bangkok), true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
