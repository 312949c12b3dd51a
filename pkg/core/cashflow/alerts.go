package cashflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Alert window in calendar days relative to today.
const (
	AlertWindowPastDays   = 3
	AlertWindowFutureDays = 7
)

// alertNamespace seeds deterministic alert IDs.
var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ledger-analytics/payment-alert"))

// PaymentAlert flags a recurring payment that is due soon or recently overdue.
type PaymentAlert struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id,omitempty"`
	ItemName  string    `json:"item_name"`
	Kind      FlowKind  `json:"kind"`
	Column    int       `json:"column"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	DaysUntil int       `json:"days_until"`
	IsPastDue bool      `json:"is_past_due"`
}

// Alerts scans every item with a payment day across the columns it touches and
// returns alerts inside [-3, +7] days of today, most urgent first. Malformed
// items and periods with an invalid month are skipped.
func Alerts(items []RecurringItem, periods []PeriodInput, today time.Time) []PaymentAlert {
	ref := dateOnly(today)
	columns := len(periods)
	out := make([]PaymentAlert, 0)

	for _, item := range items {
		if item.Recurrence.PaymentDay == nil || item.Validate() != nil {
			continue
		}
		for _, col := range TouchedColumns(item, columns) {
			p := periods[col-1]
			if p.Month < 1 || p.Month > 12 {
				continue
			}
			due := PaymentDate(p.Year, time.Month(p.Month), *item.Recurrence.PaymentDay)
			days := int(due.Sub(ref).Hours() / 24)
			if days < -AlertWindowPastDays || days > AlertWindowFutureDays {
				continue
			}
			out = append(out, PaymentAlert{
				ID:        alertID(item, col, due),
				ItemID:    item.ID,
				ItemName:  item.Name,
				Kind:      item.Kind,
				Column:    col,
				Amount:    AmountFor(item, col),
				DueDate:   due,
				DaysUntil: days,
				IsPastDue: days < 0,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DaysUntil != b.DaysUntil {
			return a.DaysUntil < b.DaysUntil
		}
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.ItemName != b.ItemName {
			return a.ItemName < b.ItemName
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.ID < b.ID
	})
	return out
}

// PaymentDate builds the due date for a month, clamping day to the month's
// length (day 31 in February lands on the 28th or 29th).
func PaymentDate(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func alertID(item RecurringItem, column int, due time.Time) string {
	key := fmt.Sprintf("%s|%s|%d|%s", item.ID, item.Name, column, due.Format("2006-01-02"))
	return uuid.NewSHA1(alertNamespace, []byte(key)).String()
}
