package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is how trip dates are stored in the database.
const DateLayout = "2006-01-02"

// DisplayLayout is how trip dates are shown in chat.
const DisplayLayout = "02.01.2006"

// Date is a calendar day without a time component.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// Today returns the calendar day of now.
func Today(now time.Time) Date {
	return NewDate(now)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Readable formats the date the way users type it.
func (d Date) Readable() string {
	return d.Format(DisplayLayout)
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool {
	return d.String() < o.String()
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. Accepts TEXT columns as well as drivers that
// already hand out time.Time.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("models: cannot scan %T into Date", src)
	}
}

func (d *Date) parse(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("models: invalid date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

// User is someone who talked to the bot and told it where they live.
type User struct {
	ID               int64     `db:"id"`
	TelegramUserID   int64     `db:"telegram_user_id"`
	TelegramUsername string    `db:"telegram_username"`
	Hometown         string    `db:"hometown"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Opportunity is a planned trip of the operator to a city.
type Opportunity struct {
	ID        int64     `db:"id"`
	City      string    `db:"city"`
	Date      Date      `db:"date"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Order is one user's request for one opportunity.
type Order struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	OpportunityID int64     `db:"opportunity_id"`
	OrderText     string    `db:"order_text"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// OrderLine joins an order with the user who placed it.
type OrderLine struct {
	Order
	TelegramUserID   int64  `db:"telegram_user_id"`
	TelegramUsername string `db:"telegram_username"`
}

// UserOrder joins an order with the opportunity it belongs to.
type UserOrder struct {
	Order
	City string `db:"city"`
	Date Date   `db:"date"`
}
