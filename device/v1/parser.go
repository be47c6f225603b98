package v1

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DeviceUser is one row of the console's user listing. DevicePK is the
// terminal's internal auto-increment id, distinct from the employee code
// administrators configure; the report endpoint only accepts DevicePK.
type DeviceUser struct {
	DevicePK string
	Code     string
	Name     string
	CardID   string
}

// AttendanceEvent is one row of the daily report: a date, the device
// employee code, and up to six punch times in device order.
type AttendanceEvent struct {
	Date string
	Code string
	Name string

	// Times holds report slots 1..6. Slot 1 is always the check-in.
	Times [6]string
}

// CheckIn returns the slot 1 punch, empty if the row had none.
func (e AttendanceEvent) CheckIn() string {
	return e.Times[0]
}

// CheckOut resolves the effective check-out: the last non-empty punch
// scanning slots 6 down to 2. Empty means the row carries no check-out yet.
func (e AttendanceEvent) CheckOut() string {
	for i := len(e.Times) - 1; i >= 1; i-- {
		if e.Times[i] != "" {
			return e.Times[i]
		}
	}
	return ""
}

// ParseUserList extracts device users from the /csl/user page. The page
// wraps the listing in a div with id "cc"; its absence means the response
// is not the expected page at all.
func ParseUserList(r io.Reader) ([]DeviceUser, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, ErrUnexpectedPage
	}

	rows := doc.Find("div#cc table tr")
	if rows.Length() == 0 {
		return nil, ErrUnexpectedPage
	}

	var users []DeviceUser
	rows.Each(func(_ int, tr *goquery.Selection) {
		td := tr.Find("td")
		if td.Length() < 5 {
			return
		}

		// The device pk is only exposed as a hidden input inside the
		// first cell.
		pk, ok := td.Eq(0).Find(`input[name=uid]`).Attr("value")
		if !ok {
			return
		}

		users = append(users, DeviceUser{
			DevicePK: strings.TrimSpace(pk),
			Code:     strings.TrimSpace(td.Eq(2).Text()),
			Name:     strings.TrimSpace(td.Eq(3).Text()),
			CardID:   strings.TrimSpace(td.Eq(4).Text()),
		})
	})

	return users, nil
}

// ParseAttendanceReport extracts punch rows from the /csl/report response.
// The first row is the column header. A table with only the header is a
// normal outcome (ErrNoDataToday); a response without the table is a
// malformed reply (ErrUnexpectedPage).
func ParseAttendanceReport(r io.Reader) ([]AttendanceEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, ErrUnexpectedPage
	}

	rows := doc.Find("html > body > table tr")
	if rows.Length() == 0 {
		return nil, ErrUnexpectedPage
	}
	if rows.Length() == 1 {
		return nil, ErrNoDataToday
	}

	var events []AttendanceEvent
	rows.Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}

		td := tr.Find("td")
		if td.Length() < 9 {
			return
		}

		ev := AttendanceEvent{
			Date: strings.TrimSpace(td.Eq(0).Text()),
			Code: strings.TrimSpace(td.Eq(1).Text()),
			Name: strings.TrimSpace(td.Eq(2).Text()),
		}
		for slot := 0; slot < 6; slot++ {
			ev.Times[slot] = strings.TrimSpace(td.Eq(3 + slot).Text())
		}
		events = append(events, ev)
	})

	return events, nil
}
