package entity

import (
	"fmt"
	"time"
)

type BookStatus string

const (
	StatusRead    BookStatus = "Read"
	StatusUnread  BookStatus = "Unread"
	StatusReading BookStatus = "Reading"
)

// Valid reports whether s is one of the known reading statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusRead, StatusUnread, StatusReading:
		return true
	}
	return false
}

// Book is a single catalog entry. Exactly one of CoverImage (base64 PNG,
// normalized to 200x300) and CoverURL may be set.
type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	ISBN        string     `json:"isbn,omitempty"`
	Rating      int        `json:"rating"`
	Status      BookStatus `json:"status"`
	DateAdded   Date       `json:"date_added"`
	Collections []string   `json:"collections,omitempty"`
	CoverImage  string     `json:"cover_image,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	PublishDate string     `json:"publish_date,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
}

// InCollection reports whether the book was tagged with the collection name.
func (b Book) InCollection(name string) bool {
	for _, c := range b.Collections {
		if c == name {
			return true
		}
	}
	return false
}

const dateLayout = "2006-01-02"

// Date is a calendar day, serialized as "YYYY-MM-DD" to match the catalog
// document format.
type Date struct {
	time.Time
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// Month returns the calendar month key ("YYYY-MM") used for the additions
// time series.
func (d Date) Month() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.Format(dateLayout))), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `""` {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, string(data))
	if err != nil {
		return err
	}
	*d = Date{t}
	return nil
}
