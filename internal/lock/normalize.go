package lock

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/lovebridge/lovelock/internal/ledger"
)

// lockFields mirrors the on-chain Lock struct. p1 is the creator, p2 the
// recipient; creation_date stays raw because nodes serialize it at least
// three different ways.
type lockFields struct {
	P1           string          `json:"p1"`
	P2           string          `json:"p2"`
	Message      string          `json:"message"`
	Closed       bool            `json:"closed"`
	CreationDate json.RawMessage `json:"creation_date"`
}

// Normalize converts a raw ledger object into a canonical Lock.
//
// Returns ErrNotLock when the payload is not a lock record: missing
// content, non-move content, or a type tag that does not contain
// lockType. A malformed creation date never fails normalization — it
// degrades to SentinelDate and the record is still returned.
func Normalize(obj *ledger.RawObject, lockType string) (*Lock, error) {
	if obj == nil || obj.Content == nil || obj.Content.DataType != "moveObject" {
		return nil, ErrNotLock
	}

	// The type tag may live on the object or on its content depending on
	// which query options produced it.
	typeTag := obj.Type
	if typeTag == "" {
		typeTag = obj.Content.Type
	}
	if !strings.Contains(typeTag, lockType) {
		return nil, ErrNotLock
	}

	var fields lockFields
	if err := json.Unmarshal(obj.Content.Fields, &fields); err != nil {
		return nil, ErrNotLock
	}

	return &Lock{
		ID:           obj.ObjectID,
		Creator:      fields.P1,
		Recipient:    fields.P2,
		Message:      fields.Message,
		CreationDate: parseCreationDate(fields.CreationDate),
		Closed:       fields.Closed,
	}, nil
}

// rawDate is a day/month/year bag with optional members, so presence can
// be told apart from zero.
type rawDate struct {
	Day   *int `json:"day"`
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

func (d rawDate) present() bool {
	return d.Day != nil || d.Month != nil || d.Year != nil
}

// withDefaults fills absent or zero members individually: day=1, month=1,
// year=2024.
func (d rawDate) withDefaults() Date {
	out := SentinelDate
	if d.Day != nil && *d.Day != 0 {
		out.Day = *d.Day
	}
	if d.Month != nil && *d.Month != 0 {
		out.Month = *d.Month
	}
	if d.Year != nil && *d.Year != 0 {
		out.Year = *d.Year
	}
	return out
}

// parseCreationDate resolves the creation date through a fixed precedence,
// first match wins:
//
//  1. object with a nested "fields" bag holding day/month/year
//  2. "d/m/y" string
//  3. flat object with day/month/year, taken verbatim
//  4. anything else degrades to SentinelDate
func parseCreationDate(raw json.RawMessage) Date {
	if len(raw) == 0 || string(raw) == "null" {
		return SentinelDate
	}

	var nested struct {
		Fields *rawDate `json:"fields"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && nested.Fields != nil {
		return nested.Fields.withDefaults()
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return SentinelDate
		}
		day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			return SentinelDate
		}
		return Date{Day: day, Month: month, Year: year}
	}

	var flat rawDate
	if err := json.Unmarshal(raw, &flat); err == nil && flat.present() {
		out := Date{}
		if flat.Day != nil {
			out.Day = *flat.Day
		}
		if flat.Month != nil {
			out.Month = *flat.Month
		}
		if flat.Year != nil {
			out.Year = *flat.Year
		}
		return out
	}

	return SentinelDate
}
