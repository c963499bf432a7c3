package model

// Seat describes a physical seat in a room for a particular showtime
// layout.  Seats are identified by ID; Name is the printed label
// (row + column, e.g. "C7").
//
// Fields:
//  ID          – identifier assigned by the cinema API.
//  Name        – printed label.
//  RowName     – row letter.
//  ColumnIndex – position in the row (1-based).
//  Type        – NORMAL, VIP or COUPLE.
//  Booked      – sold or held; the terminal cannot pick it unless it is
//                already in its own selection.
//  TempHeld    – held by another terminal's in-progress sale.
type Seat struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	RowName     string `json:"rowName"`
	ColumnIndex int    `json:"columnIndex"`
	Type        string `json:"type"`
	Booked      bool   `json:"booked"`
	TempHeld    bool   `json:"tempHeld"`
}

// SeatRow groups the seats of one row in display order.
type SeatRow struct {
	Name  string `json:"name"`
	Seats []Seat `json:"seats"`
}

// SeatLayout is the seat grid of a showtime as reported by the cinema
// API.  It is read-only ground truth for availability.
type SeatLayout struct {
	ShowTimeID int64     `json:"showTimeId"`
	Rows       []SeatRow `json:"rows"`
}

// Seat looks up a seat by ID.
func (l *SeatLayout) Seat(id int64) (Seat, bool) {
	if l == nil {
		return Seat{}, false
	}
	for _, row := range l.Rows {
		for _, s := range row.Seats {
			if s.ID == id {
				return s, true
			}
		}
	}
	return Seat{}, false
}

// TempHeldSeats returns every seat another terminal is holding.
func (l *SeatLayout) TempHeldSeats() []Seat {
	if l == nil {
		return nil
	}
	var out []Seat
	for _, row := range l.Rows {
		for _, s := range row.Seats {
			if s.TempHeld {
				out = append(out, s)
			}
		}
	}
	return out
}
