package model

import "time"

// Movie is a film offered at the box office, as returned by the cinema
// API.  The POS only needs enough of it to render the movie picker and
// the receipt header.
//
// Fields:
//  ID        – identifier assigned by the cinema API.
//  Code      – public movie code (e.g. MV000123).
//  Title     – display title.
//  Duration  – running time in minutes.
//  Age       – minimum viewer age (0 when unrestricted).
//  PosterURL – portrait poster image.
//  Status    – NOW_SHOWING, COMING_SOON or ENDED.
type Movie struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Age       int    `json:"age"`
	PosterURL string `json:"posterUrl,omitempty"`
	Status    string `json:"status"`
}

// ShowTime is one screening of a movie in a room.  Seats are sold per
// showtime.
//
// Fields:
//  ID         – identifier assigned by the cinema API.
//  MovieID    – movie being screened.
//  CinemaName – cinema hosting the screening.
//  RoomName   – room (hall) name.
//  StartTime  – when the screening starts.
//  Status     – ACTIVE or INACTIVE.
type ShowTime struct {
	ID         int64     `json:"id"`
	MovieID    int64     `json:"movieId"`
	CinemaName string    `json:"cinemaName"`
	RoomName   string    `json:"roomName"`
	StartTime  time.Time `json:"startTime"`
	Status     string    `json:"status"`
}
