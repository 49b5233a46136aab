package model

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// SlotShape is one of the four fixed daily viewing windows
type SlotShape string

const (
	SlotShapeAM1 SlotShape = "AM1" // 08:30-10:00
	SlotShapeAM2 SlotShape = "AM2" // 10:00-11:30
	SlotShapePM1 SlotShape = "PM1" // 13:00-14:30
	SlotShapePM2 SlotShape = "PM2" // 14:30-16:00
)

// SlotDuration is the length of every viewing window
const SlotDuration = 90 * time.Minute

type shapeStart struct {
	hour, minute int
}

var slotShapes = map[SlotShape]shapeStart{
	SlotShapeAM1: {8, 30},
	SlotShapeAM2: {10, 0},
	SlotShapePM1: {13, 0},
	SlotShapePM2: {14, 30},
}

// AllSlotShapes lists the shapes in chronological order
func AllSlotShapes() []SlotShape {
	return []SlotShape{SlotShapeAM1, SlotShapeAM2, SlotShapePM1, SlotShapePM2}
}

// ParseSlotShape accepts the shape code in any case
func ParseSlotShape(s string) (SlotShape, error) {
	shape := SlotShape(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := slotShapes[shape]; !ok {
		return "", fmt.Errorf("unknown slot shape %q", s)
	}
	return shape, nil
}

// Window returns start and end of the shape on the given date in loc
func (s SlotShape) Window(date civil.Date, loc *time.Location) (time.Time, time.Time, error) {
	st, ok := slotShapes[s]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown slot shape %q", s)
	}
	start := time.Date(date.Year, date.Month, date.Day, st.hour, st.minute, 0, 0, loc)
	return start, start.Add(SlotDuration), nil
}

// ShapeOf returns the shape a start time matches, or false
func ShapeOf(start time.Time) (SlotShape, bool) {
	for shape, st := range slotShapes {
		if start.Hour() == st.hour && start.Minute() == st.minute {
			return shape, true
		}
	}
	return "", false
}

// TimeSlot is a viewing window a landlord offers; reserved by at most one live booking
type TimeSlot struct {
	ID         int64     `json:"id"`
	LandlordID int64     `json:"landlord_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsBooked   bool      `json:"is_booked"`
	CreatedAt  time.Time `json:"created_at"`
}

// SlotRequest describes one slot a landlord wants to publish
type SlotRequest struct {
	Date  civil.Date `json:"date"`
	Shape SlotShape  `json:"shape"`
}
