package internalhttp

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/Josue049/CronoSpark/internal/storage"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	calendarProductID = "-//CronoSpark//Calendar Feed//EN"
	floatingLayout    = "20060102T150405"
)

// emptyCalendar is written when there is nothing to export: go-ical refuses to encode a calendar without components.
const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + calendarProductID + "\r\nEND:VCALENDAR\r\n"

var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cronospark/events"))

func (s *Server) calendarFeed(w http.ResponseWriter, r *http.Request) {
	events, err := s.app.ListEvents(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	for _, e := range events {
		if vevent, ok := toICalEvent(e); ok {
			cal.Children = append(cal.Children, vevent.Component)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="cronospark.ics"`)
	if len(cal.Children) == 0 {
		w.Write([]byte(emptyCalendar))
		return
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Write(buf.Bytes())
}

// eventUID is stable for the lifetime of an event so subscribers can track changes.
func eventUID(id int64) string {
	return uuid.NewSHA1(eventNamespace, []byte(strconv.FormatInt(id, 10))).String()
}

// toICalEvent converts a dated event. Stored times carry no zone, so they are exported as floating times.
func toICalEvent(e storage.Event) (*ical.Event, bool) {
	due, ok := e.Due(time.UTC)
	if !ok {
		return nil, false
	}

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, eventUID(e.ID))
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, e.CreatedAt.UTC())
	if e.Time == "" {
		vevent.Props.SetDate(ical.PropDateTimeStart, due)
	} else {
		start := ical.NewProp(ical.PropDateTimeStart)
		start.Value = due.Format(floatingLayout)
		vevent.Props.Set(start)
	}
	vevent.Props.SetText(ical.PropSummary, e.Title)
	if e.Description != "" {
		vevent.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Link != "" {
		link := ical.NewProp(ical.PropURL)
		link.Value = e.Link
		vevent.Props.Set(link)
	}
	if e.Urgent {
		priority := ical.NewProp(ical.PropPriority)
		priority.Value = "1"
		vevent.Props.Set(priority)
	}
	return vevent, true
}
