package schedule

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/openconf/schedtrack/pkg/timeutil"
)

// defaultDayChange is the change-of-day boundary (10:00) assumed when
// sessions appear before any day element has been seen. An explicit day
// element with a missing end attribute is a hard error instead; the
// soft default only covers documents that never open a day at all.
const defaultDayChange = 600

// Parse runs a single forward pass over the schedule document and
// returns the sessions in document order plus the conference metadata.
// etag is an opaque freshness token attached verbatim to the metadata.
//
// Errors are terminal: no sessions are returned alongside one. The
// returned Meta still carries whatever version string was gathered, so
// callers can report which schedule release failed. Cancellation is
// polled between elements; a canceled ctx surfaces as ctx.Err().
func Parse(ctx context.Context, document, etag string) ([]*Session, Meta, error) {
	p := &parser{
		ctx:       ctx,
		dec:       xml.NewDecoder(strings.NewReader(document)),
		dayChange: defaultDayChange,
		rooms:     make(map[string]int),
	}

	if err := p.run(); err != nil {
		return nil, p.meta, err
	}

	p.meta.NumDays = p.numDays
	p.meta.ETag = etag
	return p.sessions, p.meta, nil
}

// parser holds the state carried across one traversal. A fresh parser
// is built per Parse call; in particular the room index map is never
// shared between invocations.
type parser struct {
	ctx context.Context
	dec *xml.Decoder

	sessions []*Session
	meta     Meta

	day       int
	date      string
	dayChange int
	room      string
	roomIndex int
	rooms     map[string]int

	numDays  int
	complete bool
}

func (p *parser) run() error {
	for {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		tok, err := p.token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "schedule" {
				p.complete = true
			}
		case xml.StartElement:
			if err := p.startElement(t); err != nil {
				return err
			}
		}
	}

	if err := p.ctx.Err(); err != nil {
		return err
	}
	if !p.complete {
		return ErrIncomplete
	}
	return nil
}

func (p *parser) startElement(se xml.StartElement) error {
	switch {
	case se.Name.Local == "version":
		text, err := p.elementText()
		if err != nil {
			return err
		}
		p.meta.Version = text

	case se.Name.Local == "day":
		index, ok := attr(se, "index")
		if !ok {
			return fmt.Errorf("%w: day element without index attribute", ErrMalformed)
		}
		day, err := strconv.Atoi(index)
		if err != nil {
			return fmt.Errorf("%w: invalid day index %q", ErrMalformed, index)
		}
		p.day = day
		p.date, _ = attr(se, "date")
		end, ok := attr(se, "end")
		if !ok {
			return &MissingAttributeError{Element: "day", Attribute: "end"}
		}
		dayChange, err := timeutil.ParseDayChange(end)
		if err != nil {
			return fmt.Errorf("%w: day end attribute: %v", ErrMalformed, err)
		}
		p.dayChange = dayChange
		if day > p.numDays {
			p.numDays = day
		}

	case se.Name.Local == "room":
		name, ok := attr(se, "name")
		if !ok {
			return fmt.Errorf("%w: room element without name attribute", ErrMalformed)
		}
		p.room = name
		if index, seen := p.rooms[name]; seen {
			p.roomIndex = index
		} else {
			p.roomIndex = len(p.rooms)
			p.rooms[name] = p.roomIndex
		}

	// The session element match tolerates any casing; the upstream
	// format has shipped both spellings over the years.
	case strings.EqualFold(se.Name.Local, "event"):
		session, err := p.parseSession(se)
		if err != nil {
			return err
		}
		p.sessions = append(p.sessions, session)

	case strings.EqualFold(se.Name.Local, "conference"):
		if err := p.parseConference(); err != nil {
			return err
		}
	}
	return nil
}

// parseSession consumes the subtree of one event element and folds its
// children into a Session seeded with the enclosing day and room
// context.
func (p *parser) parseSession(se xml.StartElement) (*Session, error) {
	session := &Session{
		Day:       p.day,
		Date:      p.date,
		Room:      p.room,
		RoomIndex: p.roomIndex,
	}
	session.ID, _ = attr(se, "id")

	for {
		if err := p.ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := p.token()
		if err == io.EOF {
			return nil, ErrIncomplete
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, "event") {
				return session, nil
			}
		case xml.StartElement:
			if err := p.sessionChild(t, session); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) sessionChild(se xml.StartElement, session *Session) error {
	if se.Name.Local == "recording" {
		return p.parseRecording(session)
	}

	switch se.Name.Local {
	case "title", "subtitle", "slug", "track", "type", "language",
		"abstract", "description", "person", "start", "duration", "date":
	case "link":
		return p.sessionLink(se, session)
	default:
		return nil
	}

	text, err := p.elementText()
	if err != nil {
		return err
	}

	switch se.Name.Local {
	case "title":
		session.Title = text
	case "subtitle":
		session.Subtitle = text
	case "slug":
		session.Slug = text
	case "track":
		session.Track = text
	case "type":
		session.Type = text
	case "language":
		session.Language = text
	case "abstract":
		session.Abstract = text
	case "description":
		session.Description = text
	case "person":
		if session.Speakers != "" {
			session.Speakers += ";"
		}
		session.Speakers += text
	case "start":
		start, err := timeutil.ParseClock(text)
		if err != nil {
			return fmt.Errorf("%w: start time: %v", ErrMalformed, err)
		}
		session.StartTime = start
		session.RelStartTime = start
		if start < p.dayChange {
			session.RelStartTime += 24 * 60
		}
	case "duration":
		duration, err := timeutil.ParseClock(text)
		if err != nil {
			return fmt.Errorf("%w: duration: %v", ErrMalformed, err)
		}
		session.Duration = duration
	case "date":
		// An unparsable timestamp is left zero for the validation
		// pass to report; it does not fail the parse.
		if t, err := timeutil.ParseDateTime(text); err == nil {
			session.DateUTC = t
		}
	}
	return nil
}

// sessionLink appends one link child as a [name](url) token. The href
// attribute falls back to the link text, and bare host/path values get
// an http scheme.
func (p *parser) sessionLink(se xml.StartElement, session *Session) error {
	url, hasHref := attr(se, "href")
	name, err := p.elementText()
	if err != nil {
		return err
	}
	if !hasHref || url == "" {
		url = name
	}
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	if session.Links != "" {
		session.Links += ","
	}
	session.Links += "[" + name + "](" + url + ")"
	return nil
}

// parseRecording consumes a nested recording element, collecting the
// license text and the opt-out flag.
func (p *parser) parseRecording(session *Session) error {
	for {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		tok, err := p.token()
		if err == io.EOF {
			return ErrIncomplete
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local == "recording" {
				return nil
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "license":
				text, err := p.elementText()
				if err != nil {
					return err
				}
				session.RecordingLicense = text
			case "optout":
				text, err := p.elementText()
				if err != nil {
					return err
				}
				session.RecordingOptOut = strings.EqualFold(text, "true")
			}
		}
	}
}

// parseConference consumes the conference metadata block. The
// day_change value becomes the fallback change-of-day boundary; a later
// day element's end attribute always replaces it.
func (p *parser) parseConference() error {
	for {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		tok, err := p.token()
		if err == io.EOF {
			return ErrIncomplete
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.EndElement:
			if strings.EqualFold(t.Name.Local, "conference") {
				return nil
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "title", "subtitle", "release", "day_change":
			default:
				continue
			}
			text, err := p.elementText()
			if err != nil {
				return err
			}
			switch t.Name.Local {
			case "title":
				p.meta.Title = text
			case "subtitle":
				p.meta.Subtitle = text
			case "release":
				p.meta.Version = text
			case "day_change":
				dayChange, err := timeutil.ParseClock(text)
				if err != nil {
					return fmt.Errorf("%w: day_change: %v", ErrMalformed, err)
				}
				p.dayChange = dayChange
				p.meta.DayChange = dayChange
			}
		}
	}
}

// token fetches the next token, normalizing end-of-input. A clean EOF
// and a truncated document both come back as io.EOF; the caller decides
// whether that means incomplete. Everything else is a tokenizer failure.
func (p *parser) token() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) && strings.Contains(syntaxErr.Msg, "unexpected EOF") {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return tok, nil
}

// elementText gathers the character data of the current element up to
// its end tag. Text inside nested elements is not included.
func (p *parser) elementText() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		if err := p.ctx.Err(); err != nil {
			return "", err
		}
		tok, err := p.token()
		if err == io.EOF {
			return "", ErrIncomplete
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 {
				sb.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return Sanitize(sb.String()), nil
			}
			depth--
		}
	}
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
