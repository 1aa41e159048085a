// Package attendance defines the attendance status variant and its
// textual codec. The variant is the canonical representation stored and
// mutated by the rest of the system; the Korean status text the academy
// staff reads is generated from it by Encode and is never parsed back on
// the hot path. Decode exists for the legacy import boundary, where the
// old system's single free-text status column is all there is.
package attendance

import (
	"fmt"
	"strings"
)

// Kind discriminates the attendance status variants.
type Kind string

const (
	// KindScheduled is the default: no attendance event recorded yet.
	KindScheduled Kind = "SCHEDULED"
	// KindAttended marks a held lesson with realized start/end times.
	KindAttended Kind = "ATTENDED"
	// KindAbsent marks a missed lesson, with a free-text reason and a
	// flag for whether a linked makeup lesson exists.
	KindAbsent Kind = "ABSENT"
	// KindMakeup marks a generated makeup lesson, carrying its
	// originating absence's date and reason for display.
	KindMakeup Kind = "MAKEUP"
)

// Status is the attendance state of a single lesson occurrence.
// Which fields are meaningful depends on Kind:
//
//	Scheduled: Raw (optional passthrough of unrecognized legacy text)
//	Attended:  nothing (realized times live on the lesson itself)
//	Absent:    Reason, HasMakeup
//	Makeup:    OriginDate, Reason
type Status struct {
	Kind       Kind   `json:"kind"`
	Reason     string `json:"reason,omitempty"`
	HasMakeup  bool   `json:"has_makeup,omitempty"`
	OriginDate string `json:"origin_date,omitempty"`
	Raw        string `json:"raw,omitempty"`
}

// Constructors for the four variants.

func Scheduled() Status { return Status{Kind: KindScheduled} }
func Attended() Status  { return Status{Kind: KindAttended} }
func Absent(reason string, hasMakeup bool) Status {
	return Status{Kind: KindAbsent, Reason: reason, HasMakeup: hasMakeup}
}
func Makeup(originDate, reason string) Status {
	return Status{Kind: KindMakeup, OriginDate: originDate, Reason: reason}
}

// Grammar fragments of the textual form. Reasons containing the literal
// closing sequences cannot survive a decode round-trip; that is a known
// limitation of the inherited format, not something we try to repair.
const (
	tagAttended     = "출석"
	absentOpen      = "결석 ("
	absentCloseWith = ") 보강O"
	absentCloseNone = ") 보강X"
	makeupOpen      = "보강 ("
	makeupSep       = " 결석, 사유: "
)

// Encode renders the display form of a status. Scheduled renders as its
// preserved raw text (possibly empty).
func Encode(s Status) string {
	switch s.Kind {
	case KindAttended:
		return tagAttended
	case KindAbsent:
		suffix := absentCloseNone
		if s.HasMakeup {
			suffix = absentCloseWith
		}
		return absentOpen + s.Reason + suffix
	case KindMakeup:
		return fmt.Sprintf("%s%s%s%s)", makeupOpen, s.OriginDate, makeupSep, s.Reason)
	default:
		return s.Raw
	}
}

// Decode parses a textual status back into a variant. It never fails:
// anything unrecognized becomes Scheduled with the raw text preserved so
// callers can still display it. Absence parsing anchors on the trailing
// ") 보강O"/") 보강X" marker, so reasons containing parentheses decode
// correctly.
func Decode(raw string) Status {
	s := strings.TrimSpace(raw)

	switch {
	case s == "":
		return Scheduled()

	case s == tagAttended:
		return Attended()

	case strings.HasPrefix(s, absentOpen):
		var hasMakeup bool
		var closing string
		switch {
		case strings.HasSuffix(s, absentCloseWith):
			hasMakeup, closing = true, absentCloseWith
		case strings.HasSuffix(s, absentCloseNone):
			hasMakeup, closing = false, absentCloseNone
		default:
			return Status{Kind: KindScheduled, Raw: raw}
		}
		if len(s) < len(absentOpen)+len(closing) {
			return Status{Kind: KindScheduled, Raw: raw}
		}
		return Absent(s[len(absentOpen):len(s)-len(closing)], hasMakeup)

	case strings.HasPrefix(s, makeupOpen) && strings.HasSuffix(s, ")") && len(s) > len(makeupOpen):
		body := s[len(makeupOpen) : len(s)-1]
		// The origin date contains no spaces, so the first separator
		// occurrence is always the real one.
		idx := strings.Index(body, makeupSep)
		if idx < 0 {
			// Early records used the short form "보강 (<date> 결석)"
			// without a reason.
			if date, ok := strings.CutSuffix(body, " 결석"); ok && !strings.ContainsRune(date, ' ') {
				return Makeup(date, "")
			}
			return Status{Kind: KindScheduled, Raw: raw}
		}
		return Makeup(body[:idx], body[idx+len(makeupSep):])

	default:
		return Status{Kind: KindScheduled, Raw: raw}
	}
}
