package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The persisted rule encoding is a stable external contract shared with the
// data layer and with backup files produced by older clients:
//
//	F:FD<unix-epoch-seconds>
//	H:DF<anchor-schedule-id|INITIAL>:DL<days-delayed>:DTC<days-to-complete>
//	V:SD<sections-delay>:DTC<days-to-complete>:MAX<days|NIL>
//
// Field order, prefix tokens, and the INITIAL/NIL markers must be preserved
// exactly; ParseRule rejects anything else rather than coercing it to a
// default rule.
const (
	anchorInitialToken = "INITIAL"
	maxNilToken        = "NIL"
)

// Encode implements ScheduleRule.
func (r FixedDueDate) Encode() string {
	return fmt.Sprintf("F:FD%d", r.Due.Unix())
}

// Encode implements ScheduleRule.
func (r HorizontalDelay) Encode() string {
	anchor := anchorInitialToken
	if r.DelayedFromID != nil {
		anchor = r.DelayedFromID.String()
	}
	return fmt.Sprintf("H:DF%s:DL%d:DTC%d", anchor, r.DaysDelayed, r.DaysActive)
}

// Encode implements ScheduleRule.
func (r VerticalDelay) Encode() string {
	max := maxNilToken
	if r.MaxDaysActive != nil {
		max = strconv.Itoa(*r.MaxDaysActive)
	}
	return fmt.Sprintf("V:SD%d:DTC%d:MAX%s", r.SectionsDelay, r.DaysActive, max)
}

// ParseRule parses the persisted string form of a schedule rule. It is the
// inverse of ScheduleRule.Encode. Returns ErrInvalidRuleEncoding (wrapped
// with detail) for anything that does not match the grammar exactly or that
// carries field values the rule's own Validate rejects.
func ParseRule(s string) (ScheduleRule, error) {
	fields := strings.Split(s, ":")
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRuleEncoding, s)
	}

	var (
		rule ScheduleRule
		err  error
	)
	switch RuleKind(fields[0]) {
	case RuleKindFixed:
		rule, err = parseFixedRule(s, fields[1:])
	case RuleKindHorizontal:
		rule, err = parseHorizontalRule(s, fields[1:])
	case RuleKindVertical:
		rule, err = parseVerticalRule(s, fields[1:])
	default:
		return nil, fmt.Errorf("%w: unknown rule kind in %q", ErrInvalidRuleEncoding, s)
	}
	if err != nil {
		return nil, err
	}

	// Out-of-range fields are as invalid as bad grammar: an encoding must
	// never materialize a rule its own Validate rejects.
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidRuleEncoding, err, s)
	}

	return rule, nil
}

func parseFixedRule(s string, fields []string) (ScheduleRule, error) {
	if len(fields) != 1 {
		return nil, fmt.Errorf("%w: fixed rule needs exactly one field: %q", ErrInvalidRuleEncoding, s)
	}

	epoch, err := cutIntField(fields[0], "FD")
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidRuleEncoding, err, s)
	}

	return FixedDueDate{Due: time.Unix(epoch, 0).UTC()}, nil
}

func parseHorizontalRule(s string, fields []string) (ScheduleRule, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: horizontal rule needs exactly three fields: %q", ErrInvalidRuleEncoding, s)
	}

	anchorRaw, ok := strings.CutPrefix(fields[0], "DF")
	if !ok {
		return nil, fmt.Errorf("%w: missing DF field in %q", ErrInvalidRuleEncoding, s)
	}

	var delayedFrom *uuid.UUID
	if anchorRaw != anchorInitialToken {
		id, err := uuid.Parse(anchorRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad anchor ID in %q: %v", ErrInvalidRuleEncoding, s, err)
		}
		delayedFrom = &id
	}

	delay, err := cutIntField(fields[1], "DL")
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidRuleEncoding, err, s)
	}

	active, err := cutIntField(fields[2], "DTC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidRuleEncoding, err, s)
	}

	return HorizontalDelay{
		DelayedFromID: delayedFrom,
		DaysDelayed:   int(delay),
		DaysActive:    int(active),
	}, nil
}

func parseVerticalRule(s string, fields []string) (ScheduleRule, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: vertical rule needs exactly three fields: %q", ErrInvalidRuleEncoding, s)
	}

	sectionsDelay, err := cutIntField(fields[0], "SD")
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidRuleEncoding, err, s)
	}

	active, err := cutIntField(fields[1], "DTC")
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidRuleEncoding, err, s)
	}

	maxRaw, ok := strings.CutPrefix(fields[2], "MAX")
	if !ok {
		return nil, fmt.Errorf("%w: missing MAX field in %q", ErrInvalidRuleEncoding, s)
	}

	var maxActive *int
	if maxRaw != maxNilToken {
		max, err := strconv.Atoi(maxRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad MAX value in %q: %v", ErrInvalidRuleEncoding, s, err)
		}
		maxActive = &max
	}

	return VerticalDelay{
		SectionsDelay: int(sectionsDelay),
		DaysActive:    int(active),
		MaxDaysActive: maxActive,
	}, nil
}

// cutIntField strips the given prefix token from a field and parses the
// remainder as a decimal integer.
func cutIntField(field, prefix string) (int64, error) {
	raw, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return 0, fmt.Errorf("missing %s field", prefix)
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value: %v", prefix, err)
	}

	return n, nil
}
