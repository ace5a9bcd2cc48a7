// Package columnmap decides which input columns hold the date, amount (or
// debit and credit), merchant and category of each row.
package columnmap

import (
	"strings"
	"unicode"
)

// Role is a logical column role.
type Role string

const (
	Date     Role = "date"
	Amount   Role = "amount"
	Debit    Role = "debit"
	Credit   Role = "credit"
	Merchant Role = "merchant"
	Category Role = "category"
)

// Roles lists every role in the order a header is checked against them.
var Roles = []Role{Date, Debit, Credit, Amount, Merchant, Category}

// Synonyms holds the header names recognised for each role, in preference
// order. Entries are lowercase word sequences.
var Synonyms = map[Role][]string{
	Date:     {"date", "posted", "transaction date", "posting date", "booking date", "value date"},
	Debit:    {"debit", "withdrawal", "withdrawals", "money out", "paid out"},
	Credit:   {"credit", "deposit", "deposits", "money in", "paid in"},
	Amount:   {"amount", "total", "value"},
	Merchant: {"description", "merchant", "payee", "vendor", "details", "memo", "narrative"},
	Category: {"category", "type"},
}

// Mapping associates roles with header positions. A zero Mapping resolves
// nothing.
type Mapping struct {
	Headers []string

	index    map[Role]int
	inferred map[Role]bool
}

// NewMapping returns an empty mapping over headers.
func NewMapping(headers []string) *Mapping {
	return &Mapping{
		Headers:  headers,
		index:    make(map[Role]int),
		inferred: make(map[Role]bool),
	}
}

// Index returns the column index of r.
func (m *Mapping) Index(r Role) (int, bool) {
	i, ok := m.index[r]
	return i, ok
}

// Has reports whether r is resolved.
func (m *Mapping) Has(r Role) bool {
	_, ok := m.index[r]
	return ok
}

// Header returns the header name resolved for r, or "".
func (m *Mapping) Header(r Role) string {
	if i, ok := m.index[r]; ok {
		return m.Headers[i]
	}
	return ""
}

// Inferred reports whether r was filled by the inference pass.
func (m *Mapping) Inferred(r Role) bool {
	return m.inferred[r]
}

// Cell returns the trimmed cell for r in row.
func (m *Mapping) Cell(row []string, r Role) (string, bool) {
	i, ok := m.index[r]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

// UsesDebitCredit reports whether amounts come from separate debit and
// credit columns.
func (m *Mapping) UsesDebitCredit() bool {
	return !m.Has(Amount) && m.Has(Debit) && m.Has(Credit)
}

// Missing lists the essential roles still unresolved.
func (m *Mapping) Missing() []string {
	var missing []string
	if !m.Has(Date) {
		missing = append(missing, string(Date))
	}
	if !m.Has(Merchant) {
		missing = append(missing, string(Merchant))
	}
	if !m.Has(Amount) {
		switch {
		case m.Has(Debit) && m.Has(Credit):
		case m.Has(Debit):
			missing = append(missing, string(Credit))
		case m.Has(Credit):
			missing = append(missing, string(Debit))
		default:
			missing = append(missing, string(Amount))
		}
	}
	return missing
}

// Complete reports whether every essential role is resolved.
func (m *Mapping) Complete() bool {
	return len(m.Missing()) == 0
}

func (m *Mapping) assign(r Role, i int, inferred bool) {
	m.index[r] = i
	if inferred {
		m.inferred[r] = true
	}
}

func (m *Mapping) used(i int) bool {
	for _, j := range m.index {
		if j == i {
			return true
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsPhrase(haystack, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(haystack); i++ {
		for j, w := range phrase {
			if haystack[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// RoleFor returns the role a header name denotes: an exact synonym match
// first, then a synonym appearing as whole words inside the header.
func RoleFor(header string) (Role, bool) {
	hw := words(header)
	if len(hw) == 0 {
		return "", false
	}
	joined := strings.Join(hw, " ")
	for _, r := range Roles {
		for _, syn := range Synonyms[r] {
			if joined == syn {
				return r, true
			}
		}
	}
	for _, r := range Roles {
		for _, syn := range Synonyms[r] {
			if containsPhrase(hw, strings.Fields(syn)) {
				return r, true
			}
		}
	}
	return "", false
}

// Heuristic runs the synonym pass. The first header in file order wins a
// role and is never overwritten.
func Heuristic(headers []string) *Mapping {
	m := NewMapping(headers)
	for i, h := range headers {
		r, ok := RoleFor(h)
		if !ok || m.Has(r) {
			continue
		}
		m.assign(r, i, false)
	}
	return m
}
