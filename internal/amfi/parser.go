// Package amfi fetches and parses AMFI historical NAV reports.
//
// The report is line-oriented: a header line to discard, then interleaved
// section headers and data rows. A bare line (no semicolons) followed by
// another bare line names a (category, company) pair; a bare line on its own
// renames only the company. Data rows carry exactly eight semicolon-delimited
// fields.
package amfi

import "strings"

// dataFieldCount is the field count of a valid data line:
// scheme_code;scheme_name;isin_dividend;isin_reinvestment;nav;repurchase_price;sale_price;date
const dataFieldCount = 8

// Record is one NAV observation tagged with the section it appeared under.
// Value and Date are kept raw; normalization happens at load time.
type Record struct {
	Category string
	Company  string
	Name     string
	Value    string
	Date     string
}

// parser is a small state machine over report lines. A bare header line is
// held pending until the next line decides whether it names a category (next
// line is also bare) or a company (next line is data).
type parser struct {
	category string
	company  string
	pending  string
	hasPend  bool
	records  []Record
}

func (p *parser) feed(line string) {
	if !strings.Contains(line, ";") {
		if p.hasPend {
			p.category = p.pending
			p.company = line
			p.hasPend = false
			return
		}
		p.pending = line
		p.hasPend = true
		return
	}

	if p.hasPend {
		p.company = p.pending
		p.hasPend = false
	}

	fields := strings.Split(line, ";")
	if len(fields) != dataFieldCount {
		// Malformed data line; drop it and keep scanning.
		return
	}

	p.records = append(p.records, Record{
		Category: p.category,
		Company:  p.company,
		Name:     strings.TrimSpace(fields[1]),
		Value:    strings.TrimSpace(fields[4]),
		Date:     strings.TrimSpace(fields[7]),
	})
}

// Parse extracts all NAV records from a raw report. It is a pure function of
// its input: blank lines are removed, the report header is discarded, and the
// remaining lines are scanned in order. Records appearing before any section
// header carry empty category/company values.
func Parse(text string) []Record {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		lines = lines[1:]
	}

	p := &parser{}
	for _, line := range lines {
		p.feed(line)
	}
	return p.records
}
