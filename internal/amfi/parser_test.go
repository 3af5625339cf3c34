package amfi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `Scheme Code;Scheme Name;ISIN Div Payout/ISIN Growth;ISIN Div Reinvestment;Net Asset Value;Repurchase Price;Sale Price;Date

Equity
Acme Asset Mgmt
SC1;Acme Growth Fund;ISIN1;ISIN2;100.50;100.00;101.00;01-Nov-2023
Beta Capital
SC2;Beta Bond Fund;ISIN3;ISIN4;50.25;50.00;50.50;02-Nov-2023
`

func TestParse_GroupsSections(t *testing.T) {
	records := Parse(sampleReport)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		Category: "Equity",
		Company:  "Acme Asset Mgmt",
		Name:     "Acme Growth Fund",
		Value:    "100.50",
		Date:     "01-Nov-2023",
	}, records[0])

	// Category carries forward when only a company line appears.
	assert.Equal(t, Record{
		Category: "Equity",
		Company:  "Beta Capital",
		Name:     "Beta Bond Fund",
		Value:    "50.25",
		Date:     "02-Nov-2023",
	}, records[1])
}

func TestParse_SkipsWrongFieldCount(t *testing.T) {
	report := `Header
Equity
Acme Asset Mgmt
SC1;Seven Fields;ISIN1;ISIN2;100.50;100.00;01-Nov-2023
SC2;Nine Fields;ISIN1;ISIN2;100.50;100.00;101.00;01-Nov-2023;extra
SC3;Valid Fund;ISIN1;ISIN2;10.00;9.90;10.10;03-Nov-2023
`
	records := Parse(report)
	require.Len(t, records, 1)
	assert.Equal(t, "Valid Fund", records[0].Name)
}

func TestParse_BlankLinesRemovedBeforeLookahead(t *testing.T) {
	// The blank line between Equity and Acme must not break the header pair.
	report := "Header\nEquity\n\n\nAcme Asset Mgmt\nSC1;Fund A;I1;I2;1.00;1.00;1.00;01-Nov-2023\n"
	records := Parse(report)
	require.Len(t, records, 1)
	assert.Equal(t, "Equity", records[0].Category)
	assert.Equal(t, "Acme Asset Mgmt", records[0].Company)
}

func TestParse_DataBeforeAnyHeader(t *testing.T) {
	report := "Header\nSC1;Orphan Fund;I1;I2;1.00;1.00;1.00;01-Nov-2023\n"
	records := Parse(report)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Category)
	assert.Empty(t, records[0].Company)
	assert.Equal(t, "Orphan Fund", records[0].Name)
}

func TestParse_CompanyOnlyBeforeData(t *testing.T) {
	// A single bare line followed by data renames the company but keeps the category.
	report := `Header
Equity
Acme Asset Mgmt
SC1;Fund A;I1;I2;1.00;1.00;1.00;01-Nov-2023
Debt
Gamma Partners
SC2;Fund B;I1;I2;2.00;2.00;2.00;01-Nov-2023
Delta Advisors
SC3;Fund C;I1;I2;3.00;3.00;3.00;01-Nov-2023
`
	records := Parse(report)
	require.Len(t, records, 3)
	assert.Equal(t, "Equity", records[0].Category)
	assert.Equal(t, "Debt", records[1].Category)
	assert.Equal(t, "Gamma Partners", records[1].Company)
	assert.Equal(t, "Debt", records[2].Category)
	assert.Equal(t, "Delta Advisors", records[2].Company)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("OnlyAHeaderLine"))
}

func TestParse_IsPure(t *testing.T) {
	first := Parse(sampleReport)
	second := Parse(sampleReport)
	assert.Equal(t, first, second)
}
