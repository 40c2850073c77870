package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/pkg/contracts/domain"
)

func rec(id, source, number, description string) domain.ProjectRecord {
	return domain.ProjectRecord{
		ID:            id,
		Region:        "VT",
		SourceName:    source,
		ProjectNumber: number,
		Description:   description,
		ProjectType:   domain.ProjectTypeOther,
		Status:        domain.StatusConfirmed,
	}
}

func sampleRecords() []domain.ProjectRecord {
	return []domain.ProjectRecord{
		rec("a1", "vtrans_bids", "STP 2024(1)", "Bridge replacement, VT 100 Stowe"),
		rec("b1", "vtrans_report", "stp-2024-1", "VT 100 bridge work"),
		rec("c1", "vtrans_bids", "", "Resurfacing I-89 Montpelier - Middlesex"),
		rec("d1", "vtrans_links", "", "resurfacing  I-89, Montpelier – Middlesex"),
		rec("e1", "vtrans_bids", "IM 089-1(45)", "Paving US-302"),
		rec("f1", "vtrans_report", "IM 089-1(46)", "Paving US-302"),
		rec("a1", "vtrans_bids", "STP 2024(1)", "Bridge replacement, VT 100 Stowe"),
		rec("g1", "vtrans_report", "BF 0123(9)", "Resurfacing I-89 Montpelier - Middlesex"),
	}
}

// TestDeduplicate tests identifier and title identity
func TestDeduplicate(t *testing.T) {
	res := Deduplicate(sampleRecords())

	ids := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		ids = append(ids, r.ID)
	}
	// b1 shares a normalized number with a1, d1 a title with numberless c1,
	// the second a1 its id, and g1 the title of numberless c1. e1 and f1
	// carry different numbers so their shared title does not merge them.
	assert.Equal(t, []string{"a1", "c1", "e1", "f1"}, ids)
	assert.Equal(t, 4, res.Removed)
	assert.Equal(t, "vtrans_bids", res.Records[0].SourceName)
}

// TestDeduplicateIdempotent tests that a second pass removes nothing
func TestDeduplicateIdempotent(t *testing.T) {
	once := Deduplicate(sampleRecords())
	twice := Deduplicate(once.Records)

	assert.Equal(t, once.Records, twice.Records)
	assert.Zero(t, twice.Removed)
}

// TestDeduplicateEmpty tests degenerate input
func TestDeduplicateEmpty(t *testing.T) {
	res := Deduplicate(nil)
	require.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Removed)

	blank := Deduplicate([]domain.ProjectRecord{rec("", "x", "", ""), rec("", "y", "", "")})
	assert.Len(t, blank.Records, 2)
}

// TestNormalizers tests identifier and title folding
func TestNormalizers(t *testing.T) {
	assert.Equal(t, "STP20241", NormalizeIdentifier("stp-2024 (1)"))
	assert.Equal(t, "", NormalizeIdentifier(" - "))
	assert.Equal(t, "resurfacing i89 montpelier middlesex", NormalizeTitle("Resurfacing  I-89, Montpelier – Middlesex"))
	assert.Equal(t, "", NormalizeTitle("  ...  "))
}
