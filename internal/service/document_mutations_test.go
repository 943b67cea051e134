package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

func TestNextBandName(t *testing.T) {
	cases := map[string]string{
		"7A":     "7B",
		"7Z":     "7AA",
		"7ZZ":    "7AAA",
		"11AZ":   "11BA",
		"Side":   "SideX",
		"7lower": "7lowerX",
	}
	for in, want := range cases {
		assert.Equal(t, want, NextBandName(in), "NextBandName(%q)", in)
	}
}

func TestAddBandContinuesSequence(t *testing.T) {
	doc := cleanDocument()

	out, band, err := AddBand(doc, "7")
	require.NoError(t, err)

	// Original untouched.
	require.Len(t, doc.Data.Bands, 1)
	require.Len(t, doc.Data.FormGroups, 2)

	assert.Equal(t, "7Y", band.ID)
	assert.Equal(t, "7", band.YearGroupID)
	assert.Equal(t, 2, band.Order)

	require.Len(t, out.Data.Bands, 2)
	assert.Equal(t, "7Y", out.Data.Bands[1].ID)

	// Form group columns mirror the sibling band.
	require.Len(t, out.Data.FormGroups, 4)
	assert.Equal(t, "7Y1", out.Data.FormGroups[2].ID)
	assert.Equal(t, "7Y2", out.Data.FormGroups[3].ID)
	assert.Equal(t, "7Y", out.Data.FormGroups[2].BandID)
}

func TestAddBandEmptyYearGroup(t *testing.T) {
	doc := cleanDocument()
	doc.Data.YearGroups = append(doc.Data.YearGroups, models.YearGroup{ID: "8", Name: "Year 8", Order: 8})

	out, band, err := AddBand(doc, "8")
	require.NoError(t, err)
	assert.Equal(t, "8A", band.ID)
	assert.Equal(t, 1, band.Order)

	require.Len(t, out.Data.FormGroups, 3)
	assert.Equal(t, "8A1", out.Data.FormGroups[2].ID)
}

func TestAddBandSkipsTakenNames(t *testing.T) {
	doc := cleanDocument()
	doc.Data.Bands = append(doc.Data.Bands, models.Band{ID: "7Y", Name: "7Y", YearGroupID: "7", Order: 0})

	// 7X has the highest order, so the candidate 7Y is already taken and
	// the sequence continues to 7Z.
	_, band, err := AddBand(doc, "7")
	require.NoError(t, err)
	assert.Equal(t, "7Z", band.ID)
}

func TestAddBandUnknownYearGroup(t *testing.T) {
	doc := cleanDocument()

	_, _, err := AddBand(doc, "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRenameBandCascades(t *testing.T) {
	doc := cleanDocument()

	out, err := RenameBand(doc, "7X", "7Y")
	require.NoError(t, err)

	// Original untouched.
	assert.Equal(t, "7X", doc.Data.Bands[0].ID)
	assert.Equal(t, "7X1", doc.Data.FormGroups[0].ID)
	assert.Equal(t, []string{"7X1", "7X2"}, doc.Model.Blocks[0].FeederFormGroups)

	require.Len(t, out.Data.Bands, 1)
	assert.Equal(t, "7Y", out.Data.Bands[0].ID)
	assert.Equal(t, "7Y", out.Data.Bands[0].Name)

	ids := make([]string, 0, len(out.Data.FormGroups))
	for _, formGroup := range out.Data.FormGroups {
		ids = append(ids, formGroup.ID)
		assert.Equal(t, "7Y", formGroup.BandID)
	}
	assert.Equal(t, []string{"7Y1", "7Y2"}, ids)
	assert.Equal(t, []string{"7Y1", "7Y2"}, out.Model.Blocks[0].FeederFormGroups)

	// The renamed document still validates clean.
	result := RunValidationSync(out, "org-1", "prj-1", "ver-1")
	assert.Zero(t, result.ErrorCount, "unexpected errors: %v", issueIDs(result))
}

func TestRenameBandErrors(t *testing.T) {
	doc := cleanDocument()
	doc.Data.Bands = append(doc.Data.Bands, models.Band{ID: "7Y", Name: "7Y", YearGroupID: "7"})

	_, err := RenameBand(doc, "7X", "7Y")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	_, err = RenameBand(doc, "missing", "7Z")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	_, err = RenameBand(doc, "7X", "   ")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = RenameBand(nil, "7X", "7Z")
	assert.Error(t, err)
}

func TestDeleteBandCascades(t *testing.T) {
	doc := cleanDocument()

	out, err := DeleteBand(doc, "7X")
	require.NoError(t, err)

	assert.Empty(t, out.Data.Bands)
	assert.Empty(t, out.Data.FormGroups)
	assert.Empty(t, out.Model.Blocks[0].FeederFormGroups)

	// Original untouched.
	assert.Len(t, doc.Data.Bands, 1)
	assert.Len(t, doc.Data.FormGroups, 2)

	_, err = DeleteBand(doc, "missing")
	assert.Error(t, err)
}

func TestDeleteYearGroupCascades(t *testing.T) {
	doc := cleanDocument()
	doc.Data.YearGroups = append(doc.Data.YearGroups, models.YearGroup{ID: "8", Name: "Year 8", Order: 8})
	doc.Data.Bands = append(doc.Data.Bands, models.Band{ID: "8P", Name: "8P", YearGroupID: "8"})
	doc.Data.FormGroups = append(doc.Data.FormGroups, models.FormGroup{ID: "8P1", Name: "8P1", BandID: "8P", Column: 1})

	out, err := DeleteYearGroup(doc, "7")
	require.NoError(t, err)

	require.Len(t, out.Data.YearGroups, 1)
	assert.Equal(t, "8", out.Data.YearGroups[0].ID)
	require.Len(t, out.Data.Bands, 1)
	assert.Equal(t, "8P", out.Data.Bands[0].ID)
	require.Len(t, out.Data.FormGroups, 1)
	assert.Equal(t, "8P1", out.Data.FormGroups[0].ID)
	assert.Empty(t, out.Model.Blocks[0].FeederFormGroups)

	_, err = DeleteYearGroup(doc, "missing")
	assert.Error(t, err)
}

func TestDuplicateYearGroup(t *testing.T) {
	doc := cleanDocument()

	out, err := DuplicateYearGroup(doc, "7")
	require.NoError(t, err)

	require.Len(t, out.Data.YearGroups, 2)
	copyGroup := out.Data.YearGroups[1]
	assert.Equal(t, "8", copyGroup.ID)
	assert.Equal(t, 8, copyGroup.Order)

	require.Len(t, out.Data.Bands, 2)
	assert.Equal(t, "8X", out.Data.Bands[1].ID)
	assert.Equal(t, "8", out.Data.Bands[1].YearGroupID)

	require.Len(t, out.Data.FormGroups, 4)
	assert.Equal(t, "8X1", out.Data.FormGroups[2].ID)
	assert.Equal(t, "8X2", out.Data.FormGroups[3].ID)
	assert.Equal(t, "8X", out.Data.FormGroups[2].BandID)

	// Blocks are not duplicated and the original is untouched.
	assert.Len(t, out.Model.Blocks, 1)
	assert.Len(t, doc.Data.YearGroups, 1)
	assert.Len(t, doc.Data.Bands, 1)

	// The duplicate has no dangling references.
	result := RunValidationSync(out, "org-1", "prj-1", "ver-1")
	assert.Zero(t, result.ErrorCount, "unexpected errors: %v", issueIDs(result))
}

func TestDuplicateYearGroupConflicts(t *testing.T) {
	doc := cleanDocument()
	doc.Data.YearGroups = append(doc.Data.YearGroups, models.YearGroup{ID: "8", Name: "Year 8", Order: 8})

	_, err := DuplicateYearGroup(doc, "7")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	_, err = DuplicateYearGroup(doc, "missing")
	assert.Error(t, err)
}

func TestIncrementYearPrefix(t *testing.T) {
	assert.Equal(t, "8X", incrementYearPrefix("7X"))
	assert.Equal(t, "12", incrementYearPrefix("11"))
	assert.Equal(t, "Year 8", incrementYearPrefix("Year 7"))
	assert.Equal(t, "SixthX", incrementYearPrefix("Sixth"))
}
