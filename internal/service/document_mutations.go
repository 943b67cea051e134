package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// Document mutations are pure copy-on-write transforms: each returns a new
// document snapshot and never touches the input. Referential consistency
// (band renames cascading into derived form group ids, deletes cascading
// down the containment chain) is maintained here as part of the edit, not
// left for validation to catch.

var bandNamePattern = regexp.MustCompile(`^([0-9]+)([A-Z]+)$`)

// NextBandName produces the next band name in the "<year><letters>"
// scheme, incrementing the letter sequence in base-26 the way spreadsheet
// columns do: 7A→7B, 7Z→7AA, 7ZZ→7AAA. Names outside the scheme get an
// "X" suffix.
func NextBandName(name string) string {
	match := bandNamePattern.FindStringSubmatch(name)
	if match == nil {
		return name + "X"
	}
	return match[1] + incrementLetters(match[2])
}

func incrementLetters(letters string) string {
	runes := []rune(letters)
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] != 'Z' {
			runes[i]++
			return string(runes)
		}
		runes[i] = 'A'
	}
	return "A" + string(runes)
}

// formGroupID derives the canonical form group id for a band and column.
func formGroupID(bandName string, column int) string {
	return bandName + strconv.Itoa(column)
}

// AddBand appends a new band to a year group, continuing the group's
// letter sequence via NextBandName (7X gives 7Y, 7Z gives 7AA). The new
// band starts with the same form group columns as the sibling it follows,
// or a single column when the group had no bands. Returns the created band.
func AddBand(doc *models.VersionJSONData, yearGroupID string) (*models.VersionJSONData, models.Band, error) {
	if doc == nil {
		return nil, models.Band{}, appErrors.Clone(appErrors.ErrValidation, "document is required")
	}
	exists := false
	for _, yearGroup := range doc.Data.YearGroups {
		if yearGroup.ID == yearGroupID {
			exists = true
			break
		}
	}
	if !exists {
		return nil, models.Band{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("year group %q not found", yearGroupID))
	}

	var last *models.Band
	for i := range doc.Data.Bands {
		band := &doc.Data.Bands[i]
		if band.YearGroupID != yearGroupID {
			continue
		}
		if last == nil || band.Order > last.Order {
			last = band
		}
	}

	var name string
	order := 1
	columns := []int{1}
	if last != nil {
		name = NextBandName(last.ID)
		for bandExists(doc, name) {
			name = NextBandName(name)
		}
		order = last.Order + 1
		siblingColumns := make([]int, 0, 4)
		for _, formGroup := range doc.Data.FormGroups {
			if formGroup.BandID == last.ID {
				siblingColumns = append(siblingColumns, formGroup.Column)
			}
		}
		if len(siblingColumns) > 0 {
			columns = siblingColumns
		}
	} else {
		name = yearGroupID + "A"
		for bandExists(doc, name) {
			name = NextBandName(name)
		}
	}

	created := models.Band{ID: name, Name: name, YearGroupID: yearGroupID, Order: order}

	out := *doc
	out.Data.Bands = append(append([]models.Band(nil), doc.Data.Bands...), created)
	out.Data.FormGroups = append([]models.FormGroup(nil), doc.Data.FormGroups...)
	for _, column := range columns {
		id := formGroupID(name, column)
		out.Data.FormGroups = append(out.Data.FormGroups, models.FormGroup{
			ID:     id,
			Name:   id,
			BandID: name,
			Column: column,
		})
	}
	return &out, created, nil
}

// RenameBand renames a band and regenerates everything derived from the
// old name: form group ids and names, their band_id references, and block
// feeder references to the regenerated form groups.
func RenameBand(doc *models.VersionJSONData, bandID, newName string) (*models.VersionJSONData, error) {
	if doc == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document is required")
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "band name is required")
	}
	found := false
	for _, band := range doc.Data.Bands {
		if band.ID == bandID {
			found = true
		} else if band.ID == newName {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("band %q already exists", newName))
		}
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("band %q not found", bandID))
	}

	out := *doc

	out.Data.Bands = make([]models.Band, len(doc.Data.Bands))
	for i, band := range doc.Data.Bands {
		if band.ID == bandID {
			band.ID = newName
			band.Name = newName
		}
		out.Data.Bands[i] = band
	}

	renamedFormGroups := make(map[string]string)
	out.Data.FormGroups = make([]models.FormGroup, len(doc.Data.FormGroups))
	for i, formGroup := range doc.Data.FormGroups {
		if formGroup.BandID == bandID {
			newID := formGroupID(newName, formGroup.Column)
			renamedFormGroups[formGroup.ID] = newID
			formGroup.ID = newID
			formGroup.Name = newID
			formGroup.BandID = newName
		}
		out.Data.FormGroups[i] = formGroup
	}

	out.Model.Blocks = remapFeeders(doc.Model.Blocks, renamedFormGroups)
	return &out, nil
}

// DeleteBand removes a band, its form groups and any block feeder
// references to them.
func DeleteBand(doc *models.VersionJSONData, bandID string) (*models.VersionJSONData, error) {
	if doc == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document is required")
	}
	if !bandExists(doc, bandID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("band %q not found", bandID))
	}
	out := removeBands(doc, map[string]struct{}{bandID: {}})
	return out, nil
}

// DeleteYearGroup removes a year group and cascades through its bands and
// their form groups.
func DeleteYearGroup(doc *models.VersionJSONData, yearGroupID string) (*models.VersionJSONData, error) {
	if doc == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document is required")
	}
	exists := false
	for _, yearGroup := range doc.Data.YearGroups {
		if yearGroup.ID == yearGroupID {
			exists = true
			break
		}
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("year group %q not found", yearGroupID))
	}

	doomedBands := make(map[string]struct{})
	for _, band := range doc.Data.Bands {
		if band.YearGroupID == yearGroupID {
			doomedBands[band.ID] = struct{}{}
		}
	}

	out := removeBands(doc, doomedBands)
	yearGroups := make([]models.YearGroup, 0, len(doc.Data.YearGroups))
	for _, yearGroup := range doc.Data.YearGroups {
		if yearGroup.ID != yearGroupID {
			yearGroups = append(yearGroups, yearGroup)
		}
	}
	out.Data.YearGroups = yearGroups
	return out, nil
}

var yearNumberPattern = regexp.MustCompile(`[0-9]+`)

// DuplicateYearGroup copies a year group with fresh ids: the numeric year
// prefix is incremented and letter suffixes are preserved, so duplicating
// year 7 with bands 7X/7Y yields year 8 with bands 8X/8Y and form groups
// 8X1, 8X2 and so on. Curriculum blocks are not copied; the duplicate
// starts with the academic structure only.
func DuplicateYearGroup(doc *models.VersionJSONData, yearGroupID string) (*models.VersionJSONData, error) {
	if doc == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document is required")
	}
	var source *models.YearGroup
	for i := range doc.Data.YearGroups {
		if doc.Data.YearGroups[i].ID == yearGroupID {
			source = &doc.Data.YearGroups[i]
			break
		}
	}
	if source == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("year group %q not found", yearGroupID))
	}

	newYearGroupID := incrementYearPrefix(source.ID)
	for _, yearGroup := range doc.Data.YearGroups {
		if yearGroup.ID == newYearGroupID {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("year group %q already exists", newYearGroupID))
		}
	}

	out := *doc
	out.Data.YearGroups = append(append([]models.YearGroup(nil), doc.Data.YearGroups...), models.YearGroup{
		ID:    newYearGroupID,
		Name:  incrementYearPrefix(source.Name),
		Order: source.Order + 1,
	})

	bandIDMap := make(map[string]string)
	out.Data.Bands = append([]models.Band(nil), doc.Data.Bands...)
	for _, band := range doc.Data.Bands {
		if band.YearGroupID != yearGroupID {
			continue
		}
		newBandID := incrementYearPrefix(band.ID)
		bandIDMap[band.ID] = newBandID
		out.Data.Bands = append(out.Data.Bands, models.Band{
			ID:          newBandID,
			Name:        newBandID,
			YearGroupID: newYearGroupID,
			Order:       band.Order,
		})
	}

	out.Data.FormGroups = append([]models.FormGroup(nil), doc.Data.FormGroups...)
	for _, formGroup := range doc.Data.FormGroups {
		newBandID, ok := bandIDMap[formGroup.BandID]
		if !ok {
			continue
		}
		newID := formGroupID(newBandID, formGroup.Column)
		out.Data.FormGroups = append(out.Data.FormGroups, models.FormGroup{
			ID:     newID,
			Name:   newID,
			BandID: newBandID,
			Column: formGroup.Column,
		})
	}

	return &out, nil
}

// incrementYearPrefix bumps the first number in an id or name ("7X" to
// "8X", "Year 7" to "Year 8"). Values without a number fall back to an
// "X" suffix, mirroring NextBandName.
func incrementYearPrefix(id string) string {
	replaced := false
	out := yearNumberPattern.ReplaceAllStringFunc(id, func(digits string) string {
		if replaced {
			return digits
		}
		replaced = true
		year, err := strconv.Atoi(digits)
		if err != nil {
			return digits
		}
		return strconv.Itoa(year + 1)
	})
	if !replaced {
		return id + "X"
	}
	return out
}

func bandExists(doc *models.VersionJSONData, bandID string) bool {
	for _, band := range doc.Data.Bands {
		if band.ID == bandID {
			return true
		}
	}
	return false
}

// removeBands drops the given bands, their form groups and feeder
// references, returning a new snapshot.
func removeBands(doc *models.VersionJSONData, doomed map[string]struct{}) *models.VersionJSONData {
	out := *doc

	out.Data.Bands = make([]models.Band, 0, len(doc.Data.Bands))
	for _, band := range doc.Data.Bands {
		if _, gone := doomed[band.ID]; !gone {
			out.Data.Bands = append(out.Data.Bands, band)
		}
	}

	doomedFormGroups := make(map[string]struct{})
	out.Data.FormGroups = make([]models.FormGroup, 0, len(doc.Data.FormGroups))
	for _, formGroup := range doc.Data.FormGroups {
		if _, gone := doomed[formGroup.BandID]; gone {
			doomedFormGroups[formGroup.ID] = struct{}{}
			continue
		}
		out.Data.FormGroups = append(out.Data.FormGroups, formGroup)
	}

	out.Model.Blocks = dropFeeders(doc.Model.Blocks, doomedFormGroups)
	return &out
}

// remapFeeders rewrites feeder form group ids per the rename map, copying
// only the blocks that change.
func remapFeeders(blocks []models.Block, renames map[string]string) []models.Block {
	if len(renames) == 0 {
		return blocks
	}
	out := make([]models.Block, len(blocks))
	for i, block := range blocks {
		changed := false
		for _, feeder := range block.FeederFormGroups {
			if _, hit := renames[feeder]; hit {
				changed = true
				break
			}
		}
		if changed {
			feeders := make([]string, len(block.FeederFormGroups))
			for j, feeder := range block.FeederFormGroups {
				if newID, hit := renames[feeder]; hit {
					feeders[j] = newID
				} else {
					feeders[j] = feeder
				}
			}
			block.FeederFormGroups = feeders
		}
		out[i] = block
	}
	return out
}

func dropFeeders(blocks []models.Block, doomed map[string]struct{}) []models.Block {
	if len(doomed) == 0 {
		return blocks
	}
	out := make([]models.Block, len(blocks))
	for i, block := range blocks {
		changed := false
		for _, feeder := range block.FeederFormGroups {
			if _, hit := doomed[feeder]; hit {
				changed = true
				break
			}
		}
		if changed {
			feeders := make([]string, 0, len(block.FeederFormGroups))
			for _, feeder := range block.FeederFormGroups {
				if _, hit := doomed[feeder]; !hit {
					feeders = append(feeders, feeder)
				}
			}
			block.FeederFormGroups = feeders
		}
		out[i] = block
	}
	return out
}
