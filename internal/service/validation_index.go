package service

import (
	"strconv"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

// lessonRef is a flattened lesson with the curriculum context it was found
// in, so evaluators do not re-walk the block tree.
type lessonRef struct {
	BlockID         string
	BlockName       string
	TeachingGroupID string
	ClassID         string
	ClassName       string
	Lesson          models.Lesson
}

// metaPeriodRef ties a meta period back to its block.
type metaPeriodRef struct {
	BlockID    string
	BlockName  string
	MetaPeriod models.MetaPeriod
}

// entityIndex groups the lookup structures derived from one linear pass
// over a version document. It is rebuilt from scratch on every validation
// call and never mutated afterwards.
type entityIndex struct {
	metaPeriodStart  map[string]string
	metaPeriodLength map[string]int
	formGroupBand    map[string]string

	bandsByID       map[string]models.Band
	teachersByID    map[string]models.Teacher
	subjectsByID    map[string]models.Subject
	departmentsByID map[string]models.Department
	yearGroupsByID  map[string]models.YearGroup
	formGroupsByID  map[string]models.FormGroup
	periodsByID     map[string]models.Period

	// blockBands maps block id to the band ids reachable through its
	// feeder form groups. Unresolvable feeders are skipped here and
	// reported by the referential rule instead.
	blockBands map[string]map[string]struct{}

	lessons     []lessonRef
	metaPeriods []metaPeriodRef
}

// buildEntityIndex derives every lookup structure the rule evaluators need
// in one pass. Absent slices at any nesting level are treated as empty.
func buildEntityIndex(doc *models.VersionJSONData) *entityIndex {
	idx := &entityIndex{
		metaPeriodStart:  make(map[string]string),
		metaPeriodLength: make(map[string]int),
		formGroupBand:    make(map[string]string),
		bandsByID:        make(map[string]models.Band),
		teachersByID:     make(map[string]models.Teacher),
		subjectsByID:     make(map[string]models.Subject),
		departmentsByID:  make(map[string]models.Department),
		yearGroupsByID:   make(map[string]models.YearGroup),
		formGroupsByID:   make(map[string]models.FormGroup),
		periodsByID:      make(map[string]models.Period),
		blockBands:       make(map[string]map[string]struct{}),
	}
	if doc == nil {
		return idx
	}

	for _, department := range doc.Data.Departments {
		idx.departmentsByID[department.ID] = department
	}
	for _, subject := range doc.Data.Subjects {
		idx.subjectsByID[subject.ID] = subject
	}
	for _, yearGroup := range doc.Data.YearGroups {
		idx.yearGroupsByID[yearGroup.ID] = yearGroup
	}
	for _, band := range doc.Data.Bands {
		idx.bandsByID[band.ID] = band
	}
	for _, formGroup := range doc.Data.FormGroups {
		idx.formGroupsByID[formGroup.ID] = formGroup
		idx.formGroupBand[formGroup.ID] = formGroup.BandID
	}
	for _, teacher := range doc.Data.Teachers {
		idx.teachersByID[teacher.ID] = teacher
	}
	for _, period := range doc.Cycle.Periods {
		idx.periodsByID[period.ID] = period
	}

	for _, block := range doc.Model.Blocks {
		bands := make(map[string]struct{})
		for _, formGroupID := range block.FeederFormGroups {
			bandID, ok := idx.formGroupBand[formGroupID]
			if !ok {
				continue
			}
			if _, ok := idx.bandsByID[bandID]; ok {
				bands[bandID] = struct{}{}
			}
		}
		idx.blockBands[block.ID] = bands

		for _, metaLesson := range block.MetaLessons {
			for _, metaPeriod := range metaLesson.MetaPeriods {
				length := metaPeriod.Length
				if length < 1 {
					length = 1
				}
				idx.metaPeriodStart[metaPeriod.ID] = metaPeriod.StartPeriodID
				idx.metaPeriodLength[metaPeriod.ID] = length
				idx.metaPeriods = append(idx.metaPeriods, metaPeriodRef{
					BlockID:    block.ID,
					BlockName:  block.Name,
					MetaPeriod: metaPeriod,
				})
			}
		}

		for _, teachingGroup := range block.TeachingGroups {
			for _, class := range teachingGroup.Classes {
				for _, lesson := range class.Lessons {
					idx.lessons = append(idx.lessons, lessonRef{
						BlockID:         block.ID,
						BlockName:       block.Name,
						TeachingGroupID: teachingGroup.ID,
						ClassID:         class.ID,
						ClassName:       class.Name,
						Lesson:          lesson,
					})
				}
			}
		}
	}

	return idx
}

// periodSpan is the concrete day/slot range a meta period occupies once
// scheduled.
type periodSpan struct {
	Day   string
	Start int
	End   int
}

// parsePeriodID splits a "<day>-<periodNumber>" id. The day segment may
// itself contain dashes; only the trailing segment is numeric.
func parsePeriodID(id string) (day string, number int, ok bool) {
	cut := strings.LastIndex(id, "-")
	if cut <= 0 || cut == len(id)-1 {
		return "", 0, false
	}
	number, err := strconv.Atoi(id[cut+1:])
	if err != nil {
		return "", 0, false
	}
	return id[:cut], number, true
}

// lessonSpan resolves the scheduled span of a lesson through its meta
// period. ok is false when the lesson is unscheduled or the reference does
// not resolve.
func (idx *entityIndex) lessonSpan(lesson models.Lesson) (periodSpan, bool) {
	start, found := idx.metaPeriodStart[lesson.MetaPeriodID]
	if !found || start == "" {
		return periodSpan{}, false
	}
	day, number, ok := parsePeriodID(start)
	if !ok {
		return periodSpan{}, false
	}
	length := idx.metaPeriodLength[lesson.MetaPeriodID]
	if length < 1 {
		length = 1
	}
	return periodSpan{Day: day, Start: number, End: number + length - 1}, true
}

// metaPeriodSpan resolves the scheduled span of a meta period directly.
func metaPeriodSpan(metaPeriod models.MetaPeriod) (periodSpan, bool) {
	if metaPeriod.StartPeriodID == "" {
		return periodSpan{}, false
	}
	day, number, ok := parsePeriodID(metaPeriod.StartPeriodID)
	if !ok {
		return periodSpan{}, false
	}
	length := metaPeriod.Length
	if length < 1 {
		length = 1
	}
	return periodSpan{Day: day, Start: number, End: number + length - 1}, true
}

func (a periodSpan) overlaps(b periodSpan) bool {
	if a.Day != b.Day {
		return false
	}
	return a.Start <= b.End && b.Start <= a.End
}
