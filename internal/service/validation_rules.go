package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Rule evaluators are pure functions over one document and its index. They
// never throw on dangling references; anything that does not resolve is
// either skipped or reported by the referential integrity rule.

func issueID(parts ...string) string {
	return strings.Join(parts, "-")
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "-" + b
}

// evaluateReferentialIntegrity reports dangling foreign-key style
// references. References required for scheduling are errors; display-only
// ones are warnings.
func evaluateReferentialIntegrity(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	var issues []models.Issue

	for _, band := range doc.Data.Bands {
		if _, ok := idx.yearGroupsByID[band.YearGroupID]; !ok {
			issues = append(issues, models.Issue{
				ID:             issueID("ref-band-yeargroup", band.ID),
				Type:           models.IssueTypeError,
				Title:          "Band references missing year group",
				Description:    fmt.Sprintf("Band %q points at year group %q, which does not exist.", band.ID, band.YearGroupID),
				Recommendation: "Re-assign the band to an existing year group or delete it.",
				Action:         &models.IssueAction{Label: "Open band", Path: "data/bands/" + band.ID},
			})
		}
	}

	for _, formGroup := range doc.Data.FormGroups {
		if _, ok := idx.bandsByID[formGroup.BandID]; !ok {
			issues = append(issues, models.Issue{
				ID:             issueID("ref-formgroup-band", formGroup.ID),
				Type:           models.IssueTypeError,
				Title:          "Form group references missing band",
				Description:    fmt.Sprintf("Form group %q points at band %q, which does not exist.", formGroup.ID, formGroup.BandID),
				Recommendation: "Re-create the band or remove the orphaned form group.",
				Action:         &models.IssueAction{Label: "Open form group", Path: "data/form_groups/" + formGroup.ID},
			})
		}
	}

	for _, subject := range doc.Data.Subjects {
		if _, ok := idx.departmentsByID[subject.DepartmentID]; !ok {
			issues = append(issues, models.Issue{
				ID:             issueID("ref-subject-department", subject.ID),
				Type:           models.IssueTypeWarning,
				Title:          "Subject references missing department",
				Description:    fmt.Sprintf("Subject %q points at department %q, which does not exist.", subject.ID, subject.DepartmentID),
				Details:        "Department links only affect grouping in reports, so this does not block scheduling.",
				Recommendation: "Assign the subject to an existing department.",
				Action:         &models.IssueAction{Label: "Open subject", Path: "data/subjects/" + subject.ID},
			})
		}
	}

	for _, block := range doc.Model.Blocks {
		for _, formGroupID := range block.FeederFormGroups {
			if _, ok := idx.formGroupsByID[formGroupID]; !ok {
				issues = append(issues, models.Issue{
					ID:             issueID("ref-block-feeder", block.ID, formGroupID),
					Type:           models.IssueTypeError,
					Title:          "Block feeds from missing form group",
					Description:    fmt.Sprintf("Block %q lists feeder form group %q, which does not exist.", blockLabel(block), formGroupID),
					Details:        "Student conflict checks cannot cover this block until the feeder resolves.",
					Recommendation: "Remove the stale feeder reference or restore the form group.",
					Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + block.ID},
				})
			}
		}
	}

	for _, ref := range idx.lessons {
		lesson := ref.Lesson
		if _, ok := idx.metaPeriodStart[lesson.MetaPeriodID]; !ok {
			issues = append(issues, models.Issue{
				ID:             issueID("ref-lesson-metaperiod", lesson.ID),
				Type:           models.IssueTypeError,
				Title:          "Lesson references missing meta period",
				Description:    fmt.Sprintf("Lesson %q in class %q points at meta period %q, which does not exist.", lesson.ID, ref.ClassID, lesson.MetaPeriodID),
				Recommendation: "Re-link the lesson to one of the block's meta periods.",
				Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + ref.BlockID},
			})
		}
		if lesson.Subject != "" {
			if _, ok := idx.subjectsByID[lesson.Subject]; !ok {
				issues = append(issues, models.Issue{
					ID:             issueID("ref-lesson-subject", lesson.ID),
					Type:           models.IssueTypeWarning,
					Title:          "Lesson references missing subject",
					Description:    fmt.Sprintf("Lesson %q names subject %q, which does not exist.", lesson.ID, lesson.Subject),
					Details:        "Specialist coverage checks skip this lesson until the subject resolves.",
					Recommendation: "Pick an existing subject for the lesson.",
					Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + ref.BlockID},
				})
			}
		}
		for _, teacherID := range lesson.Teacher {
			if _, ok := idx.teachersByID[teacherID]; !ok {
				issues = append(issues, models.Issue{
					ID:             issueID("ref-lesson-teacher", lesson.ID, teacherID),
					Type:           models.IssueTypeWarning,
					Title:          "Lesson references missing teacher",
					Description:    fmt.Sprintf("Lesson %q is staffed with teacher %q, who does not exist.", lesson.ID, teacherID),
					Recommendation: "Replace the assignment with an existing teacher.",
					Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + ref.BlockID},
				})
			}
		}
	}

	for _, ref := range idx.metaPeriods {
		start := ref.MetaPeriod.StartPeriodID
		if start == "" {
			continue
		}
		if _, ok := idx.periodsByID[start]; !ok {
			issues = append(issues, models.Issue{
				ID:             issueID("ref-metaperiod-period", ref.MetaPeriod.ID),
				Type:           models.IssueTypeWarning,
				Title:          "Meta period starts at unknown period",
				Description:    fmt.Sprintf("Meta period %q in block %q starts at %q, which is not a period of the cycle.", ref.MetaPeriod.ID, blockRefLabel(ref), start),
				Recommendation: "Re-place the meta period onto a period in the cycle.",
				Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + ref.BlockID},
			})
		}
	}

	return issues
}

// evaluateStudentConflicts reports double-booked students along two
// dimensions: two lessons of the same class overlapping, and two blocks
// sharing a feeder band with overlapping meta periods.
func evaluateStudentConflicts(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	var issues []models.Issue

	type placed struct {
		ref  lessonRef
		span periodSpan
	}
	byClass := make(map[string][]placed)
	var classOrder []string
	for _, ref := range idx.lessons {
		span, ok := idx.lessonSpan(ref.Lesson)
		if !ok {
			continue
		}
		if _, seen := byClass[ref.ClassID]; !seen {
			classOrder = append(classOrder, ref.ClassID)
		}
		byClass[ref.ClassID] = append(byClass[ref.ClassID], placed{ref: ref, span: span})
	}

	for _, classID := range classOrder {
		lessons := byClass[classID]
		for i := 0; i < len(lessons); i++ {
			for j := i + 1; j < len(lessons); j++ {
				if lessons[i].ref.Lesson.MetaPeriodID == lessons[j].ref.Lesson.MetaPeriodID {
					continue
				}
				if !lessons[i].span.overlaps(lessons[j].span) {
					continue
				}
				issues = append(issues, models.Issue{
					ID:             issueID("student-conflict-class", classID, pairKey(lessons[i].ref.Lesson.ID, lessons[j].ref.Lesson.ID)),
					Type:           models.IssueTypeError,
					Title:          "Class is double-booked",
					Description:    fmt.Sprintf("Class %q has lessons %q and %q overlapping on %s.", classID, lessons[i].ref.Lesson.ID, lessons[j].ref.Lesson.ID, lessons[i].span.Day),
					Details:        fmt.Sprintf("Periods %d-%d clash with %d-%d.", lessons[i].span.Start, lessons[i].span.End, lessons[j].span.Start, lessons[j].span.End),
					Recommendation: "Move one of the lessons to a free slot.",
					Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + lessons[i].ref.BlockID},
				})
			}
		}
	}

	// Cross-block: blocks that draw students from the same band cannot
	// occupy overlapping periods.
	blocks := doc.Model.Blocks
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			shared := sharedBands(idx.blockBands[blocks[i].ID], idx.blockBands[blocks[j].ID])
			if len(shared) == 0 {
				continue
			}
			for _, a := range blockSpans(blocks[i]) {
				for _, b := range blockSpans(blocks[j]) {
					if !a.span.overlaps(b.span) {
						continue
					}
					issues = append(issues, models.Issue{
						ID:             issueID("student-conflict-band", strings.Join(shared, "+"), pairKey(a.id, b.id)),
						Type:           models.IssueTypeError,
						Title:          "Blocks clash for shared band",
						Description:    fmt.Sprintf("Blocks %q and %q both draw from band(s) %s and overlap on %s.", blockLabel(blocks[i]), blockLabel(blocks[j]), strings.Join(shared, ", "), a.span.Day),
						Recommendation: "Re-place one of the clashing meta periods.",
						Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + blocks[i].ID},
					})
				}
			}
		}
	}

	return issues
}

// evaluateTeacherConflicts reports the same span overlap keyed by teacher
// across every lesson that references the teacher.
func evaluateTeacherConflicts(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	var issues []models.Issue

	type placed struct {
		ref  lessonRef
		span periodSpan
	}
	byTeacher := make(map[string][]placed)
	var teacherOrder []string
	for _, ref := range idx.lessons {
		span, ok := idx.lessonSpan(ref.Lesson)
		if !ok {
			continue
		}
		for _, teacherID := range ref.Lesson.Teacher {
			if _, seen := byTeacher[teacherID]; !seen {
				teacherOrder = append(teacherOrder, teacherID)
			}
			byTeacher[teacherID] = append(byTeacher[teacherID], placed{ref: ref, span: span})
		}
	}

	for _, teacherID := range teacherOrder {
		lessons := byTeacher[teacherID]
		for i := 0; i < len(lessons); i++ {
			for j := i + 1; j < len(lessons); j++ {
				if lessons[i].ref.Lesson.MetaPeriodID == lessons[j].ref.Lesson.MetaPeriodID &&
					lessons[i].ref.BlockID == lessons[j].ref.BlockID {
					// Parallel classes inside one block share the slot by design.
					continue
				}
				if !lessons[i].span.overlaps(lessons[j].span) {
					continue
				}
				issues = append(issues, models.Issue{
					ID:             issueID("teacher-conflict", teacherID, pairKey(lessons[i].ref.Lesson.ID, lessons[j].ref.Lesson.ID)),
					Type:           models.IssueTypeError,
					Title:          "Teacher is double-booked",
					Description:    fmt.Sprintf("Teacher %q has lessons %q and %q overlapping on %s.", teacherLabel(idx, teacherID), lessons[i].ref.Lesson.ID, lessons[j].ref.Lesson.ID, lessons[i].span.Day),
					Details:        fmt.Sprintf("Periods %d-%d clash with %d-%d.", lessons[i].span.Start, lessons[i].span.End, lessons[j].span.Start, lessons[j].span.End),
					Recommendation: "Re-staff or re-place one of the lessons.",
					Action:         &models.IssueAction{Label: "Open teacher", Path: "data/teachers/" + teacherID},
				})
			}
		}
	}

	return issues
}

// evaluateSpecialistCoverage checks that every staffed lesson is taught by
// a teacher eligible for its subject at every year group the block serves.
func evaluateSpecialistCoverage(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	var issues []models.Issue

	for _, ref := range idx.lessons {
		lesson := ref.Lesson
		if lesson.Subject == "" || len(lesson.Teacher) == 0 {
			continue
		}
		if _, ok := idx.subjectsByID[lesson.Subject]; !ok {
			continue
		}
		yearGroups := blockYearGroups(idx, ref.BlockID)
		if len(yearGroups) == 0 {
			continue
		}
		for _, teacherID := range lesson.Teacher {
			teacher, ok := idx.teachersByID[teacherID]
			if !ok {
				continue
			}
			for _, yearGroupID := range yearGroups {
				if teacherEligible(teacher, lesson.Subject, yearGroupID) {
					continue
				}
				issues = append(issues, models.Issue{
					ID:             issueID("specialist", lesson.ID, teacherID, yearGroupID),
					Type:           models.IssueTypeWarning,
					Title:          "Non-specialist teaching assignment",
					Description:    fmt.Sprintf("Teacher %q is not marked as eligible for subject %q at year group %q, but teaches lesson %q.", teacherLabel(idx, teacherID), lesson.Subject, yearGroupID, lesson.ID),
					Recommendation: "Mark the teacher as eligible or re-staff the lesson with a specialist.",
					Action:         &models.IssueAction{Label: "Open teacher", Path: "data/teachers/" + teacherID},
				})
			}
		}
	}

	return issues
}

// evaluateClassSpacing flags classes taking more than one lesson of their
// block on the same day.
func evaluateClassSpacing(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	var issues []models.Issue

	type dayCount struct {
		count   int
		lessons []string
		blockID string
	}
	perClassDay := make(map[string]*dayCount)
	var keys []string
	for _, ref := range idx.lessons {
		span, ok := idx.lessonSpan(ref.Lesson)
		if !ok {
			continue
		}
		key := ref.ClassID + "|" + span.Day
		entry, seen := perClassDay[key]
		if !seen {
			entry = &dayCount{blockID: ref.BlockID}
			perClassDay[key] = entry
			keys = append(keys, key)
		}
		entry.count++
		entry.lessons = append(entry.lessons, ref.Lesson.ID)
	}

	for _, key := range keys {
		entry := perClassDay[key]
		if entry.count <= 1 {
			continue
		}
		parts := strings.SplitN(key, "|", 2)
		classID, day := parts[0], parts[1]
		issues = append(issues, models.Issue{
			ID:             issueID("class-spacing", classID, day),
			Type:           models.IssueTypeWarning,
			Title:          "Lessons bunched on one day",
			Description:    fmt.Sprintf("Class %q takes %d lessons of its block on %s.", classID, entry.count, day),
			Details:        "Lessons: " + strings.Join(entry.lessons, ", "),
			Recommendation: "Spread the block's lessons across the cycle.",
			Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + entry.blockID},
		})
	}

	return issues
}

// evaluateTeacherCapacity checks scheduled load against each teacher's hard
// maximum and the configured soft target, and flags a target above the
// maximum as a configuration problem.
func evaluateTeacherCapacity(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	var issues []models.Issue

	target := doc.Settings.SoftConstraints.TargetTeachingPeriods

	scheduled := make(map[string]int)
	for _, ref := range idx.lessons {
		span, ok := idx.lessonSpan(ref.Lesson)
		if !ok {
			continue
		}
		periods := span.End - span.Start + 1
		for _, teacherID := range ref.Lesson.Teacher {
			scheduled[teacherID] += periods
		}
	}

	for _, teacher := range doc.Data.Teachers {
		load := scheduled[teacher.ID]
		if teacher.MaxTeachingPeriods > 0 && load > teacher.MaxTeachingPeriods {
			issues = append(issues, models.Issue{
				ID:             issueID("capacity-max", teacher.ID),
				Type:           models.IssueTypeError,
				Title:          "Teacher over maximum capacity",
				Description:    fmt.Sprintf("Teacher %q is scheduled for %d periods, above the maximum of %d.", teacherName(teacher), load, teacher.MaxTeachingPeriods),
				Recommendation: "Unassign lessons until the load fits, or raise the maximum.",
				Action:         &models.IssueAction{Label: "Open teacher", Path: "data/teachers/" + teacher.ID},
			})
		}
		if target > 0 && load > target && (teacher.MaxTeachingPeriods == 0 || load <= teacher.MaxTeachingPeriods) {
			issues = append(issues, models.Issue{
				ID:             issueID("capacity-target", teacher.ID),
				Type:           models.IssueTypeWarning,
				Title:          "Teacher above target load",
				Description:    fmt.Sprintf("Teacher %q is scheduled for %d periods, above the target of %d.", teacherName(teacher), load, target),
				Recommendation: "Rebalance lessons towards teachers under target.",
				Action:         &models.IssueAction{Label: "Open teacher", Path: "data/teachers/" + teacher.ID},
			})
		}
		if teacher.MaxTeachingPeriods > 0 {
			allocated := 0
			for _, count := range teacher.SubjectAllocations {
				allocated += count
			}
			if allocated > 0 && allocated*2 <= teacher.MaxTeachingPeriods {
				issues = append(issues, models.Issue{
					ID:          issueID("capacity-underused", teacher.ID),
					Type:        models.IssueTypeInfo,
					Title:       "Teacher capacity under-used",
					Description: fmt.Sprintf("Teacher %q has %d allocated periods against a maximum of %d.", teacherName(teacher), allocated, teacher.MaxTeachingPeriods),
					Details:     "Allocations are set on the teacher record, not derived from scheduled lessons.",
					Action:      &models.IssueAction{Label: "Open teacher", Path: "data/teachers/" + teacher.ID},
				})
			}
		}
	}

	if target > 0 {
		for _, teacher := range doc.Data.Teachers {
			if teacher.MaxTeachingPeriods > 0 && target > teacher.MaxTeachingPeriods {
				issues = append(issues, models.Issue{
					ID:             issueID("capacity-config", teacher.ID),
					Type:           models.IssueTypeWarning,
					Title:          "Target load exceeds maximum",
					Description:    fmt.Sprintf("The configured target of %d periods is above teacher %q's maximum of %d.", target, teacherName(teacher), teacher.MaxTeachingPeriods),
					Recommendation: "Lower the target or raise the teacher's maximum.",
					Action:         &models.IssueAction{Label: "Open settings", Path: "settings/softConstraints"},
				})
			}
		}
	}

	return issues
}

// evaluateDoubleLessonRestrictions rejects multi-period meta periods that
// start in a restricted period.
func evaluateDoubleLessonRestrictions(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	restricted := doc.Settings.HardConstraints.DoubleLessonRestrictedPeriods
	if len(restricted) == 0 {
		return nil
	}
	restrictedSet := make(map[string]struct{}, len(restricted))
	for _, periodID := range restricted {
		restrictedSet[periodID] = struct{}{}
	}

	var issues []models.Issue
	for _, ref := range idx.metaPeriods {
		metaPeriod := ref.MetaPeriod
		if metaPeriod.Length <= 1 || metaPeriod.StartPeriodID == "" {
			continue
		}
		if _, hit := restrictedSet[metaPeriod.StartPeriodID]; !hit {
			continue
		}
		issues = append(issues, models.Issue{
			ID:             issueID("double-lesson-restricted", metaPeriod.ID),
			Type:           models.IssueTypeError,
			Title:          "Double lesson starts in restricted period",
			Description:    fmt.Sprintf("Meta period %q (length %d) in block %q starts at %q, where double lessons are not allowed.", metaPeriod.ID, metaPeriod.Length, blockRefLabel(ref), metaPeriod.StartPeriodID),
			Recommendation: "Start the double lesson in an unrestricted period.",
			Action:         &models.IssueAction{Label: "Open block", Path: "model/blocks/" + ref.BlockID},
		})
	}
	return issues
}

// evaluateTeacherDailyLoad penalises days where a teacher's scheduled
// periods exceed the configured per-day limit. This is a soft rule: the
// excess is reported, not rejected.
func evaluateTeacherDailyLoad(doc *models.VersionJSONData, idx *entityIndex) []models.Issue {
	limit := doc.Settings.SoftConstraints.MaxPeriodsPerDayPerTeacher
	if limit <= 0 {
		return nil
	}

	perTeacherDay := make(map[string]int)
	var keys []string
	for _, ref := range idx.lessons {
		span, ok := idx.lessonSpan(ref.Lesson)
		if !ok {
			continue
		}
		periods := span.End - span.Start + 1
		for _, teacherID := range ref.Lesson.Teacher {
			key := teacherID + "|" + span.Day
			if _, seen := perTeacherDay[key]; !seen {
				keys = append(keys, key)
			}
			perTeacherDay[key] += periods
		}
	}

	var issues []models.Issue
	for _, key := range keys {
		load := perTeacherDay[key]
		if load <= limit {
			continue
		}
		parts := strings.SplitN(key, "|", 2)
		teacherID, day := parts[0], parts[1]
		issues = append(issues, models.Issue{
			ID:             issueID("daily-load", teacherID, day),
			Type:           models.IssueTypeWarning,
			Title:          "Teacher daily load exceeded",
			Description:    fmt.Sprintf("Teacher %q is scheduled for %d periods on %s; the limit is %d (excess %d).", teacherLabel(idx, teacherID), load, day, limit, load-limit),
			Recommendation: "Move lessons to lighter days.",
			Action:         &models.IssueAction{Label: "Open teacher", Path: "data/teachers/" + teacherID},
		})
	}
	return issues
}

// --- Shared helpers ---

type spanWithID struct {
	id   string
	span periodSpan
}

func blockSpans(block models.Block) []spanWithID {
	var spans []spanWithID
	for _, metaLesson := range block.MetaLessons {
		for _, metaPeriod := range metaLesson.MetaPeriods {
			span, ok := metaPeriodSpan(metaPeriod)
			if !ok {
				continue
			}
			spans = append(spans, spanWithID{id: metaPeriod.ID, span: span})
		}
	}
	return spans
}

func sharedBands(a, b map[string]struct{}) []string {
	var shared []string
	for bandID := range a {
		if _, ok := b[bandID]; ok {
			shared = append(shared, bandID)
		}
	}
	sort.Strings(shared)
	return shared
}

func blockYearGroups(idx *entityIndex, blockID string) []string {
	seen := make(map[string]struct{})
	var yearGroups []string
	for bandID := range idx.blockBands[blockID] {
		band, ok := idx.bandsByID[bandID]
		if !ok {
			continue
		}
		if _, ok := idx.yearGroupsByID[band.YearGroupID]; !ok {
			continue
		}
		if _, dup := seen[band.YearGroupID]; dup {
			continue
		}
		seen[band.YearGroupID] = struct{}{}
		yearGroups = append(yearGroups, band.YearGroupID)
	}
	sort.Strings(yearGroups)
	return yearGroups
}

func teacherEligible(teacher models.Teacher, subjectID, yearGroupID string) bool {
	for _, eligibility := range teacher.Eligibility {
		if eligibility.SubjectID == subjectID && eligibility.YearGroupID == yearGroupID {
			return true
		}
	}
	return false
}

func teacherName(teacher models.Teacher) string {
	if teacher.Name != "" {
		return teacher.Name
	}
	return teacher.ID
}

func teacherLabel(idx *entityIndex, teacherID string) string {
	if teacher, ok := idx.teachersByID[teacherID]; ok {
		return teacherName(teacher)
	}
	return teacherID
}

func blockLabel(block models.Block) string {
	if block.Name != "" {
		return block.Name
	}
	return block.ID
}

func blockRefLabel(ref metaPeriodRef) string {
	if ref.BlockName != "" {
		return ref.BlockName
	}
	return ref.BlockID
}
