package models

import "encoding/json"

// PeriodType categorises slots within a cycle day. Only Lesson periods
// participate in scheduling.
type PeriodType string

const (
	PeriodTypeRegistration PeriodType = "Registration"
	PeriodTypeLesson       PeriodType = "Lesson"
	PeriodTypeBreak        PeriodType = "Break"
	PeriodTypeLunch        PeriodType = "Lunch"
	PeriodTypeTwilight     PeriodType = "Twilight"
)

// YearGroup is a cohort year. Order drives display and generation sequence.
type YearGroup struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Band is a student cohort within a year group. The id doubles as the
// display name, so renames cascade into derived form group ids.
type Band struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	YearGroupID string `json:"year_group_id"`
	Order       int    `json:"order"`
}

// FormGroup is the smallest scheduled student grouping. Column is a 1-based
// slot index unique within its band.
type FormGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	BandID string `json:"band_id"`
	Column int    `json:"column"`
}

// Department groups subjects.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subject is an academic subject taught within a department.
type Subject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	ColorScheme  string `json:"color_scheme"`
	DepartmentID string `json:"department_id"`
}

// SubjectYearGroupEligibility marks a teacher as a specialist for a subject
// at a given year group.
type SubjectYearGroupEligibility struct {
	SubjectID   string `json:"subject_id"`
	YearGroupID string `json:"year_group_id"`
}

// Teacher carries staffing capacity and eligibility data.
type Teacher struct {
	ID                 string                        `json:"id"`
	Name               string                        `json:"name"`
	Initials           string                        `json:"initials"`
	MaxTeachingPeriods int                           `json:"max_teaching_periods"`
	MaxWorkingDays     int                           `json:"max_working_days"`
	UnavailablePeriods []string                      `json:"unavailable_periods"`
	Eligibility        []SubjectYearGroupEligibility `json:"subject_year_group_eligibility"`
	SubjectAllocations map[string]int                `json:"subject_allocations"`
}

// Week is a labelled cycle week.
type Week struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Day is a cycle day.
type Day struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Period is one timetable slot. Its id encodes "<day>-<periodNumber>" by
// convention, which the validation engine relies on for day grouping.
type Period struct {
	ID     string     `json:"id"`
	DayID  string     `json:"day_id"`
	Type   PeriodType `json:"type"`
	Column int        `json:"column"`
}

// CycleData describes the scheduling cycle of a version.
type CycleData struct {
	Weeks   []Week   `json:"weeks"`
	Days    []Day    `json:"days"`
	Periods []Period `json:"periods"`
}

// MetaPeriod is a time slot placeholder for a meta lesson. An empty
// StartPeriodID means the slot has not been scheduled yet.
type MetaPeriod struct {
	ID            string `json:"id"`
	StartPeriodID string `json:"start_period_id"`
	Length        int    `json:"length"`
}

// MetaLesson groups the meta periods a block occupies.
type MetaLesson struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	MetaPeriods []MetaPeriod `json:"meta_periods"`
}

// Lesson is a single class-subject-teacher scheduling unit. An empty Teacher
// slice means the lesson is unstaffed.
type Lesson struct {
	ID           string   `json:"id"`
	Teacher      []string `json:"teacher"`
	MetaPeriodID string   `json:"meta_period_id"`
	Subject      string   `json:"subject"`
}

// Class is a taught group inside a teaching group.
type Class struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Lessons []Lesson `json:"lessons"`
}

// TeachingGroup partitions a block's students into classes.
type TeachingGroup struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Classes []Class `json:"classes"`
}

// Block is a curriculum unit tying meta lessons and teaching groups to the
// form groups that feed it.
type Block struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	MetaLessons      []MetaLesson    `json:"meta_lessons"`
	TeachingGroups   []TeachingGroup `json:"teaching_groups"`
	FeederFormGroups []string        `json:"feeder_form_groups"`
}

// AcademicData holds the reference entities of a version.
type AcademicData struct {
	Departments []Department `json:"departments"`
	Subjects    []Subject    `json:"subjects"`
	YearGroups  []YearGroup  `json:"year_groups"`
	Bands       []Band       `json:"bands"`
	FormGroups  []FormGroup  `json:"form_groups"`
	Teachers    []Teacher    `json:"teachers"`
}

// CurriculumModel carries the curriculum blocks of a version.
type CurriculumModel struct {
	Blocks []Block `json:"blocks"`
}

// HardConstraints are the constraints the document declares as
// non-negotiable. Violations surface as error issues.
type HardConstraints struct {
	StudentConflictPrevention     bool     `json:"studentConflictPrevention"`
	TeacherConflictPrevention     bool     `json:"teacherConflictPrevention"`
	RequireSpecialists            bool     `json:"requireSpecialists"`
	DoubleLessonRestrictedPeriods []string `json:"doubleLessonRestrictedPeriods"`
}

// SoftConstraints tune preferences; violations surface as warnings.
type SoftConstraints struct {
	ClassSpacing               bool `json:"classSpacing"`
	TargetTeachingPeriods      int  `json:"targetTeachingPeriods"`
	MaxPeriodsPerDayPerTeacher int  `json:"maxPeriodsPerDayPerTeacher"`
}

// VersionSettings holds constraint configuration for a version.
type VersionSettings struct {
	HardConstraints      HardConstraints `json:"hardConstraints"`
	SoftConstraints      SoftConstraints `json:"softConstraints"`
	ClassSplitPriorities map[string]int  `json:"classSplitPriorities"`
}

// VersionMetadata carries free-form descriptive fields for a version.
type VersionMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// VersionJSONData is the root document of one immutable project version.
// Staffing and timetable sections are presentation-owned and passed through
// opaquely.
type VersionJSONData struct {
	Metadata  VersionMetadata `json:"metadata"`
	Cycle     CycleData       `json:"cycle"`
	Data      AcademicData    `json:"data"`
	Model     CurriculumModel `json:"model"`
	Staffing  json.RawMessage `json:"staffing,omitempty"`
	Timetable json.RawMessage `json:"timetable,omitempty"`
	Settings  VersionSettings `json:"settings"`
}
