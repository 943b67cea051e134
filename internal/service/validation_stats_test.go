package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestCalculateProgressEmptyDocument(t *testing.T) {
	progress := CalculateProgress(&models.VersionJSONData{})

	assert.Equal(t, models.ProgressStat{}, progress.BlocksBuilt)
	assert.Equal(t, models.ProgressStat{}, progress.LessonsScheduled)
	assert.Equal(t, models.ProgressStat{}, progress.LessonsStaffed)
	assert.Zero(t, progress.Overall)

	nilProgress := CalculateProgress(nil)
	assert.Zero(t, nilProgress.Overall)
}

func TestCalculateProgressStaffedPercentage(t *testing.T) {
	doc := cleanDocument()
	// Grow the block to ten lessons, four of them staffed and all of
	// them scheduled on mp-1.
	lessons := make([]models.Lesson, 0, 10)
	for i := 0; i < 10; i++ {
		lesson := models.Lesson{
			ID:           issueID("l", string(rune('a'+i))),
			MetaPeriodID: "mp-1",
			Subject:      "sci",
		}
		if i < 4 {
			lesson.Teacher = []string{"t-1"}
		}
		lessons = append(lessons, lesson)
	}
	doc.Model.Blocks[0].TeachingGroups[0].Classes[0].Lessons = lessons

	progress := CalculateProgress(doc)

	assert.Equal(t, models.ProgressStat{Count: 4, Total: 10, Percentage: 40}, progress.LessonsStaffed)
	assert.Equal(t, models.ProgressStat{Count: 10, Total: 10, Percentage: 100}, progress.LessonsScheduled)
	assert.Equal(t, 70, progress.Overall)
}

func TestCalculateProgressBlocksBuilt(t *testing.T) {
	doc := cleanDocument()
	doc.Model.Blocks = append(doc.Model.Blocks, models.Block{
		ID: "blk-unbuilt",
		MetaLessons: []models.MetaLesson{
			{ID: "ml-u", MetaPeriods: []models.MetaPeriod{{ID: "mp-u", StartPeriodID: "", Length: 1}}},
		},
	})

	progress := CalculateProgress(doc)

	assert.Equal(t, models.ProgressStat{Count: 1, Total: 2, Percentage: 50}, progress.BlocksBuilt)
}

func TestCalculateProgressUnscheduledLessons(t *testing.T) {
	doc := cleanDocument()
	doc.Model.Blocks[0].MetaLessons[0].MetaPeriods[1].StartPeriodID = ""

	progress := CalculateProgress(doc)

	// l-2 sits on the now unplaced mp-2 but is still staffed.
	assert.Equal(t, models.ProgressStat{Count: 1, Total: 2, Percentage: 50}, progress.LessonsScheduled)
	assert.Equal(t, models.ProgressStat{Count: 2, Total: 2, Percentage: 100}, progress.LessonsStaffed)
	assert.Equal(t, 75, progress.Overall)
}

func TestProgressStatRounding(t *testing.T) {
	assert.Equal(t, 33, progressStat(1, 3).Percentage)
	assert.Equal(t, 67, progressStat(2, 3).Percentage)
	assert.Equal(t, 0, progressStat(0, 0).Percentage)
	assert.Equal(t, 100, progressStat(5, 5).Percentage)
}
