package service

import (
	"math"

	"github.com/noah-isme/timetable-api/internal/models"
)

func progressStat(count, total int) models.ProgressStat {
	stat := models.ProgressStat{Count: count, Total: total}
	if total > 0 {
		stat.Percentage = int(math.Round(100 * float64(count) / float64(total)))
	}
	return stat
}

// blockBuilt reports whether every meta period of the block has been
// placed on a start period.
func blockBuilt(block models.Block) bool {
	for _, metaLesson := range block.MetaLessons {
		for _, metaPeriod := range metaLesson.MetaPeriods {
			if metaPeriod.StartPeriodID == "" {
				return false
			}
		}
	}
	return true
}

// CalculateProgress derives the read-only completion metrics dashboards
// consume: blocks fully built, lessons scheduled and lessons staffed. Like
// validation it is recomputed in full from the document on every call.
func CalculateProgress(doc *models.VersionJSONData) models.VersionProgress {
	progress := models.VersionProgress{}
	if doc == nil {
		progress.BlocksBuilt = progressStat(0, 0)
		progress.LessonsScheduled = progressStat(0, 0)
		progress.LessonsStaffed = progressStat(0, 0)
		return progress
	}

	idx := buildEntityIndex(doc)

	builtCount := 0
	for _, block := range doc.Model.Blocks {
		if blockBuilt(block) {
			builtCount++
		}
	}
	progress.BlocksBuilt = progressStat(builtCount, len(doc.Model.Blocks))

	scheduled := 0
	staffed := 0
	for _, ref := range idx.lessons {
		if start, ok := idx.metaPeriodStart[ref.Lesson.MetaPeriodID]; ok && start != "" {
			scheduled++
		}
		if len(ref.Lesson.Teacher) > 0 {
			staffed++
		}
	}
	progress.LessonsScheduled = progressStat(scheduled, len(idx.lessons))
	progress.LessonsStaffed = progressStat(staffed, len(idx.lessons))

	progress.Overall = (progress.LessonsScheduled.Percentage + progress.LessonsStaffed.Percentage) / 2
	return progress
}
