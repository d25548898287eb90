package job

import (
	"github.com/quillpress/blog/database"
	"github.com/quillpress/blog/logger"
	"github.com/quillpress/blog/util/common"

	"gorm.io/gorm"
)

// CheckpointJob folds the sqlite write-ahead log back into the database file.
type CheckpointJob struct {
	db *gorm.DB
}

func NewCheckpointJob(db *gorm.DB) *CheckpointJob {
	return &CheckpointJob{db: db}
}

func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")
	if !database.IsSQLite(j.db) {
		return
	}
	if err := database.Checkpoint(j.db); err != nil {
		logger.Warning("sqlite checkpoint job err:", err)
	}
}
