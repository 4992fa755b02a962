package server

import (
	"errors"
	"path/filepath"

	"github.com/crisislink/crisislink/server/gstorage"
	"github.com/crisislink/crisislink/server/models"
	"github.com/crisislink/crisislink/server/work"
	"github.com/crisislink/crisislink/utils"
)

const (
	SWEEP_SESSIONS_HANDLER = "sweep_access_sessions"
	DB_BACKUP_HANDLER      = "backup_sqlite_db"

	SWEEP_SESSIONS_SCHEDULE = "*/10 * * * *"
)

// sweepAccessSessions drops expired emergency access sessions from the
// in-memory registry.
func sweepAccessSessions(map[string]interface{}) error {
	swept := sessionRegistry.Sweep()
	if swept > 0 {
		logg.Infof("swept %v expired access session(s)", swept)
	}
	return nil
}

func backupSqliteDb(map[string]interface{}) error {
	gs, err := gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
	if err != nil {
		return err
	}
	defer gs.Close()

	return gs.UploadFile(
		serverConfig.Google.Storage.Bucket,
		serverConfig.Google.Storage.Prefix,
		filepath.Join(appDataDir, models.DB_NAME),
	)
}

// restoreDbFromBackup pulls the latest sqlite backup from cloud storage
// when a fresh host has no local copy. A missing backup object is not an
// error, the db will be created from scratch.
func restoreDbFromBackup() error {
	dbFilePath := filepath.Join(appDataDir, models.DB_NAME)
	if utils.FileExist(dbFilePath) {
		return nil
	}

	gs, err := gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
	if err != nil {
		return err
	}
	defer gs.Close()

	storageConfig := serverConfig.Google.Storage
	err = gs.DownloadFile(
		storageConfig.Bucket,
		filepath.Join(storageConfig.Prefix, models.DB_NAME),
		dbFilePath,
	)

	if errors.Is(err, gstorage.ErrObjectNotExist) {
		logg.Infof("No remote backup of '%v' found, starting with a fresh database", models.DB_NAME)
		return nil
	}

	if err != nil {
		return err
	}

	logg.Infof("Restored '%v' from remote backup", models.DB_NAME)
	return nil
}

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	wpa.Register(SWEEP_SESSIONS_HANDLER, sweepAccessSessions)
	wpa.Register(DB_BACKUP_HANDLER, backupSqliteDb)
}

func enqueueJobs(wpa *work.WorkerPoolAdapter) {
	wpa.PeriodicallyPerform(SWEEP_SESSIONS_SCHEDULE, work.JobParams{
		Name:    SWEEP_SESSIONS_HANDLER,
		Handler: SWEEP_SESSIONS_HANDLER,
		Unique:  true,
		Args:    map[string]interface{}{},
	})

	if backupEnabled() {
		wpa.PeriodicallyPerform(serverConfig.Google.Storage.SqliteBackupSchedule, work.JobParams{
			Name:    DB_BACKUP_HANDLER,
			Handler: DB_BACKUP_HANDLER,
			Unique:  true,
			Args:    map[string]interface{}{},
		})
	}
}
