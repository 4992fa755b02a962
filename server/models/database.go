package models

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/crisislink/crisislink/server/logger"
	"github.com/crisislink/crisislink/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "crisislink.db"

var logg = logger.NewLogger()
var db *gorm.DB

// AutoMigrate migrates the db schema & inserts seed data
func AutoMigrate(passPhrase string, dbRootDir string) error {
	err := openDb(passPhrase, dbRootDir)
	if err != nil {
		return err
	}

	db.AutoMigrate(
		&JobStatus{}, &Job{},
		&Role{}, &User{}, &Profile{}, &Contact{},
		&AccessEvent{}, &ReferenceTerm{},
	)

	populateDbWithSeedData()

	return nil
}

// InitializeTestDb sets up a throw-away database for package tests,
// wiping any leftover state from a previous run.
func InitializeTestDb() {
	tmpDir, err := os.MkdirTemp("", "crisislink-test")
	if err != nil {
		logg.Panic(err)
	}

	err = AutoMigrate("test-passphrase", tmpDir)
	if err != nil {
		logg.Panic(err)
	}

	for _, table := range []string{"jobs", "users", "profiles", "contacts", "access_events"} {
		db.Exec(fmt.Sprintf("DELETE FROM %v", table))
	}
}

func DbDirectory(dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return dbDir, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func openDb(passPhrase string, dbRootDir string) error {
	var err error

	dsn, err := dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err = gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %v", err)
	}

	return nil
}

func populateDbWithSeedData() {
	if err := db.First(&JobStatus{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'JobStatus'")
		db.Create(&[]JobStatus{{Name: ENQUEUED_JOB}, {Name: IN_PROGRESS_JOB}, {Name: SUCCESSFUL_JOB}, {Name: DEAD_JOB}})
	}

	if err := db.First(&Role{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'Role'")
		db.Create(&[]Role{{Name: ADMIN_USER_ROLE}, {Name: BASIC_USER_ROLE}})
	}

	if err := db.First(&ReferenceTerm{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'ReferenceTerm'")
		db.Create(referenceTermSeedData())
	}
}

func dbDSN(passPhrase string, dbRootDir string) (string, error) {
	dbDir, err := DbDirectory(dbRootDir)
	if err != nil {
		return "", err
	}

	dbFilePath := filepath.Join(dbDir, DB_NAME)

	return fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		dbFilePath,
		passPhrase,
	), nil
}
