package repositories

import (
	"github.com/charmbracelet/log"
	"github.com/rohits-web03/dropkeep/internal/config"
	"github.com/rohits-web03/dropkeep/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase() {
	dsn := config.Envs.DBURL
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database", "err", err)
	}
	// Run migrations
	if err := db.AutoMigrate(&models.File{}); err != nil {
		log.Fatal("Migration failed", "err", err)
	}
	DB = db
	log.Info("Successfully connected to database")
}
