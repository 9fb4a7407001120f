package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"watson-dash/pkg/config"
	"watson-dash/pkg/model"
)

// ErrUserNotFound is returned by FindUser when no row matches.
var ErrUserNotFound = errors.New("user not found")

// Init connects to MySQL and migrates the operator tables. A missing
// database is created when the DSN was built from discrete fields.
func Init(cfg config.DBConfig) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	dsn := cfg.MySQLDSN()
	gdb, err := gorm.Open(mysql.Open(dsn), gcfg)
	if err != nil {
		if cfg.DSN != "" || !strings.Contains(err.Error(), "Unknown database") {
			return nil, err
		}
		if cerr := createDatabase(cfg); cerr != nil {
			return nil, fmt.Errorf("create database failed: %w", cerr)
		}
		if gdb, err = gorm.Open(mysql.Open(dsn), gcfg); err != nil {
			return nil, err
		}
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	if err := gdb.AutoMigrate(&model.User{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

func createDatabase(cfg config.DBConfig) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/", cfg.User, cfg.Pass, cfg.Host, cfg.Port)
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4", cfg.Name))
	return err
}

// UserRepo is the gorm-backed operator account store.
type UserRepo struct {
	DB *gorm.DB
}

func (r *UserRepo) CountUsers() (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepo) CreateUser(u *model.User) error {
	return r.DB.Create(u).Error
}

func (r *UserRepo) FindUser(username string) (*model.User, error) {
	var u model.User
	err := r.DB.Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) TouchLogin(id uint, at time.Time) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}
