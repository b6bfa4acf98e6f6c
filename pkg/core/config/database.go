package config

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverMysql    = "mysql"
	DriverSqlite   = "sqlite"
)

type Database struct {
	Driver   string `yaml:"driver" json:"driver,omitempty"`
	Host     string `yaml:"host" json:"host,omitempty"`
	Port     int64  `yaml:"port" json:"port,omitempty"`
	User     string `yaml:"user" json:"user,omitempty"`
	Password string `yaml:"password" json:"password,omitempty"`
	DbName   string `yaml:"db-name" json:"db-name,omitempty"`
	// Path sqlite 文件路径
	Path string `yaml:"path" json:"path,omitempty"`
}

// PgDSN postgres 连接串
func (d Database) PgDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable password=%s",
		d.Host, d.Port, d.User, d.DbName, d.Password)
}

// PgURL golang-migrate 使用的 pgx5 连接地址
func (d Database) PgURL() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.DbName)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
}

// InitDB 按驱动类型初始化数据库
func InitDB(database Database) (*gorm.DB, error) {
	switch database.Driver {
	case DriverMysql:
		return InitMysql(database)
	case DriverSqlite:
		return InitSqlite(database)
	case DriverPostgres, "":
		return InitPg(database)
	}
	return nil, fmt.Errorf("不支持的数据库驱动: %s", database.Driver)
}

func InitPg(database Database) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(database.PgDSN()), gormConfig())
	if err != nil {
		return nil, err
	}

	// 获取底层的sql.DB并配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func InitMysql(database Database) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		database.User, database.Password, database.Host, database.Port, database.DbName)

	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// InitSqlite 本地开发和测试使用，单连接避免写锁竞争
func InitSqlite(database Database) (*gorm.DB, error) {
	path := database.Path
	if path == "" {
		path = "shortlink.db"
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)"), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
