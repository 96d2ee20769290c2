package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers default values on v
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.debug", false)
	v.SetDefault("database.slowquerythreshold", 200*time.Millisecond)
	v.SetDefault("database.sqlite.path", "imagecurator.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "imagecurator")

	v.SetDefault("tagdictionary.path", "")
	v.SetDefault("tagdictionary.cachettl", 10*time.Minute)

	v.SetDefault("search.nsfwthreshold", "R")
	v.SetDefault("search.defaultpagesize", 100)
	v.SetDefault("search.maxpagesize", 1000)

	v.SetDefault("processing.outputdir", "processed")
	v.SetDefault("processing.targetresolutions", []int{512, 768, 1024})
	v.SetDefault("processing.format", "png")
	v.SetDefault("processing.jpegquality", 95)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/imagecurator.log")
	v.SetDefault("logging.file_output.level", "debug")
}
