package core

import (
	"fmt"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		DefaultFromEmail mail.Address
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string

		Mail     MailConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Server   ServerConfig
		Reminder ReminderConfig
	}

	MailConfig struct {
		Driver string // console | sendgrid
	}

	StorageConfig struct {
		Driver string // postgres | inmem
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugAddress    string
		AdminKey        string
		ShutdownTimeout time.Duration
	}

	ReminderConfig struct {
		Schedule string // cron spec, evaluated in Timezone
		Timezone string
		Subject  string
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

// Location returns the reminder timezone, falling back to time.Local when unset.
func (rc ReminderConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(rc.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "loading reminder timezone %q", tz)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "PlantCare")
	v.SetDefault("defaultFromEmail", "PlantCare <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("mail.driver", "console")
	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "plantcare")
	v.SetDefault("database.password", "plantcare")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.name", "plantcare")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.adminKey", "")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("reminder.schedule", "0 9 * * *")
	v.SetDefault("reminder.timezone", "")
	v.SetDefault("reminder.subject", "Plant Watering Reminder")
}

// NewConfig reads the configuration from defaults, the optional config/.env.<env> file
// and the environment (prefixed with the env name, eg. PROD_DATABASE_HOST).
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(strings.TrimSpace(os.Getenv("ENV")))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	return loadConfig(v, env)
}

func loadConfig(v *viper.Viper, env string) (*Config, error) {
	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		DefaultFromEmail: *from,
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Mail: MailConfig{
			Driver: CleanString(v.GetString("mail.driver"), true /* lower */),
		},
		Storage: StorageConfig{
			Driver: CleanString(v.GetString("storage.driver"), true /* lower */),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugAddress:    v.GetString("server.debugAddress"),
			AdminKey:        v.GetString("server.adminKey"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Reminder: ReminderConfig{
			Schedule: CleanString(v.GetString("reminder.schedule")),
			Timezone: CleanString(v.GetString("reminder.timezone")),
			Subject:  CleanString(v.GetString("reminder.subject")),
		},
	}

	switch conf.Mail.Driver {
	case "console", "sendgrid":
	default:
		return nil, fmt.Errorf("unknown mail driver %q", conf.Mail.Driver)
	}
	switch conf.Storage.Driver {
	case "postgres", "inmem":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
	if _, err := conf.Reminder.Location(); err != nil {
		return nil, err
	}
	return conf, nil
}
