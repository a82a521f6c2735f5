package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "KEEPSAKE_"

type Application struct {
	Host     string   `koanf:"host"`
	Listen   string   `koanf:"listen"`
	Database Database `koanf:"db"`
	Reminder Reminder `koanf:"reminder"`
	Telegram Telegram `koanf:"telegram"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Reminder struct {
	Enabled bool `koanf:"enabled"`
	// Schedule is a five field cron expression evaluated in Timezone.
	Schedule string `koanf:"schedule"`
	// Timezone decides which calendar day counts as "today" for every user.
	Timezone    string        `koanf:"timezone"`
	OwnerDelay  time.Duration `koanf:"ownerdelay"`
	SendTimeout time.Duration `koanf:"sendtimeout"`
}

type Telegram struct {
	Token string `koanf:"token"`
	// Polling enables the /start link handshake bot.
	Polling bool `koanf:"polling"`
	// RateLimit is the maximum number of outgoing messages per second.
	RateLimit float64 `koanf:"ratelimit"`
	// APIURL overrides the Bot API endpoint. Empty means api.telegram.org.
	APIURL string `koanf:"apiurl"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:3000",
		Listen: ":8181",
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "keepsake",
			Pass:   "",
			Name:   "keepsake",
			Schema: "keepsake",
		},
		Reminder: Reminder{
			Enabled:     true,
			Schedule:    "0 9 * * *",
			Timezone:    "Asia/Singapore",
			OwnerDelay:  150 * time.Millisecond,
			SendTimeout: 10 * time.Second,
		},
		Telegram: Telegram{
			Polling:   true,
			RateLimit: 25,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}

// Location resolves the reminder timezone. Both IANA names and fixed offsets
// like "UTC+8" are accepted.
func (r Reminder) Location() (*time.Location, error) {
	return ParseTimezone(r.Timezone)
}

func ParseTimezone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if offset, ok := strings.CutPrefix(strings.ToUpper(name), "UTC"); ok && offset != "" {
		hours, minutes, hasMinutes := strings.Cut(offset, ":")
		d, err := time.ParseDuration(hours + "h")
		if err != nil {
			return nil, fmt.Errorf("invalid timezone offset %q: %w", name, err)
		}
		if hasMinutes {
			m, err := strconv.Atoi(minutes)
			if err != nil || m < 0 || m > 59 {
				return nil, fmt.Errorf("invalid timezone offset %q", name)
			}
			if d < 0 || strings.HasPrefix(hours, "-") {
				d -= time.Duration(m) * time.Minute
			} else {
				d += time.Duration(m) * time.Minute
			}
		}
		return time.FixedZone(name, int(d.Seconds())), nil
	}
	return time.LoadLocation(name)
}
