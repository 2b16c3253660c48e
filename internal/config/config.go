package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"true"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"coursemart"`
}

type StripeConfig struct {
	APIKey        string `yaml:"api_key" env-default:""`
	WebhookSecret string `yaml:"webhook_secret" env-default:""`
	Currency      string `yaml:"currency" env-default:"usd"`
}

type AuthConfig struct {
	Secret   string `yaml:"secret" env:"AUTH_SECRET" env-default:""`
	TokenTTL string `yaml:"token_ttl" env-default:"1h"`
}

type Config struct {
	Mongo  MongoConfig  `yaml:"mongo"`
	Stripe StripeConfig `yaml:"stripe"`
	Auth   AuthConfig   `yaml:"auth"`
	Listen Listen       `yaml:"listen"`
	Env    string       `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
