package internal

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jinzhu/configor"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LndHub  LndHubConfiguration  `yaml:"lndhub"`
	Network NetworkConfiguration `yaml:"network"`
	Mock    MockConfiguration    `yaml:"mock"`
}

type LndHubConfiguration struct {
	Url       string   `yaml:"url"`
	Timeout   int64    `yaml:"timeout" default:"30"`
	RateLimit float64  `yaml:"rate_limit"`
	RateBurst int      `yaml:"rate_burst" default:"5"`
	HubUrl    *url.URL `yaml:"-"`
}

type SocksConfiguration struct {
	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type NetworkConfiguration struct {
	SocksProxy *SocksConfiguration `yaml:"socks_proxy,omitempty"`
}

type MockConfiguration struct {
	Address string `yaml:"address" default:"127.0.0.1:3000"`
}

// TimeoutDuration returns the per-request timeout.
func (c LndHubConfiguration) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadConfiguration reads the given yaml files, LNDHUB_* environment variables take precedence.
func LoadConfiguration(files ...string) (*Configuration, error) {
	cfg, err := loadConfiguration(files...)
	if err != nil {
		return nil, err
	}
	if err := checkLndHubConfiguration(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadMockConfiguration is LoadConfiguration for the mock service, which
// does not talk to a remote LNDHub and needs no lndhub url.
func LoadMockConfiguration(files ...string) (*Configuration, error) {
	return loadConfiguration(files...)
}

func loadConfiguration(files ...string) (*Configuration, error) {
	cfg := &Configuration{}
	err := configor.New(&configor.Config{ENVPrefix: "LNDHUB"}).Load(cfg, files...)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkLndHubConfiguration(cfg *Configuration) error {
	if cfg.LndHub.Url == "" {
		return fmt.Errorf("please configure a lndhub url")
	}
	cfg.LndHub.Url = strings.TrimSuffix(cfg.LndHub.Url, "/")
	hubUrl, err := url.Parse(cfg.LndHub.Url)
	if err != nil {
		return err
	}
	if hubUrl.Scheme != "http" && hubUrl.Scheme != "https" {
		return fmt.Errorf("lndhub url must be http or https: %s", cfg.LndHub.Url)
	}
	if hubUrl.Scheme == "http" && hubUrl.Hostname() != "localhost" && hubUrl.Hostname() != "127.0.0.1" {
		log.Warnf("[config] lndhub url %s is not using TLS, bearer tokens are sent in clear text", hubUrl.Host)
	}
	cfg.LndHub.HubUrl = hubUrl
	if cfg.LndHub.Timeout <= 0 {
		cfg.LndHub.Timeout = 30
	}
	return nil
}
