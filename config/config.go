package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Fanout   FanoutConfig   `mapstructure:"fanout"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug | release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FeedConfig 信息流调优参数
type FeedConfig struct {
	PostListCap       int           `mapstructure:"post_list_cap"`
	ReelListCap       int           `mapstructure:"reel_list_cap"`
	PageTTL           time.Duration `mapstructure:"page_ttl"`
	FollowingTTL      time.Duration `mapstructure:"following_ttl"`
	StatsTTL          time.Duration `mapstructure:"stats_ttl"`
	CandidateLimit    int           `mapstructure:"candidate_limit"`
	SuggestEvery      int           `mapstructure:"suggest_every"`
	SponsoredEvery    int           `mapstructure:"sponsored_every"`
	SuggestQuota      int           `mapstructure:"suggest_quota"`
	MoodTagLimit      int           `mapstructure:"mood_tag_limit"`
	RecentLikesWindow int           `mapstructure:"recent_likes_window"`
}

type FanoutConfig struct {
	Workers      int           `mapstructure:"workers"`
	ClaimLimit   int           `mapstructure:"claim_limit"`
	PageSize     int           `mapstructure:"page_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load 读取 config.yaml 并允许 FEEDGRAPH_* 环境变量覆盖
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("FEEDGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选，默认值 + 环境变量即可启动
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=feedgraph port=5432 sslmode=disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("feed.post_list_cap", 500)
	v.SetDefault("feed.reel_list_cap", 200)
	v.SetDefault("feed.page_ttl", time.Minute)
	v.SetDefault("feed.following_ttl", 5*time.Minute)
	v.SetDefault("feed.stats_ttl", 30*time.Minute)
	v.SetDefault("feed.candidate_limit", 500)
	v.SetDefault("feed.suggest_every", 4)
	v.SetDefault("feed.sponsored_every", 6)
	v.SetDefault("feed.suggest_quota", 5)
	v.SetDefault("feed.mood_tag_limit", 5)
	v.SetDefault("feed.recent_likes_window", 50)

	v.SetDefault("fanout.workers", 4)
	v.SetDefault("fanout.claim_limit", 64)
	v.SetDefault("fanout.page_size", 500)
	v.SetDefault("fanout.poll_interval", 50*time.Millisecond)
	v.SetDefault("fanout.max_attempts", 3)

	v.SetDefault("auth.jwt_secret", "dev-secret")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
}
