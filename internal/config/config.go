package config

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Stream struct {
		Key                    string `mapstructure:"key"`
		IngestURL              string `mapstructure:"ingest_url"`
		WebcamDevice           string `mapstructure:"webcam_device"`
		RestartIntervalSeconds int    `mapstructure:"restart_interval_seconds"`
		PollIntervalSeconds    int    `mapstructure:"poll_interval_seconds"`
	} `mapstructure:"stream"`
	Media struct {
		AudioDir     string `mapstructure:"audio_dir"`
		VisualsDir   string `mapstructure:"visuals_dir"`
		PlaylistPath string `mapstructure:"playlist_path"`
	} `mapstructure:"media"`
	Logs struct {
		ActivityFile string `mapstructure:"activity_file"`
		ErrorFile    string `mapstructure:"error_file"`
	} `mapstructure:"logs"`
	Journal struct {
		Path        string `mapstructure:"path"`
		PostgresDSN string `mapstructure:"postgres_dsn"`
	} `mapstructure:"journal"`
	Monitor struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"monitor"`
	Notify struct {
		Broker   string `mapstructure:"broker"`
		ClientID string `mapstructure:"client_id"`
		Topic    string `mapstructure:"topic"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"notify"`
	DryRun bool `mapstructure:"dry_run"`

	// Pipeline toggles come from the command line, never from the
	// environment; main applies them after Load (see ParseToggles).
	AudioEnabled   bool `mapstructure:"-"`
	VisualsEnabled bool `mapstructure:"-"`
}

func Load() *Config {
	viper.SetEnvPrefix("STREAMPI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("stream.key")
	viper.BindEnv("stream.ingest_url")
	viper.BindEnv("stream.webcam_device")
	viper.BindEnv("stream.restart_interval_seconds")
	viper.BindEnv("stream.poll_interval_seconds")
	viper.BindEnv("media.audio_dir")
	viper.BindEnv("media.visuals_dir")
	viper.BindEnv("media.playlist_path")
	viper.BindEnv("logs.activity_file")
	viper.BindEnv("logs.error_file")
	viper.BindEnv("journal.path")
	viper.BindEnv("journal.postgres_dsn")
	viper.BindEnv("monitor.addr")
	viper.BindEnv("notify.broker")
	viper.BindEnv("notify.client_id")
	viper.BindEnv("notify.topic")
	viper.BindEnv("notify.username")
	viper.BindEnv("notify.password")
	viper.BindEnv("dry_run")

	// Stream Defaults (13h rotation keeps the session under platform caps)
	viper.SetDefault("stream.ingest_url", "rtmp://live.twitch.tv/app")
	viper.SetDefault("stream.webcam_device", "/dev/video0")
	viper.SetDefault("stream.restart_interval_seconds", 46800)
	viper.SetDefault("stream.poll_interval_seconds", 60)

	// Media Defaults
	viper.SetDefault("media.audio_dir", "./audio")
	viper.SetDefault("media.visuals_dir", "./visuals")
	viper.SetDefault("media.playlist_path", filepath.Join("/tmp", "streampi-playlist.txt"))

	// Log Defaults
	viper.SetDefault("logs.activity_file", "streampi.log")
	viper.SetDefault("logs.error_file", "streampi-error.log")

	// Journal Defaults (local sqlite unless a Postgres DSN is given)
	viper.SetDefault("journal.path", "streampi.db")
	viper.SetDefault("journal.postgres_dsn", "")

	// Monitor / Notify Defaults
	viper.SetDefault("monitor.addr", ":8080")
	viper.SetDefault("notify.broker", "")
	viper.SetDefault("notify.client_id", "streampi")
	viper.SetDefault("notify.topic", "streampi/events")

	viper.SetDefault("dry_run", false)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Stream.Key == "" && !cfg.DryRun {
		log.Fatal("Critical: stream key is missing (STREAMPI_STREAM_KEY)")
	}

	return &cfg
}

// PublishURL joins the ingest endpoint and the stream key into the
// full RTMP target.
func (c *Config) PublishURL() string {
	return strings.TrimRight(c.Stream.IngestURL, "/") + "/" + c.Stream.Key
}

// RestartInterval is how long a primary stream may run before the
// supervisor rotates it.
func (c *Config) RestartInterval() time.Duration {
	return time.Duration(c.Stream.RestartIntervalSeconds) * time.Second
}

// PollInterval is the pause between liveness checks on a running stream.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Stream.PollIntervalSeconds) * time.Second
}
