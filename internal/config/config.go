package config

import "github.com/spf13/viper"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	WhatsApp struct {
		BaseURL         string   `mapstructure:"base_url"`
		APIKey          string   `mapstructure:"api_key"`
		Session         string   `mapstructure:"session"`
		AllowedSessions []string `mapstructure:"allowed_sessions"`
		AllowedGroups   []string `mapstructure:"allowed_groups"`
		AllowPrivate    bool     `mapstructure:"allow_private_chats"`
		IgnoredContacts []string `mapstructure:"ignored_contacts"`
		TranscribeSecs  int      `mapstructure:"transcribe_timeout_secs"`
		AudioBatchSecs  int      `mapstructure:"audio_batch_secs"`
	} `mapstructure:"whatsapp"`

	Data struct {
		MaterialsDir string `mapstructure:"materials_dir"`
		StockDir     string `mapstructure:"stock_dir"`
		StateDir     string `mapstructure:"state_dir"`
		ReportsDir   string `mapstructure:"reports_dir"`
	} `mapstructure:"data"`

	Alerts struct {
		Recipients []string `mapstructure:"recipients"`
		Hour       int      `mapstructure:"hour"`
		DefaultMin int      `mapstructure:"default_min_quantity"`
	} `mapstructure:"alerts"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":3000")
	v.SetDefault("alerts.hour", 8)
	v.SetDefault("alerts.default_min_quantity", 5)
	v.SetDefault("whatsapp.audio_batch_secs", 5)
	v.SetDefault("whatsapp.transcribe_timeout_secs", 120)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
