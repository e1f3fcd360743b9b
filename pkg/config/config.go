package config

// Config is the engine part of the display configuration, flattened from env by viper.
type Config struct {
	Env   string `mapstructure:"APP_ENV"`
	Debug bool   `mapstructure:"APP_DEBUG"`

	Cache    `mapstructure:",squash"`
	Storage  `mapstructure:",squash"`
	Offline  `mapstructure:",squash"`
	Network  `mapstructure:",squash"`
	Carousel `mapstructure:",squash"`
	Prayer   `mapstructure:",squash"`
	Perf     `mapstructure:",squash"`
	Backend  `mapstructure:",squash"`
}

func (c *Config) IsDebugOn() bool {
	return c.Debug
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// Normalize replaces zero values with defaults in every section.
func (c *Config) Normalize() *Config {
	c.Cache.Normalize()
	c.Storage.Normalize()
	c.Offline.Normalize()
	c.Network.Normalize()
	c.Carousel.Normalize()
	c.Prayer.Normalize()
	c.Perf.Normalize()
	c.Backend.Normalize()
	c.Cache.Debug = c.Cache.Debug || c.Debug
	return c
}
