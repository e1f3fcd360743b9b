package config

type Storage struct {
	// StorageDriver selects the durable backend: memory | file | sqlite.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	// StoragePath is a directory for the file driver and a database file for sqlite.
	StoragePath string `mapstructure:"STORAGE_PATH"`
}

func (c *Storage) Normalize() {
	if c.StorageDriver == "" {
		c.StorageDriver = "file"
	}
	if c.StoragePath == "" {
		switch c.StorageDriver {
		case "sqlite":
			c.StoragePath = "public/dump/display.db"
		default:
			c.StoragePath = "public/dump"
		}
	}
}
