package shared

type ServerConfig struct {
	Sqlite     SqliteConfig     `mapstructure:"sqlite" validate:"required"`
	CrisisLink CrisisLinkConfig `mapstructure:"crisislink" validate:"required"`
	Twilio     TwilioConfig     `mapstructure:"twilio"`
	Google     GoogleConfig     `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type CrisisLinkConfig struct {
	PrivateKeyPem string         `mapstructure:"privateKeyPem" validate:"required"`
	Cron          CronConfig     `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig `mapstructure:"listener" validate:"required"`

	// EmergencyURLBase is the public domain emergency links & QR codes
	// point at e.g. "crisislink.cv".
	EmergencyURLBase string `mapstructure:"emergencyUrlBase" validate:"required"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type StorageConfig struct {
	Bucket                    string `mapstructure:"bucket"`
	Prefix                    string `mapstructure:"prefix"`
	SqliteBackupSchedule      string `mapstructure:"sqliteBackupSchedule"`
	EnableSqliteBackupAndSync bool   `mapstructure:"enableSqliteBackupAndSync"`
}
