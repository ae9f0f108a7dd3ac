package config

type Config struct {
	BaseURL  string
	HttpPort int
	Db       struct {
		Dsn         string
		Automigrate bool
	}
	Jwt struct {
		SecretKey string
	}
	Notifications struct {
		Email string
	}
	Smtp struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	// Split holds the money-allocation percentages used by the settlement
	// engine. These are deliberately explicit configuration: getting any of
	// them wrong silently misallocates money, so nothing in the codebase
	// hardcodes them.
	Split struct {
		VatPercent          string
		WithholdingPercent  string
		DellalaPercent      string
		PlatformFeePercent  string
		DellalaWindowMonths int
	}
	Reconciliation struct {
		IntervalHours int
	}
	FxCacheSeconds int
	RedisServer    string
	KafkaServers   string
}
