package model

// Quotas is a slice of Quota.
type Quotas []Quota

// Quota represents a row in quotas: running consumption against a limit for
// one (wallet, resource class, period) key. ConsumedHours is incremented as
// records are attributed and may exceed LimitHours; overage is reported, not
// blocked. LimitSet records whether a limit was ever administered: ingestion
// auto-creates rows with LimitSet false, and a row with LimitSet true and
// LimitHours zero is a hard-zero allowance, not "unlimited".
type Quota struct {
	ID            uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WalletName    string  `gorm:"column:wallet_name;uniqueIndex:uq_quota_key" json:"wallet_name"`
	ResourceType  string  `gorm:"column:resource_type;uniqueIndex:uq_quota_key" json:"resource_type"`
	Period        string  `gorm:"column:period;uniqueIndex:uq_quota_key" json:"period"`
	LimitHours    float64 `gorm:"column:limit_hours" json:"limit_hours"`
	LimitSet      bool    `gorm:"column:limit_set" json:"limit_set"`
	ConsumedHours float64 `gorm:"column:consumed_hours" json:"consumed_hours"`
}

func (Quota) TableName() string { return "quotas" }
