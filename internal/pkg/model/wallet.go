package model

// Wallets is a slice of Wallet.
type Wallets []Wallet

// Wallet represents a row in wallets: a funding destination usage cost is
// attributed to. Deactivating a wallet is bookkeeping only, jobs already
// attributed to it stay attributed.
type Wallet struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"column:name;uniqueIndex" json:"name"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`
	Active      bool   `gorm:"column:active;default:true" json:"active"`
}

func (Wallet) TableName() string { return "wallets" }
