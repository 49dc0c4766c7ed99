package exchange

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeRecord is the database row for one exchange. The protocol
// messages travel as a JSON document; the columns queried by the history
// surface are broken out.
type ExchangeRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	ExchangeID  string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	ProviderURI string    `gorm:"type:varchar(255);not null"`
	Schema      string    `gorm:"type:varchar(255);not null"`
	Status      string    `gorm:"type:varchar(16);index;not null"`
	Rating      int
	Document    []byte `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for the ExchangeRecord model.
func (ExchangeRecord) TableName() string {
	return "exchange_records"
}
