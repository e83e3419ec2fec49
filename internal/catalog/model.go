package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrServiceInactive = errors.New("service is not available")
	ErrProfileNotFound = errors.New("profile not found")
)

type Category string

const (
	CategoryAirtime     Category = "airtime"
	CategoryData        Category = "data"
	CategoryCableTV     Category = "cable_tv"
	CategoryElectricity Category = "electricity"
	CategoryInternet    Category = "internet"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAirtime, CategoryData, CategoryCableTV, CategoryElectricity, CategoryInternet:
		return true
	}
	return false
}

// Service is a purchasable VTU product.
type Service struct {
	ID                uuid.UUID           `db:"id" json:"id"`
	Name              string              `db:"name" json:"name"`
	OperatorName      string              `db:"operator_name" json:"operator_name"`
	Category          Category            `db:"category" json:"category"`
	CountryCode       string              `db:"country_code" json:"country_code"`
	Currency          string              `db:"currency" json:"currency"`
	Price             decimal.Decimal     `db:"price" json:"price"`
	SalePrice         decimal.NullDecimal `db:"sale_price" json:"sale_price" swaggertype:"string"`
	ProviderServiceID string              `db:"provider_service_id" json:"provider_service_id"`
	Status            bool                `db:"status" json:"status"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
}

// UnitPrice is the sale price when one is set, otherwise the list price.
func (s *Service) UnitPrice() decimal.Decimal {
	if s.SalePrice.Valid {
		return s.SalePrice.Decimal
	}
	return s.Price
}

// Profile holds the purchase-relevant part of a user profile.
type Profile struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	IsAgent             bool            `db:"is_agent" json:"is_agent"`
	AgentRateMultiplier decimal.Decimal `db:"agent_rate_multiplier" json:"agent_rate_multiplier"`
	ReferredBy          uuid.NullUUID   `db:"referred_by" json:"referred_by" swaggertype:"string"`
}

// PriceFor returns what p pays for s: the unit price, scaled by the agent
// multiplier for agents, rounded to cents.
func PriceFor(s *Service, p *Profile) decimal.Decimal {
	cost := s.UnitPrice()
	if p != nil && p.IsAgent {
		multiplier := p.AgentRateMultiplier
		if !multiplier.IsPositive() {
			multiplier = decimal.NewFromInt(1)
		}
		cost = cost.Mul(multiplier)
	}
	return cost.Round(2)
}
