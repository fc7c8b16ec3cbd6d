package delivery

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/quickbite-backend/pkg/db/models"
)

// Zone is the pricing tier resolved for a drop-off postal code.
type Zone struct {
	PostalCode         string
	Number             int
	Name               string
	BaseFee            decimal.Decimal
	PerExtraPartnerFee decimal.Decimal
	PeakSurcharge      decimal.Decimal
	TransitMinutes     int
	MaxDistanceKm      float64
}

func zoneFromModel(row models.DeliveryZone) Zone {
	return Zone{
		PostalCode:         row.PostalCode,
		Number:             row.ZoneNumber,
		Name:               row.ZoneName,
		BaseFee:            row.BaseFee,
		PerExtraPartnerFee: row.PerExtraPartnerFee,
		PeakSurcharge:      row.PeakSurcharge,
		TransitMinutes:     row.EstimatedTransitMinutes,
		MaxDistanceKm:      row.MaxDistanceKm,
	}
}

// Fee is the itemized delivery charge.
type Fee struct {
	BaseFee              decimal.Decimal
	AdditionalPartnerFee decimal.Decimal
	PeakSurcharge        decimal.Decimal
	Total                decimal.Decimal
	PartnerCount         int
	IsPeak               bool
}

// Calculate prices delivery for partnerCount distinct partners. It does no I/O.
func Calculate(partnerCount int, zone Zone, isPeak bool) Fee {
	extra := partnerCount - 1
	if extra < 0 {
		extra = 0
	}
	additional := zone.PerExtraPartnerFee.Mul(decimal.NewFromInt(int64(extra)))
	surcharge := decimal.Zero
	if isPeak {
		surcharge = zone.PeakSurcharge
	}
	return Fee{
		BaseFee:              zone.BaseFee,
		AdditionalPartnerFee: additional,
		PeakSurcharge:        surcharge,
		Total:                zone.BaseFee.Add(additional).Add(surcharge).Round(2),
		PartnerCount:         partnerCount,
		IsPeak:               isPeak,
	}
}

// EstimateMinutes is the slowest partner's prep time plus the zone's transit time.
func EstimateMinutes(prepMinutes []int, zone Zone) int {
	slowest := 0
	for _, m := range prepMinutes {
		if m > slowest {
			slowest = m
		}
	}
	return slowest + zone.TransitMinutes
}
