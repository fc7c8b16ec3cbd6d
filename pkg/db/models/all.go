package models

// All lists every persisted model, in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&Partner{},
		&MenuItem{},
		&DeliveryZone{},
		&CartSession{},
		&Order{},
		&PartnerSubOrder{},
		&OrderLineItem{},
		&OrderStatusEntry{},
		&ReservationHistory{},
		&OutboxEvent{},
	}
}
