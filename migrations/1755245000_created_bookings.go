package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

// Booking ids come from the reservation system as canonical lowercase
// UUIDs, so the primary key overrides the stock 15-char id shape.
var bookingsCollectionJSON = `{
	"id": "pbc_bookings_0001",
	"name": "bookings",
	"type": "base",
	"system": false,
	"fields": [
		{
			"id": "text_booking_pk",
			"name": "id",
			"type": "text",
			"system": true,
			"required": true,
			"presentable": false,
			"primaryKey": true,
			"min": 36,
			"max": 36,
			"pattern": "^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$",
			"autogeneratePattern": ""
		},
		{
			"id": "relation_booking_profile",
			"name": "profile",
			"type": "relation",
			"required": true,
			"presentable": false,
			"collectionId": "pbc_profiles_0001",
			"cascadeDelete": false,
			"minSelect": 0,
			"maxSelect": 1
		},
		{
			"id": "relation_booking_sport",
			"name": "sport",
			"type": "relation",
			"required": true,
			"presentable": false,
			"collectionId": "pbc_sports_0001",
			"cascadeDelete": false,
			"minSelect": 0,
			"maxSelect": 1
		},
		{
			"id": "relation_booking_slot",
			"name": "slot",
			"type": "relation",
			"required": true,
			"presentable": false,
			"collectionId": "pbc_slots_0001",
			"cascadeDelete": false,
			"minSelect": 0,
			"maxSelect": 1
		},
		{
			"id": "date_booking_date",
			"name": "booking_date",
			"type": "date",
			"required": true,
			"presentable": true,
			"min": "",
			"max": ""
		},
		{
			"id": "number_booking_seat",
			"name": "seat_number",
			"type": "number",
			"required": true,
			"presentable": false,
			"min": 1,
			"max": null,
			"onlyInt": true
		},
		{
			"id": "select_booking_status",
			"name": "status",
			"type": "select",
			"required": true,
			"presentable": true,
			"maxSelect": 1,
			"values": [
				"booked",
				"checked-in",
				"checked-out"
			]
		},
		{
			"id": "date_booking_checkin",
			"name": "checked_in_at",
			"type": "date",
			"required": false,
			"presentable": false,
			"min": "",
			"max": ""
		},
		{
			"id": "date_booking_checkout",
			"name": "checked_out_at",
			"type": "date",
			"required": false,
			"presentable": false,
			"min": "",
			"max": ""
		}
	]
}`

func init() {
	m.Register(func(app core.App) error {
		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(bookingsCollectionJSON), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
