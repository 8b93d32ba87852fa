package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_slots_0001",
			"name": "slots",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "relation_slot_sport",
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
					"id": "text_slot_start",
					"name": "start_time",
					"type": "text",
					"required": true,
					"presentable": true,
					"min": 5,
					"max": 5,
					"pattern": "^\\d{2}:\\d{2}$"
				},
				{
					"id": "text_slot_end",
					"name": "end_time",
					"type": "text",
					"required": true,
					"presentable": true,
					"min": 5,
					"max": 5,
					"pattern": "^\\d{2}:\\d{2}$"
				},
				{
					"id": "number_slot_seats",
					"name": "total_seats",
					"type": "number",
					"required": true,
					"presentable": false,
					"min": 1,
					"max": null,
					"onlyInt": true
				}
			]
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("slots")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
