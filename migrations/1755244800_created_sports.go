package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_sports_0001",
			"name": "sports",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_sport_name",
					"name": "name",
					"type": "text",
					"required": true,
					"presentable": true,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "text_sport_venue",
					"name": "venue",
					"type": "text",
					"required": false,
					"presentable": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "number_sport_capacity",
					"name": "capacity",
					"type": "number",
					"required": false,
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
		collection, err := app.FindCollectionByNameOrId("sports")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
