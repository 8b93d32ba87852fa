package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_profiles_0001",
			"name": "profiles",
			"type": "base",
			"system": false,
			"fields": [
				{
					"id": "text_profile_name",
					"name": "full_name",
					"type": "text",
					"required": true,
					"presentable": true,
					"min": 0,
					"max": 0,
					"pattern": ""
				},
				{
					"id": "email_profile_email",
					"name": "email",
					"type": "email",
					"required": true,
					"presentable": false,
					"exceptDomains": [],
					"onlyDomains": []
				},
				{
					"id": "text_profile_student",
					"name": "student_number",
					"type": "text",
					"required": false,
					"presentable": false,
					"min": 0,
					"max": 0,
					"pattern": ""
				}
			]
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("profiles")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
