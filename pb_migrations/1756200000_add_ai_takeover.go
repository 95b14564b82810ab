package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		participants, err := app.FindCollectionByNameOrId("participants")
		if err != nil {
			return err
		}

		// ai_controlled field - set while a disconnected participant is
		// played by the system
		participants.Fields.Add(&core.BoolField{
			Name:     "ai_controlled",
			Required: false,
		})

		// disconnected_seq field - event-log cursor captured when the
		// disconnect committed, used as the replay cursor on reconnection
		participants.Fields.Add(&core.NumberField{
			Name:     "disconnected_seq",
			Required: false,
			OnlyInt:  true,
		})

		return app.Save(participants)
	}, func(app core.App) error {
		participants, err := app.FindCollectionByNameOrId("participants")
		if err != nil {
			return err
		}

		participants.Fields.RemoveByName("ai_controlled")
		participants.Fields.RemoveByName("disconnected_seq")

		return app.Save(participants)
	})
}
